package codegen

import (
	"fmt"
	"strings"

	"basicc/compiler/ast"
	"basicc/compiler/cfgbuild"
	"basicc/compiler/symbols"
)

// emitStatement lowers one straight-line statement. Most statements that
// only exist to shape the CFG (If/While/Wend/Do/Loop/Repeat/Until/Case/
// TryCatch/Goto/Gosub/OnGoto/OnGosub/Label) carry no code of their own
// here; the block terminator driver in codegen.go reads them directly off
// the block's last statement to choose how the block closes. For carries
// its one-time init through the terminator driver too (see emitForInit),
// but Next's per-iteration increment runs here like any other statement.
func (fg *funcGen) emitStatement(ref cfgbuild.StmtRef) {
	switch st := ref.Stmt.(type) {
	case *ast.Print:
		fg.emitPrint(st)
	case *ast.Input:
		fg.emitInput(st)
	case *ast.Let:
		fg.emitLet(st)
	case *ast.Dim:
		fg.emitDim(st)
	case *ast.Local:
		for _, n := range st.Names {
			fg.locals[n] = true
		}
	case *ast.Shared:
		for _, n := range st.Names {
			fg.shared[n] = true
		}
	case *ast.Rem:
		fg.comment("%s", st.Text)
	case *ast.Call:
		fg.emitCallStatement(st)
	case *ast.Throw:
		v := fg.emitExpr(st.Expr)
		fg.emit("call $rt_throw(l %s)", v.Name)
	case *ast.Return:
		fg.emitReturn(st)
	case *ast.Next:
		fg.emitNext(st)
	case *ast.Exit:
		// handled by the terminator driver; the successor edge already
		// points past the construct being exited.
	case *ast.End:
		fg.emit("jmp %s", fg.exitLabel)
	default:
		// If/For/While/Wend/Do/Loop/Repeat/Until/Case/TryCatch/Goto/
		// Gosub/OnGoto/OnGosub/Label/Function/Sub/Def: no code.
	}
}

func (fg *funcGen) emitPrint(p *ast.Print) {
	for _, item := range p.Items {
		v := fg.emitExpr(item.Expr)
		fg.emitPrintValue(v)
		switch item.Sep {
		case ast.SepComma:
			fg.emit(`call $rt_print_tab()`)
		case ast.SepSemicolon:
			// no separator text
		}
	}
	if !p.SuppressNewline {
		fg.emit(`call $rt_print_newline()`)
	}
}

func (fg *funcGen) emitPrintValue(v value) {
	switch v.Sem {
	case symbols.TypeString:
		fg.emit("call $rt_print_str(l %s)", v.Name)
	case symbols.TypeSingle, symbols.TypeDouble:
		fg.emit("call $rt_print_double(d %s)", v.Name)
	default:
		fg.emit("call $rt_print_int(l %s)", v.Name)
	}
}

func (fg *funcGen) emitInput(in *ast.Input) {
	if in.Prompt != nil {
		p := fg.emitExpr(in.Prompt)
		fg.emitPrintValue(p)
	}
	for _, target := range in.Targets {
		sem := fg.targetSemType(target)
		t := fg.newTemp()
		switch sem {
		case symbols.TypeString:
			fg.emit("%s =l call $rt_input_str()", t)
		case symbols.TypeSingle, symbols.TypeDouble:
			fg.emit("%s =d call $rt_input_double()", t)
		default:
			fg.emit("%s =l call $rt_input_int()", t)
		}
		fg.storeTarget(target, value{Name: t, QBE: naturalQBE(sem), Sem: sem})
	}
}

func (fg *funcGen) targetSemType(e ast.Expression) symbols.VariableType {
	switch t := e.(type) {
	case *ast.Variable:
		if sym := fg.symTable.LookupVariable(t.Name); sym != nil {
			return sym.Type
		}
	case *ast.ArrayAccess:
		if sym := fg.symTable.LookupArray(t.Name); sym != nil {
			return sym.ElementType
		}
	case *ast.MemberAccess:
		_, sem := fg.memberAddr(t)
		return sem
	}
	return symbols.TypeDouble
}

func (fg *funcGen) emitLet(l *ast.Let) {
	v := fg.emitExpr(l.Value)
	fg.storeTarget(l.Target, v)
}

func (fg *funcGen) storeTarget(target ast.Expression, v value) {
	switch t := target.(type) {
	case *ast.Variable:
		sem := fg.targetSemType(t)
		fg.storeVariable(t.Name, fg.promote(v, sem))
	case *ast.ArrayAccess:
		sem := fg.targetSemType(t)
		fg.storeArrayElement(t, fg.promote(v, sem))
	case *ast.MemberAccess:
		_, sem := fg.memberAddr(t)
		fg.storeMember(t, fg.promote(v, sem))
	}
}

// emitDim lowers DIM by handing the runtime every dimension's size
// separately via array_create, rather than pre-multiplying them into one
// flat capacity: the runtime stores each dimension's size in the array's
// descriptor so a later array_get_*/array_set_* can compute the correct
// row-major element offset from the indices it's given.
func (fg *funcGen) emitDim(d *ast.Dim) {
	for _, decl := range d.Arrays {
		var args strings.Builder
		fmt.Fprintf(&args, "w %d", len(decl.Dims))
		for _, dim := range decl.Dims {
			v := fg.promote(fg.emitExpr(dim), symbols.TypeLong)
			fmt.Fprintf(&args, ", l %s", v.Name)
		}
		fg.emit("%%arr_%s =l call $array_create(%s)", sanitize(decl.Name), args.String())
	}
}

// emitReturn implements both RETURN forms: bare RETURN pops the runtime
// return stack and dispatches to whichever GOSUB call site pushed it,
// RETURN expr sets the FUNCTION/DEF FN result before falling to @exit.
func (fg *funcGen) emitReturn(r *ast.Return) {
	if r.Expr != nil {
		v := fg.promote(fg.emitExpr(r.Expr), fg.cfg.ReturnType)
		fg.emit("%%retval =%s copy %s", v.QBE, v.Name)
		fg.emit("jmp %s", fg.exitLabel)
		return
	}
	fg.emitGosubReturn()
}
