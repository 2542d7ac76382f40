package codegen

import (
	"strings"

	"basicc/compiler/ast"
	"basicc/compiler/symbols"
)

// emitCall dispatches a FunctionCall expression to either a built-in
// intrinsic (matched case-insensitively per §4.2.2's dispatch table) or a
// user FUNCTION/DEF FN, resolved through the symbol table.
func (fg *funcGen) emitCall(c *ast.FunctionCall) value {
	upper := strings.ToUpper(c.Name)
	if fn, ok := intrinsics[upper]; ok {
		return fn(fg, c.Arguments)
	}

	fs := fg.symTable.LookupFunction(c.Name)
	if fs == nil {
		fg.errs = append(fg.errs, newGenError(ErrUnresolvedCall, c.Loc.Line, c.Name))
		t := fg.newTemp()
		fg.emit("%s =l copy 0", t)
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeDouble}
	}

	args := fg.emitArgs(c.Arguments, fs.Parameters)
	t := fg.newTemp()
	qbe := naturalQBE(fs.ReturnType)
	fg.emit("%s =%s call $%s(%s)", t, qbe, fs.Name, args)
	return value{Name: t, QBE: qbe, Sem: fs.ReturnType}
}

// emitCallStatement lowers a statement-position SUB/FUNCTION invocation,
// discarding any return value.
func (fg *funcGen) emitCallStatement(c *ast.Call) {
	fs := fg.symTable.LookupFunction(c.Name)
	if fs == nil {
		fg.errs = append(fg.errs, newGenError(ErrUnresolvedCall, c.Loc.Line, c.Name))
		return
	}
	args := fg.emitArgs(c.Arguments, fs.Parameters)
	if fs.IsSub {
		fg.emit("call $%s(%s)", fs.Name, args)
		return
	}
	t := fg.newTemp()
	fg.emit("%s =%s call $%s(%s)", t, naturalQBE(fs.ReturnType), fs.Name, args)
}

func (fg *funcGen) emitArgs(args []ast.Expression, params []*symbols.VariableSymbol) string {
	parts := make([]string, len(args))
	for i, a := range args {
		v := fg.emitExpr(a)
		if i < len(params) {
			v = fg.promote(v, params[i].Type)
		}
		parts[i] = string(v.QBE) + " " + v.Name
	}
	return strings.Join(parts, ", ")
}
