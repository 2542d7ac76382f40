package codegen

import (
	"strconv"

	"basicc/compiler/ast"
	"basicc/compiler/symbols"
)

func toBinaryKind(op ast.BinaryOp) binaryKind {
	switch op {
	case ast.OpAdd:
		return binAdd
	case ast.OpSub:
		return binSub
	case ast.OpMul:
		return binMul
	case ast.OpDiv:
		return binDiv
	case ast.OpIntDiv:
		return binIntDiv
	case ast.OpMod:
		return binMod
	case ast.OpAnd:
		return binAnd
	case ast.OpOr:
		return binOr
	case ast.OpXor:
		return binXor
	case ast.OpEqv:
		return binEqv
	case ast.OpImp:
		return binImp
	case ast.OpEq:
		return binEq
	case ast.OpNe:
		return binNe
	case ast.OpLt:
		return binLt
	case ast.OpLe:
		return binLe
	case ast.OpGt:
		return binGt
	default:
		return binGe
	}
}

// emitExpr lowers an expression bottom-up into a fresh SSA temp, per §4.2.2.
func (fg *funcGen) emitExpr(e ast.Expression) value {
	switch ex := e.(type) {
	case *ast.Number:
		return fg.emitNumberLiteral(ex)
	case *ast.String:
		return fg.emitStringLiteral(ex.Value)
	case *ast.Variable:
		return fg.loadVariable(ex.Name)
	case *ast.ArrayAccess:
		return fg.loadArrayElement(ex)
	case *ast.MemberAccess:
		return fg.loadMember(ex)
	case *ast.Binary:
		return fg.emitBinary(ex)
	case *ast.Unary:
		return fg.emitUnary(ex)
	case *ast.FunctionCall:
		return fg.emitCall(ex)
	case *ast.IIF:
		return fg.emitIIF(ex)
	default:
		t := fg.newTemp()
		fg.emit("%s =l copy 0", t)
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeInteger}
	}
}

func (fg *funcGen) emitNumberLiteral(n *ast.Number) value {
	if n.IsInt {
		t := fg.newTemp()
		fg.emit("%s =l copy %d", t, int64(n.Value))
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeInteger}
	}
	t := fg.newTemp()
	fg.emit("%s =d copy d_%s", t, strconv.FormatFloat(n.Value, 'g', -1, 64))
	return value{Name: t, QBE: symbols.QBEDouble, Sem: symbols.TypeDouble}
}

func (fg *funcGen) emitBinary(b *ast.Binary) value {
	op := toBinaryKind(b.Op)

	left := fg.emitExpr(b.Left)
	right := fg.emitExpr(b.Right)

	if op == binAdd && left.Sem == symbols.TypeString && right.Sem == symbols.TypeString {
		t := fg.newTemp()
		fg.emit("%s =l call $str_concat(l %s, l %s)", t, left.Name, right.Name)
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeString}
	}

	result := resultType(op, left.Sem, right.Sem)
	opWidth := naturalQBE(result)
	if isComparison(op) {
		opWidth = naturalQBE(left.Sem)
		if naturalQBE(right.Sem) == symbols.QBEDouble {
			opWidth = symbols.QBEDouble
		}
	}

	l := fg.promote(left, widthSem(opWidth))
	r := fg.promote(right, widthSem(opWidth))

	t := fg.newTemp()
	switch {
	case isComparison(op):
		fg.emit("%s =w %s%s %s, %s", t, compOp(op), compPrefix(opWidth), l.Name, r.Name)
		return value{Name: t, QBE: symbols.QBEWord, Sem: symbols.TypeInteger}
	case op == binEqv:
		// NOT(A XOR B)
		x := fg.newTemp()
		fg.emit("%s =%s xor %s, %s", x, opWidth, l.Name, r.Name)
		fg.emit("%s =w ceq%s %s, 0", t, compPrefix(opWidth), x)
		return value{Name: t, QBE: symbols.QBEWord, Sem: symbols.TypeInteger}
	case op == binImp:
		// NOT(A) OR B
		notL := fg.newTemp()
		fg.emit("%s =w ceq%s %s, 0", notL, compPrefix(opWidth), l.Name)
		wide := fg.newTemp()
		fg.emit("%s =%s extuw %s", wide, opWidth, notL)
		fg.emit("%s =%s or %s, %s", t, opWidth, wide, r.Name)
		return value{Name: t, QBE: opWidth, Sem: result}
	default:
		fg.emit("%s =%s %s %s, %s", t, opWidth, arithOp(op, opWidth), l.Name, r.Name)
		return value{Name: t, QBE: opWidth, Sem: result}
	}
}

// widthSem picks a representative semantic type for a QBE width, used only
// to drive promote() towards the width a binary op's shared operand type
// needs — the Sem field of the result is overwritten by the caller.
func widthSem(w symbols.QBEType) symbols.VariableType {
	switch w {
	case symbols.QBEDouble:
		return symbols.TypeDouble
	case symbols.QBESingle:
		return symbols.TypeSingle
	default:
		return symbols.TypeInteger
	}
}

func arithOp(op binaryKind, w symbols.QBEType) string {
	switch op {
	case binAdd:
		return "add"
	case binSub:
		return "sub"
	case binMul:
		return "mul"
	case binDiv:
		return "div"
	case binIntDiv:
		return "div"
	case binMod:
		return "rem"
	case binAnd:
		return "and"
	case binOr:
		return "or"
	case binXor:
		return "xor"
	default:
		return "add"
	}
}

// compPrefix gives the width suffix QBE's c<op><ty> comparison mnemonics
// require; unlike arithmetic opcodes, comparisons always need one.
func compPrefix(w symbols.QBEType) string {
	switch w {
	case symbols.QBEDouble:
		return "d"
	case symbols.QBESingle:
		return "s"
	case symbols.QBEWord:
		return "w"
	default:
		return "l"
	}
}

func compOp(op binaryKind) string {
	switch op {
	case binEq:
		return "ceq"
	case binNe:
		return "cne"
	case binLt:
		return "cslt"
	case binLe:
		return "csle"
	case binGt:
		return "csgt"
	default:
		return "csge"
	}
}

func (fg *funcGen) emitUnary(u *ast.Unary) value {
	v := fg.emitExpr(u.Expr)
	switch u.Op {
	case ast.OpNot:
		t := fg.newTemp()
		fg.emit("%s =w ceq%s %s, 0", t, compPrefix(v.QBE), v.Name)
		return value{Name: t, QBE: symbols.QBEWord, Sem: symbols.TypeInteger}
	case ast.OpNegate:
		t := fg.newTemp()
		fg.emit("%s =%s neg %s", t, v.QBE, v.Name)
		return value{Name: t, QBE: v.QBE, Sem: v.Sem}
	default: // OpPlus
		return v
	}
}

func (fg *funcGen) emitIIF(i *ast.IIF) value {
	cond := fg.emitExpr(i.Cond)
	tLabel := fg.newLabel("iif_true")
	fLabel := fg.newLabel("iif_false")
	endLabel := fg.newLabel("iif_end")

	fg.emit("jnz %s, %s, %s", cond.Name, atLabel(tLabel), atLabel(fLabel))
	fg.label(tLabel)
	tv := fg.emitExpr(i.TrueVal)
	fg.emit("jmp %s", atLabel(endLabel))
	fg.label(fLabel)
	fv := fg.emitExpr(i.FalseVal)
	fv = fg.promote(fv, tv.Sem)
	fg.emit("jmp %s", atLabel(endLabel))
	fg.label(endLabel)

	result := fg.newTemp()
	fg.emit("%s =%s phi %s %s, %s %s", result, tv.QBE,
		atLabel(tLabel), tv.Name, atLabel(fLabel), fv.Name)

	return value{Name: result, QBE: tv.QBE, Sem: tv.Sem}
}
