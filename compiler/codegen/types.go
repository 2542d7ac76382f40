package codegen

import "basicc/compiler/symbols"

// resultType implements §4.2.2's binary-operator result-type table: string
// concatenation and arithmetic/division/comparison each have their own
// rule, and everything else falls to "double dominates".
func resultType(op binaryKind, left, right symbols.VariableType) symbols.VariableType {
	switch op {
	case binAdd:
		if left == symbols.TypeString && right == symbols.TypeString {
			return symbols.TypeString
		}
	case binDiv:
		return symbols.TypeDouble
	case binIntDiv, binMod, binAnd, binOr, binXor, binEqv, binImp,
		binEq, binNe, binLt, binLe, binGt, binGe:
		return symbols.TypeInteger
	}
	if left == symbols.TypeInteger && right == symbols.TypeInteger {
		return symbols.TypeInteger
	}
	return symbols.TypeDouble
}

// binaryKind mirrors ast.BinaryOp but keeps this package's type-inference
// table independent of the AST's exact enum values.
type binaryKind int

const (
	binAdd binaryKind = iota
	binSub
	binMul
	binDiv
	binIntDiv
	binMod
	binAnd
	binOr
	binXor
	binEqv
	binImp
	binEq
	binNe
	binLt
	binLe
	binGt
	binGe
)

// isComparison reports whether op always yields a w-width boolean,
// regardless of its operands' semantic type.
func isComparison(op binaryKind) bool {
	switch op {
	case binEq, binNe, binLt, binLe, binGt, binGe:
		return true
	default:
		return false
	}
}

// naturalQBE is the width an expression of the given semantic type carries
// while it's live in a temp. It is the same mapping as
// symbols.StorageQBEType. Only comparison-style results (comparisons, NOT,
// EQV and the FOR/SELECT/GOSUB tests) are produced as w, at their own call
// site; intrinsics return their results at this width.
func naturalQBE(t symbols.VariableType) symbols.QBEType {
	return symbols.StorageQBEType(t)
}

// promote converts v from its current (QBE, Sem) pair to toSem, emitting
// the extension/truncation/float-conversion instructions §4.2.2 specifies.
// A same-width conversion (e.g. INTEGER -> LONG, both l) is a no-op.
func (fg *funcGen) promote(v value, toSem symbols.VariableType) value {
	toQBE := naturalQBE(toSem)
	if v.Sem == toSem || v.QBE == toQBE {
		return value{Name: v.Name, QBE: toQBE, Sem: toSem}
	}

	fromNumeric := v.Sem != symbols.TypeString && v.Sem != symbols.TypeUserDefined
	toNumeric := toSem != symbols.TypeString && toSem != symbols.TypeUserDefined
	if !fromNumeric || !toNumeric {
		return value{Name: v.Name, QBE: toQBE, Sem: toSem}
	}

	switch {
	case isFloat(toSem) && !isFloat(v.Sem):
		return fg.intToFloat(v, toSem)
	case !isFloat(toSem) && isFloat(v.Sem):
		return fg.floatToInt(v, toSem)
	case isFloat(toSem) && isFloat(v.Sem):
		return fg.floatToFloat(v, toSem)
	default:
		return fg.intToInt(v, toSem)
	}
}

func isFloat(t symbols.VariableType) bool {
	return t == symbols.TypeSingle || t == symbols.TypeDouble
}

func (fg *funcGen) intToFloat(v value, toSem symbols.VariableType) value {
	op := "sltof"
	dstQBE := symbols.QBEDouble
	if toSem == symbols.TypeSingle {
		dstQBE = symbols.QBESingle
	}
	src := v
	if v.QBE == symbols.QBEWord {
		wide := fg.newTemp()
		fg.emit("%s =l extsw %s", wide, v.Name)
		src = value{Name: wide, QBE: symbols.QBELong}
	}
	t := fg.newTemp()
	fg.emit("%s =%s %s %s", t, dstQBE, op, src.Name)
	return value{Name: t, QBE: dstQBE, Sem: toSem}
}

func (fg *funcGen) floatToInt(v value, toSem symbols.VariableType) value {
	op := "dtosi"
	if v.QBE == symbols.QBESingle {
		op = "stosi"
	}
	t := fg.newTemp()
	fg.emit("%s =l %s %s", t, op, v.Name)
	return value{Name: t, QBE: symbols.QBELong, Sem: toSem}
}

func (fg *funcGen) floatToFloat(v value, toSem symbols.VariableType) value {
	if toSem == symbols.TypeSingle && v.QBE == symbols.QBEDouble {
		t := fg.newTemp()
		fg.emit("%s =s truncd %s", t, v.Name)
		return value{Name: t, QBE: symbols.QBESingle, Sem: toSem}
	}
	if toSem == symbols.TypeDouble && v.QBE == symbols.QBESingle {
		t := fg.newTemp()
		fg.emit("%s =d exts %s", t, v.Name)
		return value{Name: t, QBE: symbols.QBEDouble, Sem: toSem}
	}
	return value{Name: v.Name, QBE: v.QBE, Sem: toSem}
}

func (fg *funcGen) intToInt(v value, toSem symbols.VariableType) value {
	return value{Name: v.Name, QBE: naturalQBE(toSem), Sem: toSem}
}
