package codegen

import (
	"basicc/compiler/ast"
	"basicc/compiler/symbols"
)

type intrinsicFn func(fg *funcGen, args []ast.Expression) value

// intrinsics is filled from intrinsicTable in init: the table's lowerings
// reach emitCall, which reads intrinsics, so a direct initializer would
// form an initialization cycle.
var intrinsics map[string]intrinsicFn

func init() { intrinsics = intrinsicTable }

// intrinsicTable maps each built-in function's uppercased name to its lowering.
// Every entry lowers straight to a runtime call; the runtime owns string
// encoding, bounds, and locale concerns so this table stays mechanical.
var intrinsicTable = map[string]intrinsicFn{
	"LEN":     intrinStrToInt("rt_len"),
	"ASC":     intrinStrToInt("rt_asc"),
	"CHR$":    intrinIntToStr("rt_chr"),
	"VAL":     intrinStrToDouble("rt_val"),
	"STR$":    intrinNumToStr("rt_str"),
	"UCASE$":  intrinStrToStr("rt_ucase"),
	"LCASE$":  intrinStrToStr("rt_lcase"),
	"TRIM$":   intrinStrToStr("rt_trim"),
	"LTRIM$":  intrinStrToStr("rt_ltrim"),
	"RTRIM$":  intrinStrToStr("rt_rtrim"),
	"SPACE$":  intrinIntToStr("rt_space"),
	"SGN":     intrinNumUnary("rt_sgn", symbols.TypeInteger),
	"FIX":     intrinNumUnary("rt_fix", symbols.TypeLong),
	"INT":     intrinNumUnary("rt_int_floor", symbols.TypeLong),
	"CINT":    intrinNumUnary("rt_cint", symbols.TypeInteger),
	"ABS":     intrinAbs,
	"RND":     intrinRnd,
	"CSRLIN":  intrinNiladicInt("rt_csrlin"),
	"POS":     intrinNiladicInt("rt_pos"),
	"ERR":     intrinNiladicInt("rt_err"),
	"ERL":     intrinNiladicInt("rt_erl"),
	"LEFT$":   intrinStrIntToStr("rt_left"),
	"RIGHT$":  intrinStrIntToStr("rt_right"),
	"STRING$": intrinIntStrToStr("rt_string_rep"),
	"MID$":    intrinMid,
	"INSTR":   intrinInstr,
	"MIN":     intrinMinMax("rt_min_d", "rt_min_i"),
	"MAX":     intrinMinMax("rt_max_d", "rt_max_i"),
}

func (fg *funcGen) arg(args []ast.Expression, i int) value {
	if i >= len(args) {
		t := fg.newTemp()
		fg.emit("%s =l copy 0", t)
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeInteger}
	}
	return fg.emitExpr(args[i])
}

func intrinStrToInt(rt string) intrinsicFn {
	return func(fg *funcGen, args []ast.Expression) value {
		s := fg.arg(args, 0)
		t := fg.newTemp()
		fg.emit("%s =l call $%s(l %s)", t, rt, s.Name)
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeInteger}
	}
}

func intrinStrToDouble(rt string) intrinsicFn {
	return func(fg *funcGen, args []ast.Expression) value {
		s := fg.arg(args, 0)
		t := fg.newTemp()
		fg.emit("%s =d call $%s(l %s)", t, rt, s.Name)
		return value{Name: t, QBE: symbols.QBEDouble, Sem: symbols.TypeDouble}
	}
}

func intrinStrToStr(rt string) intrinsicFn {
	return func(fg *funcGen, args []ast.Expression) value {
		s := fg.arg(args, 0)
		t := fg.newTemp()
		fg.emit("%s =l call $%s(l %s)", t, rt, s.Name)
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeString}
	}
}

func intrinIntToStr(rt string) intrinsicFn {
	return func(fg *funcGen, args []ast.Expression) value {
		n := fg.promote(fg.arg(args, 0), symbols.TypeLong)
		t := fg.newTemp()
		fg.emit("%s =l call $%s(l %s)", t, rt, n.Name)
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeString}
	}
}

func intrinNumToStr(rt string) intrinsicFn {
	return func(fg *funcGen, args []ast.Expression) value {
		n := fg.promote(fg.arg(args, 0), symbols.TypeDouble)
		t := fg.newTemp()
		fg.emit("%s =l call $%s(d %s)", t, rt, n.Name)
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeString}
	}
}

func intrinNumUnary(rt string, resultSem symbols.VariableType) intrinsicFn {
	return func(fg *funcGen, args []ast.Expression) value {
		n := fg.promote(fg.arg(args, 0), symbols.TypeDouble)
		t := fg.newTemp()
		qbe := naturalQBE(resultSem)
		fg.emit("%s =%s call $%s(d %s)", t, qbe, rt, n.Name)
		return value{Name: t, QBE: qbe, Sem: resultSem}
	}
}

func intrinNiladicInt(rt string) intrinsicFn {
	return func(fg *funcGen, args []ast.Expression) value {
		t := fg.newTemp()
		fg.emit("%s =l call $%s()", t, rt)
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeInteger}
	}
}

func intrinAbs(fg *funcGen, args []ast.Expression) value {
	v := fg.arg(args, 0)
	t := fg.newTemp()
	if isFloat(v.Sem) {
		fg.emit("%s =%s call $rt_abs_d(%s %s)", t, v.QBE, v.QBE, v.Name)
	} else {
		fg.emit("%s =l call $rt_abs_i(l %s)", t, v.Name)
	}
	return value{Name: t, QBE: v.QBE, Sem: v.Sem}
}

func intrinRnd(fg *funcGen, args []ast.Expression) value {
	t := fg.newTemp()
	fg.emit("%s =d call $rt_rnd()", t)
	return value{Name: t, QBE: symbols.QBEDouble, Sem: symbols.TypeDouble}
}

func intrinStrIntToStr(rt string) intrinsicFn {
	return func(fg *funcGen, args []ast.Expression) value {
		s := fg.arg(args, 0)
		n := fg.promote(fg.arg(args, 1), symbols.TypeLong)
		t := fg.newTemp()
		fg.emit("%s =l call $%s(l %s, l %s)", t, rt, s.Name, n.Name)
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeString}
	}
}

func intrinIntStrToStr(rt string) intrinsicFn {
	return func(fg *funcGen, args []ast.Expression) value {
		n := fg.promote(fg.arg(args, 0), symbols.TypeLong)
		s := fg.arg(args, 1)
		t := fg.newTemp()
		fg.emit("%s =l call $%s(l %s, l %s)", t, rt, n.Name, s.Name)
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeString}
	}
}

func intrinMid(fg *funcGen, args []ast.Expression) value {
	s := fg.arg(args, 0)
	start := fg.promote(fg.arg(args, 1), symbols.TypeLong)
	t := fg.newTemp()
	if len(args) >= 3 {
		length := fg.promote(fg.arg(args, 2), symbols.TypeLong)
		fg.emit("%s =l call $rt_mid(l %s, l %s, l %s)", t, s.Name, start.Name, length.Name)
	} else {
		fg.emit("%s =l call $rt_mid_rest(l %s, l %s)", t, s.Name, start.Name)
	}
	return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeString}
}

func intrinInstr(fg *funcGen, args []ast.Expression) value {
	hay := fg.arg(args, 0)
	needle := fg.arg(args, 1)
	start := value{Name: "1", QBE: symbols.QBELong, Sem: symbols.TypeLong}
	if len(args) >= 3 {
		start = fg.promote(fg.arg(args, 2), symbols.TypeLong)
	}
	t := fg.newTemp()
	fg.emit("%s =l call $rt_instr(l %s, l %s, l %s)", t, hay.Name, needle.Name, start.Name)
	return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeInteger}
}

func intrinMinMax(doubleRt, intRt string) intrinsicFn {
	return func(fg *funcGen, args []ast.Expression) value {
		a := fg.arg(args, 0)
		b := fg.arg(args, 1)
		if isFloat(a.Sem) || isFloat(b.Sem) {
			a = fg.promote(a, symbols.TypeDouble)
			b = fg.promote(b, symbols.TypeDouble)
			t := fg.newTemp()
			fg.emit("%s =d call $%s(d %s, d %s)", t, doubleRt, a.Name, b.Name)
			return value{Name: t, QBE: symbols.QBEDouble, Sem: symbols.TypeDouble}
		}
		t := fg.newTemp()
		fg.emit("%s =l call $%s(l %s, l %s)", t, intRt, a.Name, b.Name)
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeInteger}
	}
}
