package codegen

import (
	"fmt"
	"strings"

	"basicc/compiler/ast"
	"basicc/compiler/symbols"
)

// loadVariable resolves a scalar reference using §4.2.4's precedence: an
// active FOR loop variable of the same name shadows everything else, then
// function parameter/LOCAL/SHARED, then the global vector. A name the
// symbol table never saw also gets a global-vector slot, typed DOUBLE;
// there is no local fallback.
func (fg *funcGen) loadVariable(name string) value {
	if fg.activeForVars != nil && fg.activeForVars[name] {
		return fg.loadLocalSlot("var_"+sanitize(name), fg.forVarType(name))
	}

	if fg.cfg.FunctionName != "" {
		if v := fg.resolveFunctionScoped(name); v != nil {
			return *v
		}
	}

	sym := fg.symTable.LookupVariable(name)
	sem := symbols.TypeDouble
	if sym != nil {
		sem = sym.Type
	}
	return fg.loadGlobal(name, sem)
}

// resolveFunctionScoped implements §4.2.4 step 2: DEF-FN/FUNCTION/SUB
// parameters and LOCAL names stay in SSA temps; SHARED and undeclared
// names fall through to the global vector (nil return).
func (fg *funcGen) resolveFunctionScoped(name string) *value {
	for _, p := range fg.cfg.Parameters {
		if p == name {
			sem := symbols.TypeDouble
			for i, pn := range fg.cfg.Parameters {
				if pn == name && i < len(fg.cfg.ParameterTypes) {
					sem = fg.cfg.ParameterTypes[i]
				}
			}
			v := value{Name: "%" + sanitize(name), QBE: naturalQBE(sem), Sem: sem}
			return &v
		}
	}
	if fg.locals[name] {
		sym := fg.symTable.LookupVariableLocal(name)
		sem := symbols.TypeDouble
		if sym != nil {
			sem = sym.Type
		}
		v := fg.loadLocalSlot("local_"+sanitize(name), sem)
		return &v
	}
	// SHARED or undeclared: fall through to the global vector.
	return nil
}

func (fg *funcGen) loadLocalSlot(slotName string, sem symbols.VariableType) value {
	t := fg.newTemp()
	qbe := naturalQBE(sem)
	fg.emit("%s =%s copy %%%s", t, qbe, slotName)
	return value{Name: t, QBE: qbe, Sem: sem}
}

func (fg *funcGen) forVarType(name string) symbols.VariableType {
	if sym := fg.symTable.LookupVariable(name); sym != nil {
		return sym.Type
	}
	return symbols.TypeDouble
}

// loadGlobal implements §4.2.4 step 4: the global vector is one data
// symbol of N*8 zero bytes; each variable gets a statically assigned slot,
// and every reference reloads through a fresh cache temp.
func (fg *funcGen) loadGlobal(name string, sem symbols.VariableType) value {
	slot := fg.globalSlot(name)
	addr := fg.newTemp()
	fg.emit("%s =l add $__global_vector, %d", addr, slot*8)
	t := fg.newTemp()
	qbe := naturalQBE(sem)
	fg.emit("%s =%s %s %s", t, qbe, loadOp(qbe), addr)
	return value{Name: t, QBE: qbe, Sem: sem}
}

func (fg *funcGen) storeGlobal(name string, v value) {
	slot := fg.globalSlot(name)
	addr := fg.newTemp()
	fg.emit("%s =l add $__global_vector, %d", addr, slot*8)
	fg.emit("%s %s, %s", storeOp(v.QBE), v.Name, addr)
}

func (fg *funcGen) globalSlot(name string) int {
	if slot, ok := fg.globalSlots[name]; ok {
		return slot
	}
	slot := fg.nextSlot
	fg.globalSlots[name] = slot
	fg.nextSlot++
	return slot
}

// storeVariable mirrors loadVariable's precedence for assignment targets.
func (fg *funcGen) storeVariable(name string, v value) {
	if fg.activeForVars != nil && fg.activeForVars[name] {
		fg.emit("%%var_%s =%s copy %s", sanitize(name), v.QBE, v.Name)
		return
	}
	if fg.cfg.FunctionName != "" {
		for _, p := range fg.cfg.Parameters {
			if p == name {
				fg.emit("%%%s =%s copy %s", sanitize(name), v.QBE, v.Name)
				return
			}
		}
		if fg.locals[name] {
			fg.emit("%%local_%s =%s copy %s", sanitize(name), v.QBE, v.Name)
			return
		}
	}
	fg.storeGlobal(name, v)
}

func loadOp(t symbols.QBEType) string {
	switch t {
	case symbols.QBEDouble:
		return "loadd"
	case symbols.QBESingle:
		return "loads"
	case symbols.QBEWord:
		return "loadw"
	default:
		return "loadl"
	}
}

func storeOp(t symbols.QBEType) string {
	switch t {
	case symbols.QBEDouble:
		return "stored"
	case symbols.QBESingle:
		return "stores"
	case symbols.QBEWord:
		return "storew"
	default:
		return "storel"
	}
}

// sanitize strips BASIC's type-suffix sigils so a plain source name is
// safe to splice into a QBE identifier; the symbol table's mangled Name
// has usually already done this, but loop/local slots are named directly
// from the AST's plain identifiers.
func sanitize(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch c {
		case '%', '&', '!', '#', '$':
			continue
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func (fg *funcGen) loadArrayElement(a *ast.ArrayAccess) value {
	sym := fg.symTable.LookupArray(a.Name)
	sem := symbols.TypeDouble
	if sym != nil {
		sem = sym.ElementType
	}
	idxs := fg.arrayIndices(a)
	t := fg.newTemp()
	qbe := naturalQBE(sem)
	fg.emit("%s =%s call $array_get%s(l %%arr_%s%s)", t, qbe, arraySuffix(sem), sanitize(a.Name), indexArgs(idxs))
	return value{Name: t, QBE: qbe, Sem: sem}
}

func (fg *funcGen) storeArrayElement(a *ast.ArrayAccess, v value) {
	idxs := fg.arrayIndices(a)
	fg.emit("call $array_set%s(l %%arr_%s%s, %s %s)", arraySuffix(v.Sem), sanitize(a.Name), indexArgs(idxs), v.QBE, v.Name)
}

// arrayIndices evaluates every dimension's index expression, left in its
// own SSA temp rather than folded into one flat offset: a multi-dimensional
// array is row-major, so A(1,2) and A(2,1) only address the same slot if
// their indices are multiplied by the array's real per-dimension sizes, and
// those sizes are runtime-dynamic (DIM's bounds are expressions, not
// constants). The runtime received every dimension's size at array_create
// time, so it, not the generator, computes the strided offset from the
// indices passed here.
func (fg *funcGen) arrayIndices(a *ast.ArrayAccess) []value {
	idxs := make([]value, len(a.Indices))
	for i, ix := range a.Indices {
		idxs[i] = fg.promote(fg.emitExpr(ix), symbols.TypeLong)
	}
	if fg.opts.BoundsCheck {
		fg.emitArrayBoundsCheck(a.Name, idxs)
	}
	return idxs
}

func (fg *funcGen) emitArrayBoundsCheck(name string, idxs []value) {
	var args strings.Builder
	fmt.Fprintf(&args, "l %%arr_%s", sanitize(name))
	args.WriteString(indexArgs(idxs))
	fg.emit("call $basic_check_bounds(%s)", args.String())
}

func indexArgs(idxs []value) string {
	var out strings.Builder
	for _, v := range idxs {
		fmt.Fprintf(&out, ", l %s", v.Name)
	}
	return out.String()
}

func arraySuffix(t symbols.VariableType) string {
	switch t {
	case symbols.TypeString:
		return "_str"
	case symbols.TypeSingle, symbols.TypeDouble:
		return "_double"
	case symbols.TypeUserDefined:
		return "_ptr"
	default:
		return "_int"
	}
}

func (fg *funcGen) loadMember(m *ast.MemberAccess) value {
	addr, sem := fg.memberAddr(m)
	t := fg.newTemp()
	qbe := naturalQBE(sem)
	fg.emit("%s =%s %s %s", t, qbe, loadOp(qbe), addr)
	return value{Name: t, QBE: qbe, Sem: sem}
}

func (fg *funcGen) storeMember(m *ast.MemberAccess, v value) {
	addr, _ := fg.memberAddr(m)
	fg.emit("%s %s, %s", storeOp(v.QBE), v.Name, addr)
}

// memberAddr lowers a.b.c.d member-access chains into a single pointer
// add, per §4.2.6. Records are addressed, not loaded: a.b's base must be
// the pointer a record holds, not the record's (undefined) scalar value,
// so a nested MemberAccess object resolves through memberAddr again
// rather than through emitExpr/loadMember.
func (fg *funcGen) memberAddr(m *ast.MemberAccess) (string, symbols.VariableType) {
	var base string
	if nested, ok := m.Object.(*ast.MemberAccess); ok {
		base, _ = fg.memberAddr(nested)
	} else {
		base = fg.emitExpr(m.Object).Name
	}

	typeName := fg.objectTypeName(m.Object)
	layout := fg.udtLayoutFor(typeName)

	field, ok := layout.fieldByName(m.MemberName)
	if !ok {
		return base, symbols.TypeDouble
	}
	if field.Offset == 0 {
		return base, field.Sem
	}
	addr := fg.newTemp()
	fg.emit("%s =l add %s, %d", addr, base, field.Offset)
	return addr, field.Sem
}

// objectTypeName resolves the UDT name of the object a member access is
// rooted on, walking nested a.b.c chains one field at a time via each
// layer's own layout.
func (fg *funcGen) objectTypeName(e ast.Expression) string {
	switch o := e.(type) {
	case *ast.Variable:
		if sym := fg.symTable.LookupVariable(o.Name); sym != nil {
			return sym.UDTName
		}
	case *ast.ArrayAccess:
		if sym := fg.symTable.LookupArray(o.Name); sym != nil {
			return sym.UDTName
		}
	case *ast.MemberAccess:
		parentType := fg.objectTypeName(o.Object)
		layout := fg.udtLayoutFor(parentType)
		if field, ok := layout.fieldByName(o.MemberName); ok {
			return field.NestedType
		}
	}
	return ""
}
