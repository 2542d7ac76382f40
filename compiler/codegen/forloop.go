package codegen

import (
	"basicc/compiler/ast"
	"basicc/compiler/cfgbuild"
)

// emitForInit lowers the part of FOR ... TO ... STEP that runs once: the
// loop variable's initial store, and caching the end/step values in local
// slots so the check block (which carries no statement of its own — the
// CFG builder attaches the *ast.For only to this, the init block) can read
// them back on every iteration without re-evaluating their expressions.
func (fg *funcGen) emitForInit(blk *cfgbuild.BasicBlock, st *ast.For) {
	sem := fg.forVarType(st.Variable)
	qbe := naturalQBE(sem)

	fg.activeForVars[st.Variable] = true
	fg.forVarStack = append(fg.forVarStack, st.Variable)

	start := fg.promote(fg.emitExpr(st.Start), sem)
	fg.storeVariable(st.Variable, start)

	end := fg.promote(fg.emitExpr(st.End), sem)
	endSlot := fg.newTemp()
	fg.emit("%s =%s copy %s", endSlot, qbe, end.Name)
	fg.forEnd[st.Variable] = endSlot

	var step value
	if st.Step != nil {
		step = fg.promote(fg.emitExpr(st.Step), sem)
	} else {
		step = value{Name: "1", QBE: qbe, Sem: sem}
	}
	stepSlot := fg.newTemp()
	fg.emit("%s =%s copy %s", stepSlot, qbe, step.Name)
	fg.forStep[st.Variable] = stepSlot

	fg.forChecks[blk.Successors[0].To.ID] = st
	fg.emit("jmp %s", fg.targetLabel(blk.Successors[0]))
}

// emitForTest lowers the per-iteration continuation test: ascending
// (STEP >= 0) loops while var <= end, descending loops while var >= end.
// When STEP is a numeric literal the sign is known at compile time and
// only one comparison is emitted; a general STEP expression needs its
// sign tested at run time.
func (fg *funcGen) emitForTest(blk *cfgbuild.BasicBlock, st *ast.For) {
	sem := fg.forVarType(st.Variable)
	qbe := naturalQBE(sem)
	prefix := compPrefix(qbe)

	v := fg.promote(fg.loadVariable(st.Variable), sem)
	end := fg.forEnd[st.Variable]

	trueEdge := fg.edgeByLabel(blk.Successors, "true")
	falseEdge := fg.edgeByLabel(blk.Successors, "false")

	if sign, ok := constantStepSign(st.Step); ok {
		op := "csle"
		if sign < 0 {
			op = "csge"
		}
		cond := fg.newTemp()
		fg.emit("%s =w %s%s %s, %s", cond, op, prefix, v.Name, end)
		fg.emit("jnz %s, %s, %s", cond, fg.targetLabel(trueEdge), fg.targetLabel(falseEdge))
		return
	}

	step := fg.forStep[st.Variable]
	nonNeg := fg.newTemp()
	fg.emit("%s =w csge%s %s, %s", nonNeg, prefix, step, zeroLiteral(string(qbe)))
	isNeg := fg.newTemp()
	fg.emit("%s =w ceqw %s, 0", isNeg, nonNeg)

	ascCond := fg.newTemp()
	fg.emit("%s =w csle%s %s, %s", ascCond, prefix, v.Name, end)
	descCond := fg.newTemp()
	fg.emit("%s =w csge%s %s, %s", descCond, prefix, v.Name, end)

	ascTaken := fg.newTemp()
	fg.emit("%s =w and %s, %s", ascTaken, nonNeg, ascCond)
	descTaken := fg.newTemp()
	fg.emit("%s =w and %s, %s", descTaken, isNeg, descCond)
	cond := fg.newTemp()
	fg.emit("%s =w or %s, %s", cond, ascTaken, descTaken)

	fg.emit("jnz %s, %s, %s", cond, fg.targetLabel(trueEdge), fg.targetLabel(falseEdge))
}

// constantStepSign reports the sign of a FOR's STEP when it is known at
// compile time: no STEP clause defaults to +1, and a bare numeric literal
// is read directly. Anything else (a variable or a general expression)
// needs the run-time sign test in emitForTest.
func constantStepSign(step ast.Expression) (int, bool) {
	if step == nil {
		return 1, true
	}
	if n, ok := step.(*ast.Number); ok {
		if n.Value < 0 {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// emitNext lowers NEXT: increment the loop variable by its cached STEP and
// loop back (the back edge itself is emitted by the generic 1-successor
// terminator case, since placeNext already wired it unconditionally).
func (fg *funcGen) emitNext(n *ast.Next) {
	name := n.Variable
	if name == "" {
		if len(fg.forVarStack) == 0 {
			return
		}
		name = fg.forVarStack[len(fg.forVarStack)-1]
	}
	for i := len(fg.forVarStack) - 1; i >= 0; i-- {
		if fg.forVarStack[i] == name {
			fg.forVarStack = append(fg.forVarStack[:i], fg.forVarStack[i+1:]...)
			break
		}
	}

	sem := fg.forVarType(name)
	qbe := naturalQBE(sem)
	cur := fg.promote(fg.loadVariable(name), sem)
	step := fg.forStep[name]

	sum := fg.newTemp()
	fg.emit("%s =%s add %s, %s", sum, qbe, cur.Name, step)
	fg.storeVariable(name, value{Name: sum, QBE: qbe, Sem: sem})

	delete(fg.activeForVars, name)
}
