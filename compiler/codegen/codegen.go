package codegen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"basicc/compiler/ast"
	"basicc/compiler/cfgbuild"
	"basicc/compiler/symbols"
)

// Generate lowers a whole program's CFGs into one QBE text module: $main
// plus one function per user FUNCTION/SUB/DEF FN, followed by the data
// section (interned string literals and the global variable vector).
// Errors are collected rather than aborting, so a caller can still inspect
// partial output; err is non-nil only for a condition that made emission
// itself impossible (a nil MainCFG).
func Generate(pcfg *cfgbuild.ProgramCFG, symTable *symbols.Table, opts Options) (string, []*GenError, error) {
	if pcfg == nil || pcfg.MainCFG == nil {
		return "", nil, fmt.Errorf("codegen: program has no main CFG")
	}

	g := newGenerator(symTable, opts)

	var out strings.Builder
	out.WriteString(genFunction(g, pcfg.MainCFG, "main"))

	names := make([]string, 0, len(pcfg.Functions))
	for name := range pcfg.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out.WriteString(genFunction(g, pcfg.Functions[name], name))
	}

	out.WriteString(genDataSection(g))

	return out.String(), g.errs, nil
}

// genFunction emits one function's full text: signature, per-block bodies
// in id order (matching source order, since ids are assigned by creation
// order during the single-pass CFG walk), and the @exit trailer.
func genFunction(g *generator, cfg *cfgbuild.ControlFlowGraph, qbeName string) string {
	fg := newFuncGen(g, cfg)
	for i, p := range cfg.Parameters {
		fg.locals[p] = true
		_ = i
	}

	var sig strings.Builder
	retQBE := "l"
	if !cfg.IsSub {
		retQBE = string(naturalQBE(cfg.ReturnType))
	}
	fmt.Fprintf(&sig, "export function %s $%s(", retQBE, qbeName)
	for i, p := range cfg.Parameters {
		if i > 0 {
			sig.WriteString(", ")
		}
		sem := symbols.TypeDouble
		if i < len(cfg.ParameterTypes) {
			sem = cfg.ParameterTypes[i]
		}
		fmt.Fprintf(&sig, "%s %%%s", naturalQBE(sem), sanitize(p))
	}
	sig.WriteString(") {\n@start\n")

	if !cfg.IsSub {
		fg.emit("%%retval =%s copy %s", retQBE, zeroLiteral(retQBE))
	}

	for _, blk := range cfg.Blocks {
		fg.label(fg.blockLabels[blk.ID])
		for _, ref := range blk.Statements {
			fg.emitStatement(ref)
		}
		fg.emitTerminator(blk)
	}

	fg.label(fg.exitLabel)
	if cfg.IsSub {
		fg.emit("ret")
	} else {
		fg.emit("ret %%retval")
	}
	fg.buf.WriteString("}\n\n")

	return sig.String() + fg.buf.String()
}

func zeroLiteral(qbe string) string {
	switch qbe {
	case "d", "s":
		return "d_0"
	default:
		return "0"
	}
}

// emitTerminator closes out a block, choosing the lowering per §4.2.1's
// successor-count rule: 0 successors needs nothing beyond whatever the
// block's last statement already emitted (END/RETURN), 1 is an
// unconditional jump, 2+ reads the controlling statement to know which
// expression to test.
func (fg *funcGen) emitTerminator(blk *cfgbuild.BasicBlock) {
	switch len(blk.Successors) {
	case 0:
		if !blk.IsTerminator {
			fg.emit("jmp %s", fg.exitLabel)
		}
	case 1:
		if forSt, ok := blk.LastStatement().(*ast.For); ok {
			fg.emitForInit(blk, forSt)
			return
		}
		fg.emit("jmp %s", fg.targetLabel(blk.Successors[0]))
	default:
		fg.emitBranch(blk)
	}
}

func (fg *funcGen) targetLabel(e *cfgbuild.CFGEdge) string {
	if e.To == fg.cfg.ExitBlock {
		return fg.exitLabel
	}
	return fg.blockLabels[e.To.ID]
}

func (fg *funcGen) edgeByLabel(edges []*cfgbuild.CFGEdge, label string) *cfgbuild.CFGEdge {
	for _, e := range edges {
		if e.Label == label {
			return e
		}
	}
	return nil
}

// emitBranch handles every multi-successor block shape: IF/WHILE/DO/UNTIL
// conditionals (true/false), the SELECT CASE test chain (match/next,
// tracked across blocks via pendingSelect since only the first test block
// in a chain carries the Case statement itself), ON GOTO/ON GOSUB's N-way
// dispatch, and TRY's exception edges (which fall back to the first
// non-exception successor, since no runtime unwinder exists to drive them).
func (fg *funcGen) emitBranch(blk *cfgbuild.BasicBlock) {
	if forSt, ok := fg.forChecks[blk.ID]; ok {
		fg.emitForTest(blk, forSt)
		return
	}

	last := blk.LastStatement()

	switch st := last.(type) {
	case *ast.Gosub:
		fg.emitGosubCall(blk)
		return
	case *ast.OnGoto:
		fg.emitOnJump(blk, st.Selector)
		return
	case *ast.Case:
		fg.pendingSelect = &selectState{selector: fg.emitExpr(st.Selector), clauses: st.WhenClauses}
		fg.emitCaseTest(blk)
		return
	}

	if fg.pendingSelect != nil && fg.edgeByLabel(blk.Successors, "match") != nil && fg.edgeByLabel(blk.Successors, "next") != nil {
		fg.emitCaseTest(blk)
		return
	}

	cond := condExprFor(last)
	trueEdge := firstOf(blk.Successors, "true", "match", "continue", "repeat")
	falseEdge := firstOf(blk.Successors, "false", "next", "exit")

	// An UNTIL test leaves the loop when its condition holds, so the
	// loop-continuing edge is the one taken on false.
	switch s := last.(type) {
	case *ast.Until:
		trueEdge, falseEdge = falseEdge, trueEdge
	case *ast.Do:
		if s.ConditionType == ast.DoUntil {
			trueEdge, falseEdge = falseEdge, trueEdge
		}
	case *ast.Loop:
		if s.ConditionType == ast.DoUntil {
			trueEdge, falseEdge = falseEdge, trueEdge
		}
	}

	if cond == nil || trueEdge == nil || falseEdge == nil {
		// TRY's exception fan-out, or any other shape without a single
		// boolean test: take the first ordinary edge and ignore the rest.
		for _, e := range blk.Successors {
			if e.Label != "exception" {
				fg.emit("jmp %s", fg.targetLabel(e))
				return
			}
		}
		fg.emit("jmp %s", fg.targetLabel(blk.Successors[0]))
		return
	}

	v := fg.emitExpr(cond)
	fg.emit("jnz %s, %s, %s", v.Name, fg.targetLabel(trueEdge), fg.targetLabel(falseEdge))
}

// emitGosubCall lowers a GOSUB call site: push this call's return id onto
// the runtime's return stack, then jump to the subroutine's entry block.
// The Fallthrough edge to the resume block isn't taken here directly; it
// exists so the resume block has a predecessor for dump-cfg/analysis, and
// is reached instead through emitGosubReturn's cascade.
func (fg *funcGen) emitGosubCall(blk *cfgbuild.BasicBlock) {
	id := fg.gosubCallToID[blk.ID]
	fg.emit("call $rt_gosub_push(w %d)", id)
	for _, e := range blk.Successors {
		if e.Kind == cfgbuild.Call {
			fg.emit("jmp %s", fg.targetLabel(e))
			return
		}
	}
	fg.emit("jmp %s", fg.exitLabel)
}

// emitGosubReturn lowers a bare RETURN as a computed jump: pop the return
// stack and cascade-test the result against every GOSUB call site in this
// function, landing on its matching resume block.
func (fg *funcGen) emitGosubReturn() {
	if len(fg.gosubIDToResume) == 0 {
		fg.emit("jmp %s", fg.exitLabel)
		return
	}
	popped := fg.newTemp()
	fg.emit("%s =w call $rt_gosub_pop()", popped)

	ids := make([]int, 0, len(fg.gosubIDToResume))
	for id := range fg.gosubIDToResume {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		eq := fg.newTemp()
		fg.emit("%s =w ceqw %s, %d", eq, popped, id)
		cont := fg.newLabel("ret_next")
		fg.emit("jnz %s, %s, %s", eq, fg.blockLabels[fg.gosubIDToResume[id].ID], atLabel(cont))
		fg.label(cont)
	}
	fg.emit("jmp %s", fg.exitLabel)
}

func firstOf(edges []*cfgbuild.CFGEdge, labels ...string) *cfgbuild.CFGEdge {
	for _, l := range labels {
		for _, e := range edges {
			if e.Label == l {
				return e
			}
		}
	}
	return nil
}

// condExprFor extracts the boolean expression that controls a two-way
// branch from the statement the CFG builder attached to the block.
func condExprFor(st ast.Statement) ast.Expression {
	switch s := st.(type) {
	case *ast.If:
		return s.Condition
	case *ast.While:
		return s.Condition
	case *ast.Do:
		if s.ConditionType != ast.DoNone {
			return s.Condition
		}
	case *ast.Loop:
		if s.ConditionType != ast.DoNone {
			return s.Condition
		}
	case *ast.Until:
		return s.Condition
	}
	return nil
}

// selectState tracks a SELECT CASE dispatch as codegen walks the chain of
// test blocks the CFG builder produced for it, one clause at a time.
type selectState struct {
	selector value
	clauses  []ast.WhenClause
	idx      int
}

func (fg *funcGen) emitCaseTest(blk *cfgbuild.BasicBlock) {
	sel := fg.pendingSelect
	if sel == nil || sel.idx >= len(sel.clauses) {
		fg.pendingSelect = nil
		fg.emit("jmp %s", fg.targetLabel(blk.Successors[0]))
		return
	}
	clause := sel.clauses[sel.idx]
	sel.idx++
	if sel.idx >= len(sel.clauses) {
		fg.pendingSelect = nil
	}

	matchEdge := fg.edgeByLabel(blk.Successors, "match")
	nextEdge := fg.edgeByLabel(blk.Successors, "next")

	var cond value
	for i, ve := range clause.Values {
		v := fg.emitExpr(ve)
		v = fg.promote(v, sel.selector.Sem)
		eq := fg.newTemp()
		prefix := compPrefix(naturalQBE(sel.selector.Sem))
		fg.emit("%s =w ceq%s %s, %s", eq, prefix, sel.selector.Name, v.Name)
		if i == 0 {
			cond = value{Name: eq, QBE: symbols.QBEWord, Sem: symbols.TypeInteger}
			continue
		}
		t := fg.newTemp()
		fg.emit("%s =w or %s, %s", t, cond.Name, eq)
		cond = value{Name: t, QBE: symbols.QBEWord, Sem: symbols.TypeInteger}
	}

	fg.emit("jnz %s, %s, %s", cond.Name, fg.targetLabel(matchEdge), fg.targetLabel(nextEdge))
}

// emitOnJump lowers ON GOTO/ON GOSUB's computed multi-way dispatch as a
// cascade of equality tests against the 1-based selector, falling through
// to the "default" edge when nothing matches.
func (fg *funcGen) emitOnJump(blk *cfgbuild.BasicBlock, selector ast.Expression) {
	sel := fg.promote(fg.emitExpr(selector), symbols.TypeLong)
	def := fg.edgeByLabel(blk.Successors, "default")

	for _, e := range blk.Successors {
		if e.Label == "default" {
			continue
		}
		// Target edges are labeled with their 0-based position in the
		// ON list.
		idx, err := strconv.Atoi(e.Label)
		if err != nil {
			continue
		}
		eq := fg.newTemp()
		fg.emit("%s =w ceql %s, %d", eq, sel.Name, idx+1)
		cont := fg.newLabel("on_next")
		fg.emit("jnz %s, %s, %s", eq, fg.targetLabel(e), atLabel(cont))
		fg.label(cont)
	}
	if def != nil {
		fg.emit("jmp %s", fg.targetLabel(def))
	} else {
		fg.emit("jmp %s", fg.exitLabel)
	}
}

func genDataSection(g *generator) string {
	var out strings.Builder
	for _, lit := range g.literals {
		out.WriteString(renderStringLiteral(lit))
	}
	if g.nextSlot > 0 {
		fmt.Fprintf(&out, "data $__global_vector = { z %d }\n", g.nextSlot*8)
	}
	return out.String()
}

// renderStringLiteral emits a literal's 40-byte descriptor followed by its
// backing data, per §4.3: offset pointer, length, capacity, refcount,
// encoding, dirty flag, padding, utf8 cache pointer.
func renderStringLiteral(lit strLiteral) string {
	var out strings.Builder
	dataLabel := lit.Label + "_data"

	if lit.IsASCII {
		out.WriteString("data $" + dataLabel + " = { b ")
		parts := make([]string, len(lit.Runes))
		for i, r := range lit.Runes {
			parts[i] = fmt.Sprintf("%d", r)
		}
		out.WriteString(strings.Join(parts, ", "))
		out.WriteString(", b 0 }\n")
	} else {
		out.WriteString("data $" + dataLabel + " = { w ")
		parts := make([]string, len(lit.Runes))
		for i, r := range lit.Runes {
			parts[i] = fmt.Sprintf("%d", r)
		}
		out.WriteString(strings.Join(parts, ", "))
		out.WriteString(" }\n")
	}

	encoding := 0
	if !lit.IsASCII {
		encoding = 1
	}
	fmt.Fprintf(&out, "data $%s = { l $%s, l %d, l %d, w 1, b %d, b 0, h 0, l 0 }\n",
		lit.Label, dataLabel, len(lit.Runes), len(lit.Runes), encoding)
	return out.String()
}
