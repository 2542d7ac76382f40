package cfgbuild

import "basicc/compiler/ast"

// placeWhile opens a WHILE loop. The header is always a fresh block (never
// the block already open when WHILE is reached) since it's also the
// back-edge target from WEND: reusing the open block would fold whatever
// statement immediately preceded WHILE into the loop and re-run it on every
// iteration. The header carries only the WHILE statement itself.
func (b *builder) placeWhile(st *ast.While, line int) {
	prev := b.currentBlock
	header := b.newBlock("while.header")
	b.addEdge(prev, header, Fallthrough, "")
	header.append(st, line)

	body := b.newBlock("while.body")
	b.addEdge(header, body, Conditional, "true")

	b.loopStack = append(b.loopStack, &loopContext{kind: "while", headerBlockID: header.ID})
	b.currentBlock = body
}

func (b *builder) placeWend(st *ast.Wend, line int) {
	ctx, ok := b.popLoop("while")
	if !ok {
		b.errs = append(b.errs, newBuildError(ErrWendWithoutWhile, line, "WEND without matching WHILE"))
		b.currentBlock.append(st, line)
		return
	}
	b.currentBlock.append(st, line)
	header := b.blockByID(ctx.headerBlockID)
	if !b.currentBlock.IsTerminator {
		b.addEdge(b.currentBlock, header, Unconditional, "")
	}
	exit := b.newBlock("while.exit")
	b.addEdge(header, exit, Conditional, "false")
	b.currentBlock = exit
}

// placeDo opens a DO loop. A pre-tested DO WHILE/UNTIL splits into a fresh
// check block and a body block exactly like FOR/WHILE — the check block
// must be newly allocated rather than reusing whatever block is already
// open, since it's also the LOOP back-edge target and reusing it would
// re-run any statement preceding DO on every iteration. A plain DO has no
// test of its own and becomes its own header, deferring everything to LOOP.
func (b *builder) placeDo(st *ast.Do, line int) {
	prev := b.currentBlock

	if st.ConditionType == ast.DoNone {
		prev.append(st, line)
		top := b.newBlock("do.body")
		b.addEdge(prev, top, Fallthrough, "")
		b.loopStack = append(b.loopStack, &loopContext{kind: "do", headerBlockID: top.ID, doCondition: ast.DoNone})
		b.currentBlock = top
		return
	}

	header := b.newBlock("do.header")
	b.addEdge(prev, header, Fallthrough, "")
	header.append(st, line)

	body := b.newBlock("do.body")
	b.addEdge(header, body, Conditional, "continue")
	b.loopStack = append(b.loopStack, &loopContext{kind: "do", headerBlockID: header.ID, doCondition: st.ConditionType})
	b.currentBlock = body
}

// placeLoop closes the innermost DO. Pre-tested loops (the header already
// carries the condition) just need the back edge and the header's "exit"
// edge; a plain DO defers the condition (if any) to this LOOP statement,
// and an unconditional LOOP leaves the code after it structurally dead.
func (b *builder) placeLoop(st *ast.Loop, line int) {
	ctx, ok := b.popLoop("do")
	if !ok {
		b.errs = append(b.errs, newBuildError(ErrLoopWithoutDo, line, "LOOP without matching DO"))
		b.currentBlock.append(st, line)
		return
	}
	b.currentBlock.append(st, line)
	header := b.blockByID(ctx.headerBlockID)

	if ctx.doCondition != ast.DoNone {
		if !b.currentBlock.IsTerminator {
			b.addEdge(b.currentBlock, header, Unconditional, "")
		}
		exit := b.newBlock("do.exit")
		b.addEdge(header, exit, Conditional, "exit")
		b.currentBlock = exit
		return
	}

	if st.ConditionType == ast.DoNone {
		if !b.currentBlock.IsTerminator {
			b.addEdge(b.currentBlock, header, Unconditional, "")
		}
		b.currentBlock = b.newBlock("do.unreachable")
		return
	}

	if !b.currentBlock.IsTerminator {
		b.addEdge(b.currentBlock, header, Conditional, "continue")
	}
	exit := b.newBlock("do.exit")
	if !b.currentBlock.IsTerminator {
		b.addEdge(b.currentBlock, exit, Conditional, "exit")
	}
	b.currentBlock = exit
}

// placeRepeat opens a REPEAT loop. REPEAT never carries its own test — the
// body always runs at least once, with UNTIL supplying the only condition.
func (b *builder) placeRepeat(st *ast.Repeat, line int) {
	b.currentBlock.append(st, line)
	header := b.newBlock("repeat.body")
	b.addEdge(b.currentBlock, header, Fallthrough, "")
	b.loopStack = append(b.loopStack, &loopContext{kind: "repeat", headerBlockID: header.ID})
	b.currentBlock = header
}

func (b *builder) placeUntil(st *ast.Until, line int) {
	ctx, ok := b.popLoop("repeat")
	if !ok {
		b.errs = append(b.errs, newBuildError(ErrUntilWithoutRepeat, line, "UNTIL without matching REPEAT"))
		b.currentBlock.append(st, line)
		return
	}
	b.currentBlock.append(st, line)
	header := b.blockByID(ctx.headerBlockID)
	exit := b.newBlock("repeat.exit")
	if !b.currentBlock.IsTerminator {
		b.addEdge(b.currentBlock, header, Conditional, "repeat")
		b.addEdge(b.currentBlock, exit, Conditional, "exit")
	}
	b.currentBlock = exit
}

// popLoop pops the innermost loopContext if it matches kind.
func (b *builder) popLoop(kind string) (*loopContext, bool) {
	n := len(b.loopStack)
	if n == 0 || b.loopStack[n-1].kind != kind {
		return nil, false
	}
	ctx := b.loopStack[n-1]
	b.loopStack = b.loopStack[:n-1]
	return ctx, true
}
