package cfgbuild

import "basicc/compiler/ast"

// placeFor opens a FOR loop. Unlike WHILE/DO/REPEAT, a FOR's exit block
// cannot be created until its matching NEXT is seen (the STEP expression
// lives on the For node but the loop variable could be reused by multiple
// NEXTs), so only the check and body blocks are created here; the conditional edge to
// the loop exit is completed by placeNext.
func (b *builder) placeFor(st *ast.For, line int) {
	init := b.currentBlock
	init.append(st, line)

	check := b.newBlock("for.check")
	b.addEdge(init, check, Fallthrough, "")

	body := b.newBlock("for.body")
	b.addEdge(check, body, Conditional, "true")

	b.forStack = append(b.forStack, &forContext{checkBlockID: check.ID, variable: st.Variable})
	b.currentBlock = body
}

// placeNext closes the innermost FOR loop (or the one matching st.Variable,
// when given): the back edge to the check block, the check block's "false"
// edge to a freshly created exit block, and every EXIT FOR taken inside the
// loop body all land on that same exit block.
func (b *builder) placeNext(st *ast.Next, line int) {
	idx := len(b.forStack) - 1
	if st.Variable != "" {
		for i := len(b.forStack) - 1; i >= 0; i-- {
			if b.forStack[i].variable == st.Variable {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		b.errs = append(b.errs, newBuildError(ErrNextWithoutFor, line, "NEXT without matching FOR"))
		b.currentBlock.append(st, line)
		return
	}
	ctx := b.forStack[idx]
	b.forStack = b.forStack[:idx]

	b.currentBlock.append(st, line)
	if !b.currentBlock.IsTerminator {
		check := b.blockByID(ctx.checkBlockID)
		b.addEdge(b.currentBlock, check, Unconditional, "")
	}

	exit := b.newBlock("for.exit")
	check := b.blockByID(ctx.checkBlockID)
	b.addEdge(check, exit, Conditional, "false")
	for _, id := range ctx.pendingExitBlocks {
		blk := b.blockByID(id)
		b.addEdge(blk, exit, Unconditional, "")
	}

	b.currentBlock = exit
}
