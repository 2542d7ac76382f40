package cfgbuild

import "basicc/compiler/ast"

// placeIf implements the three IF shapes: single-line IF...GOTO, inline
// THEN/ELSE, and multi-line IF...END IF. Non-GOTO IFs wire their own edges
// immediately — the only part deferred to forward-reference resolution is
// a single-line IF's GOTO target.
func (b *builder) placeIf(st *ast.If, line int) {
	condBlock := b.currentBlock
	condBlock.append(st, line)

	if st.HasGoto {
		merge := b.newBlock("")
		b.pending = append(b.pending, pendingEdge{fromID: condBlock.ID, kind: Conditional, label: "true", targetLine: st.GotoLine})
		b.addEdge(condBlock, merge, Conditional, "false")
		b.currentBlock = merge
		return
	}

	if !st.IsMultiLine {
		b.placeIfInline(st, condBlock, line)
		return
	}
	b.placeIfMultiLine(st, condBlock, line)
}

// placeIfInline is IF shape 2: merge block is created alongside then/else,
// before the branches are recursively built.
func (b *builder) placeIfInline(st *ast.If, condBlock *BasicBlock, line int) {
	thenBlock := b.newBlock("if.then")
	b.addEdge(condBlock, thenBlock, Conditional, "true")

	var elseBlock *BasicBlock
	merge := b.newBlock("if.merge")
	if len(st.ElseStatements) > 0 {
		elseBlock = b.newBlock("if.else")
		b.addEdge(condBlock, elseBlock, Conditional, "false")
	} else {
		b.addEdge(condBlock, merge, Conditional, "false")
	}

	b.currentBlock = thenBlock
	b.placeStatements(st.ThenStatements, line)
	thenExit := b.currentBlock
	if !thenExit.IsTerminator {
		b.addEdge(thenExit, merge, Unconditional, "")
	}

	if elseBlock != nil {
		b.currentBlock = elseBlock
		b.placeStatements(st.ElseStatements, line)
		elseExit := b.currentBlock
		if !elseExit.IsTerminator {
			b.addEdge(elseExit, merge, Unconditional, "")
		}
	}

	b.currentBlock = merge
}

// placeIfMultiLine is IF shape 3: the merge block is created AFTER both
// branches are recursively built, so its id dominates every id produced
// inside the branches, matching the ordering every other multi-block
// construct in this package uses.
func (b *builder) placeIfMultiLine(st *ast.If, condBlock *BasicBlock, line int) {
	thenBlock := b.newBlock("if.then")
	b.addEdge(condBlock, thenBlock, Conditional, "true")
	b.currentBlock = thenBlock
	b.placeStatements(st.ThenStatements, line)
	thenExit := b.currentBlock

	var elseBlock, elseExit *BasicBlock
	if len(st.ElseStatements) > 0 {
		elseBlock = b.newBlock("if.else")
		b.addEdge(condBlock, elseBlock, Conditional, "false")
		b.currentBlock = elseBlock
		b.placeStatements(st.ElseStatements, line)
		elseExit = b.currentBlock
	}

	merge := b.newBlock("if.merge")
	if elseBlock == nil {
		b.addEdge(condBlock, merge, Conditional, "false")
	}
	if !thenExit.IsTerminator {
		b.addEdge(thenExit, merge, Unconditional, "")
	}
	if elseExit != nil && !elseExit.IsTerminator {
		b.addEdge(elseExit, merge, Unconditional, "")
	}

	b.currentBlock = merge
}
