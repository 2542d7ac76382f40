package cfgbuild

import "basicc/compiler/ast"

// placeTry lowers TRY/CATCH/FINALLY. An exception can in principle transfer
// control from anywhere inside the try body, but modeling that precisely
// would blow up the block count for no benefit to codegen; this package
// approximates it with a single conditional edge from the try body's entry
// block to each catch block.
func (b *builder) placeTry(st *ast.TryCatch, line int) {
	cur := b.currentBlock
	cur.append(st, line)

	tryBody := b.newBlock("try.body")
	b.addEdge(cur, tryBody, Fallthrough, "")
	b.currentBlock = tryBody
	b.placeStatements(st.TryBlock, line)

	var exits []*BasicBlock
	if !b.currentBlock.IsTerminator {
		exits = append(exits, b.currentBlock)
	}

	for _, c := range st.CatchClauses {
		catchBlock := b.newBlock("catch")
		b.addEdge(tryBody, catchBlock, Conditional, "exception")
		b.currentBlock = catchBlock
		b.placeStatements(c.Block, line)
		if !b.currentBlock.IsTerminator {
			exits = append(exits, b.currentBlock)
		}
	}

	if st.HasFinally {
		finallyBlock := b.newBlock("finally")
		for _, e := range exits {
			b.addEdge(e, finallyBlock, Unconditional, "")
		}
		exits = exits[:0]
		b.currentBlock = finallyBlock
		b.placeStatements(st.FinallyBlock, line)
		if !b.currentBlock.IsTerminator {
			exits = append(exits, b.currentBlock)
		}
	}

	exit := b.newBlock("try.exit")
	for _, e := range exits {
		b.addEdge(e, exit, Unconditional, "")
	}
	b.currentBlock = exit
}
