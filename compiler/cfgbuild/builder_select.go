package cfgbuild

import "basicc/compiler/ast"

// placeSelect lowers SELECT CASE into a chain of test blocks, one per WHEN
// clause, exactly the shape a sequence of IF/ELSEIF would produce — the
// WhenClause values themselves are compared against the selector in
// codegen, not here.
func (b *builder) placeSelect(st *ast.Case, line int) {
	cur := b.currentBlock
	cur.append(st, line)

	var exits []*BasicBlock
	for _, w := range st.WhenClauses {
		body := b.newBlock("case.body")
		b.addEdge(cur, body, Conditional, "match")
		next := b.newBlock("case.test")
		b.addEdge(cur, next, Conditional, "next")

		b.currentBlock = body
		b.placeStatements(w.Statements, line)
		if !b.currentBlock.IsTerminator {
			exits = append(exits, b.currentBlock)
		}

		cur = next
	}

	if st.OtherwiseStatements != nil {
		b.currentBlock = cur
		b.placeStatements(st.OtherwiseStatements, line)
		if !b.currentBlock.IsTerminator {
			exits = append(exits, b.currentBlock)
		}
	} else {
		exits = append(exits, cur)
	}

	exit := b.newBlock("case.exit")
	for _, e := range exits {
		b.addEdge(e, exit, Unconditional, "")
	}
	b.currentBlock = exit
}
