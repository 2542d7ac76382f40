package cfgbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basicc/compiler/ast"
	"basicc/compiler/symbols"
)

func ln(number int, stmts ...ast.Statement) *ast.Line {
	return &ast.Line{Number: number, Statements: stmts}
}

func printLit(s string) *ast.Print {
	return &ast.Print{Items: []ast.PrintItem{{Expr: &ast.String{Value: s}}}}
}

func edgeWithLabel(edges []*CFGEdge, label string) *CFGEdge {
	for _, e := range edges {
		if e.Label == label {
			return e
		}
	}
	return nil
}

func TestBuild_StraightLineFallsThroughToExit(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, printLit("A")),
		ln(20, printLit("B")),
	}}

	cfg, errs, err := Build(program, symbols.NewTable(nil), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	require.NotNil(t, cfg.MainCFG)
	main := cfg.MainCFG
	assert.NotNil(t, main.ExitBlock)
	assert.Len(t, main.EntryBlock.Successors, 1)
	assert.Equal(t, main.ExitBlock, main.EntryBlock.Successors[0].To)
}

func TestBuild_IfThenElseProducesConditionalEdges(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.If{
			Condition:      &ast.Variable{Name: "X"},
			IsMultiLine:    false,
			ThenStatements: []ast.Statement{printLit("T")},
			ElseStatements: []ast.Statement{printLit("F")},
		}),
		ln(20, printLit("DONE")),
	}}

	cfg, errs, err := Build(program, symbols.NewTable(nil), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	condBlock := cfg.MainCFG.EntryBlock
	require.Len(t, condBlock.Successors, 2)

	trueEdge := edgeWithLabel(condBlock.Successors, "true")
	falseEdge := edgeWithLabel(condBlock.Successors, "false")
	require.NotNil(t, trueEdge)
	require.NotNil(t, falseEdge)
	assert.NotEqual(t, trueEdge.To, falseEdge.To)

	// Both branches should fall into the same merge block.
	assert.Len(t, trueEdge.To.Successors, 1)
	assert.Len(t, falseEdge.To.Successors, 1)
	assert.Equal(t, trueEdge.To.Successors[0].To, falseEdge.To.Successors[0].To)
}

func TestBuild_ForNextWiresBackEdgeAndExit(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.For{Variable: "I", Start: &ast.Number{Value: 1, IsInt: true}, End: &ast.Number{Value: 10, IsInt: true}}),
		ln(20, printLit("BODY")),
		ln(30, &ast.Next{Variable: "I"}),
	}}

	cfg, errs, err := Build(program, symbols.NewTable(nil), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	main := cfg.MainCFG
	// entry -> for.check
	require.Len(t, main.EntryBlock.Successors, 1)
	check := main.EntryBlock.Successors[0].To

	require.Len(t, check.Successors, 2)
	trueEdge := edgeWithLabel(check.Successors, "true")
	falseEdge := edgeWithLabel(check.Successors, "false")
	require.NotNil(t, trueEdge)
	require.NotNil(t, falseEdge)

	body := trueEdge.To
	// body (after placing the print and NEXT) should loop back to check.
	found := false
	for _, e := range body.Successors {
		if e.To == check {
			found = true
		}
	}
	assert.True(t, found, "loop body must have a back edge to the check block")
	assert.NotNil(t, falseEdge.To)
}

func TestBuild_GotoForwardReferenceResolves(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.Goto{Line: 30}),
		ln(20, printLit("SKIPPED")),
		ln(30, printLit("TARGET")),
	}}

	cfg, errs, err := Build(program, symbols.NewTable(nil), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	main := cfg.MainCFG
	target := main.LineNumberToBlock[30]
	require.NotNil(t, target)

	gotoBlock := main.EntryBlock
	require.Len(t, gotoBlock.Successors, 1)
	assert.Equal(t, target, gotoBlock.Successors[0].To)
}

func TestBuild_GosubPopulatesReturnMap(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.Gosub{Line: 100}),
		ln(20, printLit("AFTER")),
		ln(100, printLit("SUB")),
		ln(110, &ast.Return{}),
	}}

	cfg, errs, err := Build(program, symbols.NewTable(nil), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	main := cfg.MainCFG
	require.NotEmpty(t, main.GosubReturnMap)

	callBlock := main.EntryBlock
	resumeID, ok := main.GosubReturnMap[callBlock.ID]
	require.True(t, ok)
	assert.True(t, main.GosubReturnBlocks[resumeID])

	var callEdge *CFGEdge
	for _, e := range callBlock.Successors {
		if e.Kind == Call {
			callEdge = e
		}
	}
	require.NotNil(t, callEdge)
	assert.Equal(t, main.LineNumberToBlock[100], callEdge.To)
}

func TestBuild_NextWithoutForIsTolerated(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.Next{}),
	}}

	_, errs, err := Build(program, symbols.NewTable(nil), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrNextWithoutFor, errs[0].Kind)
}

// letStmt builds a LET statement for a bare variable target, the shape
// every loop-header regression test below needs for its "statement right
// before the loop" setup.
func letStmt(name string, v int) *ast.Let {
	return &ast.Let{Target: &ast.Variable{Name: name}, Value: &ast.Number{Value: float64(v), IsInt: true}}
}

func whileLeOp(name string, n int) *ast.While {
	return &ast.While{Condition: &ast.Binary{Left: &ast.Variable{Name: name}, Op: ast.OpLe, Right: &ast.Number{Value: float64(n), IsInt: true}}}
}

func TestBuild_WhileHeaderIsFreshBlockNotThePrecedingStatement(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, letStmt("I", 1)),
		ln(20, whileLeOp("I", 2)),
		ln(30, printLit("BODY")),
		ln(40, letStmt("I", 0)),
		ln(50, &ast.Wend{}),
	}}

	cfg, errs, err := Build(program, symbols.NewTable(nil), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	main := cfg.MainCFG
	// Line 20 maps to the block open when the line starts; the WHILE
	// header is the fresh block that block falls through into.
	preHeader := main.LineNumberToBlock[20]
	require.NotNil(t, preHeader)
	require.Len(t, preHeader.Successors, 1)
	header := preHeader.Successors[0].To
	require.NotNil(t, header)

	// The header block must carry only the WHILE statement: the preceding
	// LET must stay behind in its own block, or WEND's back edge to the
	// header would re-run it on every iteration.
	require.Len(t, header.Statements, 1)
	_, isWhile := header.Statements[0].Stmt.(*ast.While)
	assert.True(t, isWhile)

	// The back edge from WEND must target this same header block.
	wendBlock := main.LineNumberToBlock[50]
	require.NotNil(t, wendBlock)
	foundBackEdge := false
	for _, e := range wendBlock.Successors {
		if e.To == header && e.Kind == Unconditional {
			foundBackEdge = true
		}
	}
	assert.True(t, foundBackEdge, "WEND must add a back edge to the fresh header block")
}

func TestBuild_NestedWhileWendMatchesInnermostHeader(t *testing.T) {
	// Mirrors the nested-WHILE scenario: the inner WEND must close the
	// inner WHILE, and the outer WEND must close the outer WHILE, by id
	// ordering rather than by accident.
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, letStmt("I", 1)),
		ln(20, whileLeOp("I", 2)),
		ln(30, letStmt("J", 1)),
		ln(40, whileLeOp("J", 2)),
		ln(50, printLit("BODY")),
		ln(60, &ast.Wend{}), // closes inner (J) WHILE
		ln(70, &ast.Wend{}), // closes outer (I) WHILE
	}}

	cfg, errs, err := Build(program, symbols.NewTable(nil), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	main := cfg.MainCFG
	// Lines 20 and 40 map to the blocks open before each WHILE; each
	// header is the fresh block its pre-header falls through into.
	outerPre := main.LineNumberToBlock[20]
	innerPre := main.LineNumberToBlock[40]
	require.NotNil(t, outerPre)
	require.NotNil(t, innerPre)
	require.Len(t, outerPre.Successors, 1)
	require.Len(t, innerPre.Successors, 1)
	outerHeader := outerPre.Successors[0].To
	innerHeader := innerPre.Successors[0].To
	require.NotNil(t, outerHeader)
	require.NotNil(t, innerHeader)
	assert.NotEqual(t, outerHeader, innerHeader)

	require.Len(t, outerHeader.Statements, 1)
	require.Len(t, innerHeader.Statements, 1)

	innerWend := main.LineNumberToBlock[60]
	outerWend := main.LineNumberToBlock[70]
	require.NotNil(t, innerWend)
	require.NotNil(t, outerWend)

	backEdgeTo := func(blk *BasicBlock) *BasicBlock {
		for _, e := range blk.Successors {
			if e.Kind == Unconditional {
				return e.To
			}
		}
		return nil
	}
	assert.Equal(t, innerHeader, backEdgeTo(innerWend))
	assert.Equal(t, outerHeader, backEdgeTo(outerWend))
}

func TestBuild_DoWhileHeaderIsFreshBlockNotThePrecedingStatement(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, letStmt("X", 0)),
		ln(20, &ast.Do{ConditionType: ast.DoWhile, Condition: &ast.Binary{Left: &ast.Variable{Name: "X"}, Op: ast.OpLt, Right: &ast.Number{Value: 3, IsInt: true}}}),
		ln(30, printLit("BODY")),
		ln(40, &ast.Loop{}),
	}}

	cfg, errs, err := Build(program, symbols.NewTable(nil), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	main := cfg.MainCFG
	// Line 20 maps to the block open when the line starts; the DO header
	// is the fresh block that block falls through into.
	preHeader := main.LineNumberToBlock[20]
	require.NotNil(t, preHeader)
	require.Len(t, preHeader.Successors, 1)
	header := preHeader.Successors[0].To
	require.NotNil(t, header)

	require.Len(t, header.Statements, 1)
	_, isDo := header.Statements[0].Stmt.(*ast.Do)
	assert.True(t, isDo)

	loopBlock := main.LineNumberToBlock[40]
	require.NotNil(t, loopBlock)
	foundBackEdge := false
	for _, e := range loopBlock.Successors {
		if e.To == header {
			foundBackEdge = true
		}
	}
	assert.True(t, foundBackEdge, "LOOP must add a back edge to the fresh header block")
}

func TestBuild_RepeatUntilWiresBackEdgeToBody(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, letStmt("X", 0)),
		ln(20, &ast.Repeat{}),
		ln(30, printLit("BODY")),
		ln(40, &ast.Until{Condition: &ast.Binary{Left: &ast.Variable{Name: "X"}, Op: ast.OpEq, Right: &ast.Number{Value: 3, IsInt: true}}}),
	}}

	cfg, errs, err := Build(program, symbols.NewTable(nil), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	main := cfg.MainCFG
	repeatBlock := main.LineNumberToBlock[20]
	require.NotNil(t, repeatBlock)
	require.Len(t, repeatBlock.Successors, 1)
	body := repeatBlock.Successors[0].To

	untilBlock := main.LineNumberToBlock[40]
	require.NotNil(t, untilBlock)
	repeatEdge := edgeWithLabel(untilBlock.Successors, "repeat")
	exitEdge := edgeWithLabel(untilBlock.Successors, "exit")
	require.NotNil(t, repeatEdge)
	require.NotNil(t, exitEdge)
	assert.Equal(t, body, repeatEdge.To)
	assert.NotEqual(t, body, exitEdge.To)
}

func TestBuild_SelectCaseWiresEachClauseAndElse(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.Case{
			Selector: &ast.Variable{Name: "I"},
			WhenClauses: []ast.WhenClause{
				{Values: []ast.Expression{&ast.Number{Value: 1, IsInt: true}}, Statements: []ast.Statement{printLit("one")}},
				{Values: []ast.Expression{&ast.Number{Value: 2, IsInt: true}, &ast.Number{Value: 3, IsInt: true}}, Statements: []ast.Statement{printLit("twothree")}},
			},
			OtherwiseStatements: []ast.Statement{printLit("other")},
		}),
		ln(20, printLit("AFTER")),
	}}

	cfg, errs, err := Build(program, symbols.NewTable(nil), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	main := cfg.MainCFG
	selectBlock := main.EntryBlock
	require.Len(t, selectBlock.Successors, 2)
	matchEdge := edgeWithLabel(selectBlock.Successors, "match")
	nextEdge := edgeWithLabel(selectBlock.Successors, "next")
	require.NotNil(t, matchEdge)
	require.NotNil(t, nextEdge)

	// The second test block must itself branch into a body and a further
	// "next" block holding CASE ELSE, since cases never fall through.
	secondTest := nextEdge.To
	require.Len(t, secondTest.Successors, 2)
	secondMatch := edgeWithLabel(secondTest.Successors, "match")
	secondNext := edgeWithLabel(secondTest.Successors, "next")
	require.NotNil(t, secondMatch)
	require.NotNil(t, secondNext)

	elseBody := secondNext.To
	require.Len(t, elseBody.Successors, 1)

	// Every body, including CASE ELSE, converges on the same exit block.
	exit := elseBody.Successors[0].To
	require.Len(t, matchEdge.To.Successors, 1)
	assert.Equal(t, exit, matchEdge.To.Successors[0].To)
	require.Len(t, secondMatch.To.Successors, 1)
	assert.Equal(t, exit, secondMatch.To.Successors[0].To)
}

func TestBuild_FunctionBodyGetsItsOwnCFG(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(0, &ast.Function{
			Name:       "ADD",
			Parameters: []string{"A", "B"},
			ReturnType: "INTEGER",
			Body: []*ast.Line{
				ln(0, &ast.Return{Expr: &ast.Binary{
					Left:  &ast.Variable{Name: "A"},
					Op:    ast.OpAdd,
					Right: &ast.Variable{Name: "B"},
				}}),
			},
		}),
	}}

	pcfg, errs, err := Build(program, symbols.NewTable(nil), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	fnCFG, ok := pcfg.Functions["ADD"]
	require.True(t, ok)
	assert.False(t, fnCFG.IsSub)
	assert.Equal(t, []string{"A", "B"}, fnCFG.Parameters)
}
