package codegen

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basicc/compiler/ast"
	"basicc/compiler/cfgbuild"
	"basicc/compiler/symbols"
)

func ln(number int, stmts ...ast.Statement) *ast.Line {
	return &ast.Line{Number: number, Statements: stmts}
}

func buildCFG(t *testing.T, program *ast.Program, symTable *symbols.Table) *cfgbuild.ProgramCFG {
	t.Helper()
	pcfg, errs, err := cfgbuild.Build(program, symTable, cfgbuild.DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, errs)
	return pcfg
}

func TestGenerate_PrintStringLiteral(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.Print{Items: []ast.PrintItem{{Expr: &ast.String{Value: "HELLO"}}}}),
	}}
	symTable := symbols.NewTable(nil)
	pcfg := buildCFG(t, program, symTable)

	il, errs, err := Generate(pcfg, symTable, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	assert.Contains(t, il, "export function l $main(")
	assert.Contains(t, il, "call $rt_print_str(")
	assert.Contains(t, il, "call $rt_print_newline()")
	assert.Contains(t, il, "data $str_")
}

func TestGenerate_LetStoresIntoGlobalVector(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.Let{Target: &ast.Variable{Name: "X"}, Value: &ast.Number{Value: 42, IsInt: true}}),
	}}
	symTable := symbols.NewTable(nil)
	symTable.AddVariable(&symbols.VariableSymbol{Name: "X", PlainName: "X", Type: symbols.TypeInteger})
	pcfg := buildCFG(t, program, symTable)

	il, errs, err := Generate(pcfg, symTable, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	assert.Contains(t, il, "data $__global_vector")
	assert.Contains(t, il, "storel")
}

func TestGenerate_ComparisonAlwaysCarriesWidthSuffix(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.If{
			Condition: &ast.Binary{
				Left:  &ast.Variable{Name: "X"},
				Op:    ast.OpLt,
				Right: &ast.Number{Value: 10, IsInt: true},
			},
			IsMultiLine:    false,
			ThenStatements: []ast.Statement{&ast.Print{Items: []ast.PrintItem{{Expr: &ast.String{Value: "LT"}}}}},
		}),
	}}
	symTable := symbols.NewTable(nil)
	symTable.AddVariable(&symbols.VariableSymbol{Name: "X", PlainName: "X", Type: symbols.TypeInteger})
	pcfg := buildCFG(t, program, symTable)

	il, errs, err := Generate(pcfg, symTable, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	assert.Contains(t, il, "csltl") // comparisons on Integer/Long use the "l" width suffix
	assert.Contains(t, il, "jnz")
}

func TestGenerate_BlockLabelsUseAtSigilNotColon(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.If{
			Condition:      &ast.Variable{Name: "X"},
			IsMultiLine:    false,
			ThenStatements: []ast.Statement{&ast.Print{Items: []ast.PrintItem{{Expr: &ast.String{Value: "T"}}}}},
			ElseStatements: []ast.Statement{&ast.Print{Items: []ast.PrintItem{{Expr: &ast.String{Value: "F"}}}}},
		}),
	}}
	symTable := symbols.NewTable(nil)
	symTable.AddVariable(&symbols.VariableSymbol{Name: "X", PlainName: "X", Type: symbols.TypeInteger})
	pcfg := buildCFG(t, program, symTable)

	il, errs, err := Generate(pcfg, symTable, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	assert.Contains(t, il, "@block_")
	assert.NotContains(t, il, "block_0:")
	assert.Contains(t, il, "@exit")
}

func TestGenerate_GosubCallPushesAndReturnPops(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.Gosub{Line: 100}),
		ln(20, &ast.Print{Items: []ast.PrintItem{{Expr: &ast.String{Value: "AFTER"}}}}),
		ln(100, &ast.Print{Items: []ast.PrintItem{{Expr: &ast.String{Value: "SUB"}}}}),
		ln(110, &ast.Return{}),
	}}
	symTable := symbols.NewTable(nil)
	pcfg := buildCFG(t, program, symTable)

	il, errs, err := Generate(pcfg, symTable, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	assert.Contains(t, il, "call $rt_gosub_push(w 1)")
	assert.Contains(t, il, "call $rt_gosub_pop()")
}

func TestGenerate_ForNextInitializesTestsAndIncrements(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.For{
			Variable: "I",
			Start:    &ast.Number{Value: 1, IsInt: true},
			End:      &ast.Number{Value: 10, IsInt: true},
		}),
		ln(20, &ast.Print{Items: []ast.PrintItem{{Expr: &ast.Variable{Name: "I"}}}}),
		ln(30, &ast.Next{Variable: "I"}),
	}}
	symTable := symbols.NewTable(nil)
	symTable.AddVariable(&symbols.VariableSymbol{Name: "I", PlainName: "I", Type: symbols.TypeInteger})
	pcfg := buildCFG(t, program, symTable)

	il, errs, err := Generate(pcfg, symTable, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	assert.Contains(t, il, "%var_I =l copy") // initial store of the loop variable
	assert.Contains(t, il, "cslel")          // ascending (STEP defaults to +1) continuation test
	assert.Contains(t, il, "add")            // per-iteration increment
}

func TestGenerate_ForNextWithVariableStepTestsSignAtRuntime(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.For{
			Variable: "I",
			Start:    &ast.Number{Value: 1, IsInt: true},
			End:      &ast.Number{Value: 10, IsInt: true},
			Step:     &ast.Variable{Name: "S"},
		}),
		ln(20, &ast.Print{Items: []ast.PrintItem{{Expr: &ast.Variable{Name: "I"}}}}),
		ln(30, &ast.Next{Variable: "I"}),
	}}
	symTable := symbols.NewTable(nil)
	symTable.AddVariable(&symbols.VariableSymbol{Name: "I", PlainName: "I", Type: symbols.TypeInteger})
	symTable.AddVariable(&symbols.VariableSymbol{Name: "S", PlainName: "S", Type: symbols.TypeInteger})
	pcfg := buildCFG(t, program, symTable)

	il, errs, err := Generate(pcfg, symTable, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	assert.Contains(t, il, "csgel") // sign test on STEP
	assert.Contains(t, il, " or ")  // ascending/descending results combined
}

func TestGenerate_UserFunctionEmitsSeparateFunction(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(0, &ast.Function{
			Name:       "ADD",
			Parameters: []string{"A", "B"},
			Body: []*ast.Line{
				ln(0, &ast.Return{Expr: &ast.Binary{
					Left:  &ast.Variable{Name: "A"},
					Op:    ast.OpAdd,
					Right: &ast.Variable{Name: "B"},
				}}),
			},
		}),
	}}
	symTable := symbols.NewTable(nil)
	pcfg := buildCFG(t, program, symTable)

	il, errs, err := Generate(pcfg, symTable, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	assert.Contains(t, il, "$ADD(")
	assert.Contains(t, il, "%retval")
}

func whileLeOp(name string, n int) *ast.While {
	return &ast.While{Condition: &ast.Binary{Left: &ast.Variable{Name: name}, Op: ast.OpLe, Right: &ast.Number{Value: float64(n), IsInt: true}}}
}

// TestGenerate_WhileLoopDoesNotReplayPrecedingLet reproduces the header-reuse
// bug: a LET right before a WHILE must be emitted in a block that precedes
// the loop header's label, never inside it, or the WEND back edge would
// replay the LET on every iteration.
func TestGenerate_WhileLoopDoesNotReplayPrecedingLet(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.Let{Target: &ast.Variable{Name: "I"}, Value: &ast.Number{Value: 1, IsInt: true}}),
		ln(20, whileLeOp("I", 2)),
		ln(30, &ast.Print{Items: []ast.PrintItem{{Expr: &ast.Variable{Name: "I"}}}}),
		ln(40, &ast.Let{Target: &ast.Variable{Name: "I"}, Value: &ast.Binary{Left: &ast.Variable{Name: "I"}, Op: ast.OpAdd, Right: &ast.Number{Value: 1, IsInt: true}}}),
		ln(50, &ast.Wend{}),
	}}
	symTable := symbols.NewTable(nil)
	symTable.AddVariable(&symbols.VariableSymbol{Name: "I", PlainName: "I", Type: symbols.TypeInteger})
	pcfg := buildCFG(t, program, symTable)

	// Line 20 maps to the block open before WHILE; the header is the block
	// it falls through into.
	preHeader := pcfg.MainCFG.LineNumberToBlock[20]
	require.NotNil(t, preHeader)
	require.Len(t, preHeader.Successors, 1)
	header := preHeader.Successors[0].To
	require.NotNil(t, header)
	require.Len(t, header.Statements, 1)

	il, errs, err := Generate(pcfg, symTable, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	headerLabel := fmt.Sprintf("@block_%d", header.ID)
	labelPos := strings.Index(il, headerLabel)
	require.True(t, labelPos >= 0, "expected header label %s in output", headerLabel)

	firstStore := strings.Index(il, "storel")
	require.True(t, firstStore >= 0)
	assert.Less(t, firstStore, labelPos, "the initial LET's store must be emitted before the loop header, not inside it")
}

func TestGenerate_DoWhileLoopDoesNotReplayPrecedingLet(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.Let{Target: &ast.Variable{Name: "X"}, Value: &ast.Number{Value: 0, IsInt: true}}),
		ln(20, &ast.Do{ConditionType: ast.DoWhile, Condition: &ast.Binary{Left: &ast.Variable{Name: "X"}, Op: ast.OpLt, Right: &ast.Number{Value: 3, IsInt: true}}}),
		ln(30, &ast.Print{Items: []ast.PrintItem{{Expr: &ast.Variable{Name: "X"}}}}),
		ln(40, &ast.Let{Target: &ast.Variable{Name: "X"}, Value: &ast.Binary{Left: &ast.Variable{Name: "X"}, Op: ast.OpAdd, Right: &ast.Number{Value: 1, IsInt: true}}}),
		ln(50, &ast.Loop{}),
	}}
	symTable := symbols.NewTable(nil)
	symTable.AddVariable(&symbols.VariableSymbol{Name: "X", PlainName: "X", Type: symbols.TypeInteger})
	pcfg := buildCFG(t, program, symTable)

	// Line 20 maps to the block open before DO; the header is the block it
	// falls through into.
	preHeader := pcfg.MainCFG.LineNumberToBlock[20]
	require.NotNil(t, preHeader)
	require.Len(t, preHeader.Successors, 1)
	header := preHeader.Successors[0].To
	require.NotNil(t, header)
	require.Len(t, header.Statements, 1)

	il, errs, err := Generate(pcfg, symTable, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	headerLabel := fmt.Sprintf("@block_%d", header.ID)
	labelPos := strings.Index(il, headerLabel)
	require.True(t, labelPos >= 0)

	firstStore := strings.Index(il, "storel")
	require.True(t, firstStore >= 0)
	assert.Less(t, firstStore, labelPos, "the initial LET's store must be emitted before the loop header, not inside it")
}

func TestGenerate_RepeatUntilEmitsBackEdgeAndExitTest(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.Let{Target: &ast.Variable{Name: "X"}, Value: &ast.Number{Value: 0, IsInt: true}}),
		ln(20, &ast.Repeat{}),
		ln(30, &ast.Print{Items: []ast.PrintItem{{Expr: &ast.Variable{Name: "X"}}}}),
		ln(40, &ast.Let{Target: &ast.Variable{Name: "X"}, Value: &ast.Binary{Left: &ast.Variable{Name: "X"}, Op: ast.OpAdd, Right: &ast.Number{Value: 1, IsInt: true}}}),
		ln(50, &ast.Until{Condition: &ast.Binary{Left: &ast.Variable{Name: "X"}, Op: ast.OpEq, Right: &ast.Number{Value: 3, IsInt: true}}}),
	}}
	symTable := symbols.NewTable(nil)
	symTable.AddVariable(&symbols.VariableSymbol{Name: "X", PlainName: "X", Type: symbols.TypeInteger})
	pcfg := buildCFG(t, program, symTable)

	il, errs, err := Generate(pcfg, symTable, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	assert.Contains(t, il, "ceql") // UNTIL's equality test against the body's running value
	assert.Contains(t, il, "jnz")
}

func TestGenerate_SelectCaseComparesSelectorPerClause(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		ln(10, &ast.Case{
			Selector: &ast.Variable{Name: "I"},
			WhenClauses: []ast.WhenClause{
				{Values: []ast.Expression{&ast.Number{Value: 1, IsInt: true}}, Statements: []ast.Statement{&ast.Print{Items: []ast.PrintItem{{Expr: &ast.String{Value: "one"}}}}}},
				{Values: []ast.Expression{&ast.Number{Value: 2, IsInt: true}, &ast.Number{Value: 3, IsInt: true}}, Statements: []ast.Statement{&ast.Print{Items: []ast.PrintItem{{Expr: &ast.String{Value: "twothree"}}}}}},
			},
			OtherwiseStatements: []ast.Statement{&ast.Print{Items: []ast.PrintItem{{Expr: &ast.String{Value: "other"}}}}},
		}),
	}}
	symTable := symbols.NewTable(nil)
	symTable.AddVariable(&symbols.VariableSymbol{Name: "I", PlainName: "I", Type: symbols.TypeInteger})
	pcfg := buildCFG(t, program, symTable)

	il, errs, err := Generate(pcfg, symTable, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, errs)

	assert.Contains(t, il, "ceql") // selector compared against each CASE value
	assert.Contains(t, il, " or ") // CASE 2,3 ORs its two comparisons together
}
