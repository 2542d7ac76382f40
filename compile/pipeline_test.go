package compile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basicc/compiler/ast"
	"basicc/compiler/symbols"
)

// line builds a numbered ast.Line from a statement list, mirroring how a
// hand-authored program literal reads on the page.
func line(number int, stmts ...ast.Statement) *ast.Line {
	return &ast.Line{Number: number, Statements: stmts}
}

func printStr(s string) *ast.Print {
	return &ast.Print{Items: []ast.PrintItem{{Expr: &ast.String{Value: s}}}}
}

func TestPipeline_SimplePrintProgram(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{
		line(10, printStr("HELLO")),
		line(20, &ast.Let{
			Target: &ast.Variable{Name: "X"},
			Value:  &ast.Number{Value: 1, IsInt: true},
		}),
	}}

	symTable := symbols.NewTable(nil)
	symTable.AddVariable(&symbols.VariableSymbol{Name: "X", PlainName: "X", Type: symbols.TypeInteger})

	opts := DefaultPipelineOptions()
	opts.Program = program
	opts.SymTable = symTable

	result, err := Pipeline(opts)
	require.NoError(t, err)
	require.True(t, result.Success)

	require.NotNil(t, result.ProgramCFG)
	require.NotNil(t, result.ProgramCFG.MainCFG)
	assert.Empty(t, result.BuildErrors)
	assert.NotEmpty(t, result.ProgramCFG.MainCFG.Blocks)

	assert.Empty(t, result.GenErrors)
	assert.Contains(t, result.IL, "export function l $main(")
	assert.True(t, strings.Contains(result.IL, "rt_print_str") || strings.Contains(result.IL, "data $str_"))
}

func TestPipeline_StopAfterCFG(t *testing.T) {
	program := &ast.Program{Lines: []*ast.Line{line(10, printStr("HI"))}}
	symTable := symbols.NewTable(nil)

	opts := DefaultPipelineOptions()
	opts.Program = program
	opts.SymTable = symTable
	opts.StopAfterCFG = true

	result, err := Pipeline(opts)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotNil(t, result.ProgramCFG)
	assert.Empty(t, result.IL)
}

func TestPipeline_RequiresProgramAndSymbolTable(t *testing.T) {
	opts := DefaultPipelineOptions()
	_, err := Pipeline(opts)
	assert.Error(t, err)

	opts.Program = &ast.Program{}
	_, err = Pipeline(opts)
	assert.Error(t, err)
}
