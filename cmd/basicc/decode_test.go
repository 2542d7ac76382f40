package main

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basicc/compiler/ast"
	"basicc/compiler/symbols"
)

func writeInput(t *testing.T, in programInput) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.gob")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, gob.NewEncoder(f).Encode(in))
	return path
}

func TestLoadInput_RoundTrips(t *testing.T) {
	in := programInput{
		Program: &ast.Program{Lines: []*ast.Line{
			{Number: 10, Statements: []ast.Statement{
				&ast.Print{Items: []ast.PrintItem{{Expr: &ast.String{Value: "HI"}}}},
			}},
		}},
		Variables: []*symbols.VariableSymbol{
			{Name: "X", PlainName: "X", Type: symbols.TypeInteger},
		},
	}

	path := writeInput(t, in)

	program, symTable, err := loadInput(path)
	require.NoError(t, err)

	require.Len(t, program.Lines, 1)
	assert.Equal(t, 10, program.Lines[0].Number)

	sym := symTable.LookupVariable("X")
	require.NotNil(t, sym)
	assert.Equal(t, symbols.TypeInteger, sym.Type)
}

func TestLoadInput_MissingFile(t *testing.T) {
	_, _, err := loadInput(filepath.Join(t.TempDir(), "missing.gob"))
	assert.Error(t, err)
}
