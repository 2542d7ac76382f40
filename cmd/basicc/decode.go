package main

import (
	"encoding/gob"
	"os"

	"basicc/compiler/ast"
	"basicc/compiler/symbols"
)

// programInput is the on-disk interchange format this binary consumes: a
// gob-encoded AST plus the flattened symbol table contents a semantic
// analyzer upstream of this repository would have produced. The lexer,
// parser, and semantic analyzer that turn BASIC source text into this
// shape are out of scope here; this is the boundary where their output
// would be handed off.
type programInput struct {
	Program *ast.Program

	Variables []*symbols.VariableSymbol
	Arrays    []*symbols.ArraySymbol
	Functions []*symbols.FunctionSymbol
	Types     []*symbols.TypeSymbol
	Labels    []*symbols.LabelSymbol
	Lines     []int
}

func init() {
	gob.Register(&ast.Number{})
	gob.Register(&ast.String{})
	gob.Register(&ast.Variable{})
	gob.Register(&ast.ArrayAccess{})
	gob.Register(&ast.Binary{})
	gob.Register(&ast.Unary{})
	gob.Register(&ast.FunctionCall{})
	gob.Register(&ast.MemberAccess{})
	gob.Register(&ast.IIF{})

	gob.Register(&ast.Print{})
	gob.Register(&ast.Input{})
	gob.Register(&ast.Let{})
	gob.Register(&ast.If{})
	gob.Register(&ast.For{})
	gob.Register(&ast.Next{})
	gob.Register(&ast.While{})
	gob.Register(&ast.Wend{})
	gob.Register(&ast.Do{})
	gob.Register(&ast.Loop{})
	gob.Register(&ast.Repeat{})
	gob.Register(&ast.Until{})
	gob.Register(&ast.Case{})
	gob.Register(&ast.TryCatch{})
	gob.Register(&ast.Throw{})
	gob.Register(&ast.Goto{})
	gob.Register(&ast.Gosub{})
	gob.Register(&ast.OnGoto{})
	gob.Register(&ast.OnGosub{})
	gob.Register(&ast.OnEvent{})
	gob.Register(&ast.Label{})
	gob.Register(&ast.Dim{})
	gob.Register(&ast.Return{})
	gob.Register(&ast.End{})
	gob.Register(&ast.Exit{})
	gob.Register(&ast.Function{})
	gob.Register(&ast.Sub{})
	gob.Register(&ast.Def{})
	gob.Register(&ast.Local{})
	gob.Register(&ast.Shared{})
	gob.Register(&ast.Rem{})
	gob.Register(&ast.Call{})
}

// loadInput reads a gob-encoded programInput file and rebuilds the
// ast.Program plus a flat symbols.Table from it.
func loadInput(path string) (*ast.Program, *symbols.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var in programInput
	if err := gob.NewDecoder(f).Decode(&in); err != nil {
		return nil, nil, err
	}

	symTable := symbols.NewTable(nil)
	for _, v := range in.Variables {
		symTable.AddVariable(v)
	}
	for _, a := range in.Arrays {
		symTable.AddArray(a)
	}
	for _, fn := range in.Functions {
		symTable.AddFunction(fn)
	}
	for _, ty := range in.Types {
		symTable.AddType(ty)
	}
	for _, l := range in.Labels {
		symTable.AddLabel(l)
	}
	for _, n := range in.Lines {
		symTable.AddLineNumber(n)
	}

	return in.Program, symTable, nil
}
