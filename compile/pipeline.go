// Package compile wires the CFG builder and code generator into a single
// driver: ast.Program + symbols.Table in, QBE IL text out, accumulating
// diagnostics at every stage rather than aborting on the first one.
package compile

import (
	"fmt"

	"basicc/compiler/ast"
	"basicc/compiler/cfgbuild"
	"basicc/compiler/codegen"
	"basicc/compiler/symbols"
)

// CompilationResult contains the output of the compilation pipeline.
type CompilationResult struct {
	// Input program, already parsed and resolved upstream of this package.
	Program  *ast.Program
	SymTable *symbols.Table

	// Per-function control flow graphs, keyed by function name; the
	// top-level program's graph is ProgramCFG.MainCFG.
	ProgramCFG *cfgbuild.ProgramCFG

	// Generated QBE intermediate language text.
	IL string

	// Error tracking. Build/gen errors are tolerated inconsistencies the
	// corresponding stage recovered from by emitting a best-effort
	// fallback. A stage that cannot proceed at all makes Pipeline return a
	// non-nil error alongside this result instead.
	BuildErrors []*cfgbuild.BuildError
	GenErrors   []*codegen.GenError

	Success bool
}

// PipelineOptions configures the compilation pipeline.
type PipelineOptions struct {
	// Input. A pre-built AST and its resolved symbol table; lexing and
	// parsing BASIC source text happen upstream of this package.
	Program  *ast.Program
	SymTable *symbols.Table

	// Pipeline control flags.
	StopAfterCFG     bool
	StopAfterCodegen bool

	// CFG construction options, mirroring cfgbuild.Options.
	CreateExitBlock bool

	// Code generation options, mirroring codegen.Options.
	EmitComments bool
	BoundsCheck  bool
	EmitStats    bool

	// Debug output.
	DumpCFG bool
	DumpIL  bool
	Verbose bool
}

// DefaultPipelineOptions returns default pipeline options: an exit block is
// always synthesized and array bounds checks stay on, matching
// codegen.DefaultOptions.
func DefaultPipelineOptions() *PipelineOptions {
	return &PipelineOptions{
		CreateExitBlock: true,
		BoundsCheck:     true,
	}
}

// Pipeline runs the complete ast+symbols -> cfgbuild -> codegen pipeline.
func Pipeline(opts *PipelineOptions) (*CompilationResult, error) {
	result := &CompilationResult{
		Program:  opts.Program,
		SymTable: opts.SymTable,
		Success:  false,
	}

	if opts.Program == nil {
		return result, fmt.Errorf("no program provided")
	}
	if opts.SymTable == nil {
		return result, fmt.Errorf("no symbol table provided")
	}

	// ==========================================================================
	// Stage 1: Control Flow Graph Construction
	// ==========================================================================
	if opts.Verbose {
		fmt.Println("==> Stage 1: Control Flow Graph Construction")
	}

	cfgOpts := cfgbuild.Options{
		CreateExitBlock: opts.CreateExitBlock,
		Debug:           opts.Verbose,
	}

	pcfg, buildErrors, err := cfgbuild.Build(opts.Program, opts.SymTable, cfgOpts)
	result.ProgramCFG = pcfg
	result.BuildErrors = buildErrors

	if len(buildErrors) > 0 && opts.Verbose {
		fmt.Printf("CFG builder reported %d tolerated errors\n", len(buildErrors))
		for _, e := range buildErrors {
			fmt.Printf("  %s\n", e.Error())
		}
	}

	if err != nil {
		return result, fmt.Errorf("CFG construction failed: %w", err)
	}

	if opts.Verbose {
		fmt.Printf("  Built CFG for main program with %d blocks\n", len(pcfg.MainCFG.Blocks))
		for name, fnCFG := range pcfg.Functions {
			fmt.Printf("  Built CFG for function '%s' with %d blocks\n", name, len(fnCFG.Blocks))
		}
	}

	if opts.DumpCFG {
		dumpCFG("main", pcfg.MainCFG)
		for name, fnCFG := range pcfg.Functions {
			dumpCFG(name, fnCFG)
		}
	}

	if opts.StopAfterCFG {
		result.Success = true
		return result, nil
	}

	// ==========================================================================
	// Stage 2: Code Generation
	// ==========================================================================
	if opts.Verbose {
		fmt.Println("==> Stage 2: Code Generation")
	}

	genOpts := codegen.Options{
		EmitComments: opts.EmitComments,
		BoundsCheck:  opts.BoundsCheck,
		EmitStats:    opts.EmitStats,
	}

	il, genErrors, err := codegen.Generate(pcfg, opts.SymTable, genOpts)
	result.IL = il
	result.GenErrors = genErrors

	if len(genErrors) > 0 && opts.Verbose {
		fmt.Printf("Code generator reported %d tolerated errors\n", len(genErrors))
		for _, e := range genErrors {
			fmt.Printf("  %s\n", e.Error())
		}
	}

	if err != nil {
		return result, fmt.Errorf("code generation failed: %w", err)
	}

	if opts.DumpIL {
		dumpIL(il)
	}

	if opts.StopAfterCodegen {
		result.Success = true
		return result, nil
	}

	// ==========================================================================
	// Pipeline Complete
	// ==========================================================================
	result.Success = true
	return result, nil
}

// =============================================================================
// Debug Dump Functions
// =============================================================================

func dumpCFG(fnName string, fnCFG *cfgbuild.ControlFlowGraph) {
	fmt.Printf("========== CFG: %s ==========\n", fnName)
	fmt.Printf("Entry: Block %d\n", fnCFG.EntryBlock.ID)
	if fnCFG.ExitBlock != nil {
		fmt.Printf("Exit:  Block %d\n", fnCFG.ExitBlock.ID)
	}
	fmt.Printf("Blocks: %d\n", len(fnCFG.Blocks))
	for _, block := range fnCFG.Blocks {
		fmt.Printf("  Block %d [%s]: %d statements, %d successors\n",
			block.ID, block.Label, len(block.Statements), len(block.Successors))
	}
	fmt.Println()
}

func dumpIL(il string) {
	fmt.Println("========== IL ==========")
	fmt.Println(il)
}
