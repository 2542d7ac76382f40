// Package cfgbuild turns an ast.Program plus a symbols.Table into a
// ProgramCFG whose basic blocks and edges expose every possible runtime
// transition explicitly, including the unstructured ones (GOTO/GOSUB/ON
// GOTO/ON GOSUB) that a naive structured walk would miss.
package cfgbuild

import (
	"fmt"

	"basicc/compiler/ast"
	"basicc/compiler/symbols"
)

// EdgeKind classifies how control reaches one block from another.
type EdgeKind int

const (
	Fallthrough EdgeKind = iota
	Conditional
	Unconditional
	Call
	Return
)

func (k EdgeKind) String() string {
	switch k {
	case Fallthrough:
		return "fallthrough"
	case Conditional:
		return "conditional"
	case Unconditional:
		return "unconditional"
	case Call:
		return "call"
	case Return:
		return "return"
	default:
		return "unknown"
	}
}

// CFGEdge is a possible transition between two blocks.
type CFGEdge struct {
	From  *BasicBlock
	To    *BasicBlock
	Kind  EdgeKind
	Label string // "true", "false", "match", "next", "continue", "exit", "repeat", "default", "exception", an ON GOTO target index, or ""
}

// StmtRef pairs a statement with the source line it was found on, so the
// code generator can attribute diagnostics precisely even though several
// source lines may share one block.
type StmtRef struct {
	Stmt ast.Statement
	Line int
}

// BasicBlock is a maximal straight-line run of statements with one entry
// and one exit by control flow.
type BasicBlock struct {
	ID           int
	Label        string
	Statements   []StmtRef
	Successors   []*CFGEdge
	Predecessors []*CFGEdge

	IsLoopHeader bool
	IsLoopExit   bool
	IsSubroutine bool
	IsTerminator bool
}

func (b *BasicBlock) append(stmt ast.Statement, line int) {
	b.Statements = append(b.Statements, StmtRef{Stmt: stmt, Line: line})
}

// LastStatement returns the last statement appended to the block, or nil.
func (b *BasicBlock) LastStatement() ast.Statement {
	if len(b.Statements) == 0 {
		return nil
	}
	return b.Statements[len(b.Statements)-1].Stmt
}

// ControlFlowGraph is one function's (or the main program's) CFG.
type ControlFlowGraph struct {
	Blocks            []*BasicBlock
	Edges             []*CFGEdge
	EntryBlock        *BasicBlock
	ExitBlock         *BasicBlock
	LineNumberToBlock map[int]*BasicBlock

	// Function metadata; zero values for the main program CFG.
	FunctionName   string
	IsSub          bool
	IsDefFn        bool
	Parameters     []string
	ParameterTypes []symbols.VariableType
	ReturnType     symbols.VariableType

	// GosubReturnMap maps a GOSUB call block's id to the id of the block
	// it should resume at; GosubReturnBlocks flags every block that is
	// some GOSUB's resume point, so the code generator can assign each one
	// a stable return id for RETURN's computed jump.
	GosubReturnMap    map[int]int
	GosubReturnBlocks map[int]bool
}

// BlockForLineOrNext resolves a GOTO/GOSUB target line. A line number that
// has no statement of its own (a comment, a deleted line) still has to be a
// valid jump target, so when there's no exact match this returns the block
// for the nearest defined line number at or after it.
func (cfg *ControlFlowGraph) BlockForLineOrNext(line int) *BasicBlock {
	if b, ok := cfg.LineNumberToBlock[line]; ok {
		return b
	}
	best := -1
	for n := range cfg.LineNumberToBlock {
		if n >= line && (best == -1 || n < best) {
			best = n
		}
	}
	if best == -1 {
		return nil
	}
	return cfg.LineNumberToBlock[best]
}

// ProgramCFG exclusively owns the main CFG plus one CFG per user
// FUNCTION/SUB/DEF FN.
type ProgramCFG struct {
	MainCFG   *ControlFlowGraph
	Functions map[string]*ControlFlowGraph
}

// Options control CFG construction.
type Options struct {
	CreateExitBlock bool
	Debug           bool
}

// DefaultOptions returns the options used when a caller has no reason to
// deviate: an explicit exit block every function's RETURN/END edges land on.
func DefaultOptions() Options {
	return Options{CreateExitBlock: true}
}

// String renders a human-readable block/edge dump via Report.
func (cfg *ControlFlowGraph) String() string {
	return Report(cfg)
}

// Report renders a CFG as a human-readable block/edge listing, for
// debugging. The pipeline's `--dump-cfg` output uses its own format.
func Report(cfg *ControlFlowGraph) string {
	out := fmt.Sprintf("CFG %q (%d blocks, %d edges):\n", cfg.FunctionName, len(cfg.Blocks), len(cfg.Edges))
	for _, b := range cfg.Blocks {
		flags := ""
		if b.IsLoopHeader {
			flags += " loopheader"
		}
		if b.IsLoopExit {
			flags += " loopexit"
		}
		if b.IsSubroutine {
			flags += " subroutine"
		}
		if b.IsTerminator {
			flags += " terminator"
		}
		out += fmt.Sprintf("  block %d (%s)%s: %d statements\n", b.ID, b.Label, flags, len(b.Statements))
		for _, e := range b.Successors {
			out += fmt.Sprintf("    -> %d [%s %s]\n", e.To.ID, e.Kind, e.Label)
		}
	}
	return out
}
