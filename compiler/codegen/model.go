// Package codegen lowers a cfgbuild.ProgramCFG into QBE intermediate
// language text: one function per user FUNCTION/SUB/DEF FN plus $main,
// followed by a data section holding string literals and the global
// variable vector. No extern declarations for the runtime entry points are
// emitted.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"basicc/compiler/ast"
	"basicc/compiler/cfgbuild"
	"basicc/compiler/symbols"
)

// Options govern comment emission and bounds checks. EmitStats is carried
// through from the pipeline, but nothing in this package reads it.
type Options struct {
	EmitComments bool
	BoundsCheck  bool
	EmitStats    bool
}

// DefaultOptions turns bounds checks on (the safe default for AOT-compiled
// BASIC, where an out-of-range array index would otherwise corrupt memory)
// and leaves comments/stats off.
func DefaultOptions() Options {
	return Options{BoundsCheck: true}
}

// value is an emitted SSA result: a QBE operand name (a temp, an immediate,
// or a global) tagged with both its QBE storage width and the semantic
// BASIC type it represents, since several codegen rules need both axes.
type value struct {
	Name string
	QBE  symbols.QBEType
	Sem  symbols.VariableType
}

// strLiteral is one interned string constant, encoded per §4.3: ASCII when
// every code point is below 128, UTF-32 otherwise.
type strLiteral struct {
	Label    string
	IsASCII  bool
	Runes    []rune
}

// generator holds state shared across every function in one program: the
// temp/label/literal counters (monotonic across the whole emission so
// output is deterministic), interned string literals, and the global
// variable vector's slot assignments.
type generator struct {
	symTable *symbols.Table
	opts     Options

	tempCounter  int
	labelCounter int

	literals    []strLiteral
	literalByID map[string]int // content key -> index into literals, dedupes identical literals

	globalSlots map[string]int // mangled name -> slot index in __global_vector
	nextSlot    int

	udts map[string]*udtLayout

	errs []*GenError
}

func newGenerator(symTable *symbols.Table, opts Options) *generator {
	return &generator{
		symTable:    symTable,
		opts:        opts,
		literalByID: make(map[string]int),
		globalSlots: make(map[string]int),
		udts:        make(map[string]*udtLayout),
	}
}

func (g *generator) newTemp() string {
	g.tempCounter++
	return fmt.Sprintf("%%t%d", g.tempCounter)
}

func (g *generator) newLabel(prefix string) string {
	g.labelCounter++
	return fmt.Sprintf("@%s_%d", prefix, g.labelCounter)
}

// funcGen is the per-function emission context: the temp/label counters
// live on the shared generator, but scope (locals/shared/FOR bookkeeping)
// resets for every FUNCTION/SUB/DEF FN, matching §4.2.5's "fresh function
// context" rule.
type funcGen struct {
	*generator

	cfg *cfgbuild.ControlFlowGraph
	buf strings.Builder

	locals map[string]bool
	shared map[string]bool

	activeForVars map[string]bool // plain loop variable -> currently inside its FOR/NEXT body

	forStep map[string]string // plain loop variable -> temp holding its step value
	forEnd  map[string]string // plain loop variable -> temp holding its end value

	forChecks   map[int]*ast.For // check block id -> its FOR statement (the check block itself carries no statement)
	forVarStack []string         // innermost-first stack of active loop variables, for a bare NEXT

	gosubCallToID   map[int]int               // GOSUB call block id -> small return id
	gosubIDToResume map[int]*cfgbuild.BasicBlock // small return id -> resume block

	lastCond string // temp holding the most recently evaluated branch condition

	blockLabels map[int]string
	exitLabel   string

	pendingSelect *selectState
}

func newFuncGen(g *generator, cfg *cfgbuild.ControlFlowGraph) *funcGen {
	fg := &funcGen{
		generator:     g,
		cfg:           cfg,
		locals:        make(map[string]bool),
		shared:        make(map[string]bool),
		activeForVars: make(map[string]bool),
		forStep:       make(map[string]string),
		forEnd:        make(map[string]string),
		forChecks:     make(map[int]*ast.For),
		blockLabels:   make(map[int]string),
	}
	for _, blk := range cfg.Blocks {
		fg.blockLabels[blk.ID] = fmt.Sprintf("@block_%d", blk.ID)
	}
	fg.exitLabel = "@exit"

	fg.gosubCallToID = make(map[int]int)
	fg.gosubIDToResume = make(map[int]*cfgbuild.BasicBlock)
	callIDs := make([]int, 0, len(cfg.GosubReturnMap))
	for callID := range cfg.GosubReturnMap {
		callIDs = append(callIDs, callID)
	}
	sort.Ints(callIDs)
	for i, callID := range callIDs {
		retID := i + 1
		fg.gosubCallToID[callID] = retID
		fg.gosubIDToResume[retID] = fg.blockByCFGID(cfg, cfg.GosubReturnMap[callID])
	}

	return fg
}

func (fg *funcGen) blockByCFGID(cfg *cfgbuild.ControlFlowGraph, id int) *cfgbuild.BasicBlock {
	for _, blk := range cfg.Blocks {
		if blk.ID == id {
			return blk
		}
	}
	return nil
}

func (fg *funcGen) emit(format string, args ...any) {
	fmt.Fprintf(&fg.buf, "  "+format+"\n", args...)
}

// label emits a block-entry label line. QBE writes these as a bare "@name"
// with no trailing colon.
func (fg *funcGen) label(l string) {
	if !strings.HasPrefix(l, "@") {
		l = "@" + l
	}
	fmt.Fprintf(&fg.buf, "%s\n", l)
}

// atLabel normalizes a label name to its "@name" jump-target spelling.
func atLabel(l string) string {
	if strings.HasPrefix(l, "@") {
		return l
	}
	return "@" + l
}

func (fg *funcGen) comment(format string, args ...any) {
	if !fg.opts.EmitComments {
		return
	}
	fmt.Fprintf(&fg.buf, "  # "+format+"\n", args...)
}
