package cfgbuild

import (
	"basicc/compiler/ast"
	"basicc/compiler/symbols"
)

// pendingEdge is a jump whose target (a line number or label) might not
// resolve to a block until the whole CFG has been built — forward GOTOs
// are the common case. These are resolved in resolvePending after Phase 1
// finishes placing every block.
type pendingEdge struct {
	fromID      int
	kind        EdgeKind
	label       string
	targetLine  int
	targetLabel string
	useLabel    bool
}

// forContext tracks one open FOR loop. Unlike WHILE/DO/REPEAT, FOR is
// fully self-contained: NEXT creates the exit block and wires everything
// immediately, so this context never survives past its own NEXT statement.
type forContext struct {
	checkBlockID      int
	variable          string
	pendingExitBlocks []int
}

// loopContext tracks one open WHILE / DO / REPEAT loop. The header/back
// edges are wired when the closing statement (WEND/LOOP/UNTIL) is reached;
// because BASIC's loop constructs are always well-bracketed, popping the
// innermost open context at that point resolves them correctly without a
// separate nesting-depth scan.
type loopContext struct {
	kind          string // "while", "do", "repeat"
	headerBlockID int
	doCondition   ast.DoConditionType // only meaningful for kind == "do"
}

// selectContext tracks one open SELECT CASE for its wiring.
type selectContext struct {
	testBlockIDs []int
	bodyBlockIDs []int
	elseBlockID  int // -1 if none
	exitBlockID  int
}

// tryContext tracks one open TRY/CATCH/FINALLY.
type tryContext struct {
	catchBlockIDs []int
	finallyID     int // -1 if none
	exitID        int
}

type builder struct {
	symTable *symbols.Table
	opts     Options

	cfg          *ControlFlowGraph
	nextID       int
	currentBlock *BasicBlock

	jumpTargets map[int]bool
	labelBlocks map[string]int

	gosubReturnMap    map[int]int
	gosubReturnBlocks map[int]bool
	nextToHeaderMap   map[int]int

	pending []pendingEdge

	forStack    []*forContext
	loopStack   []*loopContext
	selectStack []*selectContext
	tryStack    []*tryContext

	pendingFunctions []pendingFunction

	errs []*BuildError
}

// pendingFunction records a FUNCTION/SUB/DEF body discovered while walking
// the outer CFG, to be built into its own CFG after the outer walk
// completes.
type pendingFunction struct {
	name       string
	isSub      bool
	isDefFn    bool
	params     []string
	paramTypes []symbols.VariableType
	returnType symbols.VariableType
	body       []*ast.Line
}

// Build turns a Program plus its symbol table into a ProgramCFG. The
// returned []*BuildError lists tolerated structural errors; err is non-nil
// only for inputs the builder cannot proceed past at all.
func Build(program *ast.Program, symTable *symbols.Table, opts Options) (*ProgramCFG, []*BuildError, error) {
	pcfg := &ProgramCFG{Functions: make(map[string]*ControlFlowGraph)}
	var allErrs []*BuildError

	b := newBuilder(symTable, opts)
	mainCFG, err := b.buildOne(program.Lines, "", false, false, nil, nil, symbols.TypeInteger)
	allErrs = append(allErrs, b.errs...)
	if err != nil {
		return nil, allErrs, err
	}
	pcfg.MainCFG = mainCFG

	queue := b.pendingFunctions
	for len(queue) > 0 {
		fn := queue[0]
		queue = queue[1:]

		if symTable != nil {
			if fs := symTable.LookupFunction(fn.name); fs != nil {
				fn.returnType = fs.ReturnType
				fn.paramTypes = make([]symbols.VariableType, len(fs.Parameters))
				for i, p := range fs.Parameters {
					fn.paramTypes[i] = p.Type
				}
			}
		}

		fb := newBuilder(symTable, opts)
		fcfg, ferr := fb.buildOne(fn.body, fn.name, fn.isSub, fn.isDefFn, fn.params, fn.paramTypes, fn.returnType)
		allErrs = append(allErrs, fb.errs...)
		if ferr != nil {
			return pcfg, allErrs, ferr
		}
		pcfg.Functions[fn.name] = fcfg
		queue = append(queue, fb.pendingFunctions...)
	}

	return pcfg, allErrs, nil
}

func newBuilder(symTable *symbols.Table, opts Options) *builder {
	return &builder{
		symTable:          symTable,
		opts:              opts,
		jumpTargets:       make(map[int]bool),
		labelBlocks:       make(map[string]int),
		gosubReturnMap:    make(map[int]int),
		gosubReturnBlocks: make(map[int]bool),
		nextToHeaderMap:   make(map[int]int),
	}
}

func (b *builder) newBlock(label string) *BasicBlock {
	blk := &BasicBlock{ID: b.nextID, Label: label}
	b.nextID++
	b.cfg.Blocks = append(b.cfg.Blocks, blk)
	return blk
}

func (b *builder) addEdge(from, to *BasicBlock, kind EdgeKind, label string) *CFGEdge {
	e := &CFGEdge{From: from, To: to, Kind: kind, Label: label}
	from.Successors = append(from.Successors, e)
	to.Predecessors = append(to.Predecessors, e)
	b.cfg.Edges = append(b.cfg.Edges, e)
	return e
}

// blockByID finds a block by id. Ids are assigned sequentially starting at
// 0 in creation order, so this is a direct slice index.
func (b *builder) blockByID(id int) *BasicBlock {
	return b.cfg.Blocks[id]
}

// buildOne runs the full algorithm for a single function (or the main
// program when name == "" and isSub/isDefFn are both false).
func (b *builder) buildOne(lines []*ast.Line, name string, isSub, isDefFn bool, params []string, paramTypes []symbols.VariableType, returnType symbols.VariableType) (*ControlFlowGraph, error) {
	b.cfg = &ControlFlowGraph{
		FunctionName:      name,
		IsSub:             isSub,
		IsDefFn:           isDefFn,
		Parameters:        params,
		ParameterTypes:    paramTypes,
		ReturnType:        returnType,
		LineNumberToBlock: make(map[int]*BasicBlock),
	}

	entry := b.newBlock("entry")
	b.cfg.EntryBlock = entry
	b.currentBlock = entry

	if b.opts.CreateExitBlock {
		b.cfg.ExitBlock = b.newBlock("exit")
	}

	// Phase 0: jump-target pre-scan.
	b.scanJumpTargets(lines)

	// Phase 1: block and statement placement (plus inline wiring for
	// constructs whose edges never need a forward line reference).
	for _, line := range lines {
		b.placeLine(line)
	}
	for _, e := range b.errs {
		if e.Kind == ErrOnGotoEmptyTargets {
			return b.cfg, e
		}
	}

	if b.cfg.ExitBlock != nil && len(b.currentBlock.Successors) == 0 && b.currentBlock != b.cfg.ExitBlock {
		b.addEdge(b.currentBlock, b.cfg.ExitBlock, Fallthrough, "")
	}

	if err := b.resolvePending(); err != nil {
		return b.cfg, err
	}
	b.fillDefaultFallthrough()
	b.identifyLoops()
	b.identifySubroutines()
	b.cfg.GosubReturnMap = b.gosubReturnMap
	b.cfg.GosubReturnBlocks = b.gosubReturnBlocks
	// Block-merging/optimization is an intentional no-op: nothing downstream
	// depends on minimal block counts, and merging would complicate the
	// line-number-to-block mapping for no benefit.

	return b.cfg, nil
}
