package cfgbuild

import "basicc/compiler/ast"

// resolvePending wires every pendingEdge recorded during placement: GOTO,
// GOSUB, and ON GOTO/ON GOSUB targets that might not have had a block yet
// when they were walked. An unresolved target (a GOTO to a label that was
// never declared) is recorded as a tolerated error rather than aborting
// the whole build, since every other line in the program still compiles.
func (b *builder) resolvePending() error {
	for _, pe := range b.pending {
		from := b.blockByID(pe.fromID)

		var to *BasicBlock
		if pe.useLabel {
			if id, ok := b.labelBlocks[pe.targetLabel]; ok {
				to = b.blockByID(id)
			}
		} else {
			to = b.cfg.BlockForLineOrNext(pe.targetLine)
		}

		if to == nil {
			b.errs = append(b.errs, newBuildError(ErrUnresolvedGoto, pe.targetLine, "unresolved jump target"))
			continue
		}
		b.addEdge(from, to, pe.kind, pe.label)
	}
	return nil
}

// fillDefaultFallthrough gives every block with no successor an edge to
// the next block in id order, except a block ending in END (no implicit
// fallthrough out of the program's natural stop point) and the exit block
// itself, which has nowhere left to fall through to.
func (b *builder) fillDefaultFallthrough() {
	for _, blk := range b.cfg.Blocks {
		if len(blk.Successors) > 0 || blk == b.cfg.ExitBlock {
			continue
		}
		if _, isEnd := blk.LastStatement().(*ast.End); isEnd {
			continue
		}
		if blk.ID+1 < len(b.cfg.Blocks) {
			b.addEdge(blk, b.cfg.Blocks[blk.ID+1], Fallthrough, "")
		} else if b.cfg.ExitBlock != nil {
			b.addEdge(blk, b.cfg.ExitBlock, Fallthrough, "")
		}
	}
}

// identifyLoops marks every block targeted by a back edge (an edge whose
// target id is <= its source id) as a loop header, and marks a loop's
// structural exit blocks (successors of the header that escape the loop)
// as loop exits.
func (b *builder) identifyLoops() {
	for _, blk := range b.cfg.Blocks {
		for _, e := range blk.Successors {
			if e.To.ID <= e.From.ID {
				e.To.IsLoopHeader = true
			}
		}
	}
	for _, blk := range b.cfg.Blocks {
		if !blk.IsLoopHeader {
			continue
		}
		for _, e := range blk.Successors {
			if e.To.ID > blk.ID && !reachesBack(e.To, blk.ID) {
				e.To.IsLoopExit = true
			}
		}
	}
}

// reachesBack reports whether blk can reach a block with the given id
// without leaving forward id order, a cheap proxy for "still inside the
// loop body" that avoids a full dominator analysis.
func reachesBack(blk *BasicBlock, headerID int) bool {
	seen := map[int]bool{}
	stack := []*BasicBlock{blk}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur.ID] {
			continue
		}
		seen[cur.ID] = true
		for _, e := range cur.Successors {
			if e.To.ID == headerID {
				return true
			}
			if e.To.ID > cur.ID {
				stack = append(stack, e.To)
			}
		}
	}
	return false
}

// identifySubroutines marks every block that is the target of a Call edge
// (a GOSUB or ON GOSUB destination) as a subroutine entry point.
func (b *builder) identifySubroutines() {
	for _, blk := range b.cfg.Blocks {
		for _, e := range blk.Successors {
			if e.Kind == Call {
				e.To.IsSubroutine = true
			}
		}
	}
}
