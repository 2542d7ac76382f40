package cfgbuild

import "basicc/compiler/ast"

// placeLine starts a fresh Target_<N> block if this line is a landing zone
// and the current block already has content, maps the line number to the
// current block, then dispatches each statement in order.
func (b *builder) placeLine(line *ast.Line) {
	if line.Number != 0 {
		if b.jumpTargets[line.Number] && len(b.currentBlock.Statements) > 0 {
			b.currentBlock = b.newBlock(labelFor("Target", line.Number))
		}
		b.cfg.LineNumberToBlock[line.Number] = b.currentBlock
	}
	for _, s := range line.Statements {
		b.placeStatement(s, line.Number)
	}
}

func (b *builder) placeStatement(s ast.Statement, line int) {
	switch st := s.(type) {
	case *ast.Goto:
		b.currentBlock.append(st, line)
		b.currentBlock.IsTerminator = true
		b.pending = append(b.pending, pendingEdge{fromID: b.currentBlock.ID, kind: Unconditional, targetLine: st.Line})
		b.currentBlock = b.newBlock("")

	case *ast.Gosub:
		b.currentBlock.append(st, line)
		ret := b.newBlock(labelFor("gosub.ret", st.Line))
		b.gosubReturnMap[b.currentBlock.ID] = ret.ID
		b.gosubReturnBlocks[ret.ID] = true
		b.pending = append(b.pending, pendingEdge{fromID: b.currentBlock.ID, kind: Call, targetLine: st.Line})
		b.addEdge(b.currentBlock, ret, Fallthrough, "")
		b.currentBlock = ret

	case *ast.OnGoto:
		b.placeOnJump(st.Selector, st.LineNumbers, st.Labels, st.IsLabelList, Conditional, line)

	case *ast.OnGosub:
		b.placeOnJump(st.Selector, st.LineNumbers, st.Labels, st.IsLabelList, Call, line)

	case *ast.Label:
		b.currentBlock.append(st, line)
		nb := b.newBlock("Label_" + st.Name)
		b.labelBlocks[st.Name] = nb.ID
		// The fallthrough edge from the pre-label block into nb is added by
		// the generic Phase-2 default rule (fillDefaultFallthrough), since
		// nb's id is exactly currentBlock.ID+1.
		b.currentBlock = nb

	case *ast.If:
		b.placeIf(st, line)

	case *ast.For:
		b.placeFor(st, line)

	case *ast.Next:
		b.placeNext(st, line)

	case *ast.While:
		b.placeWhile(st, line)

	case *ast.Wend:
		b.placeWend(st, line)

	case *ast.Do:
		b.placeDo(st, line)

	case *ast.Loop:
		b.placeLoop(st, line)

	case *ast.Repeat:
		b.placeRepeat(st, line)

	case *ast.Until:
		b.placeUntil(st, line)

	case *ast.Case:
		b.placeSelect(st, line)

	case *ast.TryCatch:
		b.placeTry(st, line)

	case *ast.Function:
		b.pendingFunctions = append(b.pendingFunctions, pendingFunction{
			name: st.Name, params: st.Parameters, body: st.Body,
		})

	case *ast.Sub:
		b.pendingFunctions = append(b.pendingFunctions, pendingFunction{
			name: st.Name, isSub: true, params: st.Parameters, body: st.Body,
		})

	case *ast.Def:
		b.pendingFunctions = append(b.pendingFunctions, pendingFunction{
			name: st.Name, isDefFn: true, params: st.Parameters, body: st.Body,
		})

	case *ast.Return:
		b.currentBlock.append(st, line)
		b.currentBlock.IsTerminator = true
		if b.cfg.ExitBlock != nil {
			b.addEdge(b.currentBlock, b.cfg.ExitBlock, Return, "")
		}
		b.currentBlock = b.newBlock("")

	case *ast.End:
		b.currentBlock.append(st, line)
		b.currentBlock.IsTerminator = true
		b.currentBlock = b.newBlock("")

	case *ast.Exit:
		b.currentBlock.append(st, line)
		b.currentBlock.IsTerminator = true
		switch st.Kind {
		case ast.ExitForLoop:
			if n := len(b.forStack); n > 0 {
				ctx := b.forStack[n-1]
				ctx.pendingExitBlocks = append(ctx.pendingExitBlocks, b.currentBlock.ID)
			}
		default: // ExitFunction, ExitSub
			if b.cfg.ExitBlock != nil {
				b.addEdge(b.currentBlock, b.cfg.ExitBlock, Return, "")
			}
		}
		b.currentBlock = b.newBlock("")

	default:
		// Ordinary statements (Print, Input, Let, Dim, Local, Shared, Rem,
		// Call, Throw) carry no control flow of their own.
		b.currentBlock.append(st, line)
	}
}

// placeStatements places a nested statement list (an IF branch, a CASE
// body, a TRY/CATCH/FINALLY block) using each statement's own source
// location, falling back to fallbackLine when a node carries none.
func (b *builder) placeStatements(stmts []ast.Statement, fallbackLine int) {
	for _, s := range stmts {
		line := s.Location().Line
		if line == 0 {
			line = fallbackLine
		}
		b.placeStatement(s, line)
	}
}

func (b *builder) placeOnJump(selector ast.Expression, lines []int, labels []string, isLabel []bool, kind EdgeKind, line int) {
	holder := &ast.OnGoto{Selector: selector, LineNumbers: lines, Labels: labels, IsLabelList: isLabel}
	b.currentBlock.append(holder, line)
	from := b.currentBlock.ID
	cont := b.newBlock("")
	if len(lines) == 0 && len(labels) == 0 {
		b.errs = append(b.errs, newBuildError(ErrOnGotoEmptyTargets, line, "ON GOTO/GOSUB with no targets"))
	}
	n := len(isLabel)
	for i := 0; i < n; i++ {
		pe := pendingEdge{fromID: from, kind: kind, label: itoa(i)}
		if isLabel[i] {
			pe.useLabel = true
			pe.targetLabel = labels[i]
		} else {
			pe.targetLine = lines[i]
		}
		b.pending = append(b.pending, pe)
	}
	b.addEdge(b.currentBlock, cont, Fallthrough, "default")
	b.currentBlock = cont
}

func labelFor(prefix string, n int) string {
	if n == 0 {
		return prefix
	}
	return prefix + "_" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
