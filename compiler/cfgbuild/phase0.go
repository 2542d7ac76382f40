package cfgbuild

import "basicc/compiler/ast"

// scanJumpTargets pre-scans for every line number referenced by GOTO,
// GOSUB, ON GOTO, ON GOSUB, or a numeric ON EVENT target: each becomes a
// mandatory block boundary even when the target line has no structural
// break of its own.
func (b *builder) scanJumpTargets(lines []*ast.Line) {
	for _, line := range lines {
		b.scanStatements(line.Statements)
	}
}

func (b *builder) scanStatements(stmts []ast.Statement) {
	for _, s := range stmts {
		b.scanStatement(s)
	}
}

func (b *builder) scanStatement(s ast.Statement) {
	switch st := s.(type) {
	case *ast.Goto:
		b.jumpTargets[st.Line] = true
	case *ast.Gosub:
		b.jumpTargets[st.Line] = true
	case *ast.OnGoto:
		for i, isLabel := range st.IsLabelList {
			if !isLabel {
				b.jumpTargets[st.LineNumbers[i]] = true
			}
		}
	case *ast.OnGosub:
		for i, isLabel := range st.IsLabelList {
			if !isLabel {
				b.jumpTargets[st.LineNumbers[i]] = true
			}
		}
	case *ast.OnEvent:
		if st.IsLineNumber {
			var n int
			if _, err := parseLine(st.Target, &n); err == nil {
				b.jumpTargets[n] = true
			}
		}
	case *ast.If:
		if st.HasGoto {
			b.jumpTargets[st.GotoLine] = true
		}
		b.scanStatements(st.ThenStatements)
		b.scanStatements(st.ElseStatements)
	case *ast.For:
		// body is scanned via the parent's recursive line walk only when
		// the AST nests statements inside For.Body; this dialect keeps
		// loop bodies as subsequent top-level lines, so nothing to do.
	case *ast.TryCatch:
		b.scanStatements(st.TryBlock)
		for _, c := range st.CatchClauses {
			b.scanStatements(c.Block)
		}
		b.scanStatements(st.FinallyBlock)
	case *ast.Case:
		for _, w := range st.WhenClauses {
			b.scanStatements(w.Statements)
		}
		b.scanStatements(st.OtherwiseStatements)
	}
}

// parseLine parses a decimal target string into *n. Kept tiny and local
// since ON EVENT targets are the only place a line number arrives as text
// rather than as an already-parsed int.
func parseLine(s string, n *int) (int, error) {
	v := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errNotNumeric
		}
		v = v*10 + int(r-'0')
	}
	*n = v
	return v, nil
}

var errNotNumeric = &BuildError{Kind: ErrUnresolvedGoto, Detail: "ON EVENT target is not numeric"}
