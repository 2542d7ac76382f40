package codegen

import (
	"fmt"

	"basicc/compiler/symbols"
)

// emitStringLiteral interns s (deduping identical literals) and returns a
// reference to its descriptor label. Per §4.3, a literal encodes as ASCII
// when every code point fits in a byte, UTF-32 otherwise.
func (fg *funcGen) emitStringLiteral(s string) value {
	runes := []rune(s)
	ascii := true
	for _, r := range runes {
		if r >= 128 {
			ascii = false
			break
		}
	}

	if idx, ok := fg.literalByID[s]; ok {
		t := fg.newTemp()
		fg.emit("%s =l copy $%s", t, fg.literals[idx].Label)
		return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeString}
	}

	label := fmt.Sprintf("str_%d", len(fg.literals))
	fg.literals = append(fg.literals, strLiteral{Label: label, IsASCII: ascii, Runes: runes})
	fg.literalByID[s] = len(fg.literals) - 1

	t := fg.newTemp()
	fg.emit("%s =l copy $%s", t, label)
	return value{Name: t, QBE: symbols.QBELong, Sem: symbols.TypeString}
}
