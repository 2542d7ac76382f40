package codegen

import "basicc/compiler/symbols"

// udtField is one field's resolved position and semantic type within a
// laid-out record.
type udtField struct {
	Name       string
	Offset     int
	Sem        symbols.VariableType
	Kind       symbols.RecordFieldKind
	NestedType string // non-empty when Kind == FieldRecord: the nested type's name
}

// udtLayout is the natural-alignment field layout for one TYPE/record,
// computed once per name and cached on the generator. Unlike the
// byte-packed layout a Z80-class backend would use, each field here is
// padded up to its own natural size so QBE's load/store ops never
// straddle a misaligned boundary.
type udtLayout struct {
	Name   string
	Fields []udtField
	Size   int
}

func (l *udtLayout) fieldByName(name string) (udtField, bool) {
	if l == nil {
		return udtField{}, false
	}
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return udtField{}, false
}

// udtLayoutFor resolves (and memoizes) the layout for a named record type,
// building it from the symbol table's TypeDescriptor the first time a
// member access for that type is lowered.
func (fg *funcGen) udtLayoutFor(typeName string) *udtLayout {
	if typeName == "" {
		return nil
	}
	if l, ok := fg.udts[typeName]; ok {
		return l
	}
	ts := fg.symTable.LookupType(typeName)
	if ts == nil || ts.Descriptor == nil {
		return nil
	}
	l := buildUDTLayout(ts.Descriptor)
	fg.udts[typeName] = l
	return l
}

// buildUDTLayout accumulates natural-alignment offsets one field at a time:
// each field starts at the next multiple of its own size, growing the
// running offset by any padding needed plus the field's size, since a
// QBE target can't tolerate a misaligned load the way a byte-packed Z80
// layout could.
func buildUDTLayout(desc *symbols.TypeDescriptor) *udtLayout {
	l := &udtLayout{Name: desc.Name}
	offset := 0
	for _, f := range desc.Fields {
		size := symbols.FieldSize(f)
		if size == 0 {
			size = 8
		}
		if rem := offset % size; rem != 0 {
			offset += size - rem
		}
		field := udtField{
			Name:   f.Name,
			Offset: offset,
			Sem:    fieldSemType(f.Kind),
			Kind:   f.Kind,
		}
		if f.Kind == symbols.FieldRecord && f.Nested != nil {
			field.NestedType = f.Nested.Name
		}
		l.Fields = append(l.Fields, field)
		offset += size
	}
	l.Size = offset
	return l
}

func fieldSemType(k symbols.RecordFieldKind) symbols.VariableType {
	switch k {
	case symbols.FieldSingle:
		return symbols.TypeSingle
	case symbols.FieldDouble:
		return symbols.TypeDouble
	case symbols.FieldString, symbols.FieldUnicode:
		return symbols.TypeString
	case symbols.FieldRecord, symbols.FieldPointer:
		return symbols.TypeUserDefined
	default:
		return symbols.TypeInteger
	}
}
