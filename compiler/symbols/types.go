// Package symbols defines the external symbol-table contract this compiler
// consumes: per-name VariableSymbol/ArraySymbol/FunctionSymbol/TypeSymbol/
// LabelSymbol/LineNumberSymbol records, already suffix-mangled by the
// semantic analyzer. The analyzer itself is out of scope; this package
// only fixes the shape of its output plus the QBE type-mapping rules the
// code generator consults.
package symbols

// VariableType is the basic semantic type carried end-to-end from the
// semantic analyzer through code generation.
type VariableType int

const (
	TypeInteger VariableType = iota
	TypeLong
	TypeSingle
	TypeDouble
	TypeString
	TypeUserDefined
)

func (t VariableType) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeLong:
		return "LONG"
	case TypeSingle:
		return "SINGLE"
	case TypeDouble:
		return "DOUBLE"
	case TypeString:
		return "STRING"
	case TypeUserDefined:
		return "USER_DEFINED"
	default:
		return "UNKNOWN"
	}
}

// QBEType is the base type used in emitted QBE IL text.
type QBEType string

const (
	QBEWord   QBEType = "w"
	QBELong   QBEType = "l"
	QBESingle QBEType = "s"
	QBEDouble QBEType = "d"
	QBEByte   QBEType = "b"
	QBEHalf   QBEType = "h"
)

// StorageQBEType is the QBE type used when a VariableType is held in a
// variable slot (global vector or local SSA temp). Numeric values are
// widened to their storage width here; codegen's natural ("computation")
// width used inside expressions is this same mapping.
func StorageQBEType(t VariableType) QBEType {
	switch t {
	case TypeInteger, TypeLong, TypeString:
		return QBELong
	case TypeSingle, TypeDouble:
		return QBEDouble
	case TypeUserDefined:
		return QBELong
	default:
		return QBELong
	}
}

// RecordFieldKind distinguishes the finer-grained layout types a
// TypeDescriptor needs for UDT field storage, beyond the coarse
// VariableType the rest of the symbol table uses.
type RecordFieldKind int

const (
	FieldByte RecordFieldKind = iota
	FieldUByte
	FieldShort
	FieldUShort
	FieldInteger
	FieldUInteger
	FieldLong
	FieldULong
	FieldSingle
	FieldDouble
	FieldUnicode
	FieldString
	FieldPointer
	FieldRecord
)

// fieldSizes gives the natural size in bytes of each record field kind,
// used by udtlayout (compiler/codegen) for alignment and padding.
var fieldSizes = map[RecordFieldKind]int{
	FieldByte:     1,
	FieldUByte:    1,
	FieldShort:    2,
	FieldUShort:   2,
	FieldInteger:  4,
	FieldUInteger: 4,
	FieldLong:     8,
	FieldULong:    8,
	FieldSingle:   8, // SINGLE is emitted as double, §3
	FieldDouble:   8,
	FieldUnicode:  4,
	FieldString:   8, // pointer to descriptor
	FieldPointer:  8,
}

// Size returns the natural size in bytes of a record field kind. Record
// fields (nested UDTs) must use RecordField instead; Size panics for them.
func (k RecordFieldKind) Size() int {
	if k == FieldRecord {
		panic("symbols: RecordFieldKind.Size called on FieldRecord; use the nested TypeDescriptor's size")
	}
	return fieldSizes[k]
}

// TypeDescriptor describes a user-defined record type: its fields, in
// declaration order, each carrying a RecordFieldKind for layout purposes.
type TypeDescriptor struct {
	Name   string
	Fields []RecordField
	Size   int // computed by NewTypeDescriptor
}

type RecordField struct {
	Name   string
	Kind   RecordFieldKind
	Nested *TypeDescriptor // non-nil when Kind == FieldRecord
	Offset int             // byte offset within the record, computed
}

// FieldSize returns the byte size of a single record field, including
// nested records.
func FieldSize(f RecordField) int {
	if f.Kind == FieldRecord {
		return f.Nested.Size
	}
	return f.Kind.Size()
}
