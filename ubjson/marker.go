package ubjson

import (
	"fmt"
	"strconv"
)

// Tag is a one-byte wire type identifier.
type Tag byte

// String returns the tag character, or its hex code when not printable.
func (t Tag) String() string {
	if t >= 0x20 && t < 0x7f {
		return string(rune(t))
	}
	return "0x" + strconv.FormatUint(uint64(t), 16)
}

// Tags shared by both revisions.
const (
	TagNoOp    Tag = 'N'
	TagNull    Tag = 'Z'
	TagFalse   Tag = 'F'
	TagTrue    Tag = 'T'
	TagFloat32 Tag = 'd'
	TagFloat64 Tag = 'D'
)

// Draft 8 tags.
const (
	D8End         Tag = 'E'
	D8Int8        Tag = 'B'
	D8Int16       Tag = 'i'
	D8Int32       Tag = 'I'
	D8Int64       Tag = 'L'
	D8HugeShort   Tag = 'h'
	D8Huge        Tag = 'H'
	D8StringShort Tag = 's'
	D8String      Tag = 'S'
	D8ArrayShort  Tag = 'a'
	D8Array       Tag = 'A'
	D8ObjectShort Tag = 'o'
	D8Object      Tag = 'O'
)

// Draft 9 tags.
const (
	D9Int8        Tag = 'i'
	D9Int16       Tag = 'I'
	D9Int32       Tag = 'l'
	D9Int64       Tag = 'L'
	D9String      Tag = 'S'
	D9Huge        Tag = 'H'
	D9ArrayOpen   Tag = '['
	D9ArrayClose  Tag = ']'
	D9ObjectOpen  Tag = '{'
	D9ObjectClose Tag = '}'
)

// unboundedLength is the Draft 8 one-byte container length that switches
// a/o to terminator-delimited framing.
const unboundedLength = 255

// Family groups tags by how their payload is read and what they decode to.
type Family uint8

const (
	FamilyConst Family = iota // null, true, false
	FamilyNoOp
	FamilyEnd // end-of-stream or close tag
	FamilyInt
	FamilyFloat
	FamilyString
	FamilyDecimal
	FamilyArray
	FamilyObject
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyConst:
		return "const"
	case FamilyNoOp:
		return "noop"
	case FamilyEnd:
		return "end"
	case FamilyInt:
		return "int"
	case FamilyFloat:
		return "float"
	case FamilyString:
		return "string"
	case FamilyDecimal:
		return "decimal"
	case FamilyArray:
		return "array"
	case FamilyObject:
		return "object"
	default:
		return "unknown"
	}
}

// LengthRule says how a marker's length prefix is read.
type LengthRule uint8

const (
	LengthNone    LengthRule = iota
	LengthFixed8             // one unsigned byte
	LengthFixed32            // four bytes, big-endian unsigned
	LengthNested             // a nested integer token
)

// Marker describes one tag within a revision's table. Markers are
// immutable once the table is built.
type Marker struct {
	Tag    Tag
	Name   string
	Family Family
	Width  int // payload bytes for fixed-width numerics
	Length LengthRule
	Close  Tag // terminator of an open/close container, 0 otherwise
}

// HasLength reports whether the marker carries a length prefix.
func (m *Marker) HasLength() bool {
	return m.Length != LengthNone
}

// Container reports whether the marker opens an array or object.
func (m *Marker) Container() bool {
	return m.Family == FamilyArray || m.Family == FamilyObject
}

func (m *Marker) String() string {
	return fmt.Sprintf("%s(%s)", m.Tag, m.Name)
}

// Table maps tag bytes to markers for one revision.
type Table struct {
	rev     Revision
	markers [256]*Marker
}

func newTable(rev Revision, markers ...Marker) *Table {
	t := &Table{rev: rev}
	for i := range markers {
		m := markers[i]
		if t.markers[m.Tag] != nil {
			panic(fmt.Sprintf("ubjson: duplicate marker %s in %s table", m.Tag, rev))
		}
		t.markers[m.Tag] = &m
	}
	return t
}

// Lookup returns the marker registered for b.
func (t *Table) Lookup(b byte) (*Marker, bool) {
	m := t.markers[b]
	return m, m != nil
}

// Revision returns the revision the table belongs to.
func (t *Table) Revision() Revision {
	return t.rev
}

// Markers returns every registered marker in tag order.
func (t *Table) Markers() []*Marker {
	var out []*Marker
	for _, m := range t.markers {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

var draft8Table = newTable(Draft8,
	Marker{Tag: TagNoOp, Name: "noop", Family: FamilyNoOp},
	Marker{Tag: D8End, Name: "end", Family: FamilyEnd},
	Marker{Tag: TagNull, Name: "null", Family: FamilyConst},
	Marker{Tag: TagFalse, Name: "false", Family: FamilyConst},
	Marker{Tag: TagTrue, Name: "true", Family: FamilyConst},
	Marker{Tag: D8Int8, Name: "int8", Family: FamilyInt, Width: 1},
	Marker{Tag: D8Int16, Name: "int16", Family: FamilyInt, Width: 2},
	Marker{Tag: D8Int32, Name: "int32", Family: FamilyInt, Width: 4},
	Marker{Tag: D8Int64, Name: "int64", Family: FamilyInt, Width: 8},
	Marker{Tag: TagFloat32, Name: "float32", Family: FamilyFloat, Width: 4},
	Marker{Tag: TagFloat64, Name: "float64", Family: FamilyFloat, Width: 8},
	Marker{Tag: D8HugeShort, Name: "huge", Family: FamilyDecimal, Length: LengthFixed8},
	Marker{Tag: D8Huge, Name: "huge", Family: FamilyDecimal, Length: LengthFixed32},
	Marker{Tag: D8StringShort, Name: "string", Family: FamilyString, Length: LengthFixed8},
	Marker{Tag: D8String, Name: "string", Family: FamilyString, Length: LengthFixed32},
	Marker{Tag: D8ArrayShort, Name: "array", Family: FamilyArray, Length: LengthFixed8},
	Marker{Tag: D8Array, Name: "array", Family: FamilyArray, Length: LengthFixed32},
	Marker{Tag: D8ObjectShort, Name: "object", Family: FamilyObject, Length: LengthFixed8},
	Marker{Tag: D8Object, Name: "object", Family: FamilyObject, Length: LengthFixed32},
)

var draft9Table = newTable(Draft9,
	Marker{Tag: TagNoOp, Name: "noop", Family: FamilyNoOp},
	Marker{Tag: TagNull, Name: "null", Family: FamilyConst},
	Marker{Tag: TagFalse, Name: "false", Family: FamilyConst},
	Marker{Tag: TagTrue, Name: "true", Family: FamilyConst},
	Marker{Tag: D9Int8, Name: "int8", Family: FamilyInt, Width: 1},
	Marker{Tag: D9Int16, Name: "int16", Family: FamilyInt, Width: 2},
	Marker{Tag: D9Int32, Name: "int32", Family: FamilyInt, Width: 4},
	Marker{Tag: D9Int64, Name: "int64", Family: FamilyInt, Width: 8},
	Marker{Tag: TagFloat32, Name: "float32", Family: FamilyFloat, Width: 4},
	Marker{Tag: TagFloat64, Name: "float64", Family: FamilyFloat, Width: 8},
	Marker{Tag: D9String, Name: "string", Family: FamilyString, Length: LengthNested},
	Marker{Tag: D9Huge, Name: "huge", Family: FamilyDecimal, Length: LengthNested},
	Marker{Tag: D9ArrayOpen, Name: "array", Family: FamilyArray, Close: D9ArrayClose},
	Marker{Tag: D9ArrayClose, Name: "array end", Family: FamilyEnd},
	Marker{Tag: D9ObjectOpen, Name: "object", Family: FamilyObject, Close: D9ObjectClose},
	Marker{Tag: D9ObjectClose, Name: "object end", Family: FamilyEnd},
)
