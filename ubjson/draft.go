package ubjson

import (
	"fmt"
	"strings"
)

// Revision selects a wire format revision. The zero Revision is Draft 8.
type Revision uint8

const (
	Draft8 Revision = 8
	Draft9 Revision = 9
)

// String returns the revision name, e.g. "draft8".
func (r Revision) String() string {
	switch r {
	case Draft8:
		return "draft8"
	case Draft9:
		return "draft9"
	default:
		return fmt.Sprintf("draft(%d)", uint8(r))
	}
}

// ParseRevision accepts "8", "draft8", "draft-8" and the same forms for
// Draft 9, case-insensitively.
func ParseRevision(s string) (Revision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "8", "draft8", "draft-8", "d8":
		return Draft8, nil
	case "9", "draft9", "draft-9", "d9":
		return Draft9, nil
	}
	return 0, fmt.Errorf("ubjson: unknown revision %q", s)
}

// Table returns the revision's marker table, or nil for an unknown
// revision.
func (r Revision) Table() *Table {
	if p, err := policyFor(r); err == nil {
		return p.table
	}
	return nil
}

// policy holds everything that differs between revisions. The tokenizer,
// decoder and encoder consult it instead of branching on the revision.
type policy struct {
	rev   Revision
	table *Table

	// Integer tags ordered by width: 8, 16, 32, 64 bits.
	ints [4]Tag

	// Text and decimal tags. Draft 9 uses one tag with a nested length.
	strShort, strLong   Tag
	hugeShort, hugeLong Tag
	nestedLength        bool

	// Container framing. sized is false when every container is
	// terminator-delimited.
	sized             bool
	arrShort, arrLong Tag
	objShort, objLong Tag
	arrOpen, arrClose Tag  // streamed array framing
	objOpen, objClose Tag  // streamed object framing
	streamLength      bool // open tag is followed by the unbounded length byte
}

var draft8Policy = &policy{
	rev:       Draft8,
	table:     draft8Table,
	ints:      [4]Tag{D8Int8, D8Int16, D8Int32, D8Int64},
	strShort:  D8StringShort,
	strLong:   D8String,
	hugeShort: D8HugeShort,
	hugeLong:  D8Huge,

	sized:        true,
	arrShort:     D8ArrayShort,
	arrLong:      D8Array,
	objShort:     D8ObjectShort,
	objLong:      D8Object,
	arrOpen:      D8ArrayShort,
	arrClose:     D8End,
	objOpen:      D8ObjectShort,
	objClose:     D8End,
	streamLength: true,
}

var draft9Policy = &policy{
	rev:          Draft9,
	table:        draft9Table,
	ints:         [4]Tag{D9Int8, D9Int16, D9Int32, D9Int64},
	strShort:     D9String,
	strLong:      D9String,
	hugeShort:    D9Huge,
	hugeLong:     D9Huge,
	nestedLength: true,

	arrOpen:  D9ArrayOpen,
	arrClose: D9ArrayClose,
	objOpen:  D9ObjectOpen,
	objClose: D9ObjectClose,
}

func policyFor(r Revision) (*policy, error) {
	switch r {
	case 0, Draft8:
		return draft8Policy, nil
	case Draft9:
		return draft9Policy, nil
	}
	return nil, fmt.Errorf("ubjson: unsupported revision %s", r)
}

// isLengthTag reports whether t may carry a nested Draft 9 length.
func (p *policy) isLengthTag(t Tag) bool {
	for _, it := range p.ints {
		if it == t {
			return true
		}
	}
	return false
}

// closeFor returns the terminator expected by an unbounded container.
func (p *policy) closeFor(m *Marker) Tag {
	if m.Close != 0 {
		return m.Close
	}
	if m.Family == FamilyObject {
		return p.objClose
	}
	return p.arrClose
}
