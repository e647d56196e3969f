package ubjson

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DefaultMaxDepth bounds container nesting while decoding.
const DefaultMaxDepth = 1000

// DecodeOptions controls decoding.
type DecodeOptions struct {
	Revision Revision // 0 means Draft8

	// AllowNoOp surfaces no-op markers as NoOp values instead of skipping
	// them. Inside sized containers a surfaced no-op counts as a child.
	AllowNoOp bool

	// Fallback handles tags missing from the marker table.
	Fallback FallbackFunc

	// ObjectSlots makes a Draft 8 sized object's length count keys and
	// values separately. By default it counts pairs.
	ObjectSlots bool

	MaxDepth   int   // 0 means DefaultMaxDepth
	MaxPayload int64 // 0 means DefaultMaxPayload
}

// DefaultDecodeOptions returns Draft 8 options with no-ops skipped.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		Revision:   Draft8,
		MaxDepth:   DefaultMaxDepth,
		MaxPayload: DefaultMaxPayload,
	}
}

// Decoder reads values from a byte source.
type Decoder struct {
	tok  *Tokenizer
	opts DecodeOptions
}

// NewDecoder creates a decoder over r. The decoder reads no further than
// the end of each value, so r can be shared with other readers.
func NewDecoder(r io.Reader, opts DecodeOptions) *Decoder {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Decoder{tok: NewTokenizer(r, opts), opts: opts}
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int64 {
	return d.tok.Offset()
}

// Decode reads exactly one value. It returns ErrNoData if the input ends
// before a value starts.
func (d *Decoder) Decode() (*Value, error) {
	tok, err := d.tok.Next()
	if err == io.EOF {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, err
	}
	return d.value(tok, 0)
}

// Iterate reads the opening of the next value, which must be an array or
// object, and returns an iterator over its children. The children are read
// from the source as the iterator advances.
func (d *Decoder) Iterate() (*Iterator, error) {
	tok, err := d.tok.Next()
	if err == io.EOF {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, err
	}
	m, ok := d.tok.pol.table.Lookup(byte(tok.Tag))
	if !ok || !m.Container() {
		return nil, syntaxErr(tok.Offset, ErrStructure, "marker %s does not open a container", tok.Tag)
	}
	return d.iterator(tok, m, 1)
}

// next reads a token inside a container. A clean end of input there is
// truncation.
func (d *Decoder) next(what string) (Token, error) {
	tok, err := d.tok.Next()
	if err == io.EOF {
		return Token{}, syntaxErr(d.tok.Offset(), ErrTruncated, "unexpected end of input in %s", what)
	}
	return tok, err
}

func (d *Decoder) marker(tok Token) (*Marker, bool) {
	return d.tok.pol.table.Lookup(byte(tok.Tag))
}

// value decodes the value started by tok. depth is the nesting level of
// the value itself.
func (d *Decoder) value(tok Token, depth int) (*Value, error) {
	m, ok := d.marker(tok)
	if !ok {
		if v, ok := tok.Payload.(*Value); ok && v != nil {
			return v, nil
		}
		return nil, syntaxErr(tok.Offset, ErrMalformed, "fallback for marker %s produced no value", tok.Tag)
	}

	switch m.Family {
	case FamilyNoOp:
		return NoOp(), nil
	case FamilyEnd:
		return nil, syntaxErr(tok.Offset, ErrStructure, "unexpected end marker %s", tok.Tag)
	case FamilyConst:
		switch tok.Tag {
		case TagTrue:
			return Bool(true), nil
		case TagFalse:
			return Bool(false), nil
		default:
			return Null(), nil
		}
	case FamilyInt:
		n, ok := tok.Payload.(int64)
		if !ok {
			return nil, missingPayload(tok, m)
		}
		return Int(n), nil
	case FamilyFloat:
		f, ok := tok.Payload.(float64)
		if !ok {
			return nil, missingPayload(tok, m)
		}
		return Float(f), nil
	case FamilyString:
		p, ok := tok.Payload.([]byte)
		if !ok {
			return nil, missingPayload(tok, m)
		}
		if !utf8.Valid(p) {
			return nil, syntaxErr(tok.Offset, ErrMalformed, "string is not valid UTF-8")
		}
		return String(string(p)), nil
	case FamilyDecimal:
		p, ok := tok.Payload.([]byte)
		if !ok {
			return nil, missingPayload(tok, m)
		}
		return decodeDecimal(tok, p)
	case FamilyArray, FamilyObject:
		it, err := d.iterator(tok, m, depth+1)
		if err != nil {
			return nil, err
		}
		return it.Collect()
	}
	return nil, syntaxErr(tok.Offset, ErrMalformed, "unhandled marker %s", tok.Tag)
}

func (d *Decoder) iterator(tok Token, m *Marker, depth int) (*Iterator, error) {
	if depth > d.opts.MaxDepth {
		return nil, syntaxErr(tok.Offset, ErrLimit, "nesting depth exceeds %d", d.opts.MaxDepth)
	}
	it := &Iterator{d: d, open: tok, depth: depth, kind: KindArray}
	if m.Family == FamilyObject {
		it.kind = KindObject
	}

	// Draft 8 a/o with the reserved length stream until E.
	if !tok.HasLength || (m.Length == LengthFixed8 && tok.Length == unboundedLength) {
		it.close = d.tok.pol.closeFor(m)
		return it, nil
	}

	it.sized = true
	it.remaining = tok.Length
	if it.kind == KindObject && d.opts.ObjectSlots {
		if tok.Length%2 != 0 {
			return nil, syntaxErr(tok.Offset, ErrMalformed, "object slot count %d is odd", tok.Length)
		}
		it.remaining = tok.Length / 2
	}
	return it, nil
}

func decodeDecimal(tok Token, p []byte) (*Value, error) {
	text := string(bytes.TrimSpace(p))
	if _, err := decimal.NewFromString(text); err != nil {
		return nil, syntaxErr(tok.Offset, ErrMalformed, "invalid decimal %q", p)
	}
	return &Value{kind: KindDecimal, strVal: text}, nil
}

func missingPayload(tok Token, m *Marker) error {
	return syntaxErr(tok.Offset, ErrMalformed, "%s token %s has no payload", m.Name, tok.Tag)
}

// Decode decodes the first Draft 8 value in data. Trailing bytes are
// ignored.
func Decode(data []byte) (*Value, error) {
	return DecodeWithOptions(data, DefaultDecodeOptions())
}

// DecodeWithOptions decodes the first value in data.
func DecodeWithOptions(data []byte, opts DecodeOptions) (*Value, error) {
	return NewDecoder(bytes.NewReader(data), opts).Decode()
}
