package ubjson

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
)

// DefaultMaxPayload bounds text and decimal payloads (64 MiB).
const DefaultMaxPayload = 64 << 20

// Token is one parsed wire unit: a tag, an optional length and an
// optional payload.
type Token struct {
	Tag       Tag
	Length    int64 // container count or payload size, valid when HasLength
	HasLength bool
	LengthTag Tag   // tag of the nested length token (Draft 9 text and decimal)
	Payload   any   // int64, float64, []byte, or *Value from a fallback
	Offset    int64 // offset of the tag byte
}

// FallbackFunc handles a tag byte missing from the marker table. It reads
// whatever payload belongs to the tag from r and returns a token. A token
// whose tag is also unknown must carry a *Value payload.
type FallbackFunc func(tag Tag, r io.Reader) (Token, error)

// source tracks the read offset without buffering. When the underlying
// reader is an io.ByteReader it is used for single bytes.
type source struct {
	r   io.Reader
	br  io.ByteReader
	off int64
	one [1]byte
}

func newSource(r io.Reader) *source {
	s := &source{r: r}
	if br, ok := r.(io.ByteReader); ok {
		s.br = br
	}
	return s
}

func (s *source) ReadByte() (byte, error) {
	if s.br != nil {
		b, err := s.br.ReadByte()
		if err == nil {
			s.off++
		}
		return b, err
	}
	if _, err := io.ReadFull(s.r, s.one[:]); err != nil {
		return 0, err
	}
	s.off++
	return s.one[0], nil
}

func (s *source) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.off += int64(n)
	return n, err
}

// Tokenizer reads tokens one at a time from a byte source. It never reads
// past the end of the current token.
type Tokenizer struct {
	src        *source
	pol        *policy
	allowNoOp  bool
	fallback   FallbackFunc
	maxPayload int64
	err        error
	buf        [8]byte
}

// NewTokenizer creates a tokenizer over r. Only the Revision, AllowNoOp,
// Fallback and MaxPayload options apply.
func NewTokenizer(r io.Reader, opts DecodeOptions) *Tokenizer {
	t := &Tokenizer{
		src:        newSource(r),
		allowNoOp:  opts.AllowNoOp,
		fallback:   opts.Fallback,
		maxPayload: opts.MaxPayload,
	}
	if t.maxPayload <= 0 {
		t.maxPayload = DefaultMaxPayload
	}
	t.pol, t.err = policyFor(opts.Revision)
	return t
}

// Offset returns the number of bytes consumed so far.
func (t *Tokenizer) Offset() int64 {
	return t.src.off
}

// Table returns the active marker table.
func (t *Tokenizer) Table() *Table {
	if t.pol == nil {
		return nil
	}
	return t.pol.table
}

// Next reads the next token. It returns io.EOF when the input ends at a
// token boundary, and an error wrapping ErrTruncated when it ends inside
// one. No-op markers are skipped unless no-op pass-through is enabled.
func (t *Tokenizer) Next() (Token, error) {
	if t.err != nil {
		return Token{}, t.err
	}
	for {
		start := t.src.off
		b, err := t.src.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Token{}, io.EOF
			}
			return Token{}, fmt.Errorf("ubjson: read tag: %w", err)
		}
		if Tag(b) == TagNoOp && !t.allowNoOp {
			continue
		}
		m, ok := t.pol.table.Lookup(b)
		if !ok {
			return t.fallbackToken(Tag(b), start)
		}
		return t.read(m, start)
	}
}

// All returns an iterator over the remaining tokens. Iteration stops after
// the first error; a clean end of input is not reported.
func (t *Tokenizer) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, err := t.Next()
			if err == io.EOF {
				return
			}
			if !yield(tok, err) || err != nil {
				return
			}
		}
	}
}

func (t *Tokenizer) fallbackToken(tag Tag, start int64) (Token, error) {
	if t.fallback == nil {
		return Token{}, &UnknownMarkerError{Tag: byte(tag), Offset: start}
	}
	tok, err := t.fallback(tag, t.src)
	if err != nil {
		return Token{}, fmt.Errorf("ubjson: fallback for marker %s: %w", tag, err)
	}
	if tok.Tag == 0 {
		tok.Tag = tag
	}
	tok.Offset = start
	return tok, nil
}

func (t *Tokenizer) read(m *Marker, start int64) (Token, error) {
	tok := Token{Tag: m.Tag, Offset: start}

	switch m.Length {
	case LengthFixed8:
		b, err := t.readN(1, m, start)
		if err != nil {
			return Token{}, err
		}
		tok.Length, tok.HasLength = int64(b[0]), true
	case LengthFixed32:
		b, err := t.readN(4, m, start)
		if err != nil {
			return Token{}, err
		}
		tok.Length, tok.HasLength = int64(binary.BigEndian.Uint32(b)), true
	case LengthNested:
		n, lt, err := t.nestedLength(m, start)
		if err != nil {
			return Token{}, err
		}
		tok.Length, tok.HasLength, tok.LengthTag = n, true, lt
	}

	switch m.Family {
	case FamilyInt:
		b, err := t.readN(m.Width, m, start)
		if err != nil {
			return Token{}, err
		}
		tok.Payload = decodeInt(b)
	case FamilyFloat:
		b, err := t.readN(m.Width, m, start)
		if err != nil {
			return Token{}, err
		}
		if m.Width == 4 {
			tok.Payload = float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
		} else {
			tok.Payload = math.Float64frombits(binary.BigEndian.Uint64(b))
		}
	case FamilyString, FamilyDecimal:
		if tok.Length > t.maxPayload {
			return Token{}, syntaxErr(start, ErrLimit, "%s payload too large: %d > %d", m.Name, tok.Length, t.maxPayload)
		}
		p := make([]byte, tok.Length)
		if _, err := io.ReadFull(t.src, p); err != nil {
			return Token{}, t.truncated(err, m, start)
		}
		tok.Payload = p
	}
	return tok, nil
}

// nestedLength reads a Draft 9 length given as an integer token.
func (t *Tokenizer) nestedLength(m *Marker, start int64) (int64, Tag, error) {
	b, err := t.src.ReadByte()
	if err != nil {
		return 0, 0, t.truncated(err, m, start)
	}
	lt := Tag(b)
	if !t.pol.isLengthTag(lt) {
		return 0, 0, syntaxErr(start, ErrMalformed, "invalid length marker %s for %s", lt, m.Name)
	}
	lm, _ := t.pol.table.Lookup(b)
	p, err := t.readN(lm.Width, m, start)
	if err != nil {
		return 0, 0, err
	}
	n := decodeInt(p)
	if n < 0 {
		return 0, 0, syntaxErr(start, ErrMalformed, "negative %s length %d", m.Name, n)
	}
	return n, lt, nil
}

func (t *Tokenizer) readN(n int, m *Marker, start int64) ([]byte, error) {
	b := t.buf[:n]
	if _, err := io.ReadFull(t.src, b); err != nil {
		return nil, t.truncated(err, m, start)
	}
	return b, nil
}

func (t *Tokenizer) truncated(err error, m *Marker, start int64) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return syntaxErr(start, ErrTruncated, "unexpected end of input in %s", m.Name)
	}
	return fmt.Errorf("ubjson: read %s: %w", m.Name, err)
}

// decodeInt sign-extends a big-endian two's-complement integer of 1, 2, 4
// or 8 bytes.
func decodeInt(b []byte) int64 {
	switch len(b) {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(binary.BigEndian.Uint16(b)))
	case 4:
		return int64(int32(binary.BigEndian.Uint32(b)))
	default:
		return int64(binary.BigEndian.Uint64(b))
	}
}
