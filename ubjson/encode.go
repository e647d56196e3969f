package ubjson

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Float thresholds. Magnitudes below the float64 normal range are written
// as decimal text.
const (
	minNormalFloat32 = 0x1p-126
	minNormalFloat64 = 0x1p-1022
)

// EncodeOptions controls encoding.
type EncodeOptions struct {
	Revision Revision // 0 means Draft8

	// Default converts host values the adapter has no rule for. The
	// returned value is converted again. Only EncodeAny and Marshal use it.
	Default func(x any) (any, error)

	// LossyFloat32 writes every float whose magnitude lies in the float32
	// normal range as float32, rounding if needed. By default float32 is
	// only used when the conversion is exact.
	LossyFloat32 bool

	// ObjectSlots makes Draft 8 sized object lengths count keys and values
	// separately.
	ObjectSlots bool
}

// DefaultEncodeOptions returns Draft 8 options with exact float widths.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{Revision: Draft8}
}

// Encoder writes values to a sink. After the first write error every
// later call returns the same error.
type Encoder struct {
	w    io.Writer
	opts EncodeOptions
	pol  *policy
	err  error
	buf  [9]byte
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer, opts EncodeOptions) *Encoder {
	e := &Encoder{w: w, opts: opts}
	e.pol, e.err = policyFor(opts.Revision)
	return e
}

// Err returns the sticky error, if any.
func (e *Encoder) Err() error {
	return e.err
}

// Encode writes v. A nil v is written as null.
func (e *Encoder) Encode(v *Value) error {
	if e.err != nil {
		return e.err
	}
	e.value(v)
	return e.err
}

// EncodeAny converts x with the host adapter and writes it.
func (e *Encoder) EncodeAny(x any) error {
	if e.err != nil {
		return e.err
	}
	v, err := FromGoWithDefault(x, e.opts.Default)
	if err != nil {
		return err
	}
	return e.Encode(v)
}

// WriteToken writes a single raw token. Text and decimal lengths are
// taken from the payload. It can be used to frame containers by hand,
// e.g. an unbounded Draft 8 array is Token{Tag: 'a', Length: 255,
// HasLength: true}, its children, then Token{Tag: 'E'}.
func (e *Encoder) WriteToken(tok Token) error {
	if e.err != nil {
		return e.err
	}
	m, ok := e.pol.table.Lookup(byte(tok.Tag))
	if !ok {
		return &UnknownMarkerError{Tag: byte(tok.Tag), Offset: -1}
	}

	switch m.Family {
	case FamilyInt:
		n, ok := tok.Payload.(int64)
		if !ok || !fitsWidth(n, m.Width) {
			return fmt.Errorf("ubjson: %v does not fit marker %s", tok.Payload, m)
		}
		e.writeByte(byte(m.Tag))
		e.fixedInt(n, m.Width)
		return e.err
	case FamilyFloat:
		f, ok := tok.Payload.(float64)
		if !ok {
			return fmt.Errorf("ubjson: marker %s needs a float64 payload", m)
		}
		e.writeByte(byte(m.Tag))
		e.fixedFloat(f, m.Width)
		return e.err
	case FamilyString, FamilyDecimal:
		var s string
		switch p := tok.Payload.(type) {
		case string:
			s = p
		case []byte:
			s = string(p)
		default:
			return fmt.Errorf("ubjson: marker %s needs a string or []byte payload", m)
		}
		e.writeByte(byte(m.Tag))
		e.length(m, int64(len(s)))
		e.writeString(s)
		return e.err
	}

	e.writeByte(byte(m.Tag))
	if m.HasLength() {
		e.length(m, tok.Length)
	}
	return e.err
}

func (e *Encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *Encoder) value(v *Value) {
	switch v.Kind() {
	case KindNull:
		e.writeByte(byte(TagNull))
	case KindNoOp:
		e.writeByte(byte(TagNoOp))
	case KindBool:
		if v.boolVal {
			e.writeByte(byte(TagTrue))
		} else {
			e.writeByte(byte(TagFalse))
		}
	case KindInt:
		e.int(v.intVal)
	case KindFloat:
		e.float(v.floatVal)
	case KindDecimal:
		e.text(e.pol.hugeShort, e.pol.hugeLong, v.strVal)
	case KindString:
		e.text(e.pol.strShort, e.pol.strLong, v.strVal)
	case KindArray:
		if v.arraySeq != nil {
			e.streamArray(v)
		} else {
			e.array(v.arrayVal)
		}
	case KindObject:
		if v.objectSeq != nil {
			e.streamObject(v)
		} else {
			e.object(v.objectVal)
		}
	}
}

// int writes n with the narrowest integer tag that holds it.
func (e *Encoder) int(n int64) {
	width := 8
	switch {
	case n >= math.MinInt8 && n <= math.MaxInt8:
		width = 1
	case n >= math.MinInt16 && n <= math.MaxInt16:
		width = 2
	case n >= math.MinInt32 && n <= math.MaxInt32:
		width = 4
	}
	e.writeByte(byte(e.pol.ints[widthIndex(width)]))
	e.fixedInt(n, width)
}

func (e *Encoder) float(f float64) {
	a := math.Abs(f)
	switch {
	case math.IsInf(f, 0) || math.IsNaN(f):
		// No wire form exists; written as null.
		e.writeByte(byte(TagNull))
	case f == 0 || e.fitsFloat32(f, a):
		e.writeByte(byte(TagFloat32))
		e.fixedFloat(f, 4)
	case a >= minNormalFloat64:
		e.writeByte(byte(TagFloat64))
		e.fixedFloat(f, 8)
	default:
		e.text(e.pol.hugeShort, e.pol.hugeLong, strconv.FormatFloat(f, 'g', -1, 64))
	}
}

func (e *Encoder) fitsFloat32(f, a float64) bool {
	if a < minNormalFloat32 || a > math.MaxFloat32 {
		return false
	}
	return e.opts.LossyFloat32 || float64(float32(f)) == f
}

// text writes a string or decimal payload. Draft 8 picks the short tag
// below 255 bytes; Draft 9 has one tag with a nested length.
func (e *Encoder) text(short, long Tag, s string) {
	tag := long
	if !e.pol.nestedLength && len(s) < unboundedLength {
		tag = short
	}
	m, _ := e.pol.table.Lookup(byte(tag))
	e.writeByte(byte(tag))
	e.length(m, int64(len(s)))
	e.writeString(s)
}

func (e *Encoder) length(m *Marker, n int64) {
	switch m.Length {
	case LengthFixed8:
		if n < 0 || n > math.MaxUint8 {
			e.fail(fmt.Errorf("ubjson: length %d does not fit marker %s", n, m))
			return
		}
		e.writeByte(byte(n))
	case LengthFixed32:
		if n < 0 || n > math.MaxUint32 {
			e.fail(fmt.Errorf("ubjson: length %d does not fit marker %s", n, m))
			return
		}
		binary.BigEndian.PutUint32(e.buf[:4], uint32(n))
		e.write(e.buf[:4])
	case LengthNested:
		if n < 0 {
			e.fail(fmt.Errorf("ubjson: negative length %d for marker %s", n, m))
			return
		}
		e.int(n)
	}
}

// sizedHeader writes a Draft 8 container tag and count.
func (e *Encoder) sizedHeader(short, long Tag, count int64) {
	tag := long
	if count < unboundedLength {
		tag = short
	}
	m, _ := e.pol.table.Lookup(byte(tag))
	e.writeByte(byte(tag))
	e.length(m, count)
}

func (e *Encoder) array(items []*Value) {
	if !e.pol.sized {
		e.writeByte(byte(e.pol.arrOpen))
		for _, item := range items {
			e.value(item)
			if e.err != nil {
				return
			}
		}
		e.writeByte(byte(e.pol.arrClose))
		return
	}

	// Sized containers carry no padding.
	count := 0
	for _, item := range items {
		if !item.IsNoOp() {
			count++
		}
	}
	e.sizedHeader(e.pol.arrShort, e.pol.arrLong, int64(count))
	for _, item := range items {
		if item.IsNoOp() {
			continue
		}
		e.value(item)
		if e.err != nil {
			return
		}
	}
}

func (e *Encoder) object(members []Member) {
	if !e.pol.sized {
		e.writeByte(byte(e.pol.objOpen))
		for _, m := range members {
			e.member(m)
			if e.err != nil {
				return
			}
		}
		e.writeByte(byte(e.pol.objClose))
		return
	}

	count := 0
	for _, m := range members {
		if !m.IsNoOp() {
			count++
		}
	}
	slots := int64(count)
	if e.opts.ObjectSlots {
		slots *= 2
	}
	e.sizedHeader(e.pol.objShort, e.pol.objLong, slots)
	for _, m := range members {
		if m.IsNoOp() {
			continue
		}
		e.member(m)
		if e.err != nil {
			return
		}
	}
}

func (e *Encoder) member(m Member) {
	if m.IsNoOp() {
		e.writeByte(byte(TagNoOp))
		return
	}
	if m.Value.IsNoOp() {
		e.fail(fmt.Errorf("%w: no-op value for key %q", ErrMalformed, m.Key))
		return
	}
	e.text(e.pol.strShort, e.pol.strLong, m.Key)
	e.value(m.Value)
}

func (e *Encoder) streamOpen(open Tag) {
	e.writeByte(byte(open))
	if e.pol.streamLength {
		e.writeByte(unboundedLength)
	}
}

func (e *Encoder) streamArray(v *Value) {
	e.streamOpen(e.pol.arrOpen)
	for item, err := range v.arraySeq {
		if err != nil {
			e.fail(err)
			return
		}
		e.value(item)
		if e.err != nil {
			return
		}
	}
	e.writeByte(byte(e.pol.arrClose))
}

func (e *Encoder) streamObject(v *Value) {
	e.streamOpen(e.pol.objOpen)
	for m, err := range v.objectSeq {
		if err != nil {
			e.fail(err)
			return
		}
		e.member(m)
		if e.err != nil {
			return
		}
	}
	e.writeByte(byte(e.pol.objClose))
}

func (e *Encoder) fixedInt(n int64, width int) {
	b := e.buf[:width]
	switch width {
	case 1:
		b[0] = byte(int8(n))
	case 2:
		binary.BigEndian.PutUint16(b, uint16(int16(n)))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(int32(n)))
	default:
		binary.BigEndian.PutUint64(b, uint64(n))
	}
	e.write(b)
}

func (e *Encoder) fixedFloat(f float64, width int) {
	b := e.buf[:width]
	if width == 4 {
		binary.BigEndian.PutUint32(b, math.Float32bits(float32(f)))
	} else {
		binary.BigEndian.PutUint64(b, math.Float64bits(f))
	}
	e.write(b)
}

func (e *Encoder) writeByte(b byte) {
	e.buf[8] = b
	e.write(e.buf[8:9])
}

func (e *Encoder) writeString(s string) {
	if e.err != nil {
		return
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		e.err = err
	}
}

func (e *Encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	if _, err := e.w.Write(p); err != nil {
		e.err = err
	}
}

func widthIndex(width int) int {
	switch width {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	default:
		return 3
	}
}

func fitsWidth(n int64, width int) bool {
	switch width {
	case 1:
		return n >= math.MinInt8 && n <= math.MaxInt8
	case 2:
		return n >= math.MinInt16 && n <= math.MaxInt16
	case 4:
		return n >= math.MinInt32 && n <= math.MaxInt32
	default:
		return true
	}
}

// Encode writes v as Draft 8 and returns the bytes.
func Encode(v *Value) ([]byte, error) {
	return EncodeWithOptions(v, DefaultEncodeOptions())
}

// EncodeWithOptions writes v and returns the bytes.
func EncodeWithOptions(v *Value, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf, opts).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Marshal converts x with the host adapter and encodes it as Draft 8.
func Marshal(x any) ([]byte, error) {
	return MarshalWithOptions(x, DefaultEncodeOptions())
}

// MarshalWithOptions converts x with the host adapter and encodes it.
func MarshalWithOptions(x any, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf, opts).EncodeAny(x); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
