package ubjson

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDecimal // exact decimal text ("huge" number)
	KindString
	KindArray
	KindObject
	KindNoOp // padding marker, only surfaced when no-op pass-through is on
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindNoOp:
		return "noop"
	default:
		return "unknown"
	}
}

// Value is a decoded or to-be-encoded UBJSON value.
//
// Arrays and objects are either materialized (a slice of children) or
// streams backed by a one-shot iterator. Streams only exist on the encode
// side; the decoder always materializes nested children.
type Value struct {
	kind Kind

	boolVal  bool
	intVal   int64
	floatVal float64
	strVal   string // string payload, or decimal text

	arrayVal  []*Value
	objectVal []Member

	// Lazy sources, never both set.
	arraySeq  iter.Seq2[*Value, error]
	objectSeq iter.Seq2[Member, error]
}

// Member is one key/value pair of an object. Keys may repeat; order is
// preserved. A member with an empty Key and a no-op Value is padding.
type Member struct {
	Key   string
	Value *Value
}

// IsNoOp reports whether m is a padding member.
func (m Member) IsNoOp() bool {
	return m.Key == "" && m.Value.IsNoOp()
}

// ============================================================
// Constructors
// ============================================================

// Null creates a null value.
func Null() *Value {
	return &Value{kind: KindNull}
}

// Bool creates a boolean value.
func Bool(v bool) *Value {
	return &Value{kind: KindBool, boolVal: v}
}

// Int creates an integer value.
func Int(v int64) *Value {
	return &Value{kind: KindInt, intVal: v}
}

// Float creates a floating point value.
func Float(v float64) *Value {
	return &Value{kind: KindFloat, floatVal: v}
}

// String creates a string value.
func String(v string) *Value {
	return &Value{kind: KindString, strVal: v}
}

// Decimal creates an exact decimal value from its text form. The text is
// kept verbatim; it must parse as a decimal number.
func Decimal(text string) (*Value, error) {
	if _, err := decimal.NewFromString(text); err != nil {
		return nil, fmt.Errorf("%w: invalid decimal %q", ErrMalformed, text)
	}
	return &Value{kind: KindDecimal, strVal: text}, nil
}

// MustDecimal is like Decimal but panics on invalid text.
func MustDecimal(text string) *Value {
	v, err := Decimal(text)
	if err != nil {
		panic(err)
	}
	return v
}

// DecimalOf creates a decimal value from d's canonical text.
func DecimalOf(d decimal.Decimal) *Value {
	return &Value{kind: KindDecimal, strVal: d.String()}
}

// Array creates a materialized array.
func Array(items ...*Value) *Value {
	return &Value{kind: KindArray, arrayVal: items}
}

// Object creates a materialized object from members in order.
func Object(members ...Member) *Value {
	return &Value{kind: KindObject, objectVal: members}
}

// NoOp creates the no-op padding value.
func NoOp() *Value {
	return &Value{kind: KindNoOp}
}

// Stream creates an array whose elements are produced by seq at encode
// time. The encoder writes it in the unbounded, terminator-delimited form.
func Stream(seq iter.Seq[*Value]) *Value {
	return &Value{kind: KindArray, arraySeq: func(yield func(*Value, error) bool) {
		for v := range seq {
			if !yield(v, nil) {
				return
			}
		}
	}}
}

// StreamObject creates an object whose pairs are produced by seq at encode
// time.
func StreamObject(seq iter.Seq2[string, *Value]) *Value {
	return &Value{kind: KindObject, objectSeq: func(yield func(Member, error) bool) {
		for k, v := range seq {
			if !yield(Member{Key: k, Value: v}, nil) {
				return
			}
		}
	}}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value kind. A nil Value is null.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v is null.
func (v *Value) IsNull() bool {
	return v == nil || v.kind == KindNull
}

// IsNoOp reports whether v is the no-op sentinel.
func (v *Value) IsNoOp() bool {
	return v != nil && v.kind == KindNoOp
}

// IsStream reports whether v is a lazily produced array or object.
func (v *Value) IsStream() bool {
	return v != nil && (v.arraySeq != nil || v.objectSeq != nil)
}

// AsBool returns the boolean value.
func (v *Value) AsBool() (bool, error) {
	if err := v.expect(KindBool); err != nil {
		return false, err
	}
	return v.boolVal, nil
}

// AsInt returns the integer value.
func (v *Value) AsInt() (int64, error) {
	if err := v.expect(KindInt); err != nil {
		return 0, err
	}
	return v.intVal, nil
}

// AsFloat returns the float value.
func (v *Value) AsFloat() (float64, error) {
	if err := v.expect(KindFloat); err != nil {
		return 0, err
	}
	return v.floatVal, nil
}

// AsString returns the string value.
func (v *Value) AsString() (string, error) {
	if err := v.expect(KindString); err != nil {
		return "", err
	}
	return v.strVal, nil
}

// DecimalText returns the exact text of a decimal value.
func (v *Value) DecimalText() (string, error) {
	if err := v.expect(KindDecimal); err != nil {
		return "", err
	}
	return v.strVal, nil
}

// AsDecimal returns any numeric value as an exact decimal. Floats convert
// through their shortest round-trip representation.
func (v *Value) AsDecimal() (decimal.Decimal, error) {
	switch v.Kind() {
	case KindInt:
		return decimal.NewFromInt(v.intVal), nil
	case KindFloat:
		if math.IsNaN(v.floatVal) || math.IsInf(v.floatVal, 0) {
			return decimal.Decimal{}, fmt.Errorf("ubjson: %v has no decimal form", v.floatVal)
		}
		return decimal.NewFromFloat(v.floatVal), nil
	case KindDecimal:
		return decimal.NewFromString(v.strVal)
	default:
		return decimal.Decimal{}, fmt.Errorf("ubjson: expected number, got %s", v.Kind())
	}
}

// AsArray returns the elements of a materialized array.
func (v *Value) AsArray() ([]*Value, error) {
	if err := v.expect(KindArray); err != nil {
		return nil, err
	}
	if v.arraySeq != nil {
		return nil, fmt.Errorf("ubjson: array is a one-shot stream")
	}
	return v.arrayVal, nil
}

// AsObject returns the members of a materialized object.
func (v *Value) AsObject() ([]Member, error) {
	if err := v.expect(KindObject); err != nil {
		return nil, err
	}
	if v.objectSeq != nil {
		return nil, fmt.Errorf("ubjson: object is a one-shot stream")
	}
	return v.objectVal, nil
}

// Len returns the number of children of a materialized array or object,
// no-op padding included.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindArray:
		return len(v.arrayVal)
	case KindObject:
		return len(v.objectVal)
	default:
		return 0
	}
}

// Get returns the value stored under key in an object. When a key repeats
// the last occurrence wins.
func (v *Value) Get(key string) *Value {
	if v.Kind() != KindObject {
		return nil
	}
	for i := len(v.objectVal) - 1; i >= 0; i-- {
		m := v.objectVal[i]
		if !m.IsNoOp() && m.Key == key {
			return m.Value
		}
	}
	return nil
}

// Index returns the i-th element of an array.
func (v *Value) Index(i int) (*Value, error) {
	if v.Kind() != KindArray || v.arraySeq != nil {
		return nil, fmt.Errorf("ubjson: not an array")
	}
	if i < 0 || i >= len(v.arrayVal) {
		return nil, fmt.Errorf("ubjson: index %d out of bounds (len=%d)", i, len(v.arrayVal))
	}
	return v.arrayVal[i], nil
}

func (v *Value) expect(k Kind) error {
	if v == nil {
		return fmt.Errorf("ubjson: nil value")
	}
	if v.kind != k {
		return fmt.Errorf("ubjson: expected %s, got %s", k, v.kind)
	}
	return nil
}

// ============================================================
// Mutators
// ============================================================

// Append adds elements to a materialized array.
func (v *Value) Append(items ...*Value) {
	if v.Kind() == KindArray && v.arraySeq == nil {
		v.arrayVal = append(v.arrayVal, items...)
	}
}

// Set appends a member to a materialized object. Existing members with the
// same key are kept; Get sees the new one.
func (v *Value) Set(key string, val *Value) {
	if v.Kind() == KindObject && v.objectSeq == nil {
		v.objectVal = append(v.objectVal, Member{Key: key, Value: val})
	}
}

// ============================================================
// Comparison and formatting
// ============================================================

// Equal reports whether a and b hold the same value. Objects compare
// member by member in order. NaN equals NaN. Streams are only equal to
// themselves.
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if a.IsStream() || b.IsStream() {
		return a == b
	}
	switch a.Kind() {
	case KindNull, KindNoOp:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindInt:
		return a.intVal == b.intVal
	case KindFloat:
		if math.IsNaN(a.floatVal) && math.IsNaN(b.floatVal) {
			return true
		}
		return a.floatVal == b.floatVal
	case KindDecimal, KindString:
		return a.strVal == b.strVal
	case KindArray:
		if len(a.arrayVal) != len(b.arrayVal) {
			return false
		}
		for i := range a.arrayVal {
			if !Equal(a.arrayVal[i], b.arrayVal[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.objectVal) != len(b.objectVal) {
			return false
		}
		for i, m := range a.objectVal {
			n := b.objectVal[i]
			if m.Key != n.Key || !Equal(m.Value, n.Value) {
				return false
			}
		}
		return true
	}
	return false
}

// String returns a compact JSON-like rendering for debugging. No-ops
// print as N.
func (v *Value) String() string {
	var sb strings.Builder
	v.format(&sb)
	return sb.String()
}

func (v *Value) format(sb *strings.Builder) {
	switch v.Kind() {
	case KindNull:
		sb.WriteString("null")
	case KindNoOp:
		sb.WriteString("N")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.boolVal))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.intVal, 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(v.floatVal, 'g', -1, 64))
	case KindDecimal:
		sb.WriteString(v.strVal)
	case KindString:
		sb.WriteString(strconv.Quote(v.strVal))
	case KindArray:
		if v.arraySeq != nil {
			sb.WriteString("[...]")
			return
		}
		sb.WriteByte('[')
		for i, item := range v.arrayVal {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.format(sb)
		}
		sb.WriteByte(']')
	case KindObject:
		if v.objectSeq != nil {
			sb.WriteString("{...}")
			return
		}
		sb.WriteByte('{')
		for i, m := range v.objectVal {
			if i > 0 {
				sb.WriteString(", ")
			}
			if m.IsNoOp() {
				sb.WriteString("N")
				continue
			}
			sb.WriteString(strconv.Quote(m.Key))
			sb.WriteString(": ")
			m.Value.format(sb)
		}
		sb.WriteByte('}')
	}
}
