package ubjson

import (
	"encoding"
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// maxAdaptDepth stops runaway recursion on cyclic host values.
const maxAdaptDepth = 1000

// FromGo converts a host value into a Value.
//
// Supported shapes: nil, *Value, []Member, bool, every integer and float
// kind, *big.Int, *big.Float, decimal.Decimal, json.Number, string, []byte
// holding UTF-8, encoding.TextMarshaler, slices, arrays, maps with string
// keys (written in sorted key order), receive channels, and range
// functions of the form func(yield func(V) bool) or
// func(yield func(K, V) bool) with a string K. Channels and range
// functions become streams.
// Integers beyond the int64 range become decimals.
func FromGo(x any) (*Value, error) {
	return FromGoWithDefault(x, nil)
}

// FromGoWithDefault is like FromGo but passes unsupported values to
// fallback and converts its result instead of failing. Pointers are
// dereferenced before fallback sees them.
func FromGoWithDefault(x any, fallback func(any) (any, error)) (*Value, error) {
	a := adapter{fallback: fallback}
	return a.convert(x, 0)
}

type adapter struct {
	fallback func(any) (any, error)
}

func (a adapter) convert(x any, depth int) (*Value, error) {
	if depth > maxAdaptDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrLimit, maxAdaptDepth)
	}

	switch t := x.(type) {
	case nil:
		return Null(), nil
	case *Value:
		if t == nil {
			return Null(), nil
		}
		return t, nil
	case []Member:
		return Object(t...), nil
	case *big.Int:
		if t == nil {
			return Null(), nil
		}
		if t.IsInt64() {
			return Int(t.Int64()), nil
		}
		return &Value{kind: KindDecimal, strVal: t.String()}, nil
	case *big.Float:
		if t == nil {
			return Null(), nil
		}
		if t.IsInf() {
			return Float(math.Inf(t.Sign())), nil
		}
		return &Value{kind: KindDecimal, strVal: t.Text('g', -1)}, nil
	case decimal.Decimal:
		return DecimalOf(t), nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return Int(n), nil
		}
		return Decimal(string(t))
	case []byte:
		if !utf8.Valid(t) {
			return nil, fmt.Errorf("%w: []byte is not valid UTF-8", ErrUnsupported)
		}
		return String(string(t)), nil
	case iter.Seq[*Value]:
		return Stream(t), nil
	case iter.Seq2[string, *Value]:
		return StreamObject(t), nil
	case iter.Seq[any]:
		return a.stream(t, depth), nil
	case iter.Seq2[string, any]:
		return a.streamObject(t, depth), nil
	case encoding.TextMarshaler:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Null(), nil
		}
		text, err := t.MarshalText()
		if err != nil {
			return nil, fmt.Errorf("ubjson: marshal %T: %w", x, err)
		}
		return String(string(text)), nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return &Value{kind: KindDecimal, strVal: strconv.FormatUint(u, 10)}, nil
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return a.convert(rv.Elem().Interface(), depth+1)
	case reflect.Slice, reflect.Array:
		items := make([]*Value, rv.Len())
		for i := range items {
			v, err := a.convert(rv.Index(i).Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return Array(items...), nil
	case reflect.Map:
		return a.mapValue(rv, depth)
	case reflect.Chan, reflect.Func:
		if rv.IsNil() {
			return Null(), nil
		}
		typ := rv.Type()
		if typ.Kind() == reflect.Func && typ.CanSeq2() {
			if key := typ.In(0).In(0); key.Kind() != reflect.String {
				return nil, fmt.Errorf("%w: sequence key type %s", ErrInvalidKey, key)
			}
			return a.reflectObject(rv, depth), nil
		}
		if typ.CanSeq() {
			return a.reflectStream(rv, depth), nil
		}
	}

	if a.fallback != nil {
		y, err := a.fallback(x)
		if err != nil {
			return nil, err
		}
		return a.convert(y, depth+1)
	}
	return nil, &UnsupportedTypeError{Type: reflect.TypeOf(x)}
}

func (a adapter) mapValue(rv reflect.Value, depth int) (*Value, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%w: map key type %s", ErrInvalidKey, rv.Type().Key())
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	members := make([]Member, 0, len(keys))
	for _, k := range keys {
		v, err := a.convert(rv.MapIndex(k).Interface(), depth+1)
		if err != nil {
			return nil, err
		}
		members = append(members, Member{Key: k.String(), Value: v})
	}
	return Object(members...), nil
}

func (a adapter) stream(seq iter.Seq[any], depth int) *Value {
	return &Value{kind: KindArray, arraySeq: func(yield func(*Value, error) bool) {
		for x := range seq {
			v, err := a.convert(x, depth+1)
			if !yield(v, err) || err != nil {
				return
			}
		}
	}}
}

func (a adapter) streamObject(seq iter.Seq2[string, any], depth int) *Value {
	return &Value{kind: KindObject, objectSeq: func(yield func(Member, error) bool) {
		for k, x := range seq {
			v, err := a.convert(x, depth+1)
			if !yield(Member{Key: k, Value: v}, err) || err != nil {
				return
			}
		}
	}}
}

// reflectStream ranges over a receive channel or a func(yield func(T) bool).
func (a adapter) reflectStream(rv reflect.Value, depth int) *Value {
	return &Value{kind: KindArray, arraySeq: func(yield func(*Value, error) bool) {
		for x := range rv.Seq() {
			v, err := a.convert(x.Interface(), depth+1)
			if !yield(v, err) || err != nil {
				return
			}
		}
	}}
}

// reflectObject ranges over a func(yield func(K, V) bool) with a string K.
func (a adapter) reflectObject(rv reflect.Value, depth int) *Value {
	return &Value{kind: KindObject, objectSeq: func(yield func(Member, error) bool) {
		for k, x := range rv.Seq2() {
			v, err := a.convert(x.Interface(), depth+1)
			if !yield(Member{Key: k.String(), Value: v}, err) || err != nil {
				return
			}
		}
	}}
}

// ToGo converts v into plain Go values: nil, bool, int64, float64,
// decimal.Decimal, string, []any and map[string]any. No-ops are dropped
// and repeated keys keep the last value. Streams convert to nil.
func (v *Value) ToGo() any {
	switch v.Kind() {
	case KindBool:
		return v.boolVal
	case KindInt:
		return v.intVal
	case KindFloat:
		return v.floatVal
	case KindDecimal:
		d, err := decimal.NewFromString(v.strVal)
		if err != nil {
			return v.strVal
		}
		return d
	case KindString:
		return v.strVal
	case KindArray:
		if v.arraySeq != nil {
			return nil
		}
		out := make([]any, 0, len(v.arrayVal))
		for _, item := range v.arrayVal {
			if item.IsNoOp() {
				continue
			}
			out = append(out, item.ToGo())
		}
		return out
	case KindObject:
		if v.objectSeq != nil {
			return nil
		}
		out := make(map[string]any, len(v.objectVal))
		for _, m := range v.objectVal {
			if m.IsNoOp() {
				continue
			}
			out[m.Key] = m.Value.ToGo()
		}
		return out
	}
	return nil
}

// Unmarshal decodes the first Draft 8 value in data into plain Go values.
func Unmarshal(data []byte) (any, error) {
	return UnmarshalWithOptions(data, DefaultDecodeOptions())
}

// UnmarshalWithOptions decodes the first value in data into plain Go
// values.
func UnmarshalWithOptions(data []byte, opts DecodeOptions) (any, error) {
	v, err := DecodeWithOptions(data, opts)
	if err != nil {
		return nil, err
	}
	return v.ToGo(), nil
}
