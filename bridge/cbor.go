package bridge

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/Neumenon/ubjson/ubjson"
	"github.com/fxamacker/cbor/v2"
	"github.com/shopspring/decimal"
)

// tagDecimalFraction is the CBOR tag for [exponent, mantissa] decimals
// (RFC 8949 section 3.4.4).
const tagDecimalFraction = 4

// cborEnc uses Core Deterministic Encoding: sorted map keys, shortest
// integer and float forms, definite lengths. Integers outside the 64-bit
// range are written as bignums.
var cborEnc cbor.EncMode

var cborDec cbor.DecMode

func init() {
	var err error

	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("bridge: CBOR encoder initialization failed: " + err.Error())
	}

	cborDec, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		BigIntDec:       cbor.BigIntDecodePointer,
		MaxNestedLevels: 1000,
	}.DecMode()
	if err != nil {
		panic("bridge: CBOR decoder initialization failed: " + err.Error())
	}
}

// FromCBOR converts one CBOR data item to a value. Maps must have text
// keys and are ordered by key. Bignums and decimal fractions become
// decimals; byte strings must hold UTF-8 text.
func FromCBOR(data []byte) (*ubjson.Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("bridge: %w: empty CBOR input", ubjson.ErrNoData)
	}
	var x any
	if err := cborDec.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("bridge: parse CBOR: %w", err)
	}
	v, err := ubjson.FromGoWithDefault(x, fromCBORTag)
	if err != nil {
		return nil, fmt.Errorf("bridge: convert CBOR: %w", err)
	}
	return v, nil
}

// fromCBORTag handles the CBOR tags that have a UBJSON counterpart.
func fromCBORTag(x any) (any, error) {
	tag, ok := x.(cbor.Tag)
	if !ok || tag.Number != tagDecimalFraction {
		return nil, fmt.Errorf("%w: CBOR %T", ubjson.ErrUnsupported, x)
	}
	parts, ok := tag.Content.([]any)
	if !ok || len(parts) != 2 {
		return nil, fmt.Errorf("%w: malformed CBOR decimal fraction", ubjson.ErrMalformed)
	}
	exp, ok := cborInt(parts[0])
	if !ok || !exp.IsInt64() || exp.Int64() < -1<<31 || exp.Int64() >= 1<<31 {
		return nil, fmt.Errorf("%w: CBOR decimal exponent %v", ubjson.ErrMalformed, parts[0])
	}
	mant, ok := cborInt(parts[1])
	if !ok {
		return nil, fmt.Errorf("%w: CBOR decimal mantissa %v", ubjson.ErrMalformed, parts[1])
	}
	return decimal.NewFromBigInt(mant, int32(exp.Int64())), nil
}

func cborInt(x any) (*big.Int, bool) {
	switch n := x.(type) {
	case int64:
		return big.NewInt(n), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case *big.Int:
		return n, true
	}
	return nil, false
}

// ToCBOR encodes v as CBOR. No-op padding is dropped, duplicate object
// keys keep their last value, and streamed containers are rejected.
// Decimals become integers or bignums when integral and decimal
// fractions otherwise.
func ToCBOR(v *ubjson.Value) ([]byte, error) {
	x, err := toCBORValue(v, 0)
	if err != nil {
		return nil, err
	}
	data, err := cborEnc.Marshal(x)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode CBOR: %w", err)
	}
	return data, nil
}

func toCBORValue(v *ubjson.Value, depth int) (any, error) {
	if depth > ubjson.DefaultMaxDepth {
		return nil, tooDeep()
	}
	if v.IsStream() {
		return nil, unsupported("CBOR", v)
	}

	switch v.Kind() {
	case ubjson.KindNull:
		return nil, nil
	case ubjson.KindBool:
		return v.AsBool()
	case ubjson.KindInt:
		return v.AsInt()
	case ubjson.KindFloat:
		return v.AsFloat()
	case ubjson.KindString:
		return v.AsString()
	case ubjson.KindDecimal:
		d, err := v.AsDecimal()
		if err != nil {
			return nil, err
		}
		if d.IsInteger() {
			return d.BigInt(), nil
		}
		return cbor.Tag{
			Number:  tagDecimalFraction,
			Content: []any{int64(d.Exponent()), d.Coefficient()},
		}, nil
	case ubjson.KindArray:
		items, _ := v.AsArray()
		out := make([]any, 0, len(items))
		for _, item := range items {
			if item.IsNoOp() {
				continue
			}
			x, err := toCBORValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	case ubjson.KindObject:
		members, _ := v.AsObject()
		out := make(map[string]any, len(members))
		for _, m := range members {
			if m.IsNoOp() {
				continue
			}
			x, err := toCBORValue(m.Value, depth+1)
			if err != nil {
				return nil, err
			}
			out[m.Key] = x
		}
		return out, nil
	}
	return nil, unsupported("CBOR", v)
}
