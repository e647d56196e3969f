package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Neumenon/ubjson/ubjson"
	"github.com/tidwall/jsonc"
)

// ============================================================
// JSON to UBJSON
// ============================================================

// FromJSON converts a JSON document to a value. Comments and trailing
// commas are accepted.
func FromJSON(data []byte, opts Options) (*ubjson.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()

	tok, err := dec.Token()
	if err == io.EOF {
		return nil, fmt.Errorf("bridge: %w: empty JSON document", ubjson.ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("bridge: parse JSON: %w", err)
	}
	v, err := fromJSONToken(dec, tok, opts, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("bridge: parse JSON: trailing data after document")
	}
	return v, nil
}

func fromJSONToken(dec *json.Decoder, tok json.Token, opts Options, depth int) (*ubjson.Value, error) {
	if depth > ubjson.DefaultMaxDepth {
		return nil, tooDeep()
	}

	switch t := tok.(type) {
	case nil:
		return ubjson.Null(), nil
	case bool:
		return ubjson.Bool(t), nil
	case string:
		return ubjson.String(t), nil
	case json.Number:
		return number(string(t), opts.ExactNumbers)
	case json.Delim:
		if t == '[' {
			arr := ubjson.Array()
			for dec.More() {
				item, err := nextJSON(dec, opts, depth+1)
				if err != nil {
					return nil, err
				}
				arr.Append(item)
			}
			return arr, closeJSON(dec)
		}
		obj := ubjson.Object()
		for dec.More() {
			key, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("bridge: parse JSON: %w", err)
			}
			val, err := nextJSON(dec, opts, depth+1)
			if err != nil {
				return nil, err
			}
			obj.Set(key.(string), val)
		}
		return obj, closeJSON(dec)
	}
	return nil, fmt.Errorf("bridge: parse JSON: unexpected token %v", tok)
}

func nextJSON(dec *json.Decoder, opts Options, depth int) (*ubjson.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("bridge: parse JSON: %w", err)
	}
	return fromJSONToken(dec, tok, opts, depth)
}

func closeJSON(dec *json.Decoder) error {
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("bridge: parse JSON: %w", err)
	}
	return nil
}

// number converts numeric text. Integers that fit int64 become Int and
// larger ones Decimal. Fractions become Float unless exact is set or the
// value overflows float64.
func number(text string, exact bool) (*ubjson.Value, error) {
	if !strings.ContainsAny(text, ".eE") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return ubjson.Int(n), nil
		}
		return ubjson.Decimal(text)
	}
	if !exact {
		f, err := strconv.ParseFloat(text, 64)
		if err == nil {
			return ubjson.Float(f), nil
		}
		if !errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("bridge: %w: number %q", ubjson.ErrMalformed, text)
		}
	}
	return ubjson.Decimal(text)
}

// ============================================================
// UBJSON to JSON
// ============================================================

// ToJSON renders v as JSON. Object member order is kept and no-op
// padding is dropped. NaN, infinities and streamed containers are
// rejected.
func ToJSON(v *ubjson.Value, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v, 0); err != nil {
		return nil, err
	}
	if opts.Indent == "" {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", opts.Indent); err != nil {
		return nil, fmt.Errorf("bridge: indent JSON: %w", err)
	}
	return out.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v *ubjson.Value, depth int) error {
	if depth > ubjson.DefaultMaxDepth {
		return tooDeep()
	}
	if v.IsStream() {
		return unsupported("JSON", v)
	}

	switch v.Kind() {
	case ubjson.KindNull:
		buf.WriteString("null")
	case ubjson.KindBool:
		b, _ := v.AsBool()
		buf.WriteString(strconv.FormatBool(b))
	case ubjson.KindInt:
		n, _ := v.AsInt()
		buf.WriteString(strconv.FormatInt(n, 10))
	case ubjson.KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("bridge: %w: %v is not representable in JSON", ubjson.ErrUnsupported, f)
		}
		b, _ := json.Marshal(f)
		buf.Write(b)
	case ubjson.KindDecimal:
		text, _ := v.DecimalText()
		if !json.Valid([]byte(text)) {
			d, err := v.AsDecimal()
			if err != nil {
				return err
			}
			text = d.String()
		}
		buf.WriteString(text)
	case ubjson.KindString:
		s, _ := v.AsString()
		b, _ := json.Marshal(s)
		buf.Write(b)
	case ubjson.KindArray:
		items, _ := v.AsArray()
		buf.WriteByte('[')
		first := true
		for _, item := range items {
			if item.IsNoOp() {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := writeJSON(buf, item, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case ubjson.KindObject:
		members, _ := v.AsObject()
		buf.WriteByte('{')
		first := true
		for _, m := range members {
			if m.IsNoOp() {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			k, _ := json.Marshal(m.Key)
			buf.Write(k)
			buf.WriteByte(':')
			if err := writeJSON(buf, m.Value, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return unsupported("JSON", v)
	}
	return nil
}
