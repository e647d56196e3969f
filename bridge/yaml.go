package bridge

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Neumenon/ubjson/ubjson"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FromYAML converts the first document of a YAML stream to a value.
// Mapping keys are taken as written, so non-string keys become their
// text.
func FromYAML(data []byte, opts Options) (*ubjson.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("bridge: parse YAML: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, fmt.Errorf("bridge: %w: empty YAML document", ubjson.ErrNoData)
	}
	return fromYAMLNode(doc.Content[0], opts, 0)
}

func fromYAMLNode(n *yaml.Node, opts Options, depth int) (*ubjson.Value, error) {
	if depth > ubjson.DefaultMaxDepth {
		return nil, tooDeep()
	}

	switch n.Kind {
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias, opts, depth+1)
	case yaml.SequenceNode:
		arr := ubjson.Array()
		for _, c := range n.Content {
			item, err := fromYAMLNode(c, opts, depth+1)
			if err != nil {
				return nil, err
			}
			arr.Append(item)
		}
		return arr, nil
	case yaml.MappingNode:
		obj := ubjson.Object()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("bridge: %w: YAML key at line %d", ubjson.ErrInvalidKey, k.Line)
			}
			val, err := fromYAMLNode(n.Content[i+1], opts, depth+1)
			if err != nil {
				return nil, err
			}
			obj.Set(k.Value, val)
		}
		return obj, nil
	case yaml.ScalarNode:
		return fromYAMLScalar(n, opts)
	}
	return nil, fmt.Errorf("bridge: unexpected YAML node kind %d at line %d", n.Kind, n.Line)
}

func fromYAMLScalar(n *yaml.Node, opts Options) (*ubjson.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return ubjson.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("bridge: YAML line %d: %w", n.Line, err)
		}
		return ubjson.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return ubjson.Int(i), nil
		}
		return ubjson.Decimal(strings.ReplaceAll(n.Value, "_", ""))
	case "!!float":
		// Integers too large for 64 bits resolve as floats in YAML.
		if _, err := decimal.NewFromString(n.Value); err == nil {
			return number(n.Value, opts.ExactNumbers)
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("bridge: YAML line %d: %w", n.Line, err)
		}
		return ubjson.Float(f), nil
	}
	return ubjson.String(n.Value), nil
}

// ToYAML renders v as a YAML document with object member order kept.
// No-op padding is dropped and streamed containers are rejected.
func ToYAML(v *ubjson.Value, opts Options) ([]byte, error) {
	root, err := toYAMLNode(v, 0)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if opts.Indent != "" {
		enc.SetIndent(len(opts.Indent))
	}
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("bridge: encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("bridge: encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func toYAMLNode(v *ubjson.Value, depth int) (*yaml.Node, error) {
	if depth > ubjson.DefaultMaxDepth {
		return nil, tooDeep()
	}
	if v.IsStream() {
		return nil, unsupported("YAML", v)
	}

	scalar := func(tag, value string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
	}

	switch v.Kind() {
	case ubjson.KindNull:
		return scalar("!!null", "null"), nil
	case ubjson.KindBool:
		b, _ := v.AsBool()
		return scalar("!!bool", strconv.FormatBool(b)), nil
	case ubjson.KindInt:
		n, _ := v.AsInt()
		return scalar("!!int", strconv.FormatInt(n, 10)), nil
	case ubjson.KindFloat:
		f, _ := v.AsFloat()
		return scalar("!!float", yamlFloat(f)), nil
	case ubjson.KindDecimal:
		text, _ := v.DecimalText()
		// Untagged so readers resolve it as an int or a float.
		return scalar("", text), nil
	case ubjson.KindString:
		s, _ := v.AsString()
		return scalar("!!str", s), nil
	case ubjson.KindArray:
		items, _ := v.AsArray()
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range items {
			if item.IsNoOp() {
				continue
			}
			c, err := toYAMLNode(item, depth+1)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, c)
		}
		return seq, nil
	case ubjson.KindObject:
		members, _ := v.AsObject()
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, mem := range members {
			if mem.IsNoOp() {
				continue
			}
			c, err := toYAMLNode(mem.Value, depth+1)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, scalar("!!str", mem.Key), c)
		}
		return m, nil
	}
	return nil, unsupported("YAML", v)
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
