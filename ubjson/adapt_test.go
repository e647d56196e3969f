package ubjson

import (
	"encoding/json"
	"errors"
	"iter"
	"maps"
	"math/big"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mustMarshal(t *testing.T, x any, opts EncodeOptions) string {
	t.Helper()
	data, err := MarshalWithOptions(x, opts)
	if err != nil {
		t.Fatalf("marshal %#v: %v", x, err)
	}
	return string(data)
}

type color string

type point struct{ X, Y int }

func TestMarshal_HostShapes(t *testing.T) {
	d8 := DefaultEncodeOptions()
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	seven := 7

	tests := []struct {
		name string
		x    any
		want string
	}{
		{"nil", nil, "Z"},
		{"bool", true, "T"},
		{"int", 42, "B\x2a"},
		{"uint8", uint8(200), "i\x00\xc8"},
		{"named string", color("red"), "s\x03red"},
		{"float32", float32(0.5), "d\x3f\x00\x00\x00"},
		{"bytes", []byte("hi"), "s\x02hi"},
		{"json integer", json.Number("12"), "B\x0c"},
		{"json fraction", json.Number("1.25"), "h\x041.25"},
		{"decimal", decimal.RequireFromString("3.14"), "h\x043.14"},
		{"big float", big.NewFloat(1.5), "h\x031.5"},
		{"small big int", big.NewInt(-5), "B\xfb"},
		{"pointer", &seven, "B\x07"},
		{"nil pointer", (*int)(nil), "Z"},
		{"text marshaler", when, "s\x142024-01-02T03:04:05Z"},
		{"slice", []int{1, 2, 3}, "a\x03B\x01B\x02B\x03"},
		{"array", [2]string{"a", "b"}, "a\x02s\x01as\x01b"},
		{"tuple of any", []any{1, "x", nil}, "a\x03B\x01s\x01xZ"},
		{"map sorted", map[string]any{"b": 1, "a": 2}, "o\x02s\x01aB\x02s\x01bB\x01"},
		{"members", []Member{{"z", Int(1)}, {"a", Int(2)}}, "o\x02s\x01zB\x01s\x01aB\x02"},
		{"value", Array(Int(1)), "a\x01B\x01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustMarshal(t, tt.x, d8); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMarshal_LazySources(t *testing.T) {
	d8 := DefaultEncodeOptions()

	ch := make(chan int, 3)
	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)
	if got := mustMarshal(t, ch, d8); got != "a\xffB\x01B\x02B\x03E" {
		t.Errorf("channel: got %q", got)
	}

	if got := mustMarshal(t, slices.Values([]string{"foo"}), e9); got != "[Si\x03foo]" {
		t.Errorf("slices.Values: got %q", got)
	}

	m := map[string]string{"foo": "bar"}
	if got := mustMarshal(t, maps.All(m), e9); got != "{Si\x03fooSi\x03bar}" {
		t.Errorf("maps.All: got %q", got)
	}
	if got := mustMarshal(t, maps.Keys(m), e9); got != "[Si\x03foo]" {
		t.Errorf("maps.Keys: got %q", got)
	}

	var anySeq iter.Seq[any] = func(yield func(any) bool) {
		for i := 0; i < 5; i++ {
			if !yield(i) {
				return
			}
		}
	}
	if got := mustMarshal(t, anySeq, d8); got != "a\xffB\x00B\x01B\x02B\x03B\x04E" {
		t.Errorf("iter.Seq[any]: got %q", got)
	}

	var pairs iter.Seq2[string, any] = func(yield func(string, any) bool) {
		yield("foo", "bar")
	}
	if got := mustMarshal(t, pairs, d8); got != "o\xffs\x03foos\x03barE" {
		t.Errorf("iter.Seq2: got %q", got)
	}
}

func TestMarshal_Errors(t *testing.T) {
	_, err := Marshal(point{1, 2})
	var ute *UnsupportedTypeError
	if !errors.As(err, &ute) || !errors.Is(err, ErrUnsupported) {
		t.Errorf("struct: got %v", err)
	}

	if _, err := Marshal(map[int]int{1: 2}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("int keys: got %v", err)
	}
	intKeys := func(yield func(int, any) bool) { yield(1, "x") }
	if _, err := Marshal(intKeys); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("int sequence keys: got %v", err)
	}
	if _, err := Marshal(slices.All([]string{"a"})); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("slices.All: got %v", err)
	}
	if _, err := Marshal([]byte{0xff}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("invalid utf8 bytes: got %v", err)
	}
	if _, err := Marshal(json.Number("x1")); !errors.Is(err, ErrMalformed) {
		t.Errorf("bad json number: got %v", err)
	}

	// Conversion errors inside a stream surface from the encoder.
	bad := func(yield func(any) bool) {
		if yield(1) {
			yield(point{})
		}
	}
	if _, err := Marshal(bad); !errors.Is(err, ErrUnsupported) {
		t.Errorf("stream element: got %v", err)
	}
}

func TestMarshal_Default(t *testing.T) {
	sentinel := point{9, 9}
	opts := EncodeOptions{
		Revision: Draft9,
		Default: func(x any) (any, error) {
			if x != any(sentinel) {
				t.Fatalf("default got %#v", x)
			}
			return []string{"sentinel"}, nil
		},
	}
	// Pointers are dereferenced before the fallback sees them.
	if got := mustMarshal(t, &sentinel, opts); got != "[Si\x08sentinel]" {
		t.Errorf("got %q", got)
	}

	opts.Default = func(any) (any, error) { return nil, errors.New("nope") }
	if _, err := MarshalWithOptions(point{}, opts); err == nil || err.Error() != "nope" {
		t.Errorf("failing default: got %v", err)
	}
}

func TestUnmarshal(t *testing.T) {
	got, err := Unmarshal([]byte("o\x03s\x01aa\x02B\x01Zs\x01bh\x0512345s\x01cT"))
	if err != nil {
		t.Fatal(err)
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("got %T", got)
	}
	a, _ := m["a"].([]any)
	if len(a) != 2 || a[0] != int64(1) || a[1] != nil {
		t.Errorf("a = %#v", m["a"])
	}
	if d, ok := m["b"].(decimal.Decimal); !ok || d.String() != "12345" {
		t.Errorf("b = %#v", m["b"])
	}
	if m["c"] != true {
		t.Errorf("c = %#v", m["c"])
	}

	got, err = UnmarshalWithOptions([]byte("[NSi\x01xN]"), DecodeOptions{Revision: Draft9, AllowNoOp: true})
	if err != nil {
		t.Fatal(err)
	}
	if items := got.([]any); len(items) != 1 || items[0] != "x" {
		t.Errorf("padding kept: %#v", got)
	}
}
