package bridge

import (
	"errors"
	"math"
	"testing"

	"github.com/Neumenon/ubjson/ubjson"
)

func compact() Options { return Options{} }

func TestFromJSON_OrderAndComments(t *testing.T) {
	src := `{
		"b": 1,
		"a": [true, null, "x"], // trailing comment
		/* block */ "c": 2.5,
	}`
	v, err := FromJSON([]byte(src), compact())
	if err != nil {
		t.Fatal(err)
	}
	members, _ := v.AsObject()
	var keys []string
	for _, m := range members {
		keys = append(keys, m.Key)
	}
	if len(keys) != 3 || keys[0] != "b" || keys[1] != "a" || keys[2] != "c" {
		t.Errorf("keys = %v", keys)
	}

	out, err := ToJSON(v, compact())
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"b":1,"a":[true,null,"x"],"c":2.5}` {
		t.Errorf("ToJSON = %s", out)
	}
}

func TestFromJSON_Numbers(t *testing.T) {
	tests := []struct {
		src   string
		exact bool
		kind  ubjson.Kind
		text  string
	}{
		{"42", false, ubjson.KindInt, "42"},
		{"-9223372036854775808", false, ubjson.KindInt, "-9223372036854775808"},
		{"123456789012345678901234567890", false, ubjson.KindDecimal, "123456789012345678901234567890"},
		{"0.1", false, ubjson.KindFloat, "0.1"},
		{"0.1", true, ubjson.KindDecimal, "0.1"},
		{"1e400", false, ubjson.KindDecimal, "1e400"},
	}
	for _, tt := range tests {
		v, err := FromJSON([]byte(tt.src), Options{ExactNumbers: tt.exact})
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}
		if v.Kind() != tt.kind {
			t.Errorf("%s: kind %s, want %s", tt.src, v.Kind(), tt.kind)
			continue
		}
		if got := v.String(); got != tt.text {
			t.Errorf("%s: got %s, want %s", tt.src, got, tt.text)
		}
	}
}

func TestFromJSON_Errors(t *testing.T) {
	if _, err := FromJSON(nil, compact()); !errors.Is(err, ubjson.ErrNoData) {
		t.Errorf("empty: got %v", err)
	}
	for _, src := range []string{`1 2`, `{"a":}`, `[1,`} {
		if _, err := FromJSON([]byte(src), compact()); err == nil {
			t.Errorf("%s: accepted", src)
		}
	}
}

func TestToJSON(t *testing.T) {
	v := ubjson.Object(
		ubjson.Member{Key: "a", Value: ubjson.Array(ubjson.Int(1), ubjson.NoOp())},
		ubjson.Member{Value: ubjson.NoOp()},
		ubjson.Member{Key: "big", Value: ubjson.MustDecimal("1e99")},
	)
	out, err := ToJSON(v, compact())
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"a":[1],"big":1e99}` {
		t.Errorf("compact = %s", out)
	}

	out, err = ToJSON(ubjson.Object(ubjson.Member{Key: "a", Value: ubjson.Int(1)}), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "{\n  \"a\": 1\n}" {
		t.Errorf("indented = %q", out)
	}
}

func TestToJSON_Rejects(t *testing.T) {
	for _, v := range []*ubjson.Value{
		ubjson.Float(math.NaN()),
		ubjson.Array(ubjson.Float(math.Inf(1))),
		ubjson.Stream(func(func(*ubjson.Value) bool) {}),
	} {
		if _, err := ToJSON(v, compact()); err == nil {
			t.Errorf("%s: accepted", v)
		}
	}
	if _, err := ToJSON(ubjson.NoOp(), compact()); !errors.Is(err, ubjson.ErrUnsupported) {
		t.Errorf("no-op: got %v", err)
	}
}
