package bridge

import (
	"errors"
	"testing"

	"github.com/Neumenon/ubjson/ubjson"
)

func TestToCBOR(t *testing.T) {
	tests := []struct {
		name string
		v    *ubjson.Value
		want string
	}{
		{"map", ubjson.Object(ubjson.Member{Key: "a", Value: ubjson.Int(1)}), "\xa1\x61\x61\x01"},
		{"shortest float", ubjson.Float(0.5), "\xf9\x38\x00"},
		{"bignum", ubjson.MustDecimal("18446744073709551616"), "\xc2\x49\x01\x00\x00\x00\x00\x00\x00\x00\x00"},
		{"small integral decimal", ubjson.MustDecimal("12"), "\x0c"},
		{"decimal fraction", ubjson.MustDecimal("1.5"), "\xc4\x82\x20\x0f"},
		{"no-op dropped", ubjson.Array(ubjson.Int(1), ubjson.NoOp()), "\x81\x01"},
		{"null", ubjson.Null(), "\xf6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToCBOR(tt.v)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("got %x, want %x", got, tt.want)
			}
		})
	}
}

func TestFromCBOR(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"sorted map", "\xa2\x61\x62\x01\x61\x61\x02", `{"a": 2, "b": 1}`},
		{"bignum", "\xc2\x49\x01\x00\x00\x00\x00\x00\x00\x00\x00", "18446744073709551616"},
		{"decimal fraction", "\xc4\x82\x20\x0f", "1.5"},
		{"large unsigned", "\x1b\xff\xff\xff\xff\xff\xff\xff\xff", "18446744073709551615"},
		{"array", "\x83\xf5\xf6\x63abc", `[true, null, "abc"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromCBOR([]byte(tt.data))
			if err != nil {
				t.Fatal(err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFromCBOR_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"empty", "", ubjson.ErrNoData},
		{"unknown tag", "\xd8\x64\x01", ubjson.ErrUnsupported},
		{"binary bytes", "\x41\xff", ubjson.ErrUnsupported},
		{"bad decimal fraction", "\xc4\x81\x01", ubjson.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromCBOR([]byte(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCBOR_RoundTrip(t *testing.T) {
	v := ubjson.Object(
		ubjson.Member{Key: "n", Value: ubjson.Int(-300)},
		ubjson.Member{Key: "s", Value: ubjson.String("x")},
		ubjson.Member{Key: "x", Value: ubjson.Array(ubjson.Bool(false), ubjson.Float(1.25))},
	)
	data, err := ToCBOR(v)
	if err != nil {
		t.Fatal(err)
	}
	back, err := FromCBOR(data)
	if err != nil {
		t.Fatal(err)
	}
	if !ubjson.Equal(v, back) {
		t.Errorf("got %s, want %s", back, v)
	}
}
