package ubjson

import (
	"bytes"
	"testing"
)

// ============================================================
// Codec Benchmarks
// ============================================================
//
// Run with:
//   go test -bench=. -benchmem ./ubjson/

func benchDocument() *Value {
	items := make([]*Value, 0, 64)
	for i := 0; i < 64; i++ {
		items = append(items, Object(
			Member{"id", Int(int64(i) * 1000003)},
			Member{"name", String("item")},
			Member{"score", Float(float64(i) + 0.25)},
			Member{"tags", Array(String("a"), String("b"))},
			Member{"active", Bool(i%2 == 0)},
		))
	}
	return Object(Member{"items", Array(items...)}, Member{"total", Int(64)})
}

func benchEncode(b *testing.B, rev Revision) {
	v := benchDocument()
	opts := EncodeOptions{Revision: rev}
	var buf bytes.Buffer
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := NewEncoder(&buf, opts).Encode(v); err != nil {
			b.Fatal(err)
		}
	}
	b.SetBytes(int64(buf.Len()))
}

func benchDecode(b *testing.B, rev Revision) {
	data, err := EncodeWithOptions(benchDocument(), EncodeOptions{Revision: rev})
	if err != nil {
		b.Fatal(err)
	}
	opts := DecodeOptions{Revision: rev}
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeWithOptions(data, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncode_Draft8(b *testing.B) { benchEncode(b, Draft8) }
func BenchmarkEncode_Draft9(b *testing.B) { benchEncode(b, Draft9) }
func BenchmarkDecode_Draft8(b *testing.B) { benchDecode(b, Draft8) }
func BenchmarkDecode_Draft9(b *testing.B) { benchDecode(b, Draft9) }

// BenchmarkTokenizer measures raw token throughput without building values.
func BenchmarkTokenizer(b *testing.B) {
	data, err := Encode(benchDocument())
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, err := range NewTokenizer(bytes.NewReader(data), DefaultDecodeOptions()).All() {
			if err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkMarshal_Map(b *testing.B) {
	x := map[string]any{"a": 1, "b": []any{"x", 2.5, true}, "c": nil}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Marshal(x); err != nil {
			b.Fatal(err)
		}
	}
}
