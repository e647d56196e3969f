// Package ubjson implements the Universal Binary JSON format in two
// incompatible revisions, Draft 8 and Draft 9.
//
// # Data Model
//
// Scalars: null, bool, int (64-bit), float (64-bit), decimal (exact
// text), string (UTF-8)
// Containers: array, object (ordered members, keys may repeat)
// Special: no-op padding, surfaced only on request
//
// # Wire Format
//
// Every value starts with a one-byte tag. Multi-byte integers and floats
// are big-endian; integers are two's-complement.
//
//	Draft 8                          Draft 9
//	Z T F N    null true false noop  Z T F N
//	B i I L    int 8/16/32/64         i I l L
//	d D        float32 float64       d D
//	s S        string, 1/4-byte len  S + nested integer length
//	h H        decimal, 1/4-byte len H + nested integer length
//	a A        array, 1/4-byte count [ ... ]
//	o O        object, 1/4-byte count { ... }
//	E          end of a/o with count 255
//
// # Decoding
//
//	v, err := ubjson.Decode(data)
//
//	dec := ubjson.NewDecoder(r, ubjson.DecodeOptions{Revision: ubjson.Draft9})
//	v, err := dec.Decode()
//
// A Decoder reads no further than the value it returns. Decoder.Iterate
// yields the children of a container as they are read.
//
// # Encoding
//
//	data, err := ubjson.Encode(ubjson.Array(ubjson.Int(1), ubjson.String("x")))
//	data, err := ubjson.Marshal(map[string]any{"id": 1})
//
// Integers use the narrowest tag that holds them. Floats use float32 when
// the conversion is exact (any float32 normal value with LossyFloat32),
// float64 in the double normal range, decimal text below it, and null for
// infinities and NaN. Integers outside int64 are written as decimals.
//
// Streams created with Stream, StreamObject or from Go iterators and
// channels are written in the terminator-delimited form.
package ubjson
