// Package bridge converts UBJSON values to and from JSON, YAML and CBOR.
//
// Object member order is kept wherever the other format allows it. JSON
// and YAML input is walked token by token so keys come out in document
// order; CBOR output uses Core Deterministic Encoding, so its map keys
// are sorted.
//
// Numbers keep their precision. Integers beyond int64 become decimals,
// and with ExactNumbers set every fractional number does too.
package bridge

import (
	"fmt"

	"github.com/Neumenon/ubjson/ubjson"
)

// Options configures conversions.
type Options struct {
	// ExactNumbers turns fractional JSON and YAML numbers into decimals
	// instead of float64.
	ExactNumbers bool

	// Indent is the per-level indentation of JSON and YAML output. An
	// empty Indent gives compact JSON and four-space YAML.
	Indent string
}

// DefaultOptions returns options for float numbers and two-space output.
func DefaultOptions() Options {
	return Options{Indent: "  "}
}

func tooDeep() error {
	return fmt.Errorf("bridge: %w: nesting deeper than %d", ubjson.ErrLimit, ubjson.DefaultMaxDepth)
}

// unsupported reports a value the target format cannot hold.
func unsupported(format string, v *ubjson.Value) error {
	what := v.Kind().String()
	if v.IsStream() {
		what = "streamed " + what
	}
	return fmt.Errorf("bridge: %w: %s value in %s", ubjson.ErrUnsupported, what, format)
}
