package ubjson

import (
	"errors"
	"fmt"
	"reflect"
)

// Error categories. Every decode failure wraps exactly one of these, so
// callers can classify with errors.Is.
var (
	// ErrNoData is returned when the input ends (or holds only no-op
	// markers) before any value starts.
	ErrNoData = errors.New("ubjson: no data to decode")

	// ErrTruncated is returned when input ends inside a token or before a
	// container is complete.
	ErrTruncated = errors.New("ubjson: truncated stream")

	// ErrMalformed is returned for payloads that do not decode to their
	// declared type.
	ErrMalformed = errors.New("ubjson: malformed value")

	// ErrStructure is returned when an end marker appears where a sized
	// container still expects children, where an object value is expected,
	// or when a terminator does not match its container.
	ErrStructure = errors.New("ubjson: structural violation")

	// ErrInvalidKey is returned for object keys that are not strings.
	ErrInvalidKey = fmt.Errorf("%w: object key must be a string", ErrMalformed)

	// ErrLimit is returned when a payload or nesting depth exceeds the
	// configured bound.
	ErrLimit = errors.New("ubjson: limit exceeded")

	// ErrUnsupported is returned when a host value cannot be encoded.
	ErrUnsupported = errors.New("ubjson: unable to encode")
)

// SyntaxError describes a decode failure at a byte offset.
type SyntaxError struct {
	Offset int64  // offset of the tag that started the failing token, -1 if unknown
	Reason string // human readable detail
	Err    error  // category sentinel
}

func (e *SyntaxError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("ubjson: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("ubjson: %s", e.Reason)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func syntaxErr(off int64, kind error, format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: off, Reason: fmt.Sprintf(format, args...), Err: kind}
}

// UnknownMarkerError is returned when a tag byte has no entry in the
// active marker table and no fallback was supplied.
type UnknownMarkerError struct {
	Tag    byte
	Offset int64
}

func (e *UnknownMarkerError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("ubjson: unknown marker %q (0x%02x)", e.Tag, e.Tag)
	}
	return fmt.Sprintf("ubjson: unknown marker %q (0x%02x) at offset %d", e.Tag, e.Tag, e.Offset)
}

// UnsupportedTypeError is returned by the host adapter for Go values it
// has no rule for.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("ubjson: unable to encode value of type %s", e.Type)
}

func (e *UnsupportedTypeError) Unwrap() error { return ErrUnsupported }
