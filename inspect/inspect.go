// Package inspect prints the token stream of UBJSON data in a bracketed,
// indented form meant for people:
//
//	[o] [2]
//	    [s] [2] [id]
//	    [I] [1234567890]
//	    [s] [4] [name]
//	    [s] [3] [bob]
//
// Each line is one token: its tag, its length when it has one, and its
// payload when it has one. Draft 9 lengths also show the tag of the
// nested length integer, as in [S] [i] [3] [foo].
//
// Printing is driven by tokens alone. No values are built, so large or
// partially broken inputs can be inspected up to the point of failure.
package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Neumenon/ubjson/ubjson"
)

// Draft 8 short containers with this count run until an end marker.
const unbounded = 255

// Options controls the output of Fprint.
type Options struct {
	Revision  ubjson.Revision
	AllowNoOp bool   // print no-op markers instead of skipping them
	Indent    string // indentation per container level
	MaxLevel  int    // deepest level printed; negative means no limit
}

// DefaultOptions returns Draft 8 options that show no-ops and indent
// with four spaces.
func DefaultOptions() Options {
	return Options{
		Revision:  ubjson.Draft8,
		AllowNoOp: true,
		Indent:    "    ",
		MaxLevel:  -1,
	}
}

// Fprint reads UBJSON tokens from r until it is exhausted and writes one
// line per token to w. Tokens below MaxLevel are still read, only their
// lines are suppressed.
func Fprint(w io.Writer, r io.Reader, opts Options) error {
	p := &printer{
		w:    w,
		opts: opts,
		tz: ubjson.NewTokenizer(r, ubjson.DecodeOptions{
			Revision:  opts.Revision,
			AllowNoOp: opts.AllowNoOp,
		}),
	}
	if p.tz.Table() == nil {
		return fmt.Errorf("inspect: %w: revision %s", ubjson.ErrUnsupported, opts.Revision)
	}
	if opts.Revision == ubjson.Draft9 {
		return p.draft9()
	}
	return p.draft8(0, -1)
}

// Sprint is Fprint over an in-memory buffer.
func Sprint(data []byte, opts Options) (string, error) {
	var sb strings.Builder
	err := Fprint(&sb, bytes.NewReader(data), opts)
	return sb.String(), err
}

type printer struct {
	w    io.Writer
	tz   *ubjson.Tokenizer
	opts Options
	err  error
}

// next returns the next token and its marker. A clean end of input is
// reported as io.EOF.
func (p *printer) next() (ubjson.Token, *ubjson.Marker, error) {
	tok, err := p.tz.Next()
	if err != nil {
		return tok, nil, err
	}
	m, _ := p.tz.Table().Lookup(byte(tok.Tag))
	return tok, m, nil
}

// draft8 prints tokens of one level. A positive count stops after that
// many children; a negative one runs until an end marker, or until the
// input ends at the top level.
func (p *printer) draft8(level int, count int64) error {
	for count != 0 {
		tok, m, err := p.next()
		if errors.Is(err, io.EOF) {
			if level == 0 {
				return p.err
			}
			return fmt.Errorf("inspect: %w: input ended at level %d", ubjson.ErrTruncated, level)
		}
		if err != nil {
			return err
		}
		p.token(level, tok)

		switch {
		case m.Family == ubjson.FamilyEnd:
			if level > 0 {
				return p.err
			}
		case m.Container():
			n := tok.Length
			switch {
			case m.Length == ubjson.LengthFixed8 && n == unbounded:
				n = -1
			case m.Family == ubjson.FamilyObject:
				n *= 2
			}
			if n != 0 {
				if err := p.draft8(level+1, n); err != nil {
					return err
				}
			}
		}
		if count > 0 {
			count--
		}
	}
	return p.err
}

// draft9 indents after every open tag and dedents before every close tag.
func (p *printer) draft9() error {
	level := 0
	for {
		tok, m, err := p.next()
		if errors.Is(err, io.EOF) {
			if level > 0 {
				return fmt.Errorf("inspect: %w: input ended at level %d", ubjson.ErrTruncated, level)
			}
			return p.err
		}
		if err != nil {
			return err
		}
		if m.Family == ubjson.FamilyEnd && level > 0 {
			level--
		}
		p.token(level, tok)
		if m.Container() {
			level++
		}
	}
}

func (p *printer) token(level int, tok ubjson.Token) {
	if p.err != nil || (p.opts.MaxLevel >= 0 && level > p.opts.MaxLevel) {
		return
	}
	fields := []string{tok.Tag.String()}
	if tok.HasLength {
		if tok.LengthTag != 0 {
			fields = append(fields, tok.LengthTag.String())
		}
		fields = append(fields, strconv.FormatInt(tok.Length, 10))
	}
	switch v := tok.Payload.(type) {
	case int64:
		fields = append(fields, strconv.FormatInt(v, 10))
	case float64:
		fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
	case []byte:
		fields = append(fields, string(v))
	}
	line := strings.Repeat(p.opts.Indent, level) + "[" + strings.Join(fields, "] [") + "]\n"
	_, p.err = io.WriteString(p.w, line)
}
