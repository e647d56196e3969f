package main

import (
	"bytes"
	"io"

	"github.com/Neumenon/ubjson/inspect"
	"github.com/Neumenon/ubjson/internal/config"
)

func (r *runner) cmdInspect(args []string) error {
	var s session
	opts := inspect.DefaultOptions()
	var noNoOp bool

	fs := r.flagSet("inspect", &s)
	fs.BoolVar(&noNoOp, "no-noop", false, "skip no-op markers")
	fs.StringVar(&opts.Indent, "indent", opts.Indent, "indentation per container level")
	fs.IntVar(&opts.MaxLevel, "max-level", opts.MaxLevel, "deepest level printed, negative for all")
	fs.BoolVarP(&s.hex, "hex", "x", false, "treat input as hex-encoded UBJSON")

	args, err := r.start(fs, &s, args)
	if err != nil {
		if helpRequested(err) {
			return nil
		}
		return err
	}
	opts.AllowNoOp = !noNoOp

	data, err := r.finish(&s, args)
	if err != nil {
		return err
	}
	return inspectUBJSON(data, r.stdout, s.cfg, opts)
}

func inspectUBJSON(data []byte, w io.Writer, cfg *config.Config, opts inspect.Options) error {
	opts.Revision = cfg.Revision()
	return inspect.Fprint(w, bytes.NewReader(data), opts)
}
