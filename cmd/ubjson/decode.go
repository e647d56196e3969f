package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Neumenon/ubjson/bridge"
	"github.com/Neumenon/ubjson/internal/config"
	"github.com/Neumenon/ubjson/ubjson"
)

func (r *runner) cmdDecode(args []string) error {
	var s session
	var noop, compact bool
	var format string

	fs := r.flagSet("decode", &s)
	fs.BoolVar(&noop, "noop", false, "keep no-op markers while decoding")
	fs.StringVarP(&format, "format", "f", "", "output format: json, yaml or cbor")
	fs.BoolVarP(&compact, "compact", "c", false, "compact JSON output")
	fs.BoolVarP(&s.hex, "hex", "x", false, "treat input as hex-encoded UBJSON")

	args, err := r.start(fs, &s, args)
	if err != nil {
		if helpRequested(err) {
			return nil
		}
		return err
	}
	if fs.Changed("noop") {
		s.cfg.NoOp = noop
	}
	if fs.Changed("format") {
		s.cfg.Format = format
	}
	if compact {
		s.cfg.Indent = ""
	}

	data, err := r.finish(&s, args)
	if err != nil {
		return err
	}
	return decodeUBJSON(data, r.stdout, s.cfg, s.logger)
}

// decodeUBJSON converts every top-level value in data to the configured
// format. JSON values are written one per line, YAML values as separate
// documents and CBOR values as a CBOR sequence.
func decodeUBJSON(data []byte, w io.Writer, cfg *config.Config, logger *slog.Logger) error {
	dec := ubjson.NewDecoder(bytes.NewReader(data), cfg.DecodeOptions())
	count := 0
	for {
		v, err := dec.Decode()
		if errors.Is(err, ubjson.ErrNoData) {
			break
		}
		if err != nil {
			return err
		}
		if v.IsNoOp() {
			logger.Debug("skipping top-level no-op", "offset", dec.Offset())
			continue
		}

		out, err := render(v, cfg, count)
		if err != nil {
			return err
		}
		if _, err := w.Write(out); err != nil {
			return err
		}
		count++
	}
	if count == 0 {
		return fmt.Errorf("no UBJSON value in input")
	}
	logger.Debug("decoded", "values", count, "bytes", dec.Offset())
	return nil
}

func render(v *ubjson.Value, cfg *config.Config, index int) ([]byte, error) {
	opts := cfg.BridgeOptions()
	switch cfg.Format {
	case "yaml":
		out, err := bridge.ToYAML(v, opts)
		if err != nil || index == 0 {
			return out, err
		}
		return append([]byte("---\n"), out...), nil
	case "cbor":
		return bridge.ToCBOR(v)
	default:
		out, err := bridge.ToJSON(v, opts)
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	}
}
