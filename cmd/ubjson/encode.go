package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	"github.com/Neumenon/ubjson/bridge"
	"github.com/Neumenon/ubjson/internal/config"
	"github.com/Neumenon/ubjson/ubjson"
)

func (r *runner) cmdEncode(args []string) error {
	var s session
	var from string
	var exact, lossy, hexOut bool

	fs := r.flagSet("encode", &s)
	fs.StringVarP(&from, "from", "f", "", "input format: json, yaml or cbor")
	fs.BoolVar(&exact, "exact", false, "keep fractional numbers as exact decimals")
	fs.BoolVar(&lossy, "lossy-float32", false, "write floats as float32 whenever they are in range")
	fs.BoolVarP(&hexOut, "hex", "x", false, "write hex instead of binary")

	args, err := r.start(fs, &s, args)
	if err != nil {
		if helpRequested(err) {
			return nil
		}
		return err
	}
	if fs.Changed("from") {
		s.cfg.Format = from
	}
	if fs.Changed("exact") {
		s.cfg.ExactNumbers = exact
	}
	if fs.Changed("lossy-float32") {
		s.cfg.LossyFloat32 = lossy
	}

	data, err := r.finish(&s, args)
	if err != nil {
		return err
	}
	return encodeUBJSON(data, r.stdout, s.cfg, hexOut, s.logger)
}

// encodeUBJSON parses data in the configured format and writes it as
// UBJSON.
func encodeUBJSON(data []byte, w io.Writer, cfg *config.Config, hexOut bool, logger *slog.Logger) error {
	var v *ubjson.Value
	var err error
	switch cfg.Format {
	case "yaml":
		v, err = bridge.FromYAML(data, cfg.BridgeOptions())
	case "cbor":
		v, err = bridge.FromCBOR(data)
	default:
		v, err = bridge.FromJSON(data, cfg.BridgeOptions())
	}
	if err != nil {
		return err
	}

	out, err := ubjson.EncodeWithOptions(v, cfg.EncodeOptions())
	if err != nil {
		return err
	}
	logger.Debug("encoded", "from", cfg.Format, "draft", cfg.Draft, "bytes", len(out))

	if hexOut {
		_, err = fmt.Fprintln(w, hex.EncodeToString(out))
		return err
	}
	_, err = w.Write(out)
	return err
}
