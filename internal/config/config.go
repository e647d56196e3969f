// Package config loads settings for the ubjson command from a YAML file.
//
// Every field has a default, so a config file only needs the settings it
// changes. Command-line flags override file values.
//
// Example:
//
//	draft: draft9
//	noop: true
//	format: yaml
//	indent: "    "
//	max_depth: 200
//	max_payload: 1048576
package config

import (
	"fmt"
	"os"

	"github.com/Neumenon/ubjson/bridge"
	"github.com/Neumenon/ubjson/ubjson"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "UBJSON_CONFIG"

// Formats accepted for conversion from and to UBJSON.
var Formats = []string{"json", "yaml", "cbor"}

// Config holds the settings shared by all subcommands.
type Config struct {
	// Draft selects the wire revision ("draft8" or "draft9").
	Draft string `yaml:"draft"`

	// NoOp keeps no-op markers when decoding.
	NoOp bool `yaml:"noop"`

	// Format is the text or binary format decode writes and encode reads.
	Format string `yaml:"format"`

	// Indent is the per-level indentation of decoded JSON and YAML.
	Indent string `yaml:"indent"`

	// ExactNumbers keeps fractional input numbers as decimals.
	ExactNumbers bool `yaml:"exact_numbers"`

	// LossyFloat32 writes floats as float32 whenever they are in range.
	LossyFloat32 bool `yaml:"lossy_float32"`

	MaxDepth   int   `yaml:"max_depth"`
	MaxPayload int64 `yaml:"max_payload"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Draft:      ubjson.Draft8.String(),
		Format:     "json",
		Indent:     "  ",
		MaxDepth:   ubjson.DefaultMaxDepth,
		MaxPayload: ubjson.DefaultMaxPayload,
	}
}

// Load reads the file named by UBJSON_CONFIG, or returns the defaults
// when the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a YAML config file over the defaults and validates it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if _, err := ubjson.ParseRevision(c.Draft); err != nil {
		return err
	}
	if !validFormat(c.Format) {
		return fmt.Errorf("unknown format %q (want one of %v)", c.Format, Formats)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if c.MaxPayload < 0 {
		return fmt.Errorf("max_payload must not be negative, got %d", c.MaxPayload)
	}
	return nil
}

// Revision returns the parsed Draft. Call Validate first.
func (c *Config) Revision() ubjson.Revision {
	rev, _ := ubjson.ParseRevision(c.Draft)
	return rev
}

// DecodeOptions returns decoder options for the configured settings.
func (c *Config) DecodeOptions() ubjson.DecodeOptions {
	return ubjson.DecodeOptions{
		Revision:   c.Revision(),
		AllowNoOp:  c.NoOp,
		MaxDepth:   c.MaxDepth,
		MaxPayload: c.MaxPayload,
	}
}

// EncodeOptions returns encoder options for the configured settings.
func (c *Config) EncodeOptions() ubjson.EncodeOptions {
	return ubjson.EncodeOptions{
		Revision:     c.Revision(),
		LossyFloat32: c.LossyFloat32,
	}
}

// BridgeOptions returns format conversion options.
func (c *Config) BridgeOptions() bridge.Options {
	return bridge.Options{
		ExactNumbers: c.ExactNumbers,
		Indent:       c.Indent,
	}
}

func validFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}
