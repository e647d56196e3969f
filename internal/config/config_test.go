package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Neumenon/ubjson/ubjson"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Revision() != ubjson.Draft8 {
		t.Errorf("expected draft8, got %s", cfg.Revision())
	}
	if cfg.Format != "json" {
		t.Errorf("expected format=json, got %s", cfg.Format)
	}
	if opts := cfg.DecodeOptions(); opts.AllowNoOp || opts.MaxDepth != ubjson.DefaultMaxDepth {
		t.Errorf("unexpected decode options %+v", opts)
	}
}

func TestLoad_WithoutEnv(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Draft != Default().Draft {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_WithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ubjson.yaml")
	content := "draft: draft-9\nnoop: true\nformat: yaml\nlossy_float32: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Revision() != ubjson.Draft9 {
		t.Errorf("expected draft9, got %s", cfg.Draft)
	}
	if !cfg.NoOp || !cfg.DecodeOptions().AllowNoOp {
		t.Error("expected noop=true")
	}
	if cfg.Format != "yaml" {
		t.Errorf("expected format=yaml, got %s", cfg.Format)
	}
	if !cfg.EncodeOptions().LossyFloat32 {
		t.Error("expected lossy_float32=true")
	}
	// Unset fields keep their defaults.
	if cfg.Indent != "  " || cfg.MaxPayload != ubjson.DefaultMaxPayload {
		t.Errorf("defaults lost: indent=%q max_payload=%d", cfg.Indent, cfg.MaxPayload)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"draft", "draft: draft7\n", "revision"},
		{"format", "format: xml\n", "unknown format"},
		{"depth", "max_depth: -1\n", "max_depth"},
		{"syntax", "draft: [\n", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
