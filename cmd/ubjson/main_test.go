package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Neumenon/ubjson/internal/config"
)

// runCLI runs the tool with stdin and returns what it wrote to stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	var stdout, stderr bytes.Buffer
	r := &runner{stdin: strings.NewReader(stdin), stdout: &stdout, stderr: &stderr}
	err := r.run(args)
	return stdout.String(), err
}

func TestRun_Decode(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"indented json", "o\x01s\x01aB\x01", []string{"decode"}, "{\n  \"a\": 1\n}\n"},
		{"draft9 hex compact", "7b 53 69 01 61 69 01 7d", []string{"decode", "--draft", "9", "--hex", "--compact"}, "{\"a\":1}\n"},
		{"value sequence", "B\x01NB\x02", []string{"decode", "-c", "--noop"}, "1\n2\n"},
		{"yaml", "o\x01s\x01aB\x01", []string{"decode", "--format", "yaml"}, "a: 1\n"},
		{"cbor", "B\x01", []string{"decode", "-f", "cbor"}, "\x01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runCLI(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRun_Encode(t *testing.T) {
	got, err := runCLI(t, `{"a": [1, 2.5]}`, "encode", "--hex")
	if err != nil {
		t.Fatal(err)
	}
	if got != "6f01730161610242016440200000\n" {
		t.Errorf("draft8: got %q", got)
	}

	got, err = runCLI(t, "[1]", "encode", "-d", "draft9", "-x")
	if err != nil {
		t.Fatal(err)
	}
	if got != "5b69015d\n" {
		t.Errorf("draft9: got %q", got)
	}

	got, err = runCLI(t, "- true\n- x\n", "encode", "--from", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if got != "a\x02Ts\x01x" {
		t.Errorf("yaml: got %q", got)
	}
}

func TestRun_Inspect(t *testing.T) {
	got, err := runCLI(t, "a\x01T", "inspect")
	if err != nil {
		t.Fatal(err)
	}
	if got != "[a] [1]\n    [T]\n" {
		t.Errorf("got %q", got)
	}

	got, err = runCLI(t, "5b 4e 5d", "inspect", "--draft", "9", "--hex", "--no-noop", "--indent", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if got != "[[]\n[]]\n" {
		t.Errorf("draft9: got %q", got)
	}
}

func TestRun_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ubjson.yaml")
	if err := os.WriteFile(path, []byte("draft: draft9\nindent: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := runCLI(t, "[i\x05]", "decode", "--config", path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "[5]\n" {
		t.Errorf("got %q", got)
	}

	// Flags win over the file.
	got, err = runCLI(t, "a\x01B\x05", "decode", "--config", path, "--draft", "8")
	if err != nil {
		t.Fatal(err)
	}
	if got != "[5]\n" {
		t.Errorf("override: got %q", got)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"no command", "", nil, "missing command"},
		{"unknown command", "", []string{"frob"}, "unknown command"},
		{"bad draft", "Z", []string{"decode", "--draft", "7"}, "revision"},
		{"bad format", "Z", []string{"decode", "--format", "xml"}, "unknown format"},
		{"empty input", "", []string{"decode"}, "no UBJSON value"},
		{"truncated", "a\x02B", []string{"decode"}, "unexpected end"},
		{"extra argument", "", []string{"decode", "a", "b"}, "unexpected argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.stdin, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	got, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "ubjson "+libVersion) {
		t.Errorf("got %q", got)
	}
}
