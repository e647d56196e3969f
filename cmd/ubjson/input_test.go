package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecodeHexInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{name: "lowercase hex", input: "6f01", want: []byte{0x6f, 0x01}},
		{name: "uppercase hex", input: "6F01", want: []byte{0x6f, 0x01}},
		{name: "hex with spaces", input: "6f 01 5a", want: []byte{0x6f, 0x01, 0x5a}},
		{name: "hex with newlines", input: "6f\n01\n", want: []byte{0x6f, 0x01}},
		{name: "invalid hex", input: "not hex data", wantErr: true},
		{name: "odd length", input: "6f0", wantErr: true},
		{name: "only whitespace", input: " \n\t", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeHexInput([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %x", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %x, want %x", got, tt.want)
			}
		})
	}
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.ubj")
	if err := os.WriteFile(path, []byte("Z"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := readInput([]string{path}, strings.NewReader("ignored"), false)
	if err != nil || string(got) != "Z" {
		t.Errorf("file: got %q, %v", got, err)
	}
	got, err = readInput([]string{"-"}, strings.NewReader("T"), false)
	if err != nil || string(got) != "T" {
		t.Errorf("dash: got %q, %v", got, err)
	}
	got, err = readInput(nil, strings.NewReader("5a"), true)
	if err != nil || string(got) != "Z" {
		t.Errorf("hex stdin: got %q, %v", got, err)
	}
	if _, err := readInput([]string{filepath.Join(t.TempDir(), "missing")}, nil, false); err == nil {
		t.Error("missing file accepted")
	}
}
