// bench - UBJSON size comparison runner
//
// Compares the encoded size of JSON documents in four forms:
//   - JSON, minified
//   - UBJSON Draft 8
//   - UBJSON Draft 9
//   - CBOR, core deterministic
//
// Usage:
//
//	bench [--markdown FILE] [--exact] path...
//
// Each path is a JSON file or a directory of .json files. A CSV table is
// written to stdout.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/Neumenon/ubjson/bridge"
	"github.com/Neumenon/ubjson/ubjson"
	"github.com/spf13/pflag"
)

type CaseResult struct {
	Name        string
	JSONBytes   int
	Draft8Bytes int
	Draft9Bytes int
	CBORBytes   int
}

// Pct returns n as a percentage of the minified JSON size.
func (r CaseResult) Pct(n int) float64 {
	if r.JSONBytes == 0 {
		return 0
	}
	return float64(n) / float64(r.JSONBytes) * 100.0
}

func main() {
	var mdPath string
	var exact bool
	fs := pflag.NewFlagSet("bench", pflag.ContinueOnError)
	fs.StringVar(&mdPath, "markdown", "", "also write a markdown report to this file")
	fs.BoolVar(&exact, "exact", false, "keep fractional numbers as exact decimals")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		os.Exit(2)
	}

	files, err := collectFiles(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "bench: no JSON files given")
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "UBJSON Size Comparison\n")
	fmt.Fprintf(os.Stderr, "======================\n")
	fmt.Fprintf(os.Stderr, "Cases: %d\n\n", len(files))

	opts := bridge.Options{ExactNumbers: exact}
	var results []CaseResult
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", path, err)
			continue
		}
		r, err := measure(filepath.Base(path), data, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", path, err)
			continue
		}
		results = append(results, r)
	}

	writeCSV(os.Stdout, results)

	if mdPath != "" {
		mdFile, err := os.Create(mdPath)
		if err == nil {
			writeMarkdown(mdFile, results)
			mdFile.Close()
			fmt.Fprintf(os.Stderr, "Markdown written to: %s\n", mdPath)
		}
	}
}

// collectFiles expands directories into the .json files they contain.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}

// measure encodes one JSON document in every compared form.
func measure(name string, data []byte, opts bridge.Options) (CaseResult, error) {
	v, err := bridge.FromJSON(data, opts)
	if err != nil {
		return CaseResult{}, err
	}

	minified, err := bridge.ToJSON(v, bridge.Options{})
	if err != nil {
		return CaseResult{}, fmt.Errorf("minify: %w", err)
	}

	d8, err := ubjson.EncodeWithOptions(v, ubjson.EncodeOptions{Revision: ubjson.Draft8})
	if err != nil {
		return CaseResult{}, err
	}
	d9, err := ubjson.EncodeWithOptions(v, ubjson.EncodeOptions{Revision: ubjson.Draft9})
	if err != nil {
		return CaseResult{}, err
	}
	cb, err := bridge.ToCBOR(v)
	if err != nil {
		return CaseResult{}, err
	}

	return CaseResult{
		Name:        name,
		JSONBytes:   len(minified),
		Draft8Bytes: len(d8),
		Draft9Bytes: len(d9),
		CBORBytes:   len(cb),
	}, nil
}

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "name,json_bytes,draft8_bytes,draft8_pct,draft9_bytes,draft9_pct,cbor_bytes,cbor_pct")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%d,%.1f,%d,%.1f,%d,%.1f\n",
			r.Name, r.JSONBytes,
			r.Draft8Bytes, r.Pct(r.Draft8Bytes),
			r.Draft9Bytes, r.Pct(r.Draft9Bytes),
			r.CBORBytes, r.Pct(r.CBORBytes))
	}
}

func writeMarkdown(w io.Writer, results []CaseResult) {
	var total CaseResult
	for _, r := range results {
		total.JSONBytes += r.JSONBytes
		total.Draft8Bytes += r.Draft8Bytes
		total.Draft9Bytes += r.Draft9Bytes
		total.CBORBytes += r.CBORBytes
	}

	fmt.Fprintf(w, "# UBJSON Size Comparison\n\n")
	fmt.Fprintf(w, "**Cases:** %d  \n\n", len(results))

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "| Format | Bytes | vs JSON |\n")
	fmt.Fprintf(w, "|--------|-------|---------|\n")
	fmt.Fprintf(w, "| JSON (minified) | %d | 100.0%% |\n", total.JSONBytes)
	fmt.Fprintf(w, "| UBJSON Draft 8 | %d | %.1f%% |\n", total.Draft8Bytes, total.Pct(total.Draft8Bytes))
	fmt.Fprintf(w, "| UBJSON Draft 9 | %d | %.1f%% |\n", total.Draft9Bytes, total.Pct(total.Draft9Bytes))
	fmt.Fprintf(w, "| CBOR | %d | %.1f%% |\n\n", total.CBORBytes, total.Pct(total.CBORBytes))

	fmt.Fprintf(w, "## Detailed Results\n\n")
	fmt.Fprintf(w, "| Case | JSON | Draft 8 | Draft 9 | CBOR |\n")
	fmt.Fprintf(w, "|------|------|---------|---------|------|\n")
	for _, r := range results {
		fmt.Fprintf(w, "| %s | %d | %d | %d | %d |\n",
			truncateName(r.Name, 25), r.JSONBytes, r.Draft8Bytes, r.Draft9Bytes, r.CBORBytes)
	}

	fmt.Fprintf(w, "\n## Methodology\n\n")
	fmt.Fprintf(w, "- **JSON:** Minified, comments stripped, member order kept\n")
	fmt.Fprintf(w, "- **UBJSON:** Narrowest integer widths, exact float32 where lossless\n")
	fmt.Fprintf(w, "- **CBOR:** Core Deterministic Encoding\n")
}

func truncateName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
