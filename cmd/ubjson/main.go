// ubjson - UBJSON codec CLI tool
//
// Usage:
//
//	ubjson decode [--draft] [--noop] [--format json|yaml|cbor] [--compact] [--hex] [file]
//	ubjson encode [--draft] [--from json|yaml|cbor] [--exact] [--lossy-float32] [--hex] [file]
//	ubjson inspect [--draft] [--no-noop] [--indent] [--max-level] [--hex] [file]
//	ubjson version
//
// Every command also takes --config (a YAML file, default $UBJSON_CONFIG)
// and --verbose. Flags override config values.
//
// If no file is given, or the file is "-", reads from stdin.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Neumenon/ubjson/internal/config"
	"github.com/spf13/pflag"
)

const libVersion = "0.1.0"

func main() {
	r := &runner{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := r.run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ubjson: %v\n", err)
		os.Exit(1)
	}
}

// runner holds the process streams so commands can be driven from tests.
type runner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (r *runner) run(args []string) error {
	if len(args) == 0 {
		printUsage(r.stderr)
		return errors.New("missing command")
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "decode":
		return r.cmdDecode(rest)
	case "encode":
		return r.cmdEncode(rest)
	case "inspect":
		return r.cmdInspect(rest)
	case "version", "--version":
		fmt.Fprintf(r.stdout, "ubjson %s (draft8, draft9)\n", libVersion)
		return nil
	case "help", "-h", "--help":
		printUsage(r.stdout)
		return nil
	default:
		printUsage(r.stderr)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `ubjson - UBJSON codec CLI tool

Usage:
  ubjson decode [flags] [file]   Decode UBJSON to JSON, YAML or CBOR
  ubjson encode [flags] [file]   Encode JSON, YAML or CBOR as UBJSON
  ubjson inspect [flags] [file]  Print the UBJSON token stream
  ubjson version                 Print version info

Run "ubjson <command> --help" for the flags of a command.
`)
}

// session is the state every command shares: parsed common flags, the
// loaded configuration and the logger.
type session struct {
	configPath string
	verbose    bool
	draft      string
	hex        bool

	cfg    *config.Config
	logger *slog.Logger
}

func (r *runner) flagSet(name string, s *session) *pflag.FlagSet {
	fs := pflag.NewFlagSet("ubjson "+name, pflag.ContinueOnError)
	fs.SetOutput(r.stderr)
	fs.StringVar(&s.configPath, "config", "", "YAML config file (default $"+config.EnvVar+")")
	fs.BoolVarP(&s.verbose, "verbose", "v", false, "log details to stderr")
	fs.StringVarP(&s.draft, "draft", "d", "", "wire revision: draft8 or draft9")
	return fs
}

// start parses args, sets up logging and loads the configuration with the
// --draft override applied. It returns the positional arguments.
func (r *runner) start(fs *pflag.FlagSet, s *session, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if s.verbose {
		level = slog.LevelDebug
	}
	s.logger = slog.New(slog.NewTextHandler(r.stderr, &slog.HandlerOptions{Level: level}))

	var err error
	if s.configPath != "" {
		s.cfg, err = config.LoadFile(s.configPath)
	} else {
		s.cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if fs.Changed("draft") {
		s.cfg.Draft = s.draft
	}
	s.logger.Debug("configuration loaded", "path", s.configPath, "draft", s.cfg.Draft)
	return fs.Args(), nil
}

// finish validates the configuration after command flags are applied and
// reads the input.
func (r *runner) finish(s *session, args []string) ([]byte, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	data, err := readInput(args, r.stdin, s.hex)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("input read", "bytes", len(data))
	return data, nil
}

func helpRequested(err error) bool {
	return errors.Is(err, pflag.ErrHelp)
}
