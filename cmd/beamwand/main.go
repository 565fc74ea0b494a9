package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/beamwand/beam"
	"github.com/wippyai/beamwand/config"
	"github.com/wippyai/beamwand/dump"
)

const usage = `Usage: beamwand [flags] <scriptname>.beam

Flags:
  -config file   read settings from file instead of searching for beamwand.toml
  -format name   output format: text or cbor
  -parser-only   decode the module and print it
  -i             browse the decoded module interactively
  -v             debug logging
  -h, --help     show this help
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath  string
	format      string
	verbose     bool
	interactive bool
	parserOnly  bool
	path        string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var opts options
	fs := flag.NewFlagSet("beamwand", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {}
	fs.StringVar(&opts.configPath, "config", "", "Path to beamwand.toml")
	fs.StringVar(&opts.format, "format", "", "Output format (text, cbor)")
	fs.BoolVar(&opts.verbose, "v", false, "Debug logging")
	fs.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	fs.BoolVar(&opts.parserOnly, "parser-only", false, "Decode and print the module")
	// Flags may follow the path.
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return &opts, nil
		}
		if opts.path != "" {
			return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
		}
		opts.path = fs.Arg(0)
		args = fs.Args()[1:]
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		fmt.Fprint(stdout, usage)
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n%s", err, usage)
		return 2
	}
	if opts.path == "" {
		fmt.Fprint(stdout, usage)
		return 0
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Sync()
	beam.SetLogger(logger)

	if _, err := os.Stat(opts.path); err != nil {
		fmt.Fprintf(stderr, "File %s doesn't exist!\n", opts.path)
		return 1
	}

	if opts.interactive {
		if err := runInteractive(opts.path, cfg); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	if !opts.parserOnly {
		fmt.Fprintln(stderr, "Compiler mode is not supported yet.")
		return 1
	}

	if err := parseAndPrint(opts.path, cfg, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return nil, err
	}

	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

func parseAndPrint(path string, cfg *config.Config, stdout io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	ast, err := beam.Parse(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	switch cfg.Output.Format {
	case config.FormatCBOR:
		if isTerminal(stdout) {
			return fmt.Errorf("refusing to write CBOR to a terminal, redirect the output")
		}
		out, err := dump.CBOR(ast)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		_, err = stdout.Write(out)
		return err
	default:
		return dump.Text(stdout, ast, dump.Options{
			RawPreview: cfg.Output.RawPreview,
			Code:       cfg.Output.Code,
		})
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
