// Package cli provides the command-line interface for pdfmerge.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"pdfmerge/config"
	"pdfmerge/pdf"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

type options struct {
	output     string
	collate    bool
	engine     string
	tool       string
	style      string
	timeout    time.Duration
	verify     bool
	configFile string
	logLevel   string
	logFile    string
	verbose    bool
}

// NewRootCmd builds the pdfmerge command. Each call returns an independent
// command so tests can run it with their own args and writers.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "pdfmerge --output <file> <input>...",
		Short: "Merge PDF files into one",
		Long: `Merge PDF files into one, in the order given, using an external merge
tool (qpdf by default).

The output is written to a staging file next to the target and only moved into
place once the tool succeeded, so a failed run never leaves a broken file.

--timeout and interrupts stop an external merge tool. The in-process pdfcpu
engine is only checked for them before it starts.

Exit codes:
  0  success
  1  invalid arguments (no inputs, bad flags)
  2  missing or unreadable input
  3  merge tool failed
  4  merge tool produced no usable output
  5  merge tool timed out
  6  invalid output path

Examples:
  pdfmerge -o out.pdf a.pdf b.pdf
  pdfmerge -o scan.pdf --collate fronts.pdf backs.pdf
  pdfmerge -o out.pdf --tool pdfunite --style pdfunite a.pdf b.pdf
  pdfmerge -o out.pdf --engine pdfcpu --verify a.pdf b.pdf`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (required)")
	f.BoolVar(&opts.collate, "collate", false, "interleave two inputs, the second read back to front (duplex scans)")
	f.StringVar(&opts.engine, "engine", "", "merge engine: external or pdfcpu")
	f.StringVar(&opts.tool, "tool", "", "external merge tool name or path")
	f.StringVar(&opts.style, "style", "", "argument style of the tool: qpdf, pdfunite or pdftk")
	f.DurationVar(&opts.timeout, "timeout", 0, "kill the external merge tool after this long (0 disables; not applied to --engine pdfcpu)")
	f.BoolVar(&opts.verify, "verify", false, "check the output page count against the inputs")
	f.StringVar(&opts.configFile, "config", "", "YAML config file")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&opts.logFile, "log-file", "", "also write JSON logs to this file")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// Execute runs pdfmerge with args. The returned error carries the exit code
// (see pdf.Kind.ExitCode).
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return err
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return &pdf.Error{Kind: pdf.KindInvalidArguments, Msg: "configuration", Err: err}
	}

	logger, cleanup := config.SetupLogger(cmd.ErrOrStderr(), cfg.LogFile, cfg.LogLevel)
	defer func() {
		if err := cleanup(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close log file: %v\n", err)
		}
	}()

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return &pdf.Error{Kind: pdf.KindInvalidArguments, Msg: "configuration", Err: err}
	}

	merger := pdf.NewMerger(engine, logger)
	merger.Timeout = cfg.Timeout
	merger.Verify = cfg.Verify

	req := pdf.Request{
		Inputs:  args,
		Output:  opts.output,
		Collate: opts.collate,
	}
	res, err := merger.Merge(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.Output)
	return nil
}

// resolveConfig layers explicitly set flags over the loaded configuration.
func resolveConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Engine = opts.engine
	}
	if flags.Changed("tool") {
		cfg.Tool = opts.tool
	}
	if flags.Changed("style") {
		cfg.Style = opts.style
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("verify") {
		cfg.Verify = opts.verify
	}
	if flags.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}
	if flags.Changed("log-level") {
		cfg.Level = opts.logLevel
		cfg.LogLevel = config.ParseLogLevel(opts.logLevel)
	}
	if opts.verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	return cfg, cfg.Validate()
}

func newEngine(cfg config.Config, logger *slog.Logger) (pdf.Engine, error) {
	if cfg.Engine == config.EnginePdfcpu {
		return pdf.PdfcpuEngine{}, nil
	}
	style, err := pdf.ParseStyle(cfg.Style)
	if err != nil {
		return nil, err
	}
	return &pdf.ExternalEngine{Tool: cfg.Tool, Style: style, Logger: logger}, nil
}
