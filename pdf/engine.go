package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Engine performs the actual merge of inputs into output, in order.
type Engine interface {
	Name() string
	Merge(ctx context.Context, inputs []string, collate bool, output string) error
}

// Style selects the argument layout an external merge tool expects.
type Style string

const (
	StyleQPDF     Style = "qpdf"
	StylePdfunite Style = "pdfunite"
	StylePdftk    Style = "pdftk"
)

// ParseStyle maps a configuration value to a Style.
func ParseStyle(s string) (Style, error) {
	switch st := Style(strings.ToLower(strings.TrimSpace(s))); st {
	case StyleQPDF, StylePdfunite, StylePdftk:
		return st, nil
	case "":
		return StyleQPDF, nil
	default:
		return "", fmt.Errorf("unknown tool style %q (want qpdf, pdfunite or pdftk)", s)
	}
}

// maxDiagnostic bounds how much of the tool's output is kept in an error.
const maxDiagnostic = 4096

// ExternalEngine runs a pre-installed merge tool as a child process.
type ExternalEngine struct {
	// Tool is an executable name looked up on PATH, or a path to one.
	Tool   string
	Style  Style
	Logger *slog.Logger

	// WaitDelay bounds how long to wait for the tool's output pipes after it
	// has been killed. Zero means 5s.
	WaitDelay time.Duration
}

func (e *ExternalEngine) Name() string { return filepath.Base(e.Tool) }

// Args builds the tool's argument list. Input order is kept verbatim.
func (e *ExternalEngine) Args(inputs []string, collate bool, output string) ([]string, error) {
	style := e.Style
	if style == "" {
		style = StyleQPDF
	}
	if collate && style != StyleQPDF {
		return nil, newError(KindInvalidArguments, "", fmt.Sprintf("collate is not supported by %s style tools", style), nil)
	}

	var args []string
	switch style {
	case StyleQPDF:
		if collate {
			// second input reversed: z-1 is qpdf's last-to-first page range
			args = append(args, "--collate", "--empty", "--pages", inputs[0], inputs[1], "z-1", "--", output)
			return args, nil
		}
		args = append(args, "--empty", "--pages")
		args = append(args, inputs...)
		args = append(args, "--", output)
	case StylePdfunite:
		args = append(args, inputs...)
		args = append(args, output)
	case StylePdftk:
		args = append(args, inputs...)
		args = append(args, "cat", "output", output)
	default:
		return nil, newError(KindInvalidArguments, "", fmt.Sprintf("unknown tool style %q", style), nil)
	}
	return args, nil
}

func (e *ExternalEngine) Merge(ctx context.Context, inputs []string, collate bool, output string) error {
	args, err := e.Args(inputs, collate, output)
	if err != nil {
		return err
	}

	path, err := exec.LookPath(e.Tool)
	if err != nil {
		return newError(KindExternalToolError, e.Tool, "merge tool not found", err)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = 5 * time.Second
	}

	log := e.logger()
	log.Debug("running merge tool", "cmd", strings.Join(cmd.Args, " "))

	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Error("merge tool interrupted", "cmd", strings.Join(cmd.Args, " "), "error", ctxErr)
		return contextError(ctxErr)
	}
	if runErr != nil {
		diag := diagnostic(out.Bytes())
		log.Error("failed to merge", "cmd", strings.Join(cmd.Args, " "), "error", runErr, "output", diag)

		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return newError(KindExternalToolError, "", fmt.Sprintf("%s exited with status %d: %s", e.Name(), exitErr.ExitCode(), diag), runErr)
		}
		return newError(KindExternalToolError, "", "run "+e.Name(), runErr)
	}
	return nil
}

func (e *ExternalEngine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// diagnostic trims the captured tool output and keeps its tail, where tools
// print the actual error.
func diagnostic(b []byte) string {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "(no output)"
	}
	if len(s) > maxDiagnostic {
		s = "..." + s[len(s)-maxDiagnostic:]
	}
	return s
}

func contextError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, "", "merge tool did not finish in time and was killed", err)
	}
	return newError(KindCanceled, "", "merge interrupted", err)
}
