// Package pdf merges PDF files through a pluggable merge engine, usually an
// external tool such as qpdf.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bradhe/stopwatch"
	"github.com/google/uuid"
)

// Result describes a successful merge.
type Result struct {
	Output  string
	Engine  string
	Elapsed time.Duration
	// Pages is only set when the output was verified.
	Pages int
}

// Merger runs the validate, merge, verify pipeline for one Request at a time.
type Merger struct {
	Engine Engine
	// Timeout bounds the engine run. Zero disables it.
	Timeout time.Duration
	// Verify reads the output back and checks its page count against the
	// sum of the inputs.
	Verify bool
	Logger *slog.Logger

	pageCount func(path string) (int, error)
}

func NewMerger(engine Engine, logger *slog.Logger) *Merger {
	return &Merger{Engine: engine, Logger: logger}
}

// Merge merges req.Inputs into req.Output. The output path is only replaced
// once the engine produced a usable file; on failure nothing is left behind.
// A non-nil error is always an *Error.
func (m *Merger) Merge(ctx context.Context, req Request) (Result, error) {
	log := m.logger().With("output", req.Output, "inputs", len(req.Inputs))

	if err := req.Validate(); err != nil {
		log.Error("invalid merge request", "error", err)
		return Result{}, err
	}

	var wantPages int
	if m.Verify {
		n, err := m.countInputPages(req.Inputs)
		if err != nil {
			log.Error("failed to read input", "error", err)
			return Result{}, err
		}
		wantPages = n
	}

	staging, err := createStaging(req.Output)
	if err != nil {
		log.Error("failed to prepare output", "error", err)
		return Result{}, err
	}
	done := false
	defer func() {
		if !done {
			if err := os.Remove(staging); err != nil && !os.IsNotExist(err) {
				log.Warn("failed to remove staging file", "file", staging, "error", err)
			}
		}
	}()

	runCtx := ctx
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	log.Info("merging", "engine", m.Engine.Name(), "collate", req.Collate)
	watch := stopwatch.Start()
	err = m.Engine.Merge(runCtx, req.Inputs, req.Collate, staging)
	watch.Stop()
	elapsed := time.Duration(watch.Milliseconds()) * time.Millisecond
	if err != nil {
		if ctxErr := runCtx.Err(); ctxErr != nil && KindOf(err) == KindUnknown {
			err = contextError(ctxErr)
		}
		merr := asError(err)
		log.Error("merge failed", "kind", merr.Kind.String(), "error", merr, "elapsed", elapsed)
		return Result{}, merr
	}

	info, err := os.Stat(staging)
	if err != nil {
		return Result{}, newError(KindEmptyOutput, req.Output, "merge tool produced no output file", err)
	}
	if info.Size() == 0 {
		return Result{}, newError(KindEmptyOutput, req.Output, "merge tool produced an empty file", nil)
	}

	res := Result{
		Output:  req.Output,
		Engine:  m.Engine.Name(),
		Elapsed: elapsed,
	}

	if m.Verify {
		got, err := m.count(staging)
		if err != nil {
			return Result{}, newError(KindEmptyOutput, req.Output, "output is not a readable PDF", err)
		}
		if got != wantPages {
			return Result{}, newError(KindEmptyOutput, req.Output,
				fmt.Sprintf("output has %d pages, inputs have %d", got, wantPages), nil)
		}
		res.Pages = got
	}

	if err := os.Rename(staging, req.Output); err != nil {
		return Result{}, newError(KindInvalidOutputPath, req.Output, "replace output", err)
	}
	done = true

	log.Info("merged", "engine", res.Engine, "pages", res.Pages, "elapsed", res.Elapsed)
	return res, nil
}

func (m *Merger) countInputPages(inputs []string) (int, error) {
	total := 0
	for _, in := range inputs {
		n, err := m.count(in)
		if err != nil {
			return 0, newError(KindMissingInput, in, "not a readable PDF", err)
		}
		total += n
	}
	return total, nil
}

func (m *Merger) count(path string) (int, error) {
	if m.pageCount != nil {
		return m.pageCount(path)
	}
	return PageCount(path)
}

func (m *Merger) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// createStaging creates the empty file the engine writes to. It lives next to
// the output so the final rename stays on one filesystem, and creating it
// doubles as the writability check for the output directory.
func createStaging(output string) (string, error) {
	dir, base := filepath.Split(output)
	staging := filepath.Join(dir, "."+uuid.NewString()+"-"+base)

	f, err := os.OpenFile(staging, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", newError(KindInvalidOutputPath, output, "output directory is not writable", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(staging)
		return "", newError(KindInvalidOutputPath, output, "create staging file", err)
	}
	return staging, nil
}

func asError(err error) *Error {
	var merr *Error
	if errors.As(err, &merr) {
		return merr
	}
	return newError(KindExternalToolError, "", "merge", err)
}
