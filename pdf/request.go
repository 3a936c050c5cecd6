package pdf

import (
	"fmt"
	"os"
	"path/filepath"
)

// Request is one merge invocation: Inputs are merged in the given order into
// Output. Duplicates in Inputs are kept.
type Request struct {
	Inputs []string
	Output string
	// Collate interleaves the pages of exactly two inputs, reading the second
	// one back to front (fronts and backs of a duplex scan).
	Collate bool
}

// Validate checks the request against the filesystem without writing
// anything. Inputs are checked before the output so a missing input is
// always reported as such.
func (r Request) Validate() error {
	if len(r.Inputs) == 0 {
		return newError(KindNoInputs, "", "at least one input file is required", nil)
	}
	if r.Collate && len(r.Inputs) != 2 {
		return newError(KindInvalidArguments, "",
			fmt.Sprintf("collate needs exactly 2 inputs, got %d", len(r.Inputs)), nil)
	}

	for _, in := range r.Inputs {
		if err := checkInput(in); err != nil {
			return err
		}
	}

	return r.checkOutput()
}

func checkInput(path string) error {
	if path == "" {
		return newError(KindMissingInput, path, "empty input path", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newError(KindMissingInput, path, "no such file", nil)
		}
		return newError(KindMissingInput, path, "stat input", err)
	}
	if !info.Mode().IsRegular() {
		return newError(KindMissingInput, path, "not a regular file", nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return newError(KindMissingInput, path, "input is not readable", err)
	}
	return f.Close()
}

func (r Request) checkOutput() error {
	if r.Output == "" {
		return newError(KindInvalidOutputPath, "", "output path is required", nil)
	}

	out, err := filepath.Abs(r.Output)
	if err != nil {
		return newError(KindInvalidOutputPath, r.Output, "resolve output path", err)
	}

	dir := filepath.Dir(out)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return newError(KindInvalidOutputPath, r.Output, "parent directory does not exist", nil)
		}
		return newError(KindInvalidOutputPath, r.Output, "stat parent directory", err)
	}
	if !info.IsDir() {
		return newError(KindInvalidOutputPath, r.Output, "parent is not a directory", nil)
	}

	outInfo, statErr := os.Stat(out)
	if statErr == nil && outInfo.IsDir() {
		return newError(KindInvalidOutputPath, r.Output, "output is a directory", nil)
	}

	for _, in := range r.Inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			continue
		}
		if abs == out {
			return newError(KindInvalidOutputPath, r.Output, "output would overwrite input "+in, nil)
		}
		if statErr != nil {
			continue
		}
		if inInfo, err := os.Stat(in); err == nil && os.SameFile(inInfo, outInfo) {
			return newError(KindInvalidOutputPath, r.Output, "output is the same file as input "+in, nil)
		}
	}
	return nil
}
