package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Validate(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", "A")
	b := writeFile(t, dir, "b.pdf", "B")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	link := filepath.Join(dir, "link.pdf")
	require.NoError(t, os.Symlink(a, link))
	out := filepath.Join(dir, "out.pdf")

	tests := []struct {
		name string
		req  Request
		kind Kind
	}{
		{"valid", Request{Inputs: []string{a, b}, Output: out}, KindUnknown},
		{"duplicates allowed", Request{Inputs: []string{a, a}, Output: out}, KindUnknown},
		{"collate with two inputs", Request{Inputs: []string{a, b}, Output: out, Collate: true}, KindUnknown},
		{"existing output is overwritten", Request{Inputs: []string{a}, Output: b}, KindUnknown},
		{"no inputs", Request{Output: out}, KindNoInputs},
		{"collate with one input", Request{Inputs: []string{a}, Output: out, Collate: true}, KindInvalidArguments},
		{"collate with three inputs", Request{Inputs: []string{a, b, a}, Output: out, Collate: true}, KindInvalidArguments},
		{"empty input path", Request{Inputs: []string{""}, Output: out}, KindMissingInput},
		{"missing input", Request{Inputs: []string{filepath.Join(dir, "nope.pdf")}, Output: out}, KindMissingInput},
		{"directory input", Request{Inputs: []string{sub}, Output: out}, KindMissingInput},
		{"missing output", Request{Inputs: []string{a}}, KindInvalidOutputPath},
		{"missing parent", Request{Inputs: []string{a}, Output: filepath.Join(dir, "x", "out.pdf")}, KindInvalidOutputPath},
		{"parent is a file", Request{Inputs: []string{a}, Output: filepath.Join(b, "out.pdf")}, KindInvalidOutputPath},
		{"output is a directory", Request{Inputs: []string{a}, Output: sub}, KindInvalidOutputPath},
		{"output equals input", Request{Inputs: []string{a, b}, Output: b + "/../b.pdf"}, KindInvalidOutputPath},
		{"output links to input", Request{Inputs: []string{a}, Output: link}, KindInvalidOutputPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.kind == KindUnknown {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err), err.Error())
		})
	}
}

func TestRequest_ValidateReportsMissingInputFirst(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.pdf")

	err := Request{Inputs: []string{missing}, Output: filepath.Join(dir, "x", "out.pdf")}.Validate()
	require.Error(t, err)
	assert.Equal(t, KindMissingInput, KindOf(err))

	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, missing, merr.Path)
}

func TestRequest_ValidateUnreadableInput(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("root can read any file")
	}
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", "A")
	require.NoError(t, os.Chmod(a, 0o000))

	err := Request{Inputs: []string{a}, Output: filepath.Join(dir, "out.pdf")}.Validate()
	assert.Equal(t, KindMissingInput, KindOf(err))
}
