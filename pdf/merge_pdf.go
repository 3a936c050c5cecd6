package pdf

import (
	"context"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PdfcpuEngine merges in-process with pdfcpu, for hosts without an
// external merge tool.
type PdfcpuEngine struct{}

func (PdfcpuEngine) Name() string { return "pdfcpu" }

// Merge checks ctx once before starting; a running pdfcpu merge cannot be
// interrupted.
func (PdfcpuEngine) Merge(ctx context.Context, inputs []string, collate bool, output string) error {
	if collate {
		return newError(KindInvalidArguments, "", "collate is not supported by the pdfcpu engine", nil)
	}
	if err := ctx.Err(); err != nil {
		return contextError(err)
	}

	if err := api.ValidateFiles(inputs, nil); err != nil {
		return newError(KindExternalToolError, "", "pdfcpu validate inputs", err)
	}
	if err := api.MergeCreateFile(inputs, output, nil); err != nil {
		return newError(KindExternalToolError, "", "pdfcpu merge", err)
	}
	return nil
}

// PageCount returns the number of pages of the PDF at path.
func PageCount(path string) (int, error) {
	return api.PageCountFile(path)
}
