package extractor

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

func extractPDF(r io.ReaderAt, size int64) (text string, err error) {
	// The pdf reader panics on some malformed xref tables.
	defer func() {
		if rec := recover(); rec != nil {
			err = domain.WrapError(domain.ErrUnsupportedFormat, "extract pdf", fmt.Errorf("malformed pdf: %v", rec))
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnsupportedFormat, "extract pdf", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(out), nil
}
