package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kirillkom/docuscan/internal/core/domain"
	"github.com/kirillkom/docuscan/internal/core/ports"
)

// DefaultMaxBytes bounds how much of a stored document is read into memory.
const DefaultMaxBytes int64 = 50 << 20

type Format string

const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

var extensionFormats = map[string]Format{
	".txt":  FormatText,
	".md":   FormatText,
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
}

var mimeFormats = map[string]Format{
	"text/plain":      FormatText,
	"text/markdown":   FormatText,
	"text/x-markdown": FormatText,
	"application/pdf": FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
}

// SupportedExtensions lists the upload extensions the extractor can read.
func SupportedExtensions() []string {
	return []string{".docx", ".md", ".pdf", ".txt"}
}

// DetectFormat prefers the file extension and falls back to the mime type.
func DetectFormat(filename, mimeType string) (Format, bool) {
	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(filename))]; ok {
		return f, true
	}
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}
	f, ok := mimeFormats[mt]
	return f, ok
}

type Extractor struct {
	storage  ports.ObjectStorage
	maxBytes int64
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage, maxBytes: DefaultMaxBytes}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (domain.ExtractedText, error) {
	format, ok := DetectFormat(doc.Filename, doc.MimeType)
	if !ok {
		return domain.ExtractedText{}, domain.WrapError(domain.ErrUnsupportedFormat, "extract", fmt.Errorf("%s (%s)", doc.Filename, doc.MimeType))
	}

	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, e.maxBytes+1))
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("read source document: %w", err)
	}
	if int64(len(raw)) > e.maxBytes {
		return domain.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "extract", fmt.Errorf("document exceeds %d bytes", e.maxBytes))
	}

	return ExtractBytes(ctx, format, raw)
}

// ExtractBytes converts raw document bytes of a known format into plain text.
func ExtractBytes(ctx context.Context, format Format, raw []byte) (domain.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExtractedText{}, err
	}

	var (
		text string
		err  error
	)
	switch format {
	case FormatText:
		text, err = extractPlainText(raw)
	case FormatPDF:
		text, err = extractPDF(bytes.NewReader(raw), int64(len(raw)))
	case FormatDOCX:
		text, err = extractDOCX(bytes.NewReader(raw), int64(len(raw)))
	default:
		err = domain.WrapError(domain.ErrUnsupportedFormat, "extract", fmt.Errorf("format %q", format))
	}
	if err != nil {
		return domain.ExtractedText{}, err
	}

	text = sanitize(text)
	if text == "" {
		return domain.ExtractedText{}, nil
	}
	// Native text layers only; no OCR pass lowers confidence.
	return domain.ExtractedText{Text: text, Confidence: 1.0}, nil
}
