package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

type storageFake struct {
	files map[string][]byte
}

func (s *storageFake) Save(context.Context, string, io.Reader) error { return nil }

func (s *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.files[key]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *storageFake) Delete(context.Context, string) error { return nil }

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		mime     string
		want     Format
		ok       bool
	}{
		{filename: "brief.PDF", want: FormatPDF, ok: true},
		{filename: "notes.md", want: FormatText, ok: true},
		{filename: "contract.docx", want: FormatDOCX, ok: true},
		{filename: "upload", mime: "text/plain; charset=utf-8", want: FormatText, ok: true},
		{filename: "scan.png", mime: "image/png", ok: false},
	}
	for _, tt := range tests {
		got, ok := DetectFormat(tt.filename, tt.mime)
		require.Equal(t, tt.ok, ok, tt.filename)
		require.Equal(t, tt.want, got, tt.filename)
	}
}

func TestExtractPlainTextStripsControlCharacters(t *testing.T) {
	store := &storageFake{files: map[string][]byte{
		"doc-1": []byte("\xEF\xBB\xBF  Motion\x00 to dismiss.\r\nFiled today.\x07  "),
	}}
	got, err := New(store).Extract(context.Background(), &domain.Document{Filename: "motion.txt", StoragePath: "doc-1"})
	require.NoError(t, err)
	require.Equal(t, "Motion to dismiss.\nFiled today.", got.Text)
	require.Equal(t, 1.0, got.Confidence)
}

func TestExtractRejectsBinaryText(t *testing.T) {
	store := &storageFake{files: map[string][]byte{"doc-1": {0xff, 0xfe, 0xfd}}}
	_, err := New(store).Extract(context.Background(), &domain.Document{Filename: "x.txt", StoragePath: "doc-1"})
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestExtractUnsupportedFormat(t *testing.T) {
	_, err := New(&storageFake{}).Extract(context.Background(), &domain.Document{Filename: "scan.png", MimeType: "image/png"})
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestExtractEmptyTextReturnsZeroValue(t *testing.T) {
	store := &storageFake{files: map[string][]byte{"doc-1": []byte(" \n\t ")}}
	got, err := New(store).Extract(context.Background(), &domain.Document{Filename: "blank.txt", StoragePath: "doc-1"})
	require.NoError(t, err)
	require.Equal(t, domain.ExtractedText{}, got)
}

func TestExtractDOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(docxBodyPart)
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Lease agreement</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Tenant: </w:t></w:r><w:r><w:tab/><w:t>Jane Roe</w:t></w:r></w:p>
</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	got, err := ExtractBytes(context.Background(), FormatDOCX, buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, "Lease agreement\nTenant: \tJane Roe", got.Text)
}

func TestExtractDOCXWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ExtractBytes(context.Background(), FormatDOCX, buf.Bytes())
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestExtractMalformedPDF(t *testing.T) {
	_, err := ExtractBytes(context.Background(), FormatPDF, []byte("%PDF-1.4 not really"))
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "pdf"))
}
