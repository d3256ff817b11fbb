package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

func newMultipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestHealthzEndpoint(t *testing.T) {
	handler, _ := newTestRouter(Options{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header on response")
	}
}

func TestUploadDocumentSuccess(t *testing.T) {
	handler, deps := newTestRouter(Options{})

	body, contentType := newMultipartUpload(t, "motion.txt", []byte("URGENT: motion to dismiss"), map[string]string{
		"case_type":   "criminal",
		"urgency":     "high",
		"client_name": "Jane Roe",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}

	var docResp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&docResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if docResp["id"] != "doc-1" || docResp["status"] != string(domain.StatusUploaded) {
		t.Fatalf("unexpected response: %+v", docResp)
	}

	got := deps.ingest.lastReq
	if got.Filename != "motion.txt" {
		t.Fatalf("expected filename to be forwarded, got %q", got.Filename)
	}
	if got.Hints.CaseType != "criminal" || got.Hints.Urgency != "high" || got.Hints.ClientName != "Jane Roe" {
		t.Fatalf("expected hints to be forwarded, got %+v", got.Hints)
	}
	if string(deps.ingest.lastBody) != "URGENT: motion to dismiss" {
		t.Fatalf("unexpected body forwarded: %q", deps.ingest.lastBody)
	}
}

func TestUploadDocumentMissingMultipartField(t *testing.T) {
	handler, _ := newTestRouter(Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadDocumentUnsupportedFormatReturns415(t *testing.T) {
	handler, deps := newTestRouter(Options{})
	deps.ingest.err = domain.WrapError(domain.ErrUnsupportedFormat, "upload", errors.New("extension .exe"))

	body, contentType := newMultipartUpload(t, "tool.exe", []byte("MZ"), nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", res.Code)
	}
}

func TestUploadDocumentTooLargeReturns413(t *testing.T) {
	handler, _ := newTestRouter(Options{MaxUploadBytes: 16})

	content := []byte(strings.Repeat("a", multipartOverhead+64))
	body, contentType := newMultipartUpload(t, "big.txt", content, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}
