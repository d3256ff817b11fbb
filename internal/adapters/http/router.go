package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kirillkom/docuscan/internal/core/domain"
	"github.com/kirillkom/docuscan/internal/core/ports"
	"github.com/kirillkom/docuscan/internal/observability/metrics"
)

const (
	defaultMaxUploadBytes = 25 << 20
	maxClassifyBodyBytes  = 4 << 20
	multipartMemoryBytes  = 8 << 20
	multipartOverhead     = 1 << 20
)

// Options tunes the router's traffic controls. Zero values disable the
// corresponding control.
type Options struct {
	MaxUploadBytes   int64
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
	Metrics          *metrics.HTTPServerMetrics
	Logger           *zap.Logger
}

type Router struct {
	ingest     ports.DocumentIngestor
	query      ports.DocumentQueryService
	exporter   ports.DocumentExporter
	classifier ports.DocumentClassifier
	opts       Options
	logger     *zap.Logger
}

func NewRouter(
	ingest ports.DocumentIngestor,
	query ports.DocumentQueryService,
	exporter ports.DocumentExporter,
	classifier ports.DocumentClassifier,
	opts Options,
) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		ingest:     ingest,
		query:      query,
		exporter:   exporter,
		classifier: classifier,
		opts:       opts,
		logger:     logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.opts.Metrics != nil {
		mux.Handle("GET /metrics", rt.opts.Metrics.Handler())
	}
	mux.HandleFunc("POST /v1/documents", rt.uploadDocument)
	mux.HandleFunc("GET /v1/documents", rt.searchDocuments)
	mux.HandleFunc("GET /v1/documents/{id}", rt.getDocumentByID)
	mux.HandleFunc("DELETE /v1/documents/{id}", rt.deleteDocument)
	mux.HandleFunc("GET /v1/statistics", rt.statistics)
	mux.HandleFunc("GET /v1/export", rt.exportDocuments)
	mux.HandleFunc("POST /v1/classify", rt.classify)

	var handler http.Handler = mux
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(handler)
	}
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, rt.opts.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemoryBytes); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(r.Context(), domain.UploadRequest{
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Hints: domain.ClassificationHints{
			CaseType:   r.FormValue("case_type"),
			Urgency:    r.FormValue("urgency"),
			ClientName: r.FormValue("client_name"),
		},
	}, file)
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordUpload(strings.ToLower(filepath.Ext(fileHeader.Filename)), fileHeader.Size, err)
	}
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := rt.query.GetByID(r.Context(), id)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	if err := rt.query.Delete(r.Context(), id); err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) searchDocuments(w http.ResponseWriter, r *http.Request) {
	query, err := parseSearchQuery(r)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	result, err := rt.query.Search(r.Context(), query)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordSearch(result.Total)
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.query.Statistics(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) exportDocuments(w http.ResponseWriter, r *http.Request) {
	query, err := parseSearchQuery(r)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	export, err := rt.exporter.Export(r.Context(), query, format)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordExport(strings.TrimPrefix(filepath.Ext(export.Filename), "."))
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.Header().Set("X-Export-Count", strconv.Itoa(export.Count))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

type classifyRequest struct {
	Text  string                     `json:"text"`
	Hints domain.ClassificationHints `json:"hints"`
}

func (rt *Router) classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClassifyBodyBytes)).Decode(&req); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	hints, err := req.Hints.Normalize()
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	result := rt.classifier.Classify(r.Context(), domain.ClassificationInput{Text: req.Text, Hints: hints})
	writeJSON(w, http.StatusOK, result)
}

// parseSearchQuery reads dashboard filters from the query string. Enum values
// are validated by the query service.
func parseSearchQuery(r *http.Request) (domain.SearchQuery, error) {
	values := r.URL.Query()
	query := domain.SearchQuery{
		Text:        strings.TrimSpace(values.Get("q")),
		ClientNames: splitValues(values["client"]),
		Tags:        splitValues(values["tag"]),
	}
	for _, raw := range splitValues(values["case_type"]) {
		query.CaseTypes = append(query.CaseTypes, domain.CaseType(raw))
	}
	for _, raw := range splitValues(values["urgency"]) {
		query.UrgencyLevels = append(query.UrgencyLevels, domain.UrgencyLevel(raw))
	}
	for _, raw := range splitValues(values["status"]) {
		query.Statuses = append(query.Statuses, domain.DocumentStatus(raw))
	}

	var err error
	if query.CreatedFrom, err = parseTimeParam(values.Get("created_from"), "created_from"); err != nil {
		return domain.SearchQuery{}, err
	}
	if query.CreatedTo, err = parseTimeParam(values.Get("created_to"), "created_to"); err != nil {
		return domain.SearchQuery{}, err
	}
	if query.Limit, err = parseIntParam(values.Get("limit"), "limit"); err != nil {
		return domain.SearchQuery{}, err
	}
	if query.Offset, err = parseIntParam(values.Get("offset"), "offset"); err != nil {
		return domain.SearchQuery{}, err
	}
	return query, nil
}

// splitValues accepts both repeated parameters and comma-separated lists.
func splitValues(raw []string) []string {
	var out []string
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseTimeParam(raw, name string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, domain.WrapError(domain.ErrInvalidInput, "parse "+name, err)
	}
	return t.UTC(), nil
}

func parseIntParam(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse "+name, fmt.Errorf("expected a non-negative integer, got %q", raw))
	}
	return n, nil
}

// isBodyTooLarge also matches the message because multipart parsing does not
// always keep the error chain intact.
func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
