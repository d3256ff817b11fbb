package httpadapter

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

type ingestFake struct {
	err      error
	lastReq  domain.UploadRequest
	lastBody []byte
}

func (f *ingestFake) Upload(_ context.Context, req domain.UploadRequest, body io.Reader) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", io.EOF)
	}
	f.lastReq = req
	f.lastBody = raw

	now := time.Now().UTC()
	return &domain.Document{
		ID:          "doc-1",
		Filename:    req.Filename,
		MimeType:    req.MimeType,
		StoragePath: "doc-1_" + req.Filename,
		FileSize:    int64(len(raw)),
		Hints:       req.Hints,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type queryFake struct {
	err       error
	lastQuery domain.SearchQuery
	deleted   []string
}

func (f *queryFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: id, Filename: "a.txt", MimeType: "text/plain", StoragePath: "a", Status: domain.StatusIndexed}, nil
}

func (f *queryFake) Search(_ context.Context, query domain.SearchQuery) (domain.SearchResult, error) {
	if f.err != nil {
		return domain.SearchResult{}, f.err
	}
	f.lastQuery = query
	return domain.SearchResult{
		Records: []domain.IndexRecord{{DocumentID: "doc-1", CaseType: domain.CaseTypeCriminal}},
		Total:   1,
		Limit:   domain.DefaultSearchLimit,
	}, nil
}

func (f *queryFake) Statistics(context.Context) (domain.Statistics, error) {
	if f.err != nil {
		return domain.Statistics{}, f.err
	}
	return domain.Statistics{TotalDocuments: 3, HighPriorityCount: 2, CriticalCount: 1}, nil
}

func (f *queryFake) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type exporterFake struct {
	err        error
	lastFormat string
}

func (f *exporterFake) Export(_ context.Context, _ domain.SearchQuery, format string) (*domain.Export, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastFormat = format
	return &domain.Export{
		Filename:    "documents-20260101-000000.csv",
		ContentType: "text/csv",
		Data:        []byte("document_id\ndoc-1\n"),
		Count:       1,
	}, nil
}

type classifierFake struct {
	lastInput domain.ClassificationInput
}

func (f *classifierFake) Classify(_ context.Context, input domain.ClassificationInput) domain.ClassificationResult {
	f.lastInput = input
	return domain.ClassificationResult{
		CaseType:           domain.CaseTypeCriminal,
		CaseTypeConfidence: 0.9,
		Urgency:            domain.UrgencyHigh,
		UrgencyConfidence:  0.7,
		Summary:            "summary",
	}
}

type routerDeps struct {
	ingest     *ingestFake
	query      *queryFake
	exporter   *exporterFake
	classifier *classifierFake
}

func newTestRouter(opts Options) (http.Handler, *routerDeps) {
	deps := &routerDeps{
		ingest:     &ingestFake{},
		query:      &queryFake{},
		exporter:   &exporterFake{},
		classifier: &classifierFake{},
	}
	return NewRouter(deps.ingest, deps.query, deps.exporter, deps.classifier, opts).Handler(), deps
}
