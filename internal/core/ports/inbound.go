package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

// DocumentIngestor stores an upload, records it and queues it for
// classification.
type DocumentIngestor interface {
	Upload(ctx context.Context, req domain.UploadRequest, body io.Reader) (*domain.Document, error)
}

// DocumentReader loads one document with its lifecycle status and, once
// classified, its result.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentQueryService serves dashboard reads over the search index.
type DocumentQueryService interface {
	DocumentReader
	Search(ctx context.Context, query domain.SearchQuery) (domain.SearchResult, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
	Delete(ctx context.Context, id string) error
}

// DocumentExporter renders search results in a downloadable format.
type DocumentExporter interface {
	Export(ctx context.Context, query domain.SearchQuery, format string) (*domain.Export, error)
}

// DocumentProcessor extracts, classifies and indexes one queued document.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentClassifier classifies extracted text. It never fails for
// classification-quality reasons; degraded components fall back to defaults.
type DocumentClassifier interface {
	Classify(ctx context.Context, input domain.ClassificationInput) domain.ClassificationResult
}
