package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveClassification(ctx context.Context, id string, record domain.ClassificationRecord) error
	Delete(ctx context.Context, id string) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (domain.ExtractedText, error)
}

// TextAnalyzer is the NLP boundary: entities, sentences and noun chunks from
// a single pass over the text.
type TextAnalyzer interface {
	Analyze(ctx context.Context, text string) (domain.ParsedText, error)
}

// IndexWriter accepts flat classification records for indexing.
type IndexWriter interface {
	Index(ctx context.Context, record domain.IndexRecord) error
}

// DocumentIndex stores flat classification records for filtered search and
// aggregation.
type DocumentIndex interface {
	IndexWriter
	Get(ctx context.Context, documentID string) (domain.IndexRecord, error)
	Delete(ctx context.Context, documentID string) error
	Search(ctx context.Context, query domain.SearchQuery) (domain.SearchResult, error)
	Aggregate(ctx context.Context) (domain.Statistics, error)
}

// ClassificationCache memoizes results by content key.
type ClassificationCache interface {
	Get(ctx context.Context, key string) (domain.ClassificationResult, bool, error)
	Set(ctx context.Context, key string, result domain.ClassificationResult) error
}
