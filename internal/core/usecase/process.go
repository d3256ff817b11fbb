package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kirillkom/docuscan/internal/core/domain"
	"github.com/kirillkom/docuscan/internal/core/ports"
)

// cacheKeyVersion changes whenever cached results stop being comparable.
const cacheKeyVersion = "v1"

type ProcessOptions struct {
	// Cache is optional.
	Cache  ports.ClassificationCache
	Logger *zap.Logger
}

type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	extractor  ports.TextExtractor
	classifier ports.DocumentClassifier
	index      ports.IndexWriter
	cache      ports.ClassificationCache
	logger     *zap.Logger
	now        func() time.Time
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	classifier ports.DocumentClassifier,
	index ports.IndexWriter,
	options ProcessOptions,
) *ProcessDocumentUseCase {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessDocumentUseCase{
		repo:       repo,
		extractor:  extractor,
		classifier: classifier,
		index:      index,
		cache:      options.Cache,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ProcessByID moves a document through processing, classified and indexed.
// Any failure after the processing mark leaves the document failed with the
// error message.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	start := uc.now()
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	record, err := uc.process(ctx, documentID, start)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusIndexed, ""); err != nil {
		uc.revertIndexedStatus(ctx, record, err)
		return fmt.Errorf("set status=indexed: %w", err)
	}
	return nil
}

// revertIndexedStatus rewrites the index record with the status the
// repository still holds after a failed final status update.
func (uc *ProcessDocumentUseCase) revertIndexedStatus(ctx context.Context, record domain.IndexRecord, cause error) {
	uc.logger.Error("index_status_diverged",
		zap.String("document_id", record.DocumentID),
		zap.String("index_status", string(record.Status)),
		zap.Error(cause),
	)
	record.Status = domain.StatusClassified
	if err := uc.index.Index(ctx, record); err != nil {
		uc.logger.Error("index_status_revert_failed",
			zap.String("document_id", record.DocumentID),
			zap.Error(err),
		)
	}
}

func (uc *ProcessDocumentUseCase) process(ctx context.Context, documentID string, start time.Time) (domain.IndexRecord, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return domain.IndexRecord{}, err
	}

	extracted, err := uc.extractText(ctx, doc)
	if err != nil {
		return domain.IndexRecord{}, err
	}

	result := uc.classify(ctx, domain.ClassificationInput{Text: extracted.Text, Hints: doc.Hints})

	processedAt := uc.now()
	record := domain.ClassificationRecord{
		Result:               result,
		ClientName:           result.PrimaryClient(),
		TextLength:           utf8.RuneCountInString(extracted.Text),
		ExtractionConfidence: extracted.Confidence,
		ProcessingTime:       processedAt.Sub(start),
		ProcessedAt:          processedAt,
	}
	if err := uc.repo.SaveClassification(ctx, doc.ID, record); err != nil {
		return domain.IndexRecord{}, fmt.Errorf("save classification: %w", err)
	}

	doc.Status = domain.StatusIndexed
	doc.ProcessedAt = &processedAt
	indexRecord := domain.NewIndexRecord(doc, result)
	if err := uc.index.Index(ctx, indexRecord); err != nil {
		return domain.IndexRecord{}, fmt.Errorf("index classification: %w", err)
	}

	uc.logger.Info("document_classified",
		zap.String("document_id", doc.ID),
		zap.String("case_type", string(result.CaseType)),
		zap.String("urgency", string(result.Urgency)),
		zap.Int("entities", len(result.Entities)),
		zap.Strings("degraded", result.Degraded),
		zap.Duration("elapsed", record.ProcessingTime),
	)
	return indexRecord, nil
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.Document) (domain.ExtractedText, error) {
	extracted, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("extract text: %w", err)
	}
	if extracted.Text == "" {
		return domain.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return extracted, nil
}

// classify consults the cache first. Degraded results are not cached so a
// recovered backend gets another chance.
func (uc *ProcessDocumentUseCase) classify(ctx context.Context, input domain.ClassificationInput) domain.ClassificationResult {
	if uc.cache == nil {
		return uc.classifier.Classify(ctx, input)
	}

	key := ClassificationCacheKey(input)
	cached, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.logger.Warn("classification_cache_get_failed", zap.Error(err))
	}
	if ok {
		return cached
	}

	result := uc.classifier.Classify(ctx, input)
	if len(result.Degraded) == 0 {
		if err := uc.cache.Set(ctx, key, result); err != nil {
			uc.logger.Warn("classification_cache_set_failed", zap.Error(err))
		}
	}
	return result
}

// ClassificationCacheKey hashes the text together with the hints, since
// hints can change the result.
func ClassificationCacheKey(input domain.ClassificationInput) string {
	h := sha256.New()
	for _, part := range []string{cacheKeyVersion, input.Text, input.Hints.CaseType, input.Hints.Urgency, input.Hints.ClientName} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
