package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kirillkom/docuscan/internal/core/domain"
	"github.com/kirillkom/docuscan/internal/core/ports"
)

// QueryUseCase serves document reads: metadata from the repository, search
// and statistics from the index.
type QueryUseCase struct {
	repo    ports.DocumentRepository
	index   ports.DocumentIndex
	storage ports.ObjectStorage
	logger  *zap.Logger
}

func NewQueryUseCase(
	repo ports.DocumentRepository,
	index ports.DocumentIndex,
	storage ports.ObjectStorage,
	logger *zap.Logger,
) *QueryUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryUseCase{repo: repo, index: index, storage: storage, logger: logger}
}

func (uc *QueryUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get document", fmt.Errorf("id is required"))
	}
	return uc.repo.GetByID(ctx, id)
}

func (uc *QueryUseCase) Search(ctx context.Context, query domain.SearchQuery) (domain.SearchResult, error) {
	query, err := validateQuery(query)
	if err != nil {
		return domain.SearchResult{}, err
	}
	result, err := uc.index.Search(ctx, query)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("search documents: %w", err)
	}
	return result, nil
}

func (uc *QueryUseCase) Statistics(ctx context.Context) (domain.Statistics, error) {
	stats, err := uc.index.Aggregate(ctx)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("aggregate statistics: %w", err)
	}
	return stats, nil
}

// Delete removes the metadata row first; index and storage cleanup are best
// effort once the row is gone.
func (uc *QueryUseCase) Delete(ctx context.Context, id string) error {
	doc, err := uc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document metadata: %w", err)
	}
	if err := uc.index.Delete(ctx, doc.ID); err != nil {
		uc.logger.Warn("index_delete_failed", zap.String("document_id", doc.ID), zap.Error(err))
	}
	if err := uc.storage.Delete(ctx, doc.StoragePath); err != nil {
		uc.logger.Warn("storage_delete_failed", zap.String("document_id", doc.ID), zap.Error(err))
	}
	return nil
}

// validateQuery canonicalizes enum filters and rejects unknown values.
func validateQuery(q domain.SearchQuery) (domain.SearchQuery, error) {
	out := q.Normalize()
	out.CaseTypes = nil
	for _, raw := range q.CaseTypes {
		ct, ok := domain.ParseCaseType(string(raw))
		if !ok {
			return domain.SearchQuery{}, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("unknown case type %q", raw))
		}
		out.CaseTypes = append(out.CaseTypes, ct)
	}
	out.UrgencyLevels = nil
	for _, raw := range q.UrgencyLevels {
		level, ok := domain.ParseUrgencyLevel(string(raw))
		if !ok {
			return domain.SearchQuery{}, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("unknown urgency %q", raw))
		}
		out.UrgencyLevels = append(out.UrgencyLevels, level)
	}
	out.Statuses = nil
	for _, raw := range q.Statuses {
		status := domain.DocumentStatus(strings.ToLower(strings.TrimSpace(string(raw))))
		if !status.Valid() {
			return domain.SearchQuery{}, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("unknown status %q", raw))
		}
		out.Statuses = append(out.Statuses, status)
	}
	if !q.CreatedFrom.IsZero() && !q.CreatedTo.IsZero() && q.CreatedTo.Before(q.CreatedFrom) {
		return domain.SearchQuery{}, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("created_to is before created_from"))
	}
	return out, nil
}
