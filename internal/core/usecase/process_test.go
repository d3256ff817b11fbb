package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

func classifiedResult() domain.ClassificationResult {
	return domain.ClassificationResult{
		CaseType:    domain.CaseTypeCivil,
		Urgency:     domain.UrgencyCritical,
		ClientNames: []string{"John Doe", "Acme Corp"},
		Tags:        []string{"summary judgment"},
		Summary:     "Motion for summary judgment.",
	}
}

func newProcess(repo *repoFake, extractor *extractorFake, classifier *classifierFake, index *indexFake, opts ProcessOptions) *ProcessDocumentUseCase {
	uc := NewProcessDocumentUseCase(repo, extractor, classifier, index, opts)
	clock := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time {
		clock = clock.Add(100 * time.Millisecond)
		return clock
	}
	return uc
}

func TestProcessByIDSuccess(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{
		ID:       "doc-1",
		Filename: "motion.txt",
		Hints:    domain.ClassificationHints{ClientName: "Jane Roe"},
	}}
	classifier := &classifierFake{result: classifiedResult()}
	index := newIndexFake()
	uc := newProcess(repo, &extractorFake{out: domain.ExtractedText{Text: "Motion text é", Confidence: 1}}, classifier, index, ProcessOptions{})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	want := []domain.DocumentStatus{domain.StatusProcessing, domain.StatusIndexed}
	if got := repo.statuses(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected status sequence: %v", got)
	}
	if repo.savedID != "doc-1" {
		t.Fatalf("expected classification save for doc-1, got %s", repo.savedID)
	}
	if repo.record.ClientName != "John Doe" || repo.record.TextLength != 13 {
		t.Fatalf("unexpected record: %+v", repo.record)
	}
	if repo.record.ProcessingTime != 100*time.Millisecond {
		t.Fatalf("expected processing time from clock, got %v", repo.record.ProcessingTime)
	}
	if classifier.inputs[0].Hints.ClientName != "Jane Roe" {
		t.Fatalf("expected stored hints to reach the classifier")
	}
	indexed, ok := index.records["doc-1"]
	if !ok {
		t.Fatalf("expected index record")
	}
	if indexed.Status != domain.StatusIndexed || indexed.CaseType != domain.CaseTypeCivil || indexed.ProcessedAt.IsZero() {
		t.Fatalf("unexpected index record: %+v", indexed)
	}
}

func TestProcessByIDMarksFailedOnExtractError(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := newProcess(repo, &extractorFake{err: errors.New("extract fail")}, &classifierFake{}, newIndexFake(), ProcessOptions{})

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[1].status != domain.StatusFailed {
		t.Fatalf("expected processing + failed status updates, got %+v", repo.statusCalls)
	}
	if repo.statusCalls[1].errMsg == "" {
		t.Fatalf("expected failure message to be stored")
	}
}

func TestProcessByIDRejectsEmptyText(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1"}}
	classifier := &classifierFake{}
	uc := newProcess(repo, &extractorFake{}, classifier, newIndexFake(), ProcessOptions{})

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if classifier.calls != 0 {
		t.Fatalf("classifier must not run on empty text")
	}
}

func TestProcessByIDMarksFailedOnIndexError(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1"}}
	index := newIndexFake()
	index.indexErr = errors.New("index closed")
	uc := newProcess(repo, &extractorFake{out: domain.ExtractedText{Text: "x"}}, &classifierFake{result: classifiedResult()}, index, ProcessOptions{})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected error")
	}
	got := repo.statuses()
	if got[len(got)-1] != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %v", got)
	}
}

func TestProcessByIDRevertsIndexStatusWhenFinalUpdateFails(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1"}, indexedErr: errors.New("connection reset")}
	index := newIndexFake()
	core, logs := observer.New(zap.ErrorLevel)
	uc := newProcess(repo, &extractorFake{out: domain.ExtractedText{Text: "x"}}, &classifierFake{result: classifiedResult()}, index,
		ProcessOptions{Logger: zap.New(core)})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected error")
	}
	indexed, ok := index.records["doc-1"]
	if !ok {
		t.Fatalf("expected index record")
	}
	if indexed.Status != domain.StatusClassified {
		t.Fatalf("expected index status to match the repository, got %s", indexed.Status)
	}
	if logs.FilterMessage("index_status_diverged").Len() != 1 {
		t.Fatalf("expected divergence to be logged, got %v", logs.All())
	}
}

func TestProcessByIDReturnsMissingDocument(t *testing.T) {
	repo := &repoFake{}
	uc := newProcess(repo, &extractorFake{}, &classifierFake{}, newIndexFake(), ProcessOptions{})

	err := uc.ProcessByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProcessUsesClassificationCache(t *testing.T) {
	cache := newCacheFake()
	classifier := &classifierFake{result: classifiedResult()}
	extractor := &extractorFake{out: domain.ExtractedText{Text: "same text"}}

	for i := 0; i < 2; i++ {
		repo := &repoFake{doc: &domain.Document{ID: "doc-1"}}
		uc := newProcess(repo, extractor, classifier, newIndexFake(), ProcessOptions{Cache: cache})
		if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
			t.Fatalf("ProcessByID() error = %v", err)
		}
		if repo.record.Result.CaseType != domain.CaseTypeCivil {
			t.Fatalf("expected cached result to be persisted, got %+v", repo.record.Result)
		}
	}
	if classifier.calls != 1 {
		t.Fatalf("expected one classifier call, got %d", classifier.calls)
	}
}

func TestProcessDoesNotCacheDegradedResults(t *testing.T) {
	cache := newCacheFake()
	result := classifiedResult()
	result.Degraded = []string{"nlp"}
	repo := &repoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := newProcess(repo, &extractorFake{out: domain.ExtractedText{Text: "x"}}, &classifierFake{result: result}, newIndexFake(), ProcessOptions{Cache: cache})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if cache.sets != 0 {
		t.Fatalf("degraded result must not be cached")
	}
}

func TestProcessContinuesWhenCacheFails(t *testing.T) {
	cache := newCacheFake()
	cache.getErr = errors.New("redis down")
	classifier := &classifierFake{result: classifiedResult()}
	repo := &repoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := newProcess(repo, &extractorFake{out: domain.ExtractedText{Text: "x"}}, classifier, newIndexFake(), ProcessOptions{Cache: cache})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if classifier.calls != 1 {
		t.Fatalf("expected classifier to run on cache error")
	}
}

func TestClassificationCacheKeyDependsOnHints(t *testing.T) {
	a := ClassificationCacheKey(domain.ClassificationInput{Text: "t"})
	b := ClassificationCacheKey(domain.ClassificationInput{Text: "t", Hints: domain.ClassificationHints{CaseType: "tax"}})
	c := ClassificationCacheKey(domain.ClassificationInput{Text: "t"})
	if a == b {
		t.Fatalf("hints must change the cache key")
	}
	if a != c {
		t.Fatalf("cache key must be deterministic")
	}
}
