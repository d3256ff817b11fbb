package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type repoFake struct {
	mu sync.Mutex

	doc       *domain.Document
	created   *domain.Document
	createErr error
	getErr    error
	saveErr   error
	deleteErr error
	statusErr error
	// indexedErr fails only the final indexed status update.
	indexedErr error

	statusCalls []statusCall
	record      domain.ClassificationRecord
	savedID     string
	deletedID   string
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyDoc := *doc
	f.created = &copyDoc
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.doc == nil || f.doc.ID != id {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get", errors.New(id))
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if f.statusErr != nil && status != domain.StatusFailed {
		return f.statusErr
	}
	if f.indexedErr != nil && status == domain.StatusIndexed {
		return f.indexedErr
	}
	return nil
}

func (f *repoFake) SaveClassification(_ context.Context, id string, record domain.ClassificationRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedID = id
	f.record = record
	return nil
}

func (f *repoFake) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedID = id
	return nil
}

func (f *repoFake) statuses() []domain.DocumentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.DocumentStatus, 0, len(f.statusCalls))
	for _, c := range f.statusCalls {
		out = append(out, c.status)
	}
	return out
}

type storageFake struct {
	savedKey  string
	savedBody string
	saveErr   error
	deleted   []string
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.savedBody)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type queueFake struct {
	documentID string
	err        error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.documentID = documentID
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type extractorFake struct {
	out domain.ExtractedText
	err error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (domain.ExtractedText, error) {
	if f.err != nil {
		return domain.ExtractedText{}, f.err
	}
	return f.out, nil
}

type classifierFake struct {
	result domain.ClassificationResult
	calls  int
	inputs []domain.ClassificationInput
}

func (f *classifierFake) Classify(_ context.Context, input domain.ClassificationInput) domain.ClassificationResult {
	f.calls++
	f.inputs = append(f.inputs, input)
	return f.result
}

type indexFake struct {
	records   map[string]domain.IndexRecord
	order     []string
	indexErr  error
	deleteErr error
	searchErr error
	stats     domain.Statistics
	queries   []domain.SearchQuery
}

func newIndexFake() *indexFake {
	return &indexFake{records: map[string]domain.IndexRecord{}}
}

func (f *indexFake) Index(_ context.Context, record domain.IndexRecord) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	if _, ok := f.records[record.DocumentID]; !ok {
		f.order = append(f.order, record.DocumentID)
	}
	f.records[record.DocumentID] = record
	return nil
}

func (f *indexFake) Get(_ context.Context, id string) (domain.IndexRecord, error) {
	r, ok := f.records[id]
	if !ok {
		return domain.IndexRecord{}, domain.ErrDocumentNotFound
	}
	return r, nil
}

func (f *indexFake) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.records, id)
	return nil
}

// Search pages over insertion order and ignores filters.
func (f *indexFake) Search(_ context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	f.queries = append(f.queries, q)
	if f.searchErr != nil {
		return domain.SearchResult{}, f.searchErr
	}
	q = q.Normalize()
	var all []domain.IndexRecord
	for _, id := range f.order {
		if r, ok := f.records[id]; ok {
			all = append(all, r)
		}
	}
	end := q.Offset + q.Limit
	if end > len(all) {
		end = len(all)
	}
	page := []domain.IndexRecord{}
	if q.Offset < len(all) {
		page = all[q.Offset:end]
	}
	return domain.SearchResult{
		Records: page,
		Total:   uint64(len(all)),
		Limit:   q.Limit,
		Offset:  q.Offset,
		HasMore: end < len(all),
	}, nil
}

func (f *indexFake) Aggregate(context.Context) (domain.Statistics, error) {
	if f.searchErr != nil {
		return domain.Statistics{}, f.searchErr
	}
	return f.stats, nil
}

type cacheFake struct {
	entries map[string]domain.ClassificationResult
	getErr  error
	sets    int
}

func newCacheFake() *cacheFake {
	return &cacheFake{entries: map[string]domain.ClassificationResult{}}
}

func (f *cacheFake) Get(_ context.Context, key string) (domain.ClassificationResult, bool, error) {
	if f.getErr != nil {
		return domain.ClassificationResult{}, false, f.getErr
	}
	r, ok := f.entries[key]
	return r, ok, nil
}

func (f *cacheFake) Set(_ context.Context, key string, result domain.ClassificationResult) error {
	f.sets++
	f.entries[key] = result
	return nil
}
