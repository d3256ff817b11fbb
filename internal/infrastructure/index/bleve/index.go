package bleve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/mapping"
	"github.com/blevesearch/bleve/search/query"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

const (
	fieldFilename    = "filename"
	fieldStatus      = "status"
	fieldCaseType    = "case_type"
	fieldUrgency     = "urgency"
	fieldClientNames = "client_names"
	fieldTags        = "tags"
	fieldSummary     = "summary"
	fieldEntities    = "entities"
	fieldCreatedAt   = "created_at"

	recordKeyPrefix = "record:"
	topTermsSize    = 10
	facetAllSize    = 64
)

// Index keeps flat classification records in a bleve index. Filter fields
// use the keyword analyzer so filters and facets are exact matches; the full
// record is stored as internal JSON next to the indexed document.
type Index struct {
	idx bleve.Index
}

// NewMemory builds a non-persistent index.
func NewMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create memory index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// Open opens the index at path, creating it when missing. An empty path
// yields a memory index.
func Open(path string) (*Index, error) {
	if strings.TrimSpace(path) == "" {
		return NewMemory()
	}
	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open index %s: %w", path, err)
		}
		return &Index{idx: idx}, nil
	}
	idx, err := bleve.New(path, buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

func (i *Index) Close() error {
	return i.idx.Close()
}

func buildMapping() mapping.IndexMapping {
	keywordField := func() *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		return fm
	}
	textField := func() *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		return fm
	}

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(fieldFilename, textField())
	doc.AddFieldMappingsAt(fieldSummary, textField())
	doc.AddFieldMappingsAt(fieldEntities, textField())
	doc.AddFieldMappingsAt(fieldStatus, keywordField())
	doc.AddFieldMappingsAt(fieldCaseType, keywordField())
	doc.AddFieldMappingsAt(fieldUrgency, keywordField())
	doc.AddFieldMappingsAt(fieldClientNames, keywordField())
	doc.AddFieldMappingsAt(fieldTags, keywordField())
	doc.AddFieldMappingsAt(fieldCreatedAt, bleve.NewDateTimeFieldMapping())

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = standard.Name
	return m
}

func indexedFields(record domain.IndexRecord) map[string]any {
	entities := make([]string, 0, len(record.Entities))
	for _, e := range record.Entities {
		entities = append(entities, e.Text)
	}
	return map[string]any{
		fieldFilename:    record.Filename,
		fieldStatus:      string(record.Status),
		fieldCaseType:    string(record.CaseType),
		fieldUrgency:     string(record.Urgency),
		fieldClientNames: record.ClientNames,
		fieldTags:        record.Tags,
		fieldSummary:     record.Summary,
		fieldEntities:    entities,
		fieldCreatedAt:   record.CreatedAt,
	}
}

func (i *Index) Index(ctx context.Context, record domain.IndexRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.DocumentID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "index record", errors.New("document id is required"))
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal index record: %w", err)
	}

	batch := i.idx.NewBatch()
	if err := batch.Index(record.DocumentID, indexedFields(record)); err != nil {
		return fmt.Errorf("index document %s: %w", record.DocumentID, err)
	}
	batch.SetInternal([]byte(recordKeyPrefix+record.DocumentID), raw)
	if err := i.idx.Batch(batch); err != nil {
		return fmt.Errorf("apply index batch: %w", err)
	}
	return nil
}

func (i *Index) Get(ctx context.Context, documentID string) (domain.IndexRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.IndexRecord{}, err
	}
	raw, err := i.idx.GetInternal([]byte(recordKeyPrefix + documentID))
	if err != nil {
		return domain.IndexRecord{}, fmt.Errorf("read index record: %w", err)
	}
	if raw == nil {
		return domain.IndexRecord{}, domain.WrapError(domain.ErrDocumentNotFound, "index get", fmt.Errorf("id=%s", documentID))
	}
	var record domain.IndexRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.IndexRecord{}, fmt.Errorf("decode index record: %w", err)
	}
	return record, nil
}

// Delete is idempotent.
func (i *Index) Delete(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := i.idx.NewBatch()
	batch.Delete(documentID)
	batch.DeleteInternal([]byte(recordKeyPrefix + documentID))
	if err := i.idx.Batch(batch); err != nil {
		return fmt.Errorf("delete from index: %w", err)
	}
	return nil
}

func (i *Index) Search(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	q = q.Normalize()
	req := bleve.NewSearchRequestOptions(buildQuery(q), q.Limit, q.Offset, false)
	req.SortBy([]string{"-" + fieldCreatedAt, "_id"})

	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("search index: %w", err)
	}

	records := make([]domain.IndexRecord, 0, len(res.Hits))
	for _, hit := range res.Hits {
		record, err := i.Get(ctx, hit.ID)
		if err != nil {
			if domain.IsKind(err, domain.ErrDocumentNotFound) {
				continue
			}
			return domain.SearchResult{}, err
		}
		records = append(records, record)
	}

	return domain.SearchResult{
		Records: records,
		Total:   res.Total,
		Limit:   q.Limit,
		Offset:  q.Offset,
		HasMore: uint64(q.Offset+len(res.Hits)) < res.Total,
	}, nil
}

func buildQuery(q domain.SearchQuery) query.Query {
	var clauses []query.Query

	if text := strings.TrimSpace(q.Text); text != "" {
		clauses = append(clauses, bleve.NewMatchQuery(text))
	}
	clauses = appendTermFilter(clauses, fieldCaseType, stringsOf(q.CaseTypes))
	clauses = appendTermFilter(clauses, fieldUrgency, stringsOf(q.UrgencyLevels))
	clauses = appendTermFilter(clauses, fieldClientNames, q.ClientNames)
	clauses = appendTermFilter(clauses, fieldTags, q.Tags)
	clauses = appendTermFilter(clauses, fieldStatus, stringsOf(q.Statuses))

	if !q.CreatedFrom.IsZero() || !q.CreatedTo.IsZero() {
		inclusive := true
		dr := bleve.NewDateRangeInclusiveQuery(q.CreatedFrom, q.CreatedTo, &inclusive, &inclusive)
		dr.SetField(fieldCreatedAt)
		clauses = append(clauses, dr)
	}

	if len(clauses) == 0 {
		return bleve.NewMatchAllQuery()
	}
	return bleve.NewConjunctionQuery(clauses...)
}

// Values within one filter are OR-ed; filters are AND-ed by the caller.
func appendTermFilter(clauses []query.Query, field string, values []string) []query.Query {
	var terms []query.Query
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		terms = append(terms, tq)
	}
	if len(terms) == 0 {
		return clauses
	}
	return append(clauses, bleve.NewDisjunctionQuery(terms...))
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

func (i *Index) Aggregate(ctx context.Context) (domain.Statistics, error) {
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), 0, 0, false)
	req.AddFacet(fieldCaseType, bleve.NewFacetRequest(fieldCaseType, facetAllSize))
	req.AddFacet(fieldUrgency, bleve.NewFacetRequest(fieldUrgency, facetAllSize))
	req.AddFacet(fieldStatus, bleve.NewFacetRequest(fieldStatus, facetAllSize))
	req.AddFacet(fieldClientNames, bleve.NewFacetRequest(fieldClientNames, topTermsSize))
	req.AddFacet(fieldTags, bleve.NewFacetRequest(fieldTags, topTermsSize))

	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("aggregate index: %w", err)
	}

	stats := domain.Statistics{
		TotalDocuments: res.Total,
		ByCaseType:     map[string]int{},
		ByUrgency:      map[string]int{},
		ByStatus:       map[string]int{},
		TopClients:     []domain.TermCount{},
		TopTags:        []domain.TermCount{},
	}
	for _, tc := range facetTerms(res, fieldCaseType) {
		stats.ByCaseType[tc.Term] = tc.Count
	}
	// Every urgency level is reported so dashboards can show empty buckets.
	for _, level := range domain.UrgencyLevels() {
		stats.ByUrgency[string(level)] = 0
	}
	for _, tc := range facetTerms(res, fieldUrgency) {
		stats.ByUrgency[tc.Term] = tc.Count
	}
	for _, tc := range facetTerms(res, fieldStatus) {
		stats.ByStatus[tc.Term] = tc.Count
	}
	stats.TopClients = append(stats.TopClients, facetTerms(res, fieldClientNames)...)
	stats.TopTags = append(stats.TopTags, facetTerms(res, fieldTags)...)

	stats.CriticalCount = stats.ByUrgency[string(domain.UrgencyCritical)]
	stats.HighPriorityCount = stats.ByUrgency[string(domain.UrgencyHigh)] + stats.CriticalCount
	return stats, nil
}

// facetTerms returns a facet's terms by count descending, then term.
func facetTerms(res *bleve.SearchResult, name string) []domain.TermCount {
	facet, ok := res.Facets[name]
	if !ok || facet == nil {
		return nil
	}
	out := make([]domain.TermCount, 0, len(facet.Terms))
	for _, t := range facet.Terms {
		out = append(out, domain.TermCount{Term: t.Term, Count: t.Count})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Term < out[b].Term
	})
	return out
}
