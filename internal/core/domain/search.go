package domain

import "time"

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// IndexRecord is the flat shape handed to the search index.
type IndexRecord struct {
	DocumentID         string         `json:"document_id"`
	Filename           string         `json:"filename"`
	Status             DocumentStatus `json:"status"`
	CaseType           CaseType       `json:"case_type"`
	CaseTypeConfidence float64        `json:"case_type_confidence"`
	Urgency            UrgencyLevel   `json:"urgency"`
	UrgencyConfidence  float64        `json:"urgency_confidence"`
	ClientName         string         `json:"client_name,omitempty"`
	ClientNames        []string       `json:"client_names"`
	Entities           []NamedEntity  `json:"entities"`
	Summary            string         `json:"summary"`
	Tags               []string       `json:"tags"`
	CreatedAt          time.Time      `json:"created_at"`
	ProcessedAt        time.Time      `json:"processed_at"`
}

// NewIndexRecord flattens a classified document.
func NewIndexRecord(doc *Document, result ClassificationResult) IndexRecord {
	record := IndexRecord{
		DocumentID:         doc.ID,
		Filename:           doc.Filename,
		Status:             doc.Status,
		CaseType:           result.CaseType,
		CaseTypeConfidence: result.CaseTypeConfidence,
		Urgency:            result.Urgency,
		UrgencyConfidence:  result.UrgencyConfidence,
		ClientName:         result.PrimaryClient(),
		ClientNames:        result.ClientNames,
		Entities:           result.Entities,
		Summary:            result.Summary,
		Tags:               result.Tags,
		CreatedAt:          doc.CreatedAt,
	}
	if doc.ProcessedAt != nil {
		record.ProcessedAt = *doc.ProcessedAt
	}
	return record
}

type SearchQuery struct {
	Text          string           `json:"text,omitempty"`
	CaseTypes     []CaseType       `json:"case_types,omitempty"`
	UrgencyLevels []UrgencyLevel   `json:"urgency_levels,omitempty"`
	ClientNames   []string         `json:"client_names,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	Statuses      []DocumentStatus `json:"statuses,omitempty"`
	CreatedFrom   time.Time        `json:"created_from,omitempty"`
	CreatedTo     time.Time        `json:"created_to,omitempty"`
	Limit         int              `json:"limit"`
	Offset        int              `json:"offset"`
}

// Normalize clamps paging to the supported window.
func (q SearchQuery) Normalize() SearchQuery {
	out := q
	if out.Limit <= 0 {
		out.Limit = DefaultSearchLimit
	}
	if out.Limit > MaxSearchLimit {
		out.Limit = MaxSearchLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}

type SearchResult struct {
	Records []IndexRecord `json:"records"`
	Total   uint64        `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
	HasMore bool          `json:"has_more"`
}

type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

type Statistics struct {
	TotalDocuments    uint64         `json:"total_documents"`
	ByCaseType        map[string]int `json:"by_case_type"`
	ByUrgency         map[string]int `json:"by_urgency"`
	ByStatus          map[string]int `json:"by_status"`
	TopClients        []TermCount    `json:"top_clients"`
	TopTags           []TermCount    `json:"top_tags"`
	HighPriorityCount int            `json:"high_priority_count"`
	CriticalCount     int            `json:"critical_count"`
}

// Export is a rendered download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
	Count       int
}
