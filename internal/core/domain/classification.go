package domain

import (
	"fmt"
	"strings"
)

// CaseType is the legal practice area assigned to a document.
type CaseType string

const (
	CaseTypeCriminal             CaseType = "criminal"
	CaseTypeCivil                CaseType = "civil"
	CaseTypeCorporate            CaseType = "corporate"
	CaseTypeFamily               CaseType = "family"
	CaseTypeImmigration          CaseType = "immigration"
	CaseTypeEmployment           CaseType = "employment"
	CaseTypeRealEstate           CaseType = "real_estate"
	CaseTypeTax                  CaseType = "tax"
	CaseTypeBankruptcy           CaseType = "bankruptcy"
	CaseTypeIntellectualProperty CaseType = "intellectual_property"
	CaseTypeContract             CaseType = "contract"
	CaseTypeLitigation           CaseType = "litigation"
	CaseTypeRegulatory           CaseType = "regulatory"
	CaseTypeCompliance           CaseType = "compliance"
	CaseTypeMergersAcquisitions  CaseType = "mergers_acquisitions"
	CaseTypeOther                CaseType = "other"
)

var caseTypes = []CaseType{
	CaseTypeCriminal,
	CaseTypeCivil,
	CaseTypeCorporate,
	CaseTypeFamily,
	CaseTypeImmigration,
	CaseTypeEmployment,
	CaseTypeRealEstate,
	CaseTypeTax,
	CaseTypeBankruptcy,
	CaseTypeIntellectualProperty,
	CaseTypeContract,
	CaseTypeLitigation,
	CaseTypeRegulatory,
	CaseTypeCompliance,
	CaseTypeMergersAcquisitions,
	CaseTypeOther,
}

// CaseTypes returns every case type in canonical order. Scoring ties resolve
// to the earliest entry.
func CaseTypes() []CaseType {
	out := make([]CaseType, len(caseTypes))
	copy(out, caseTypes)
	return out
}

func ParseCaseType(raw string) (CaseType, bool) {
	normalized := CaseType(strings.ToLower(strings.TrimSpace(raw)))
	for _, ct := range caseTypes {
		if ct == normalized {
			return ct, true
		}
	}
	return "", false
}

// UrgencyLevel is ordered low < medium < high < critical.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

var urgencyLevels = []UrgencyLevel{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical}

func UrgencyLevels() []UrgencyLevel {
	out := make([]UrgencyLevel, len(urgencyLevels))
	copy(out, urgencyLevels)
	return out
}

// Rank orders urgency levels; unknown values rank below low.
func (u UrgencyLevel) Rank() int {
	for i, level := range urgencyLevels {
		if level == u {
			return i
		}
	}
	return -1
}

func ParseUrgencyLevel(raw string) (UrgencyLevel, bool) {
	normalized := UrgencyLevel(strings.ToLower(strings.TrimSpace(raw)))
	if normalized.Rank() < 0 {
		return "", false
	}
	return normalized, true
}

type EntityType string

const (
	EntityPerson   EntityType = "PERSON"
	EntityOrg      EntityType = "ORG"
	EntityMoney    EntityType = "MONEY"
	EntityDate     EntityType = "DATE"
	EntityLocation EntityType = "LOCATION"
	EntityLaw      EntityType = "LAW"
	EntityEvent    EntityType = "EVENT"
	EntityProduct  EntityType = "PRODUCT"
)

var entityTypes = []EntityType{
	EntityPerson, EntityOrg, EntityMoney, EntityDate, EntityLocation, EntityLaw, EntityEvent, EntityProduct,
}

func EntityTypes() []EntityType {
	out := make([]EntityType, len(entityTypes))
	copy(out, entityTypes)
	return out
}

// NamedEntity is a labeled span of the source text. Start and End are byte
// offsets; End is exclusive.
type NamedEntity struct {
	Text       string     `json:"text"`
	Type       EntityType `json:"type"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Confidence float64    `json:"confidence"`
}

// EntityMap groups unique entity texts per type in first-seen order.
type EntityMap map[EntityType][]string

// RawEntity is an entity as reported by an NLP backend, before normalization.
type RawEntity struct {
	Text       string
	Label      string
	Start      int
	End        int
	Confidence float64
}

// ParsedText is the output of one NLP pass over a document.
type ParsedText struct {
	Entities   []RawEntity
	Sentences  []string
	NounChunks []string
}

type ClassificationHints struct {
	CaseType   string `json:"case_type,omitempty"`
	Urgency    string `json:"urgency,omitempty"`
	ClientName string `json:"client_name,omitempty"`
}

func (h ClassificationHints) Empty() bool {
	return strings.TrimSpace(h.CaseType) == "" &&
		strings.TrimSpace(h.Urgency) == "" &&
		strings.TrimSpace(h.ClientName) == ""
}

// Normalize trims the hints and canonicalizes case type and urgency. Unknown
// values are rejected with ErrInvalidInput.
func (h ClassificationHints) Normalize() (ClassificationHints, error) {
	out := ClassificationHints{ClientName: strings.TrimSpace(h.ClientName)}
	if raw := strings.TrimSpace(h.CaseType); raw != "" {
		ct, ok := ParseCaseType(raw)
		if !ok {
			return ClassificationHints{}, WrapError(ErrInvalidInput, "case type hint", fmt.Errorf("unknown case type %q", raw))
		}
		out.CaseType = string(ct)
	}
	if raw := strings.TrimSpace(h.Urgency); raw != "" {
		level, ok := ParseUrgencyLevel(raw)
		if !ok {
			return ClassificationHints{}, WrapError(ErrInvalidInput, "urgency hint", fmt.Errorf("unknown urgency %q", raw))
		}
		out.Urgency = string(level)
	}
	return out, nil
}

type ClassificationInput struct {
	Text  string
	Hints ClassificationHints
}

type SummaryMetrics struct {
	OriginalLength   int     `json:"original_length"`
	SummaryLength    int     `json:"summary_length"`
	CompressionRatio float64 `json:"compression_ratio"`
}

// ClassificationResult is produced once per classification call and never
// mutated afterwards.
type ClassificationResult struct {
	CaseType           CaseType       `json:"case_type"`
	CaseTypeConfidence float64        `json:"case_type_confidence"`
	Urgency            UrgencyLevel   `json:"urgency"`
	UrgencyConfidence  float64        `json:"urgency_confidence"`
	Entities           []NamedEntity  `json:"entities"`
	EntityMap          EntityMap      `json:"entity_map"`
	ClientNames        []string       `json:"client_names"`
	Summary            string         `json:"summary"`
	SummaryMetrics     SummaryMetrics `json:"summary_metrics"`
	Tags               []string       `json:"tags"`

	// Degraded lists sub-components that fell back to their defaults.
	Degraded     []string `json:"degraded,omitempty"`
	HintsApplied []string `json:"hints_applied,omitempty"`
}

// PrimaryClient is the first candidate client name, if any.
func (r ClassificationResult) PrimaryClient() string {
	if len(r.ClientNames) == 0 {
		return ""
	}
	return r.ClientNames[0]
}
