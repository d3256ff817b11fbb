package classification

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

// LexiconSpec is the plain-data form of a lexicon, as written in YAML.
type LexiconSpec struct {
	CaseTypes      map[string][]string `yaml:"case_types"`
	Urgency        map[string][]string `yaml:"urgency"`
	ClientStoplist []string            `yaml:"client_stoplist"`
	GenericTags    []string            `yaml:"generic_tags"`
	Stopwords      []string            `yaml:"stopwords"`
}

type CaseTypeKeywords struct {
	CaseType domain.CaseType
	Keywords []string
}

type UrgencyKeywords struct {
	Level    domain.UrgencyLevel
	Keywords []string
}

// Lexicon is the read-only keyword and stoplist data shared by all
// classifiers. It is built once and safe for concurrent reads.
type Lexicon struct {
	caseTypes      []CaseTypeKeywords
	urgency        []UrgencyKeywords
	clientStoplist stringSet
	genericTags    stringSet
	stopwords      stringSet
}

// urgencyEvaluationOrder puts the most urgent level first so it wins ties.
var urgencyEvaluationOrder = []domain.UrgencyLevel{
	domain.UrgencyCritical,
	domain.UrgencyHigh,
	domain.UrgencyMedium,
	domain.UrgencyLow,
}

func NewLexicon(spec LexiconSpec) (*Lexicon, error) {
	for key := range spec.CaseTypes {
		if _, ok := domain.ParseCaseType(key); !ok {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build lexicon", fmt.Errorf("unknown case type %q", key))
		}
	}
	for key := range spec.Urgency {
		if _, ok := domain.ParseUrgencyLevel(key); !ok {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build lexicon", fmt.Errorf("unknown urgency level %q", key))
		}
	}

	lex := &Lexicon{
		clientStoplist: newStringSet(spec.ClientStoplist),
		genericTags:    newStringSet(spec.GenericTags),
		stopwords:      newStringSet(spec.Stopwords),
	}

	lowered := lowerKeys(spec.CaseTypes)
	for _, ct := range domain.CaseTypes() {
		keywords := normalizeKeywords(lowered[string(ct)])
		if len(keywords) == 0 {
			continue
		}
		lex.caseTypes = append(lex.caseTypes, CaseTypeKeywords{CaseType: ct, Keywords: keywords})
	}

	lowered = lowerKeys(spec.Urgency)
	for _, level := range urgencyEvaluationOrder {
		keywords := normalizeKeywords(lowered[string(level)])
		if len(keywords) == 0 {
			continue
		}
		lex.urgency = append(lex.urgency, UrgencyKeywords{Level: level, Keywords: keywords})
	}

	return lex, nil
}

// MustNewLexicon panics on an invalid spec. Intended for built-in data.
func MustNewLexicon(spec LexiconSpec) *Lexicon {
	lex, err := NewLexicon(spec)
	if err != nil {
		panic(err)
	}
	return lex
}

// CaseTypes returns keyword lists in canonical case-type order.
func (l *Lexicon) CaseTypes() []CaseTypeKeywords {
	out := make([]CaseTypeKeywords, len(l.caseTypes))
	for i, entry := range l.caseTypes {
		out[i] = CaseTypeKeywords{CaseType: entry.CaseType, Keywords: append([]string(nil), entry.Keywords...)}
	}
	return out
}

// Urgency returns keyword lists from most to least urgent.
func (l *Lexicon) Urgency() []UrgencyKeywords {
	out := make([]UrgencyKeywords, len(l.urgency))
	for i, entry := range l.urgency {
		out[i] = UrgencyKeywords{Level: entry.Level, Keywords: append([]string(nil), entry.Keywords...)}
	}
	return out
}

func (l *Lexicon) IsClientStopword(lowered string) bool { return l.clientStoplist.has(lowered) }
func (l *Lexicon) IsGenericTag(lowered string) bool     { return l.genericTags.has(lowered) }
func (l *Lexicon) IsStopword(lowered string) bool       { return l.stopwords.has(lowered) }

// Spec converts the lexicon back to its plain-data form.
func (l *Lexicon) Spec() LexiconSpec {
	spec := LexiconSpec{
		CaseTypes:      make(map[string][]string, len(l.caseTypes)),
		Urgency:        make(map[string][]string, len(l.urgency)),
		ClientStoplist: l.clientStoplist.sorted(),
		GenericTags:    l.genericTags.sorted(),
		Stopwords:      l.stopwords.sorted(),
	}
	for _, entry := range l.caseTypes {
		spec.CaseTypes[string(entry.CaseType)] = append([]string(nil), entry.Keywords...)
	}
	for _, entry := range l.urgency {
		spec.Urgency[string(entry.Level)] = append([]string(nil), entry.Keywords...)
	}
	return spec
}

func lowerKeys(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		norm := strings.ToLower(strings.TrimSpace(k))
		out[norm] = append(out[norm], in[k]...)
	}
	return out
}

func normalizeKeywords(keywords []string) []string {
	set := newOrderedSet()
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		set.add(kw)
	}
	return set.items
}
