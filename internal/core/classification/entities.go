package classification

import (
	"regexp"
	"strings"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

// entityLabels maps backend labels onto the closed entity type set.
var entityLabels = map[string]domain.EntityType{
	"PERSON":       domain.EntityPerson,
	"PER":          domain.EntityPerson,
	"ORG":          domain.EntityOrg,
	"ORGANIZATION": domain.EntityOrg,
	"MONEY":        domain.EntityMoney,
	"DATE":         domain.EntityDate,
	"GPE":          domain.EntityLocation,
	"LOC":          domain.EntityLocation,
	"LOCATION":     domain.EntityLocation,
	"FAC":          domain.EntityLocation,
	"LAW":          domain.EntityLaw,
	"EVENT":        domain.EntityEvent,
	"PRODUCT":      domain.EntityProduct,
}

// NormalizeEntityLabel reports the entity type for a backend label.
func NormalizeEntityLabel(label string) (domain.EntityType, bool) {
	t, ok := entityLabels[strings.ToUpper(strings.TrimSpace(label))]
	return t, ok
}

// ExtractEntities filters raw entities to the known types, trims them and
// drops duplicates per type in first-seen order. Entities without a valid
// source span are dropped. Map values have runs of whitespace collapsed so a
// name broken across lines dedupes with its single-line form.
func ExtractEntities(raw []domain.RawEntity) (domain.EntityMap, []domain.NamedEntity) {
	byType := make(domain.EntityMap)
	seen := make(map[domain.EntityType]*orderedSet)
	entities := make([]domain.NamedEntity, 0, len(raw))

	for _, ent := range raw {
		entityType, ok := NormalizeEntityLabel(ent.Label)
		if !ok {
			continue
		}
		if ent.Start < 0 || ent.End-ent.Start != len(ent.Text) {
			continue
		}
		text := strings.TrimSpace(ent.Text)
		if text == "" {
			continue
		}
		name := strings.Join(strings.Fields(text), " ")
		set, ok := seen[entityType]
		if !ok {
			set = newOrderedSet()
			seen[entityType] = set
		}
		if !set.add(name) {
			continue
		}
		byType[entityType] = append(byType[entityType], name)

		start := ent.Start + strings.Index(ent.Text, text)
		entities = append(entities, domain.NamedEntity{
			Text:       text,
			Type:       entityType,
			Start:      start,
			End:        start + len(text),
			Confidence: clampConfidence(ent.Confidence),
		})
	}
	return byType, entities
}

// LocateSpan finds span in text at or after cursor, then anywhere. Backends
// rebuild spans from tokens joined by single spaces, so when the exact
// string is absent the words are matched across any whitespace. Missing spans
// report (-1, -1).
func LocateSpan(text, span string, cursor int) (int, int) {
	span = strings.TrimSpace(span)
	if span == "" {
		return -1, -1
	}
	if cursor < 0 || cursor > len(text) {
		cursor = 0
	}
	if idx := strings.Index(text[cursor:], span); idx >= 0 {
		return cursor + idx, cursor + idx + len(span)
	}
	if idx := strings.Index(text, span); idx >= 0 {
		return idx, idx + len(span)
	}

	words := strings.Fields(span)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	pattern, err := regexp.Compile(strings.Join(words, `\s+`))
	if err != nil {
		return -1, -1
	}
	if loc := pattern.FindStringIndex(text[cursor:]); loc != nil {
		return cursor + loc[0], cursor + loc[1]
	}
	if loc := pattern.FindStringIndex(text); loc != nil {
		return loc[0], loc[1]
	}
	return -1, -1
}
