package prose

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/kirillkom/docuscan/internal/core/classification"
	"github.com/kirillkom/docuscan/internal/core/domain"
)

const (
	modelEntityConfidence   = 0.75
	patternEntityConfidence = 0.9
)

// entityPatterns cover the legal entity types the prose model does not tag.
var entityPatterns = []struct {
	label   string
	pattern *regexp.Regexp
}{
	{"MONEY", regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:million|billion|thousand))?|\b\d[\d,]*(?:\.\d+)?\s(?:dollars|USD)\b`)},
	{"DATE", regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b`)},
	{"LAW", regexp.MustCompile(`\b\d+\s+U\.S\.C\.\s+§+\s*\d+[\w.()-]*|\b(?:Section|§)\s*\d+[\w.()-]*|\b(?:Title|Chapter)\s+\d+\s+of\s+the\s+[A-Z][\w ]+?(?:Act|Code)\b`)},
	{"ORG", regexp.MustCompile(`\b(?:[A-Z][\w&'-]*\s+){0,3}[A-Z][\w&'-]*,?\s+(?:Inc|LLC|L\.L\.C|Corp|Corporation|Company|Co|Ltd|LLP|P\.C)\b\.?`)},
}

var (
	nounTags     = map[string]bool{"NN": true, "NNS": true, "NNP": true, "NNPS": true}
	modifierTags = map[string]bool{"JJ": true, "JJR": true, "JJS": true, "CD": true}
)

// Analyzer runs the prose pipeline (segmentation, POS tagging, NER) and
// supplements it with pattern-based entities.
type Analyzer struct {
	patterns bool
}

type Option func(*Analyzer)

// WithoutPatterns disables the regex entity supplements.
func WithoutPatterns() Option {
	return func(a *Analyzer) { a.patterns = false }
}

func New(opts ...Option) *Analyzer {
	a := &Analyzer{patterns: true}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Analyze(ctx context.Context, text string) (domain.ParsedText, error) {
	if err := ctx.Err(); err != nil {
		return domain.ParsedText{}, err
	}
	doc, err := prose.NewDocument(text)
	if err != nil {
		return domain.ParsedText{}, fmt.Errorf("prose parse: %w", err)
	}

	parsed := domain.ParsedText{
		Entities:   a.entities(text, doc.Entities()),
		Sentences:  make([]string, 0, len(doc.Sentences())),
		NounChunks: nounChunks(doc.Tokens()),
	}
	for _, sent := range doc.Sentences() {
		if s := strings.TrimSpace(sent.Text); s != "" {
			parsed.Sentences = append(parsed.Sentences, s)
		}
	}
	return parsed, nil
}

func (a *Analyzer) entities(text string, modelEntities []prose.Entity) []domain.RawEntity {
	out := make([]domain.RawEntity, 0, len(modelEntities))
	cursor := 0
	for _, ent := range modelEntities {
		start, end := classification.LocateSpan(text, ent.Text, cursor)
		if start < 0 {
			continue
		}
		cursor = end
		out = append(out, domain.RawEntity{
			Text:       text[start:end],
			Label:      ent.Label,
			Start:      start,
			End:        end,
			Confidence: modelEntityConfidence,
		})
	}
	if !a.patterns {
		return out
	}
	for _, p := range entityPatterns {
		for _, loc := range p.pattern.FindAllStringIndex(text, -1) {
			out = append(out, domain.RawEntity{
				Text:       text[loc[0]:loc[1]],
				Label:      p.label,
				Start:      loc[0],
				End:        loc[1],
				Confidence: patternEntityConfidence,
			})
		}
	}
	return out
}

// nounChunks groups runs of adjectives/numbers and nouns that end in a noun.
func nounChunks(tokens []prose.Token) []string {
	var (
		chunks  []string
		current []prose.Token
	)
	flush := func() {
		for len(current) > 0 && !nounTags[current[len(current)-1].Tag] {
			current = current[:len(current)-1]
		}
		if len(current) > 0 {
			words := make([]string, len(current))
			for i, tok := range current {
				words[i] = tok.Text
			}
			chunks = append(chunks, strings.Join(words, " "))
		}
		current = current[:0]
	}
	for _, tok := range tokens {
		if nounTags[tok.Tag] || modifierTags[tok.Tag] {
			current = append(current, tok)
			continue
		}
		flush()
	}
	flush()
	return chunks
}
