package classification

import (
	"strings"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

type TagExtractor struct {
	lexicon *Lexicon
	params  Params
}

func NewTagExtractor(lexicon *Lexicon, params Params) *TagExtractor {
	if lexicon == nil {
		panic("classification: nil lexicon")
	}
	return &TagExtractor{lexicon: lexicon, params: params.normalize()}
}

// Extract returns up to maxTags short lowercase tags: noun chunks first, then
// entity texts. maxTags <= 0 uses the configured default.
func (e *TagExtractor) Extract(parsed domain.ParsedText, maxTags int) []string {
	if maxTags <= 0 {
		maxTags = e.params.MaxTags
	}

	candidates := make([]string, 0, len(parsed.NounChunks)+len(parsed.Entities))
	for _, chunk := range parsed.NounChunks {
		tag := strings.ToLower(strings.TrimSpace(chunk))
		if textLength(tag) < e.params.MinTagChars || e.lexicon.IsStopword(tag) {
			continue
		}
		candidates = append(candidates, tag)
	}
	for _, ent := range parsed.Entities {
		tag := strings.ToLower(strings.TrimSpace(ent.Text))
		if textLength(tag) < e.params.MinTagChars {
			continue
		}
		candidates = append(candidates, tag)
	}

	out := newOrderedSet()
	for _, tag := range candidates {
		if len(out.items) >= maxTags {
			break
		}
		if e.lexicon.IsGenericTag(tag) {
			continue
		}
		if len(strings.Fields(tag)) > e.params.MaxTagWords {
			continue
		}
		out.add(tag)
	}
	return out.values()
}
