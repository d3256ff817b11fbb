package classification

import (
	"strings"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

// ClientExtractor picks candidate client names out of PERSON and ORG entities.
type ClientExtractor struct {
	lexicon  *Lexicon
	minChars int
}

func NewClientExtractor(lexicon *Lexicon, params Params) *ClientExtractor {
	if lexicon == nil {
		panic("classification: nil lexicon")
	}
	return &ClientExtractor{lexicon: lexicon, minChars: params.normalize().MinClientChars}
}

func (e *ClientExtractor) Extract(entities domain.EntityMap) []string {
	out := newOrderedSet()
	candidates := append(append([]string(nil), entities[domain.EntityPerson]...), entities[domain.EntityOrg]...)
	for _, candidate := range candidates {
		if !e.Accept(candidate) {
			continue
		}
		out.add(strings.TrimSpace(candidate))
	}
	return out.values()
}

// Accept reports whether a name may be a client rather than a generic role.
func (e *ClientExtractor) Accept(name string) bool {
	trimmed := strings.TrimSpace(name)
	if e.lexicon.IsClientStopword(strings.ToLower(trimmed)) {
		return false
	}
	return nonSpaceLength(trimmed) >= e.minChars
}
