package classification

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

// LoadLexiconYAML overlays a YAML document on base. Each category or list
// present in the document replaces the corresponding base entry.
func LoadLexiconYAML(r io.Reader, base LexiconSpec) (*Lexicon, error) {
	var override LexiconSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&override); err != nil && !errors.Is(err, io.EOF) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode lexicon yaml", err)
	}
	return NewLexicon(mergeSpec(base, override))
}

// LoadLexiconFile reads an override file. An empty path yields the built-in
// lexicon; a named file must exist.
func LoadLexiconFile(path string) (*Lexicon, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultLexicon(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "open lexicon file", err)
		}
		return nil, fmt.Errorf("open lexicon file: %w", err)
	}
	defer f.Close()

	return LoadLexiconYAML(f, DefaultLexiconSpec())
}

// MarshalLexiconYAML renders a lexicon in the format LoadLexiconYAML accepts.
func MarshalLexiconYAML(lex *Lexicon) ([]byte, error) {
	out, err := yaml.Marshal(lex.Spec())
	if err != nil {
		return nil, fmt.Errorf("marshal lexicon yaml: %w", err)
	}
	return out, nil
}

func mergeSpec(base, override LexiconSpec) LexiconSpec {
	out := LexiconSpec{
		CaseTypes:      make(map[string][]string, len(base.CaseTypes)),
		Urgency:        make(map[string][]string, len(base.Urgency)),
		ClientStoplist: base.ClientStoplist,
		GenericTags:    base.GenericTags,
		Stopwords:      base.Stopwords,
	}
	for k, v := range base.CaseTypes {
		out.CaseTypes[normalizeKey(k)] = v
	}
	for k, v := range override.CaseTypes {
		out.CaseTypes[normalizeKey(k)] = v
	}
	for k, v := range base.Urgency {
		out.Urgency[normalizeKey(k)] = v
	}
	for k, v := range override.Urgency {
		out.Urgency[normalizeKey(k)] = v
	}
	if override.ClientStoplist != nil {
		out.ClientStoplist = override.ClientStoplist
	}
	if override.GenericTags != nil {
		out.GenericTags = override.GenericTags
	}
	if override.Stopwords != nil {
		out.Stopwords = override.Stopwords
	}
	return out
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}
