package classification

import (
	"sort"
	"strings"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

// Summarizer builds extractive summaries by TF-IDF sentence weight.
type Summarizer struct {
	lexicon *Lexicon
	params  Params
}

func NewSummarizer(lexicon *Lexicon, params Params) *Summarizer {
	if lexicon == nil {
		panic("classification: nil lexicon")
	}
	return &Summarizer{lexicon: lexicon, params: params.normalize()}
}

// Summarize picks the n highest-weighted sentences and joins them in their
// original order. n <= 0 uses the configured default.
func (s *Summarizer) Summarize(sentences []string, n int) (string, error) {
	if n <= 0 {
		n = s.params.SummarySentences
	}

	kept := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if textLength(sentence) < s.params.MinSentenceChars {
			continue
		}
		kept = append(kept, sentence)
	}

	if len(kept) <= n {
		return strings.Join(kept, " "), nil
	}
	if len(kept) < 2 {
		return kept[0], nil
	}

	weights, err := sentenceWeights(kept, s.lexicon.IsStopword, s.params.MaxVocabulary)
	if err != nil {
		return "", err
	}

	order := make([]int, len(kept))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return weights[order[i]] > weights[order[j]] })
	top := order[:n]
	sort.Ints(top)

	selected := make([]string, len(top))
	for i, idx := range top {
		selected[i] = kept[idx]
	}
	return strings.Join(selected, " "), nil
}

// Fallback is the naive summary used when sentence parsing or scoring fails:
// the first n pieces of the text split on ". ".
func (s *Summarizer) Fallback(text string, n int) string {
	if n <= 0 {
		n = s.params.SummarySentences
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}
	pieces := strings.Split(text, ". ")
	if len(pieces) > n {
		pieces = pieces[:n]
	}
	return strings.Join(pieces, ". ") + "."
}

func NewSummaryMetrics(original, summary string) domain.SummaryMetrics {
	metrics := domain.SummaryMetrics{
		OriginalLength: textLength(original),
		SummaryLength:  textLength(summary),
	}
	if metrics.OriginalLength > 0 {
		metrics.CompressionRatio = float64(metrics.SummaryLength) / float64(metrics.OriginalLength)
	}
	return metrics
}
