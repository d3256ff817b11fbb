package classification

import (
	"strings"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

// CaseTypeScore explains how one category scored.
type CaseTypeScore struct {
	CaseType domain.CaseType `json:"case_type"`
	Matches  int             `json:"matches"`
	Distinct int             `json:"distinct"`
	Score    float64         `json:"score"`
}

type CaseTypeClassifier struct {
	lexicon *Lexicon
	params  Params
}

func NewCaseTypeClassifier(lexicon *Lexicon, params Params) *CaseTypeClassifier {
	if lexicon == nil {
		panic("classification: nil lexicon")
	}
	return &CaseTypeClassifier{lexicon: lexicon, params: params.normalize()}
}

// Scores returns nonzero category scores in canonical order.
func (c *CaseTypeClassifier) Scores(text string) []CaseTypeScore {
	length := textLength(text)
	if length == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	lengthPenalty := c.params.LengthPenaltyChars / float64(length)
	if lengthPenalty > 1 {
		lengthPenalty = 1
	}

	var scores []CaseTypeScore
	for _, entry := range c.lexicon.caseTypes {
		matches, distinct := 0, 0
		for _, kw := range entry.Keywords {
			if n := countOccurrences(lower, kw); n > 0 {
				matches += n
				distinct++
			}
		}
		if matches == 0 {
			continue
		}
		diversity := 1.0
		if !c.params.DisableDiversityBonus {
			diversity = float64(distinct) / float64(len(entry.Keywords))
		}
		scores = append(scores, CaseTypeScore{
			CaseType: entry.CaseType,
			Matches:  matches,
			Distinct: distinct,
			Score:    float64(matches) * diversity * lengthPenalty,
		})
	}
	return scores
}

// Classify returns the best-scoring case type and its share of the total
// score. No match yields (other, 0).
func (c *CaseTypeClassifier) Classify(text string) (domain.CaseType, float64) {
	scores := c.Scores(text)

	total := 0.0
	best := -1
	for i, s := range scores {
		total += s.Score
		if best < 0 || s.Score > scores[best].Score {
			best = i
		}
	}
	if best < 0 || total <= 0 {
		return domain.CaseTypeOther, 0
	}
	return scores[best].CaseType, clampConfidence(scores[best].Score / total)
}
