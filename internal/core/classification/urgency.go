package classification

import (
	"regexp"
	"strings"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

var nearDeadlinePattern = regexp.MustCompile(`(?i)(?:due|expires?|deadline|hearing)\s+(?:today|tomorrow|this\s+week)`)

const neutralUrgencyConfidence = 0.5

type UrgencyScore struct {
	Level     domain.UrgencyLevel `json:"level"`
	Score     float64             `json:"score"`
	DateBonus bool                `json:"date_bonus,omitempty"`
}

type UrgencyClassifier struct {
	lexicon *Lexicon
	params  Params
}

func NewUrgencyClassifier(lexicon *Lexicon, params Params) *UrgencyClassifier {
	if lexicon == nil {
		panic("classification: nil lexicon")
	}
	return &UrgencyClassifier{lexicon: lexicon, params: params.normalize()}
}

// Scores returns nonzero level scores, most urgent first.
func (c *UrgencyClassifier) Scores(text string) []UrgencyScore {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	bonus := c.params.DateUrgencyBonus > 0 && nearDeadlinePattern.MatchString(text)

	scores := make([]UrgencyScore, 0, len(urgencyEvaluationOrder))
	for _, level := range urgencyEvaluationOrder {
		score := 0.0
		for _, entry := range c.lexicon.urgency {
			if entry.Level != level {
				continue
			}
			for _, kw := range entry.Keywords {
				score += float64(countOccurrences(lower, kw))
			}
		}
		s := UrgencyScore{Level: level, Score: score}
		if bonus && level == domain.UrgencyCritical {
			s.Score += c.params.DateUrgencyBonus
			s.DateBonus = true
		}
		if s.Score > 0 {
			scores = append(scores, s)
		}
	}
	return scores
}

// Classify returns the best urgency level. No signal yields the neutral
// prior (medium, 0.5).
func (c *UrgencyClassifier) Classify(text string) (domain.UrgencyLevel, float64) {
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
		return domain.UrgencyMedium, neutralUrgencyConfidence
	}
	return scores[best].Level, clampConfidence(scores[best].Score / total)
}
