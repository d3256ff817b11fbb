package classification

// Params holds the hand-tuned scoring constants. Zero fields take their
// DefaultParams value, so Params{} behaves like DefaultParams().
type Params struct {
	// DisableDiversityBonus drops the distinct-keyword factor from case-type scores.
	DisableDiversityBonus bool
	// LengthPenaltyChars is the text length below which case-type scores shrink.
	LengthPenaltyChars float64
	// DateUrgencyBonus is added to the critical score when a near deadline is
	// mentioned. A negative value disables the bonus.
	DateUrgencyBonus float64

	SummarySentences int
	// MinSentenceChars skips shorter sentences when summarizing. A negative
	// value keeps every sentence.
	MinSentenceChars int
	MaxVocabulary    int

	MaxTags     int
	MaxTagWords int
	MinTagChars int

	MinClientChars int
}

func DefaultParams() Params {
	return Params{
		LengthPenaltyChars: 1000,
		DateUrgencyBonus:   2.0,
		SummarySentences:   3,
		MinSentenceChars:   20,
		MaxVocabulary:      100,
		MaxTags:            10,
		MaxTagWords:        3,
		MinTagChars:        4,
		MinClientChars:     3,
	}
}

func (p Params) normalize() Params {
	out := p
	def := DefaultParams()

	if out.LengthPenaltyChars <= 0 {
		out.LengthPenaltyChars = def.LengthPenaltyChars
	}
	switch {
	case out.DateUrgencyBonus == 0:
		out.DateUrgencyBonus = def.DateUrgencyBonus
	case out.DateUrgencyBonus < 0:
		out.DateUrgencyBonus = 0
	}
	if out.SummarySentences <= 0 {
		out.SummarySentences = def.SummarySentences
	}
	switch {
	case out.MinSentenceChars == 0:
		out.MinSentenceChars = def.MinSentenceChars
	case out.MinSentenceChars < 0:
		out.MinSentenceChars = 0
	}
	if out.MaxVocabulary <= 0 {
		out.MaxVocabulary = def.MaxVocabulary
	}
	if out.MaxTags <= 0 {
		out.MaxTags = def.MaxTags
	}
	if out.MaxTagWords <= 0 {
		out.MaxTagWords = def.MaxTagWords
	}
	if out.MinTagChars <= 0 {
		out.MinTagChars = def.MinTagChars
	}
	if out.MinClientChars <= 0 {
		out.MinClientChars = def.MinClientChars
	}
	return out
}
