package classification

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

func TestCaseTypeClassifyEmptyTextFallsBackToOther(t *testing.T) {
	c := NewCaseTypeClassifier(DefaultLexicon(), DefaultParams())

	for _, text := range []string{"", "   \n\t"} {
		ct, conf := c.Classify(text)
		require.Equal(t, domain.CaseTypeOther, ct)
		require.Zero(t, conf)
	}
}

func TestCaseTypeClassifyCriminalText(t *testing.T) {
	c := NewCaseTypeClassifier(DefaultLexicon(), DefaultParams())

	ct, conf := c.Classify("The defendant was arrested on felony theft charges and held without bail.")
	require.Equal(t, domain.CaseTypeCriminal, ct)
	require.Greater(t, conf, 0.5)
	require.LessOrEqual(t, conf, 1.0)
}

func TestCaseTypeClassifyNoKeywordMatch(t *testing.T) {
	c := NewCaseTypeClassifier(DefaultLexicon(), DefaultParams())

	ct, conf := c.Classify("Lunch menu: soup and salad.")
	require.Equal(t, domain.CaseTypeOther, ct)
	require.Zero(t, conf)
}

func TestCaseTypeTieResolvesToCanonicalOrder(t *testing.T) {
	lex := MustNewLexicon(LexiconSpec{CaseTypes: map[string][]string{
		"tax":   {"alpha"},
		"civil": {"alpha"},
	}})
	c := NewCaseTypeClassifier(lex, DefaultParams())

	for i := 0; i < 50; i++ {
		ct, conf := c.Classify("alpha")
		require.Equal(t, domain.CaseTypeCivil, ct)
		require.InDelta(t, 0.5, conf, 1e-9)
	}
}

func TestCaseTypeScoresApplyDiversityAndLengthPenalty(t *testing.T) {
	lex := MustNewLexicon(LexiconSpec{CaseTypes: map[string][]string{
		"criminal": {"fraud", "theft"},
	}})
	text := "fraud fraud" + strings.Repeat(" ", 1989)
	require.Equal(t, 2000, len(text))

	scores := NewCaseTypeClassifier(lex, DefaultParams()).Scores(text)
	require.Len(t, scores, 1)
	require.Equal(t, 2, scores[0].Matches)
	require.Equal(t, 1, scores[0].Distinct)
	// 2 matches * (1/2 keywords) * (1000/2000 chars)
	require.InDelta(t, 0.5, scores[0].Score, 1e-9)

	params := DefaultParams()
	params.DisableDiversityBonus = true
	scores = NewCaseTypeClassifier(lex, params).Scores(text)
	require.InDelta(t, 1.0, scores[0].Score, 1e-9)
}

func TestCaseTypeCountsMultiWordPhrasesCaseInsensitively(t *testing.T) {
	lex := MustNewLexicon(LexiconSpec{CaseTypes: map[string][]string{
		"family": {"Child Support", "custody"},
	}})
	scores := NewCaseTypeClassifier(lex, DefaultParams()).Scores("CHILD SUPPORT arrears; child support order.")
	require.Len(t, scores, 1)
	require.Equal(t, 2, scores[0].Matches)
	require.Equal(t, 1, scores[0].Distinct)
}

func TestCaseTypeConfidenceWithinUnitInterval(t *testing.T) {
	c := NewCaseTypeClassifier(DefaultLexicon(), DefaultParams())
	texts := []string{
		"a",
		"tax audit by the irs regarding income tax deduction",
		"merger and acquisition due diligence for the company shareholder vote",
		"divorce custody alimony and child support hearing tomorrow",
		strings.Repeat("bankruptcy chapter 11 debtor creditor trustee ", 200),
	}
	for _, text := range texts {
		_, conf := c.Classify(text)
		require.GreaterOrEqual(t, conf, 0.0)
		require.LessOrEqual(t, conf, 1.0)
	}
}
