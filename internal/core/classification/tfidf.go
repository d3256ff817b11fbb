package classification

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"
)

var errEmptyVocabulary = errors.New("empty vocabulary: sentences contain only stop words")

// tokenizeTerms lowercases and splits on non-word runes, keeping tokens of at
// least two word characters.
func tokenizeTerms(s string) []string {
	var (
		out []string
		b   strings.Builder
	)
	flush := func() {
		if b.Len() > 0 {
			token := b.String()
			if len([]rune(token)) >= 2 {
				out = append(out, token)
			}
			b.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return out
}

// sentenceWeights scores each sentence as the sum of its L2-normalized
// TF-IDF vector, treating every sentence as a document. Smoothed IDF:
// ln((1+n)/(1+df)) + 1.
func sentenceWeights(sentences []string, isStopword func(string) bool, maxVocabulary int) ([]float64, error) {
	termCounts := make([]map[string]int, len(sentences))
	corpusFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for i, sentence := range sentences {
		counts := make(map[string]int)
		for _, token := range tokenizeTerms(sentence) {
			if isStopword(token) {
				continue
			}
			counts[token]++
		}
		for term, n := range counts {
			corpusFreq[term] += n
			docFreq[term]++
		}
		termCounts[i] = counts
	}
	if len(corpusFreq) == 0 {
		return nil, errEmptyVocabulary
	}

	vocabulary := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		vocabulary = append(vocabulary, term)
	}
	sort.Slice(vocabulary, func(i, j int) bool {
		if corpusFreq[vocabulary[i]] != corpusFreq[vocabulary[j]] {
			return corpusFreq[vocabulary[i]] > corpusFreq[vocabulary[j]]
		}
		return vocabulary[i] < vocabulary[j]
	})
	if maxVocabulary > 0 && len(vocabulary) > maxVocabulary {
		vocabulary = vocabulary[:maxVocabulary]
	}

	n := float64(len(sentences))
	idf := make(map[string]float64, len(vocabulary))
	for _, term := range vocabulary {
		idf[term] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	weights := make([]float64, len(sentences))
	for i, counts := range termCounts {
		var sum, sumSquares float64
		for term, tf := range counts {
			w, ok := idf[term]
			if !ok {
				continue
			}
			v := float64(tf) * w
			sum += v
			sumSquares += v * v
		}
		if sumSquares > 0 {
			weights[i] = sum / math.Sqrt(sumSquares)
		}
	}
	return weights, nil
}
