package comparison

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// SimilarityScorer computes a lexical similarity in [0, 1] between two text
// blocks.  The two blocks form the entire corpus: term weights are TF-IDF
// with a smoothed IDF so that vocabulary shared by both blocks keeps positive
// weight.  The score is the ratio of summed minimum to summed maximum weight
// over the token union, which rewards shared vocabulary and penalizes tokens
// present on only one side.  The scorer is stateless and deterministic.
type SimilarityScorer struct{}

// NewSimilarityScorer returns a SimilarityScorer.
func NewSimilarityScorer() *SimilarityScorer {
	return &SimilarityScorer{}
}

// Score returns the similarity of a and b.  Identical blocks score 1.0;
// blocks sharing no token score 0.0, as do empty blocks.
func (s *SimilarityScorer) Score(a, b string) float64 {
	tfA := termFrequencies(tokenize(a))
	tfB := termFrequencies(tokenize(b))

	terms := make([]string, 0, len(tfA)+len(tfB))
	for t := range tfA {
		terms = append(terms, t)
	}
	for t := range tfB {
		if _, shared := tfA[t]; !shared {
			terms = append(terms, t)
		}
	}
	sort.Strings(terms)

	var num, den float64
	for _, t := range terms {
		df := 0.0
		if _, ok := tfA[t]; ok {
			df++
		}
		if _, ok := tfB[t]; ok {
			df++
		}
		idf := 1 + math.Log(2/df)
		wa := tfA[t] * idf
		wb := tfB[t] * idf
		num += math.Min(wa, wb)
		den += math.Max(wa, wb)
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// tokenize lowercases text and splits it on non-word runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// termFrequencies returns length-normalized term frequencies.
func termFrequencies(tokens []string) map[string]float64 {
	if len(tokens) == 0 {
		return nil
	}
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	n := float64(len(tokens))
	for t := range tf {
		tf[t] /= n
	}
	return tf
}
