package comparison

import "github.com/turtacn/ClauseLens/internal/domain/contract"

// DocumentMatcher pairs each client clause with the most similar vendor
// clause of the same type.  Matching never crosses clause types: a client
// clause whose type is absent from the vendor document yields a candidate
// without a vendor counterpart.
type DocumentMatcher struct {
	scorer *SimilarityScorer
}

// NewDocumentMatcher returns a matcher using the given scorer, or a fresh
// one when nil.
func NewDocumentMatcher(scorer *SimilarityScorer) *DocumentMatcher {
	if scorer == nil {
		scorer = NewSimilarityScorer()
	}
	return &DocumentMatcher{scorer: scorer}
}

// Match produces one candidate per client clause, in client document order.
// Among same-type vendor clauses the highest score wins; on a tie the vendor
// clause appearing earliest in its document wins.
func (m *DocumentMatcher) Match(client, vendor []contract.Clause) []MatchCandidate {
	byType := make(map[contract.ClauseType][]contract.Clause)
	for _, vc := range vendor {
		byType[vc.Type] = append(byType[vc.Type], vc)
	}

	candidates := make([]MatchCandidate, 0, len(client))
	for _, cc := range client {
		pool, ok := byType[cc.Type]
		if !ok {
			candidates = append(candidates, MatchCandidate{Client: cc})
			continue
		}
		best := 0
		bestScore := m.scorer.Score(cc.Content, pool[0].Content)
		for i := 1; i < len(pool); i++ {
			if score := m.scorer.Score(cc.Content, pool[i].Content); score > bestScore {
				best, bestScore = i, score
			}
		}
		matched := pool[best]
		candidates = append(candidates, MatchCandidate{
			Client: cc,
			Vendor: &matched,
			Score:  bestScore,
		})
	}
	return candidates
}
