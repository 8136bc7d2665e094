package counsel_gpt

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/turtacn/ClauseLens/internal/domain/comparison"
	"github.com/turtacn/ClauseLens/internal/domain/contract"
)

// HeuristicAnalyzer is the offline analysis backend: it derives the triple
// from lexical comparison alone, with no network dependency.  Output is
// deterministic for a given input pair, which also makes it the analyzer of
// choice in tests and the CLI.
type HeuristicAnalyzer struct {
	scorer *comparison.SimilarityScorer
}

// NewHeuristicAnalyzer returns a HeuristicAnalyzer.
func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{scorer: comparison.NewSimilarityScorer()}
}

// Analyze produces a deterministic triple for the pair.  It never fails.
func (h *HeuristicAnalyzer) Analyze(_ context.Context, clauseType contract.ClauseType, clientText, vendorText string) (*Analysis, error) {
	if strings.TrimSpace(vendorText) == "" {
		return &Analysis{
			Summary: fmt.Sprintf("The vendor terms do not address %s; the client requirement has no counterpart.", clauseType),
			Risk:    "HIGH - the client position is entirely unprotected on this subject.",
			Recommendation: fmt.Sprintf(
				"Request that the vendor add %s terms mirroring the client clause before signature.", clauseType),
		}, nil
	}

	score := h.scorer.Score(clientText, vendorText)
	figures := describeFigureDivergence(clientText, vendorText)

	switch {
	case score >= comparison.AlignedThreshold:
		return &Analysis{
			Summary: fmt.Sprintf("The vendor %s clause materially mirrors the client clause.", clauseType),
			Risk:    "LOW - wording is closely aligned with the client position.",
			Recommendation: "No substantive change needed; confirm the executed version matches the client template.",
		}, nil
	case score >= comparison.PartialThreshold:
		summary := fmt.Sprintf("The vendor %s clause follows the client clause in structure but differs in detail.", clauseType)
		if figures != "" {
			summary += " " + figures
		}
		return &Analysis{
			Summary:        summary,
			Risk:           "MEDIUM - there is a concern that the differing terms shift obligations away from the client position.",
			Recommendation: fmt.Sprintf("Negotiate the %s clause back to the client figures and wording before agreement.", clauseType),
		}, nil
	default:
		summary := fmt.Sprintf("The vendor %s clause diverges substantially from the client clause.", clauseType)
		if figures != "" {
			summary += " " + figures
		}
		return &Analysis{
			Summary:        summary,
			Risk:           "HIGH - the vendor position shares little with the client requirement.",
			Recommendation: fmt.Sprintf("Replace the vendor %s clause with the client standard wording.", clauseType),
		}, nil
	}
}

// describeFigureDivergence names numeric terms unique to each side, the most
// common concrete difference between otherwise similar clauses.
func describeFigureDivergence(clientText, vendorText string) string {
	clientNums := numericTokens(clientText)
	vendorNums := numericTokens(vendorText)

	clientOnly := subtract(clientNums, vendorNums)
	vendorOnly := subtract(vendorNums, clientNums)
	if len(clientOnly) == 0 || len(vendorOnly) == 0 {
		return ""
	}
	return fmt.Sprintf("The client states %s where the vendor states %s.",
		strings.Join(clientOnly, ", "), strings.Join(vendorOnly, ", "))
}

func numericTokens(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var nums []string
	for _, f := range fields {
		digits := true
		for _, r := range f {
			if !unicode.IsDigit(r) {
				digits = false
				break
			}
		}
		if digits && f != "" {
			nums = append(nums, f)
		}
	}
	return nums
}

// subtract returns members of a absent from b, first occurrence order,
// capped at three.
func subtract(a, b []string) []string {
	present := make(map[string]struct{}, len(b))
	for _, t := range b {
		present[t] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, t := range a {
		if _, ok := present[t]; ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == 3 {
			break
		}
	}
	return out
}
