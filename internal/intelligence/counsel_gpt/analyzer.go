package counsel_gpt

import (
	"context"
	"strings"

	"github.com/turtacn/ClauseLens/internal/domain/contract"
)

// Analysis is the qualitative triple produced for one clause pair.  Risk is
// free text that must open with a HIGH, MEDIUM or LOW marker; the empty
// string means the collaborator offered no risk statement.
type Analysis struct {
	Summary        string `json:"summary"`
	Risk           string `json:"risk"`
	Recommendation string `json:"recommendation"`
}

// Analyzer produces a qualitative analysis of a client clause against its
// vendor counterpart.  Implementations make exactly one attempt per call;
// callers decide how to degrade on error.
type Analyzer interface {
	Analyze(ctx context.Context, clauseType contract.ClauseType, clientText, vendorText string) (*Analysis, error)
}

// Fallback strings substituted when no analysis can be produced for a pair.
const (
	FallbackSummary        = "Unable to generate summary."
	FallbackRisk           = "UNKNOWN"
	FallbackRecommendation = "Unable to generate recommendation."
)

// FallbackAnalysis returns the degraded triple used when the collaborator
// is unavailable or failed for a pair.
func FallbackAnalysis() *Analysis {
	return &Analysis{
		Summary:        FallbackSummary,
		Risk:           FallbackRisk,
		Recommendation: FallbackRecommendation,
	}
}

// riskMarkers are the accepted openings of a risk statement.
var riskMarkers = []string{"HIGH", "MEDIUM", "LOW"}

// ValidRisk reports whether s satisfies the risk statement contract: empty,
// or opening with one of the level markers (any case).
func ValidRisk(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	upper := strings.ToUpper(s)
	for _, m := range riskMarkers {
		if strings.HasPrefix(upper, m) {
			return true
		}
	}
	return false
}

// RiskLevel extracts the leading level marker of a risk statement, or ""
// when the statement is empty or malformed.
func RiskLevel(s string) string {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for _, m := range riskMarkers {
		if strings.HasPrefix(upper, m) {
			return m
		}
	}
	return ""
}
