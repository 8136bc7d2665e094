package comparison

import (
	"fmt"
	"strings"

	"github.com/turtacn/ClauseLens/internal/domain/contract"
)

// Similarity thresholds for the compliance verdict.  Both bounds are
// inclusive on the upper band: a score of exactly 0.85 is Aligned and
// exactly 0.65 is Partial.
const (
	AlignedThreshold = 0.85
	PartialThreshold = 0.65
)

// highRiskSignals escalate a Partial result to high risk when present in the
// analysis text; mediumRiskSignals escalate to medium.  Matching is
// case-insensitive substring search, high signals checked first.
var (
	highRiskSignals   = []string{"critical", "significant", "major", "severe"}
	mediumRiskSignals = []string{"risk", "concern", "issue"}
)

// StatusResolver derives the compliance status, risk level and suggested fix
// for a match candidate.  It is stateless.
type StatusResolver struct{}

// NewStatusResolver returns a StatusResolver.
func NewStatusResolver() *StatusResolver {
	return &StatusResolver{}
}

// ResolveStatus maps a candidate to its compliance status.
func (r *StatusResolver) ResolveStatus(c MatchCandidate) Status {
	if !c.Matched() {
		return StatusMissing
	}
	switch {
	case c.Score >= AlignedThreshold:
		return StatusAligned
	case c.Score >= PartialThreshold:
		return StatusPartial
	default:
		return StatusNonCompliant
	}
}

// ResolveRisk maps a status to its risk level.  Non-Compliant and Missing
// are always high.  Partial defaults to low and is escalated by severity
// language in the analysis text.  Aligned is never escalated.
func (r *StatusResolver) ResolveRisk(status Status, analysisText string) Risk {
	switch status {
	case StatusNonCompliant, StatusMissing:
		return RiskHigh
	case StatusAligned:
		return RiskLow
	}

	text := strings.ToLower(analysisText)
	for _, kw := range highRiskSignals {
		if strings.Contains(text, kw) {
			return RiskHigh
		}
	}
	for _, kw := range mediumRiskSignals {
		if strings.Contains(text, kw) {
			return RiskMedium
		}
	}
	return RiskLow
}

// SuggestedFix returns the remediation hint for a result, or "" for Aligned
// clauses which need none.
func (r *StatusResolver) SuggestedFix(status Status, clauseType contract.ClauseType, title string) string {
	switch status {
	case StatusMissing:
		return fmt.Sprintf("Add %s clause for '%s'", clauseType, title)
	case StatusPartial, StatusNonCompliant:
		return fmt.Sprintf("Review and align %s clause '%s' with client requirements", clauseType, title)
	}
	return ""
}
