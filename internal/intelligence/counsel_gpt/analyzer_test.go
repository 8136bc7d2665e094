package counsel_gpt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	counselgpt "github.com/turtacn/ClauseLens/internal/intelligence/counsel_gpt"
)

func TestValidRisk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		risk string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"HIGH - exposure is unbounded", true},
		{"MEDIUM - notice period differs", true},
		{"LOW - cosmetic differences only", true},
		{"high - lower case marker", true},
		{"Low", true},
		{"SEVERE - wrong vocabulary", false},
		{"risk: HIGH", false},
		{"3/10", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, counselgpt.ValidRisk(tt.risk), "risk %q", tt.risk)
	}
}

func TestRiskLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "HIGH", counselgpt.RiskLevel("HIGH - unbounded liability"))
	assert.Equal(t, "MEDIUM", counselgpt.RiskLevel("medium concern"))
	assert.Equal(t, "LOW", counselgpt.RiskLevel("  LOW"))
	assert.Empty(t, counselgpt.RiskLevel(""))
	assert.Empty(t, counselgpt.RiskLevel("no marker here"))
}

func TestFallbackAnalysis(t *testing.T) {
	t.Parallel()

	fb := counselgpt.FallbackAnalysis()
	assert.Equal(t, "Unable to generate summary.", fb.Summary)
	assert.Equal(t, "UNKNOWN", fb.Risk)
	assert.Equal(t, "Unable to generate recommendation.", fb.Recommendation)
}
