package counsel_gpt_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClauseLens/internal/domain/contract"
	counselgpt "github.com/turtacn/ClauseLens/internal/intelligence/counsel_gpt"
)

func TestHeuristicAnalyzer_Analyze_AbsentVendorClause(t *testing.T) {
	t.Parallel()

	analysis, err := counselgpt.NewHeuristicAnalyzer().Analyze(context.Background(),
		contract.ClauseIntellectualProperty, "All work product vests in the client.", "")
	require.NoError(t, err)

	assert.Contains(t, analysis.Summary, "Intellectual Property")
	assert.True(t, strings.HasPrefix(analysis.Risk, "HIGH"))
	assert.Contains(t, analysis.Recommendation, "add Intellectual Property terms")
}

func TestHeuristicAnalyzer_Analyze_AlignedPair(t *testing.T) {
	t.Parallel()

	text := "Each party keeps the other's information confidential for five years."
	analysis, err := counselgpt.NewHeuristicAnalyzer().Analyze(context.Background(),
		contract.ClauseConfidentiality, text, text)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(analysis.Risk, "LOW"))
	assert.Contains(t, analysis.Summary, "mirrors")
}

func TestHeuristicAnalyzer_Analyze_PartialPairNamesFigures(t *testing.T) {
	t.Parallel()

	analysis, err := counselgpt.NewHeuristicAnalyzer().Analyze(context.Background(),
		contract.ClausePaymentTerms,
		"Payment due within 30 days of invoice date.",
		"Payment due within 45 days of invoice date.")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(analysis.Risk, "MEDIUM"), "risk was %q", analysis.Risk)
	assert.Contains(t, analysis.Summary, "client states 30")
	assert.Contains(t, analysis.Summary, "vendor states 45")
	assert.Contains(t, analysis.Recommendation, "Payment Terms")
}

func TestHeuristicAnalyzer_Analyze_DivergentPair(t *testing.T) {
	t.Parallel()

	analysis, err := counselgpt.NewHeuristicAnalyzer().Analyze(context.Background(),
		contract.ClauseDeliveryTerms,
		"Goods are delivered to the client site within fourteen days.",
		"Supplier ships ex works from its warehouse at buyer expense.")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(analysis.Risk, "HIGH"))
	assert.Contains(t, analysis.Summary, "diverges")
}

func TestHeuristicAnalyzer_Analyze_Deterministic(t *testing.T) {
	t.Parallel()

	h := counselgpt.NewHeuristicAnalyzer()
	first, err := h.Analyze(context.Background(), contract.ClausePaymentTerms,
		"Payment due in 30 days.", "Payment due in 60 days.")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := h.Analyze(context.Background(), contract.ClausePaymentTerms,
			"Payment due in 30 days.", "Payment due in 60 days.")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
