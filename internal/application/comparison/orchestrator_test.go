package comparison

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainComparison "github.com/turtacn/ClauseLens/internal/domain/comparison"
	"github.com/turtacn/ClauseLens/internal/domain/contract"
	"github.com/turtacn/ClauseLens/internal/intelligence/counsel_gpt"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

// stubAnalyzer is a concurrency-safe scripted Analyzer.
type stubAnalyzer struct {
	mu    sync.Mutex
	calls []contract.ClauseType
	fn    func(clauseType contract.ClauseType, clientText, vendorText string) (*counsel_gpt.Analysis, error)
}

func (s *stubAnalyzer) Analyze(_ context.Context, clauseType contract.ClauseType, clientText, vendorText string) (*counsel_gpt.Analysis, error) {
	s.mu.Lock()
	s.calls = append(s.calls, clauseType)
	s.mu.Unlock()
	if s.fn != nil {
		return s.fn(clauseType, clientText, vendorText)
	}
	return &counsel_gpt.Analysis{
		Summary:        "Clauses cover the same subject.",
		Risk:           "LOW overall.",
		Recommendation: "No action required.",
	}, nil
}

func (s *stubAnalyzer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// captureMetrics records every observation for assertion.
type captureMetrics struct {
	mu       sync.Mutex
	runs     []domainComparison.RunStatus
	clauses  map[string]int
	analyses map[string]int
	hits     int
	misses   int
}

func newCaptureMetrics() *captureMetrics {
	return &captureMetrics{
		clauses:  make(map[string]int),
		analyses: make(map[string]int),
	}
}

func (m *captureMetrics) ObserveRun(status domainComparison.RunStatus, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, status)
}

func (m *captureMetrics) AddClauses(side string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clauses[side] += count
}

func (m *captureMetrics) ObserveAnalysis(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses[outcome]++
}

func (m *captureMetrics) ObserveCacheLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func resultTitles(results []domainComparison.Result) []string {
	titles := make([]string, len(results))
	for i, r := range results {
		titles[i] = r.Title
	}
	return titles
}

func TestOrchestratorCompareIdenticalDocumentsAlign(t *testing.T) {
	t.Parallel()

	text := "1. Payment Terms\nPayment due within 30 days of invoice date.\n" +
		"2. Termination\nEither party may terminate with 60 days notice."
	analyzer := &stubAnalyzer{}
	engine := NewOrchestrator(analyzer, 0, nil, nil)

	results, err := engine.Compare(context.Background(), text, text)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []string{"Payment Terms", "Termination"}, resultTitles(results))
	for _, result := range results {
		assert.Equal(t, domainComparison.StatusAligned, result.Status)
		assert.Equal(t, domainComparison.RiskLow, result.Risk)
		assert.Empty(t, result.SuggestedFix)
		require.NotNil(t, result.Score)
		assert.InDelta(t, 1.0, *result.Score, 1e-9)
		assert.Equal(t, result.ClientText, result.VendorText)
		assert.Equal(t, "Clauses cover the same subject.", result.Summary)
		assert.Equal(t, "No action required.", result.Recommendation)
	}
	assert.Equal(t, 2, analyzer.callCount())
}

func TestOrchestratorCompareDivergentFiguresPartial(t *testing.T) {
	t.Parallel()

	clientText := "1. Payment Terms\nPayment due within 30 days of invoice date."
	vendorText := "1. Payment Terms\nPayment due within 45 days of invoice date."
	analyzer := &stubAnalyzer{fn: func(contract.ClauseType, string, string) (*counsel_gpt.Analysis, error) {
		return &counsel_gpt.Analysis{
			Summary:        "The vendor extends the payment window from 30 to 45 days.",
			Risk:           "MEDIUM: the longer payment window is a concern.",
			Recommendation: "Negotiate the vendor back to 30 days.",
		}, nil
	}}
	engine := NewOrchestrator(analyzer, 0, nil, nil)

	results, err := engine.Compare(context.Background(), clientText, vendorText)
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, domainComparison.StatusPartial, result.Status)
	require.NotNil(t, result.Score)
	assert.Greater(t, *result.Score, domainComparison.PartialThreshold)
	assert.Less(t, *result.Score, domainComparison.AlignedThreshold)
	assert.Equal(t, domainComparison.RiskMedium, result.Risk)
	assert.Contains(t, result.SuggestedFix, "Payment Terms")
	assert.Contains(t, result.SuggestedFix, "client requirements")
}

func TestOrchestratorCompareClientOnlyTypeMissing(t *testing.T) {
	t.Parallel()

	clientText := "1. Intellectual Property\nAll work product and copyright vests in the client."
	vendorText := "1. Payment Terms\nPayment due within 30 days of invoice date."
	analyzer := &stubAnalyzer{}
	engine := NewOrchestrator(analyzer, 0, nil, nil)

	results, err := engine.Compare(context.Background(), clientText, vendorText)
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, domainComparison.StatusMissing, result.Status)
	assert.Equal(t, domainComparison.RiskHigh, result.Risk)
	assert.Empty(t, result.VendorText)
	assert.Nil(t, result.Score)
	assert.Empty(t, result.Summary)
	assert.Empty(t, result.Recommendation)
	assert.Equal(t, "Add Intellectual Property clause for 'Intellectual Property'", result.SuggestedFix)
	assert.Zero(t, analyzer.callCount(), "missing pairs must not reach the analyzer")
}

func TestOrchestratorCompareNoHeadingsFatal(t *testing.T) {
	t.Parallel()

	valid := "1. Payment Terms\nPayment due within 30 days of invoice date."
	analyzer := &stubAnalyzer{}
	engine := NewOrchestrator(analyzer, 0, nil, nil)

	tests := []struct {
		name       string
		clientText string
		vendorText string
		wantSide   string
	}{
		{"client side", "no numbered headings appear in this text", valid, "client document"},
		{"vendor side", valid, "   \n\n", "vendor document"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			results, err := engine.Compare(context.Background(), tt.clientText, tt.vendorText)
			require.Error(t, err)
			assert.Nil(t, results)
			assert.True(t, errors.IsCode(err, errors.ErrCodeSegNoSections))
			assert.True(t, stderrors.Is(err, errors.ErrNoSectionsFound))
			assert.Contains(t, err.Error(), tt.wantSide)
		})
	}
	assert.Zero(t, analyzer.callCount())
}

func TestOrchestratorCompareDegradedAnalysis(t *testing.T) {
	t.Parallel()

	text := "1. Payment Terms\nPayment due within 30 days of invoice date."
	failing := &stubAnalyzer{fn: func(contract.ClauseType, string, string) (*counsel_gpt.Analysis, error) {
		return nil, errors.New(errors.ErrCodeAnalysisUnavailable, "backend down")
	}}

	tests := []struct {
		name   string
		engine *Orchestrator
	}{
		{"failing analyzer", NewOrchestrator(failing, 0, nil, nil)},
		{"no analyzer", NewOrchestrator(nil, 0, nil, nil)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			results, err := tt.engine.Compare(context.Background(), text, text)
			require.NoError(t, err, "a degraded pair must not fail the run")
			require.Len(t, results, 1)

			result := results[0]
			assert.Equal(t, domainComparison.StatusAligned, result.Status)
			assert.Equal(t, domainComparison.RiskUnknown, result.Risk)
			assert.Equal(t, counsel_gpt.FallbackSummary, result.Summary)
			assert.Equal(t, counsel_gpt.FallbackRecommendation, result.Recommendation)
			require.NotNil(t, result.Score)
		})
	}
}

func TestOrchestratorComparePreservesClientOrder(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"1. Payment Terms", "Payment due within 30 days of invoice date.",
		"2. Delivery Terms", "Delivery occurs within 14 days of order.",
		"3. Termination", "Either party may terminate with 60 days notice.",
		"4. Confidentiality", "Each party keeps confidential information secret.",
		"5. Governing Law", "This agreement is subject to the governing law of Delaware.",
	}, "\n")
	analyzer := &stubAnalyzer{fn: func(clauseType contract.ClauseType, _, _ string) (*counsel_gpt.Analysis, error) {
		time.Sleep(time.Millisecond)
		return &counsel_gpt.Analysis{
			Summary:        "Reviewed " + clauseType.String() + ".",
			Risk:           "LOW.",
			Recommendation: "None.",
		}, nil
	}}
	engine := NewOrchestrator(analyzer, 2, nil, nil)

	results, err := engine.Compare(context.Background(), text, text)
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.Equal(t, []string{
		"Payment Terms", "Delivery Terms", "Termination", "Confidentiality", "Governing Law",
	}, resultTitles(results))
	assert.Equal(t, 5, analyzer.callCount())
	for _, result := range results {
		assert.Equal(t, "Reviewed "+result.ClauseType.String()+".", result.Summary,
			"each slot must carry its own pair's analysis")
	}
}

func TestOrchestratorCompareCancelledContext(t *testing.T) {
	t.Parallel()

	text := "1. Payment Terms\nPayment due within 30 days of invoice date."
	engine := NewOrchestrator(&stubAnalyzer{}, 0, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := engine.Compare(ctx, text, text)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTimeout))
}

func TestOrchestratorCompareRecordsMetrics(t *testing.T) {
	t.Parallel()

	text := "1. Payment Terms\nPayment due within 30 days of invoice date.\n" +
		"2. Termination\nEither party may terminate with 60 days notice."

	t.Run("successful analyses", func(t *testing.T) {
		t.Parallel()
		metrics := newCaptureMetrics()
		engine := NewOrchestrator(&stubAnalyzer{}, 0, metrics, nil)

		_, err := engine.Compare(context.Background(), text, text)
		require.NoError(t, err)
		assert.Equal(t, 2, metrics.clauses[SideClient])
		assert.Equal(t, 2, metrics.clauses[SideVendor])
		assert.Equal(t, 2, metrics.analyses[AnalysisOutcomeSuccess])
		assert.Zero(t, metrics.analyses[AnalysisOutcomeFailure])
	})

	t.Run("failed analyses", func(t *testing.T) {
		t.Parallel()
		metrics := newCaptureMetrics()
		failing := &stubAnalyzer{fn: func(contract.ClauseType, string, string) (*counsel_gpt.Analysis, error) {
			return nil, errors.New(errors.ErrCodeAnalysisFailed, "bad response")
		}}
		engine := NewOrchestrator(failing, 0, metrics, nil)

		_, err := engine.Compare(context.Background(), text, text)
		require.NoError(t, err)
		assert.Equal(t, 2, metrics.analyses[AnalysisOutcomeFailure])
		assert.Zero(t, metrics.analyses[AnalysisOutcomeSuccess])
	})
}

func TestOrchestratorExtractClauses(t *testing.T) {
	t.Parallel()

	engine := NewOrchestrator(nil, 0, nil, nil)
	clauses, err := engine.extractClauses(
		"1. Payment Terms\nClient pays fees monthly. Vendor invoices on the first business day.")
	require.NoError(t, err)
	require.Len(t, clauses, 1)
	assert.Equal(t, contract.ClausePaymentTerms, clauses[0].Type)
	assert.Equal(t, []string{
		"Client pays fees monthly.",
		"Vendor invoices on the first business day.",
	}, clauses[0].Obligations)
}
