package comparison

import (
	"time"

	domainComparison "github.com/turtacn/ClauseLens/internal/domain/comparison"
)

// Metric label values emitted by the run pipeline.
const (
	SideClient = "client"
	SideVendor = "vendor"

	AnalysisOutcomeSuccess = "success"
	AnalysisOutcomeFailure = "failure"
)

// Metrics receives pipeline measurements.  The prometheus-backed
// implementation lives in internal/infrastructure/monitoring/prometheus;
// NopMetrics is substituted wherever nil is supplied.
type Metrics interface {
	// ObserveRun records a finished run with its terminal status.
	ObserveRun(status domainComparison.RunStatus, duration time.Duration)

	// AddClauses counts clauses extracted for one side of a run.
	AddClauses(side string, count int)

	// ObserveAnalysis counts one analysis attempt by outcome.
	ObserveAnalysis(outcome string)

	// ObserveCacheLookup counts one result-cache lookup.
	ObserveCacheLookup(hit bool)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRun(domainComparison.RunStatus, time.Duration) {}
func (nopMetrics) AddClauses(string, int)                               {}
func (nopMetrics) ObserveAnalysis(string)                               {}
func (nopMetrics) ObserveCacheLookup(bool)                              {}

// NopMetrics returns a Metrics implementation that discards everything.
func NopMetrics() Metrics { return nopMetrics{} }
