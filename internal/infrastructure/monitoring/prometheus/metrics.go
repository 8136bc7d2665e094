package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/turtacn/ClauseLens/internal/domain/comparison"
)

// Buckets tuned for the two latency profiles: HTTP handlers answer in
// milliseconds, comparison runs take seconds when live clause analysis is on.
var (
	httpDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	runDurationBuckets  = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}
)

// Metrics holds every ClauseLens series.  It satisfies the comparison
// service's metrics port and feeds the HTTP middleware and the worker loop.
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	clausesTotal  *prometheus.CounterVec
	analysisTotal *prometheus.CounterVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	workerJobs    *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

// NewMetrics registers the ClauseLens series on the collector's registry.
func NewMetrics(c *Collector) *Metrics {
	return &Metrics{
		runsTotal: c.newCounterVec("comparison_runs_total",
			"Comparison runs finished, by terminal status.", "status"),
		runDuration: c.newHistogramVec("comparison_run_duration_seconds",
			"Wall time of comparison runs, by terminal status.", runDurationBuckets, "status"),
		clausesTotal: c.newCounterVec("clauses_extracted_total",
			"Clauses extracted from contract documents, by side.", "side"),
		analysisTotal: c.newCounterVec("analysis_requests_total",
			"Clause analyses attempted, by outcome.", "outcome"),
		cacheHits: c.newCounter("cache_hits_total",
			"Comparison result cache hits."),
		cacheMisses: c.newCounter("cache_misses_total",
			"Comparison result cache misses."),
		workerJobs: c.newCounterVec("worker_jobs_total",
			"Comparison jobs consumed by the worker, by outcome.", "outcome"),
		httpRequests: c.newCounterVec("http_requests_total",
			"HTTP requests served, by method, route and status code.", "method", "path", "status"),
		httpDuration: c.newHistogramVec("http_request_duration_seconds",
			"HTTP request latency, by method and route.", httpDurationBuckets, "method", "path"),
		httpInFlight: c.newGauge("http_requests_in_flight",
			"HTTP requests currently being served."),
	}
}

// ObserveRun records one finished comparison run.
func (m *Metrics) ObserveRun(status comparison.RunStatus, duration time.Duration) {
	m.runsTotal.WithLabelValues(status.String()).Inc()
	m.runDuration.WithLabelValues(status.String()).Observe(duration.Seconds())
}

// AddClauses counts clauses extracted for one document side.
func (m *Metrics) AddClauses(side string, count int) {
	m.clausesTotal.WithLabelValues(side).Add(float64(count))
}

// ObserveAnalysis records one clause analysis attempt.
func (m *Metrics) ObserveAnalysis(outcome string) {
	m.analysisTotal.WithLabelValues(outcome).Inc()
}

// ObserveCacheLookup records a result-cache lookup.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveWorkerJob records one consumed comparison job.
func (m *Metrics) ObserveWorkerJob(outcome string) {
	m.workerJobs.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest records one served request.  Path must be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// HTTPRequestStarted and HTTPRequestDone bracket in-flight tracking.
func (m *Metrics) HTTPRequestStarted() { m.httpInFlight.Inc() }

func (m *Metrics) HTTPRequestDone() { m.httpInFlight.Dec() }
