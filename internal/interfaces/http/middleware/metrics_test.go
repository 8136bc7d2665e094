package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/prometheus"
)

func scrapeCollector(t *testing.T, c *prometheus.Collector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Result().Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_LabelsUseRoutePattern(t *testing.T) {
	collector := prometheus.NewCollector(prometheus.CollectorConfig{})
	metrics := prometheus.NewMetrics(collector)

	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Get("/documents/{documentID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	body := scrapeCollector(t, collector)
	// Three requests collapse into one pattern-labelled series.
	assert.Contains(t, body,
		`clauselens_http_requests_total{method="GET",path="/documents/{documentID}",status="200"} 3`)
	assert.NotContains(t, body, `path="/documents/a"`)
}

func TestMetrics_RecordsStatusCode(t *testing.T) {
	collector := prometheus.NewCollector(prometheus.CollectorConfig{})
	metrics := prometheus.NewMetrics(collector)

	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Post("/runs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/runs", nil))

	body := scrapeCollector(t, collector)
	assert.Contains(t, body,
		`clauselens_http_requests_total{method="POST",path="/runs",status="202"} 1`)
	assert.Contains(t, body,
		`clauselens_http_request_duration_seconds_count{method="POST",path="/runs"} 1`)
}

func TestMetrics_UnmatchedRoutes(t *testing.T) {
	collector := prometheus.NewCollector(prometheus.CollectorConfig{})
	metrics := prometheus.NewMetrics(collector)

	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Get("/known", func(w http.ResponseWriter, r *http.Request) {})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no/such/route", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	// 404s share one label value instead of minting a series per bad path.
	body := scrapeCollector(t, collector)
	assert.Contains(t, body,
		`clauselens_http_requests_total{method="GET",path="unmatched",status="404"} 1`)
}
