package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClauseLens/pkg/errors"
)

func healthyChecker(name string) HealthChecker {
	return NamedChecker(name, func(ctx context.Context) error { return nil })
}

func failingChecker(name string, err error) HealthChecker {
	return NamedChecker(name, func(ctx context.Context) error { return err })
}

func TestLiveness_AlwaysOK(t *testing.T) {
	h := NewHealthHandler("1.2.3",
		failingChecker("postgres", errors.NewUnavailable("connection refused")))

	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	// Liveness ignores dependency state.
	require.Equal(t, http.StatusOK, w.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.NotEmpty(t, resp.Uptime)
}

func TestReadiness_AllHealthy(t *testing.T) {
	h := NewHealthHandler("test",
		healthyChecker("postgres"),
		healthyChecker("redis"),
		healthyChecker("opensearch"))

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	require.Len(t, resp.Components, 3)
	for name, component := range resp.Components {
		assert.Equal(t, "healthy", component.Status, "component %s", name)
		assert.NotEmpty(t, component.Latency)
	}
}

func TestReadiness_ComponentDown(t *testing.T) {
	h := NewHealthHandler("test",
		healthyChecker("postgres"),
		failingChecker("redis", errors.New(errors.ErrCodeCacheError, "connection refused")))

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "healthy", resp.Components["postgres"].Status)
	assert.Equal(t, "unhealthy", resp.Components["redis"].Status)
	assert.Contains(t, resp.Components["redis"].Error, "connection refused")
}

func TestReadiness_NoCheckers(t *testing.T) {
	h := NewHealthHandler("test")

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Empty(t, resp.Components)
}

func TestDetailed_Degraded(t *testing.T) {
	h := NewHealthHandler("2.0.0",
		healthyChecker("postgres"),
		failingChecker("kafka", errors.New(errors.ErrCodeMessageQueueError, "broker unreachable")))

	w := httptest.NewRecorder()
	h.Detailed(w, httptest.NewRequest(http.MethodGet, "/healthz/detail", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp DetailedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "2.0.0", resp.Version)
	assert.Len(t, resp.Components, 2)
}
