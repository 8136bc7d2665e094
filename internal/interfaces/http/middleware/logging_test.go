package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/internal/testutil"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func fieldValue(fields []logging.Field, key string) interface{} {
	for _, f := range fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

func TestRequestLogging_LogsCompletedRequest(t *testing.T) {
	logger := testutil.NewMockLogger()
	handler := RequestLogging(logger, DefaultLoggingConfig())(okHandler())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	handler.ServeHTTP(w, r)

	messages := logger.Messages()
	require.Len(t, messages, 1)
	entry := messages[0]
	assert.Equal(t, "info", entry.Level)
	assert.Equal(t, "http request", entry.Message)
	assert.Equal(t, http.MethodGet, fieldValue(entry.Fields, "method"))
	assert.Equal(t, "/api/v1/documents", fieldValue(entry.Fields, "path"))
	assert.Equal(t, http.StatusOK, fieldValue(entry.Fields, "status"))
	assert.Equal(t, int64(2), fieldValue(entry.Fields, "bytes"))
}

func TestRequestLogging_QueryStringIncluded(t *testing.T) {
	logger := testutil.NewMockLogger()
	handler := RequestLogging(logger, DefaultLoggingConfig())(okHandler())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/comparisons?status=completed&page=2", nil)
	handler.ServeHTTP(w, r)

	messages := logger.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "/api/v1/comparisons?status=completed&page=2", fieldValue(messages[0].Fields, "path"))
}

func TestRequestLogging_ServerErrorAtErrorLevel(t *testing.T) {
	logger := testutil.NewMockLogger()
	handler := RequestLogging(logger, DefaultLoggingConfig())(statusHandler(http.StatusBadGateway))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, logger.HasMessage("error", "http request failed"))
}

func TestRequestLogging_ClientErrorAtWarnLevel(t *testing.T) {
	logger := testutil.NewMockLogger()
	handler := RequestLogging(logger, DefaultLoggingConfig())(statusHandler(http.StatusNotFound))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, logger.HasMessage("warn", "http request rejected"))
}

func TestRequestLogging_SlowRequestWarns(t *testing.T) {
	logger := testutil.NewMockLogger()
	config := LoggingConfig{SlowThreshold: time.Millisecond}
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	handler := RequestLogging(logger, config)(slow)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, logger.HasMessage("warn", "http request slow"))
}

func TestRequestLogging_SkipsConfiguredPaths(t *testing.T) {
	logger := testutil.NewMockLogger()
	handler := RequestLogging(logger, DefaultLoggingConfig())(okHandler())

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Empty(t, logger.Messages())
}

func TestRequestLogging_RequestIDField(t *testing.T) {
	logger := testutil.NewMockLogger()
	handler := RequestLogging(logger, DefaultLoggingConfig())(okHandler())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "req-123")
	handler.ServeHTTP(w, r)

	messages := logger.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "req-123", fieldValue(messages[0].Fields, "request_id"))
}

func TestWrappedResponseWriter_DefaultsTo200(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := newWrappedResponseWriter(rec)

	// Write without an explicit WriteHeader call.
	wrapped.Write([]byte("hello"))

	assert.Equal(t, http.StatusOK, wrapped.statusCode)
	assert.Equal(t, int64(5), wrapped.bytesWritten)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWrappedResponseWriter_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := newWrappedResponseWriter(rec)

	wrapped.WriteHeader(http.StatusCreated)
	wrapped.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusCreated, wrapped.statusCode)
}
