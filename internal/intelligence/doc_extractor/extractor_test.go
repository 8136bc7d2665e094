package doc_extractor_test

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClauseLens/internal/intelligence/doc_extractor"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

func TestPlainTextExtractor_Extract(t *testing.T) {
	t.Parallel()

	e := doc_extractor.NewPlainTextExtractor()

	t.Run("passthrough", func(t *testing.T) {
		t.Parallel()
		text, err := e.Extract(context.Background(), []byte("1. Terms\nBody."), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, "1. Terms\nBody.", text)
	})

	t.Run("normalizes line endings", func(t *testing.T) {
		t.Parallel()
		text, err := e.Extract(context.Background(), []byte("1. Terms\r\nBody.\rMore."), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, "1. Terms\nBody.\nMore.", text)
	})

	t.Run("strips BOM", func(t *testing.T) {
		t.Parallel()
		text, err := e.Extract(context.Background(), append([]byte{0xEF, 0xBB, 0xBF}, []byte("1. Terms")...), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, "1. Terms", text)
	})

	t.Run("empty yields no extractable text", func(t *testing.T) {
		t.Parallel()
		_, err := e.Extract(context.Background(), []byte("   \n\t"), "text/plain")
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrNoExtractableText))
		assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentEmpty))
	})

	t.Run("rejects binary", func(t *testing.T) {
		t.Parallel()
		_, err := e.Extract(context.Background(), []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0x01}, "application/pdf")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentFormatUnsupported))
	})
}

func TestIsTextContentType(t *testing.T) {
	t.Parallel()

	assert.True(t, doc_extractor.IsTextContentType(""))
	assert.True(t, doc_extractor.IsTextContentType("text/plain"))
	assert.True(t, doc_extractor.IsTextContentType("text/plain; charset=utf-8"))
	assert.True(t, doc_extractor.IsTextContentType("text/markdown"))
	assert.True(t, doc_extractor.IsTextContentType("application/json"))
	assert.False(t, doc_extractor.IsTextContentType("application/pdf"))
	assert.False(t, doc_extractor.IsTextContentType("application/vnd.openxmlformats-officedocument.wordprocessingml.document"))
}

func TestHTTPExtractor_Extract(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("1. Payment Terms\r\nPayment due within 30 days."))
	}))
	defer srv.Close()

	e, err := doc_extractor.NewHTTPExtractor(srv.URL, 2*time.Second, nil)
	require.NoError(t, err)

	text, err := e.Extract(context.Background(), []byte("%PDF-1.7 ..."), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "1. Payment Terms\nPayment due within 30 days.", text)
}

func TestHTTPExtractor_Extract_Failures(t *testing.T) {
	t.Parallel()

	t.Run("unsupported media type", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnsupportedMediaType)
		}))
		defer srv.Close()

		e, err := doc_extractor.NewHTTPExtractor(srv.URL, time.Second, nil)
		require.NoError(t, err)
		_, err = e.Extract(context.Background(), []byte("x"), "application/x-unknown")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentFormatUnsupported))
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		e, err := doc_extractor.NewHTTPExtractor(srv.URL, time.Second, nil)
		require.NoError(t, err)
		_, err = e.Extract(context.Background(), []byte("x"), "application/pdf")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentExtractFailed))
	})

	t.Run("empty extraction", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("   "))
		}))
		defer srv.Close()

		e, err := doc_extractor.NewHTTPExtractor(srv.URL, time.Second, nil)
		require.NoError(t, err)
		_, err = e.Extract(context.Background(), []byte("x"), "application/pdf")
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrNoExtractableText))
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		e, err := doc_extractor.NewHTTPExtractor(srv.URL, time.Second, nil)
		require.NoError(t, err)
		_, err = e.Extract(context.Background(), []byte("x"), "application/pdf")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentExtractFailed))
	})
}

func TestRoutingExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("routes text to plain extractor", func(t *testing.T) {
		t.Parallel()
		r, err := doc_extractor.NewExtractor(doc_extractor.Config{}, nil)
		require.NoError(t, err)

		text, err := r.Extract(context.Background(), []byte("1. Terms\nBody."), "text/plain; charset=utf-8")
		require.NoError(t, err)
		assert.Equal(t, "1. Terms\nBody.", text)
	})

	t.Run("binary without service is unsupported", func(t *testing.T) {
		t.Parallel()
		r, err := doc_extractor.NewExtractor(doc_extractor.Config{}, nil)
		require.NoError(t, err)

		_, err = r.Extract(context.Background(), []byte{0x01, 0x02}, "application/pdf")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentFormatUnsupported))
	})

	t.Run("binary routed to service", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("extracted text"))
		}))
		defer srv.Close()

		r, err := doc_extractor.NewExtractor(doc_extractor.Config{ServiceURL: srv.URL, Timeout: time.Second}, nil)
		require.NoError(t, err)

		text, err := r.Extract(context.Background(), []byte{0x01, 0x02}, "application/pdf")
		require.NoError(t, err)
		assert.Equal(t, "extracted text", text)
	})

	t.Run("size limit enforced", func(t *testing.T) {
		t.Parallel()
		r, err := doc_extractor.NewExtractor(doc_extractor.Config{MaxDocumentSize: 4}, nil)
		require.NoError(t, err)

		_, err = r.Extract(context.Background(), []byte("12345"), "text/plain")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentTooLarge))
	})
}
