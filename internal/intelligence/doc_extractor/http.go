package doc_extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

// Config holds extraction settings.  An empty ServiceURL limits extraction
// to text documents; binary formats then fail as unsupported.
type Config struct {
	ServiceURL      string        `json:"service_url"`
	Timeout         time.Duration `json:"timeout"`
	MaxDocumentSize int64         `json:"max_document_size"`
}

// HTTPExtractor sends binary documents to a Tika-style extraction service
// and returns the plain text it produces.
type HTTPExtractor struct {
	serviceURL string
	client     *http.Client
	logger     logging.Logger
}

// NewHTTPExtractor creates a client for the extraction service.
func NewHTTPExtractor(serviceURL string, timeout time.Duration, logger logging.Logger) (*HTTPExtractor, error) {
	if serviceURL == "" {
		return nil, errors.NewValidation("extraction service_url is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HTTPExtractor{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		client:     &http.Client{Timeout: timeout},
		logger:     logger.Named("doc_extractor"),
	}, nil
}

// Extract submits the document body and returns the service's text output.
func (e *HTTPExtractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.serviceURL+"/tika", bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeDocumentExtractFailed, "build extraction request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "text/plain")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeDocumentExtractFailed, "extraction service unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeDocumentExtractFailed, "read extraction response")
	}

	e.logger.Debug("extraction request completed",
		logging.String("content_type", contentType),
		logging.Int("status", resp.StatusCode),
		logging.Int("bytes", len(body)),
		logging.Duration("elapsed", time.Since(start)),
	)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnsupportedMediaType:
		return "", errors.New(errors.ErrCodeDocumentFormatUnsupported,
			"extraction service does not support this format").WithDetail(contentType)
	default:
		return "", errors.New(errors.ErrCodeDocumentExtractFailed,
			fmt.Sprintf("extraction service returned status %d", resp.StatusCode))
	}

	text := strings.ReplaceAll(string(body), "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return "", errors.ErrNoExtractableText
	}
	return text, nil
}

// RoutingExtractor picks the plain extractor for text media types and the
// remote service for everything else.
type RoutingExtractor struct {
	plain   *PlainTextExtractor
	remote  *HTTPExtractor
	maxSize int64
}

// NewExtractor builds the production extractor from config.  When no
// service URL is configured the returned extractor handles text formats
// only.
func NewExtractor(cfg Config, logger logging.Logger) (*RoutingExtractor, error) {
	r := &RoutingExtractor{
		plain:   NewPlainTextExtractor(),
		maxSize: cfg.MaxDocumentSize,
	}
	if cfg.ServiceURL != "" {
		remote, err := NewHTTPExtractor(cfg.ServiceURL, cfg.Timeout, logger)
		if err != nil {
			return nil, err
		}
		r.remote = remote
	}
	return r, nil
}

// Extract routes the document to the right extractor.
func (r *RoutingExtractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	if r.maxSize > 0 && int64(len(data)) > r.maxSize {
		return "", errors.New(errors.ErrCodeDocumentTooLarge,
			fmt.Sprintf("document of %d bytes exceeds the %d byte limit", len(data), r.maxSize))
	}
	if IsTextContentType(contentType) {
		return r.plain.Extract(ctx, data, contentType)
	}
	if r.remote == nil {
		return "", errors.New(errors.ErrCodeDocumentFormatUnsupported,
			"no extraction service configured for binary formats").WithDetail(contentType)
	}
	return r.remote.Extract(ctx, data, contentType)
}
