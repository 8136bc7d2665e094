// Package client is the Go SDK for the ClauseLens REST API.  It wraps the
// document and comparison endpoints behind typed sub-clients, retries
// transient failures with exponential backoff, and surfaces API failures as
// *APIError values that callers can inspect.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/ClauseLens/pkg/errors"
)

// Version identifies the SDK release and is reported in the User-Agent header.
const Version = "0.1.0"

// Logger receives diagnostic output from the client.  The interface is
// deliberately minimal so any logging library can be adapted in a few lines.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}

// Client is the ClauseLens API client.  Construct it with NewClient and share
// a single instance across goroutines; all methods are safe for concurrent
// use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	token        string
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	documents       *DocumentsClient
	documentsOnce   sync.Once
	comparisons     *ComparisonsClient
	comparisonsOnce sync.Once
}

// APIError is an error response from the API.  Code carries the platform
// error code from the response body (e.g. "DOC_001") when one was returned.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id"`

	// RetryAfter is the server-suggested wait parsed from the Retry-After
	// header, zero when absent.
	RetryAfter time.Duration `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clauselens: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, e.Message, e.RequestID)
}

// IsNotFound reports whether the request referenced a missing resource.
func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsUnauthorized reports whether the request lacked valid credentials.
func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

// IsRateLimited reports whether the request was rejected by rate limiting.
func (e *APIError) IsRateLimited() bool { return e.StatusCode == http.StatusTooManyRequests }

// IsConflict reports whether the request conflicted with resource state,
// such as fetching results of a run that has not completed.
func (e *APIError) IsConflict() bool { return e.StatusCode == http.StatusConflict }

// IsValidation reports whether the server rejected the request payload.
func (e *APIError) IsValidation() bool { return e.StatusCode == http.StatusUnprocessableEntity }

// IsServerError reports whether the failure originated server-side.
func (e *APIError) IsServerError() bool { return e.StatusCode >= 500 && e.StatusCode < 600 }

// NewClient creates a ClauseLens API client for the server at baseURL.
// The URL must use the http or https scheme; a trailing slash is ignored.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.NewValidation("baseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.NewValidation("invalid baseURL %q: %v", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.NewValidation("baseURL scheme must be http or https, got %q", parsed.Scheme)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    "clauselens-go-sdk/" + Version,
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Documents returns the documents sub-client.
func (c *Client) Documents() *DocumentsClient {
	c.documentsOnce.Do(func() {
		c.documents = &DocumentsClient{client: c}
	})
	return c.documents
}

// Comparisons returns the comparisons sub-client.
func (c *Client) Comparisons() *ComparisonsClient {
	c.comparisonsOnce.Do(func() {
		c.comparisons = &ComparisonsClient{client: c}
	})
	return c.comparisons
}

// invalidArg reports a client-side argument validation failure without
// making a request.
func invalidArg(msg string) error {
	return errors.NewValidation("%s", msg)
}

// doJSON marshals body (when non-nil), performs the request and decodes the
// response into result (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, body, result interface{}) error {
	var payload []byte
	contentType := ""
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("clauselens: failed to marshal request body: %w", err)
		}
		contentType = "application/json"
	}

	respBody, _, err := c.doRequest(ctx, method, path, contentType, payload)
	if err != nil {
		return err
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("clauselens: failed to decode response: %w", err)
		}
	}
	return nil
}

// doRequest performs one API request with retries.  Network failures and
// retriable statuses (5xx, 429) are attempted up to retryMax additional
// times; other HTTP errors return immediately as *APIError.  On success it
// returns the response body and headers.
func (c *Client) doRequest(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, http.Header, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt, lastErr)
			c.logger.Debugf("retrying %s %s in %v (attempt %d/%d)", method, path, wait, attempt, c.retryMax)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return nil, nil, fmt.Errorf("clauselens: failed to build request: %w", err)
		}

		requestID := uuid.New().String()
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			c.logger.Errorf("%s %s failed: %v", method, path, err)
			lastErr = err
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.logger.Debugf("%s %s -> %d (%v)", method, path, resp.StatusCode, time.Since(start))
		if readErr != nil {
			lastErr = fmt.Errorf("clauselens: failed to read response body: %w", readErr)
			continue
		}

		if resp.StatusCode >= 400 {
			apiErr := parseAPIError(resp.StatusCode, resp.Header, respBody, requestID)
			if !retriableStatus(resp.StatusCode) {
				return nil, nil, apiErr
			}
			lastErr = apiErr
			continue
		}

		return respBody, resp.Header, nil
	}
	return nil, nil, lastErr
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// retriableStatus reports whether a failed request may succeed on retry.
func retriableStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// backoff returns the wait before retry number attempt (1-based).  A
// rate-limited response with a Retry-After header overrides the exponential
// schedule.
func (c *Client) backoff(attempt int, lastErr error) time.Duration {
	if apiErr, ok := lastErr.(*APIError); ok && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}

	wait := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if wait > c.retryWaitMax {
		wait = c.retryWaitMax
	}
	// Up to 25% jitter so synchronized clients spread their retries.
	if quarter := int64(wait / 4); quarter > 0 {
		wait += time.Duration(rand.Int63n(quarter))
	}
	return wait
}

// parseAPIError builds an *APIError from an error response.  The body is
// expected to be the platform's {"code","message"} shape; anything else is
// carried verbatim in Message.
func parseAPIError(statusCode int, header http.Header, body []byte, requestID string) *APIError {
	apiErr := &APIError{StatusCode: statusCode, RequestID: requestID}

	if len(body) > 0 {
		var errResp struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Code != "" {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
	}

	if ra := header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return apiErr
}
