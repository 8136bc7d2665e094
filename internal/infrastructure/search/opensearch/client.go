// Package opensearch backs the clause search index.  Completed comparison
// runs write one document per clause side; the HTTP search endpoint queries
// them back out.
package opensearch

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/ClauseLens/internal/config"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

// Client wraps the OpenSearch connection shared by the Indexer and Searcher.
type Client struct {
	os     *opensearch.Client
	logger logging.Logger
}

// NewClient connects to the cluster and verifies it responds before
// returning.  Health after startup is probed on demand through HealthCheck;
// there is no background poller.
func NewClient(cfg config.OpenSearchConfig, logger logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.NewValidation("at least one opensearch address is required")
	}

	transport := &http.Transport{MaxIdleConnsPerHost: 10}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff:  func(int) time.Duration { return 100 * time.Millisecond },
		Transport:     transport,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create opensearch client")
	}

	c := &Client{os: osClient, logger: logger.Named("opensearch")}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.HealthCheck(ctx); err != nil {
		return nil, err
	}

	c.logger.Info("connected to opensearch", logging.Strings("addresses", cfg.Addresses))
	return c, nil
}

// HealthCheck pings the cluster.  The readiness probe calls this per request.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.os.Ping(c.os.Ping.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "opensearch unreachable")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return errors.Newf(errors.ErrCodeServiceUnavailable,
			"opensearch ping returned status %d", resp.StatusCode)
	}
	return nil
}

// API exposes the underlying client for request execution.
func (c *Client) API() *opensearch.Client {
	return c.os
}

// apiError converts a non-2xx OpenSearch response into a coded error,
// pulling the reason out of the standard error body when one is present.
// The caller still owns closing the response body.
func apiError(resp *opensearchapi.Response, code errors.ErrorCode, op string) error {
	body, _ := io.ReadAll(resp.Body)
	var parsed struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Reason != "" {
		return errors.Newf(code, "%s: %s: %s", op, parsed.Error.Type, parsed.Error.Reason)
	}
	return errors.Newf(code, "%s: status %d", op, resp.StatusCode)
}
