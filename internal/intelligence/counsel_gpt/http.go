package counsel_gpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/ClauseLens/internal/domain/contract"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

// Config holds HTTP analyzer settings.  BaseURL points at an
// OpenAI-compatible chat completions endpoint root (including any /v1
// prefix the service expects).
type Config struct {
	BaseURL     string        `json:"base_url"`
	APIKey      string        `json:"api_key"`
	Model       string        `json:"model"`
	Timeout     time.Duration `json:"timeout"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// DefaultConfig returns production defaults; BaseURL must still be set.
func DefaultConfig() Config {
	return Config{
		Model:       "counsel-gpt-4",
		Timeout:     30 * time.Second,
		MaxTokens:   1024,
		Temperature: 0.2,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.NewValidation("analysis base_url is required")
	}
	if c.Model == "" {
		return errors.NewValidation("analysis model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.NewValidation("analysis temperature must be within [0, 2], got %v", c.Temperature)
	}
	return nil
}

// HTTPAnalyzer analyzes clause pairs through a remote chat-completion model.
// Each Analyze call makes exactly one request; there is no internal retry.
type HTTPAnalyzer struct {
	cfg    Config
	client *http.Client
	logger logging.Logger
}

// NewHTTPAnalyzer creates an analyzer for the configured endpoint.
func NewHTTPAnalyzer(cfg Config, logger logging.Logger) (*HTTPAnalyzer, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HTTPAnalyzer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("counsel_gpt"),
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends one clause pair to the model and parses the JSON triple it
// returns.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, clauseType contract.ClauseType, clientText, vendorText string) (*Analysis, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       a.cfg.Model,
		Messages:    BuildMessages(clauseType, clientText, vendorText),
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal analysis request")
	}

	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnalysisFailed, "build analysis request")
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnalysisUnavailable, "analysis service unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnalysisFailed, "read analysis response")
	}

	a.logger.Debug("analysis request completed",
		logging.String("clause_type", clauseType.String()),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, errors.New(errors.ErrCodeAnalysisUnavailable,
			fmt.Sprintf("analysis service returned status %d", resp.StatusCode))
	default:
		return nil, errors.New(errors.ErrCodeAnalysisFailed,
			fmt.Sprintf("analysis service returned status %d", resp.StatusCode))
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnalysisResponseInvalid, "decode analysis response")
	}
	if len(cr.Choices) == 0 {
		return nil, errors.New(errors.ErrCodeAnalysisResponseInvalid, "analysis response carried no choices")
	}
	return parseAnalysis(cr.Choices[0].Message.Content)
}

// parseAnalysis extracts the Analysis triple from model output.  Models
// wrap JSON in markdown fences or prose often enough that the parser cuts
// to the outermost object before unmarshalling.
func parseAnalysis(content string) (*Analysis, error) {
	raw := strings.TrimSpace(content)
	if i := strings.Index(raw, "{"); i >= 0 {
		if j := strings.LastIndex(raw, "}"); j > i {
			raw = raw[i : j+1]
		}
	}

	var out Analysis
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnalysisResponseInvalid, "analysis output is not valid JSON")
	}
	out.Summary = strings.TrimSpace(out.Summary)
	out.Risk = strings.TrimSpace(out.Risk)
	out.Recommendation = strings.TrimSpace(out.Recommendation)

	if out.Summary == "" {
		return nil, errors.New(errors.ErrCodeAnalysisResponseInvalid, "analysis output carried no summary")
	}
	if !ValidRisk(out.Risk) {
		return nil, errors.New(errors.ErrCodeAnalysisResponseInvalid,
			fmt.Sprintf("risk statement must open with HIGH, MEDIUM or LOW, got %q", out.Risk))
	}
	return &out, nil
}
