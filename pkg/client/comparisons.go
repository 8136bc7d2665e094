package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// Run is a comparison run over one client/vendor document pair.  Status is
// one of "pending", "running", "completed" or "failed".
type Run struct {
	ID               string    `json:"id"`
	ClientDocumentID string    `json:"client_document_id"`
	VendorDocumentID string    `json:"vendor_document_id"`
	Status           string    `json:"status"`
	CacheKey         string    `json:"cache_key,omitempty"`
	ErrorMsg         string    `json:"error_msg,omitempty"`
	ClauseCount      int       `json:"clause_count"`
	CreatedAt        time.Time `json:"created_at"`
	StartedAt        time.Time `json:"started_at,omitempty"`
	CompletedAt      time.Time `json:"completed_at,omitempty"`
}

// ClauseResult is the verdict for one clause of the client document.
type ClauseResult struct {
	Title          string   `json:"title"`
	ClauseType     string   `json:"clause_type"`
	ClientText     string   `json:"client_text"`
	VendorText     string   `json:"vendor_text"`
	Status         string   `json:"status"`
	Risk           string   `json:"risk"`
	Score          *float64 `json:"score,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
	SuggestedFix   string   `json:"suggested_fix,omitempty"`
}

// RunWithResults is the response of a synchronous run: the run record plus
// its clause results in client document order.
type RunWithResults struct {
	Run     Run            `json:"run"`
	Results []ClauseResult `json:"results"`
}

// RunList is one page of comparison runs.
type RunList struct {
	Runs       []Run `json:"runs"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// RunListQuery filters and paginates a run listing.  DocumentID matches runs
// where the document appears on either side.
type RunListQuery struct {
	Page       int
	PageSize   int
	Status     string
	DocumentID string
}

// StatusBreakdown counts clause results by comparison status.
type StatusBreakdown struct {
	Aligned      int `json:"aligned"`
	Partial      int `json:"partial"`
	NonCompliant int `json:"non_compliant"`
	Missing      int `json:"missing"`
}

// CategorySummary aggregates the results of one report category.
type CategorySummary struct {
	Category string `json:"category"`
	StatusBreakdown
	HighRisk int      `json:"high_risk"`
	Clauses  []string `json:"clauses,omitempty"`
}

// Report is the headline summary of a completed run.
type Report struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Overall     StatusBreakdown   `json:"overall"`
	Categories  []CategorySummary `json:"categories"`
}

type createRunRequest struct {
	ClientDocumentID string `json:"client_document_id"`
	VendorDocumentID string `json:"vendor_document_id"`
	Async            bool   `json:"async"`
}

// ComparisonsClient provides access to the comparison endpoints.
type ComparisonsClient struct {
	client *Client
}

// Run compares two documents synchronously and returns the completed run
// with its clause results.
// POST /api/v1/comparisons
func (cc *ComparisonsClient) Run(ctx context.Context, clientDocumentID, vendorDocumentID string) (*RunWithResults, error) {
	if clientDocumentID == "" {
		return nil, invalidArg("clientDocumentID is required")
	}
	if vendorDocumentID == "" {
		return nil, invalidArg("vendorDocumentID is required")
	}

	req := createRunRequest{
		ClientDocumentID: clientDocumentID,
		VendorDocumentID: vendorDocumentID,
	}
	var out RunWithResults
	if err := cc.client.post(ctx, "/api/v1/comparisons", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunAsync enqueues a comparison and returns the pending run.  Poll Get
// until the run completes, then fetch Results or Report.
// POST /api/v1/comparisons
func (cc *ComparisonsClient) RunAsync(ctx context.Context, clientDocumentID, vendorDocumentID string) (*Run, error) {
	if clientDocumentID == "" {
		return nil, invalidArg("clientDocumentID is required")
	}
	if vendorDocumentID == "" {
		return nil, invalidArg("vendorDocumentID is required")
	}

	req := createRunRequest{
		ClientDocumentID: clientDocumentID,
		VendorDocumentID: vendorDocumentID,
		Async:            true,
	}
	var run Run
	if err := cc.client.post(ctx, "/api/v1/comparisons", req, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// Get retrieves a run record.
// GET /api/v1/comparisons/{runID}
func (cc *ComparisonsClient) Get(ctx context.Context, runID string) (*Run, error) {
	if runID == "" {
		return nil, invalidArg("runID is required")
	}
	var run Run
	if err := cc.client.get(ctx, "/api/v1/comparisons/"+url.PathEscape(runID), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// List retrieves one page of runs.  A nil query uses server defaults.
// GET /api/v1/comparisons?page=&page_size=&status=&document_id=
func (cc *ComparisonsClient) List(ctx context.Context, q *RunListQuery) (*RunList, error) {
	path := "/api/v1/comparisons"
	if q != nil {
		params := url.Values{}
		if q.Page > 0 {
			params.Set("page", strconv.Itoa(q.Page))
		}
		if q.PageSize > 0 {
			params.Set("page_size", strconv.Itoa(q.PageSize))
		}
		if q.Status != "" {
			params.Set("status", q.Status)
		}
		if q.DocumentID != "" {
			params.Set("document_id", q.DocumentID)
		}
		if encoded := params.Encode(); encoded != "" {
			path += "?" + encoded
		}
	}

	var list RunList
	if err := cc.client.get(ctx, path, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Results retrieves the clause results of a completed run.
// GET /api/v1/comparisons/{runID}/results
func (cc *ComparisonsClient) Results(ctx context.Context, runID string) ([]ClauseResult, error) {
	if runID == "" {
		return nil, invalidArg("runID is required")
	}
	var results []ClauseResult
	if err := cc.client.get(ctx, "/api/v1/comparisons/"+url.PathEscape(runID)+"/results", &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Report retrieves the headline report of a completed run.
// GET /api/v1/comparisons/{runID}/report
func (cc *ComparisonsClient) Report(ctx context.Context, runID string) (*Report, error) {
	if runID == "" {
		return nil, invalidArg("runID is required")
	}
	var report Report
	if err := cc.client.get(ctx, "/api/v1/comparisons/"+url.PathEscape(runID)+"/report", &report); err != nil {
		return nil, err
	}
	return &report, nil
}
