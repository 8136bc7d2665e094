package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/ClauseLens/internal/application/comparison"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

// ComparisonHandler handles HTTP requests for comparison runs.
type ComparisonHandler struct {
	comparisons comparison.Service
	logger      logging.Logger
}

// NewComparisonHandler creates a ComparisonHandler.
func NewComparisonHandler(comparisons comparison.Service, logger logging.Logger) *ComparisonHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ComparisonHandler{
		comparisons: comparisons,
		logger:      logger.Named("comparison_handler"),
	}
}

// CreateComparisonRequest is the body of POST /api/v1/comparisons.
type CreateComparisonRequest struct {
	ClientDocumentID string `json:"client_document_id"`
	VendorDocumentID string `json:"vendor_document_id"`

	// Async enqueues the run for the worker instead of executing it in
	// the request.
	Async bool `json:"async"`
}

// Create handles POST /api/v1/comparisons.  Synchronous runs answer 201 with
// the completed run and its results; async runs answer 202 with the pending
// run for later polling.
func (h *ComparisonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	if req.ClientDocumentID == "" {
		writeValidationError(w, "client_document_id is required")
		return
	}
	if req.VendorDocumentID == "" {
		writeValidationError(w, "vendor_document_id is required")
		return
	}

	if req.Async {
		run, err := h.comparisons.RunAsync(r.Context(), req.ClientDocumentID, req.VendorDocumentID)
		if err != nil {
			h.logger.Error("failed to enqueue comparison run", logging.Err(err))
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, run)
		return
	}

	output, err := h.comparisons.Run(r.Context(), req.ClientDocumentID, req.VendorDocumentID)
	if err != nil {
		h.logger.Error("comparison run failed", logging.Err(err),
			logging.String("client_document_id", req.ClientDocumentID),
			logging.String("vendor_document_id", req.VendorDocumentID))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, output)
}

// Get handles GET /api/v1/comparisons/{runID}.
func (h *ComparisonHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")

	run, err := h.comparisons.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// List handles GET /api/v1/comparisons with page, page_size, status and
// document_id query parameters.  The document_id filter matches runs on
// either side of the comparison.
func (h *ComparisonHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	input := &comparison.ListInput{
		Page:       page,
		PageSize:   pageSize,
		Status:     r.URL.Query().Get("status"),
		DocumentID: r.URL.Query().Get("document_id"),
	}

	result, err := h.comparisons.List(r.Context(), input)
	if err != nil {
		h.logger.Error("failed to list comparison runs", logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Results handles GET /api/v1/comparisons/{runID}/results and returns the
// ordered clause results of a completed run.
func (h *ComparisonHandler) Results(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")

	results, err := h.comparisons.Results(r.Context(), id)
	if err != nil {
		if !errors.IsNotFound(err) {
			h.logger.Error("failed to load run results", logging.Err(err),
				logging.String("run_id", id))
		}
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Report handles GET /api/v1/comparisons/{runID}/report and returns the
// per-category summary of a completed run.
func (h *ComparisonHandler) Report(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")

	report, err := h.comparisons.Report(r.Context(), id)
	if err != nil {
		if !errors.IsNotFound(err) {
			h.logger.Error("failed to build run report", logging.Err(err),
				logging.String("run_id", id))
		}
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
