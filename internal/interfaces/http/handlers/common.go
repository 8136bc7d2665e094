// Package handlers implements the HTTP handlers of the REST API: document
// management, comparison runs, clause search and health probes.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/turtacn/ClauseLens/pkg/errors"
	"github.com/turtacn/ClauseLens/pkg/types/common"
)

// parsePagination extracts page and page_size from query parameters.
// Unset or out-of-range values fall back to the shared pagination bounds.
func parsePagination(r *http.Request) (int, int) {
	page := 1
	pageSize := common.DefaultPageSize

	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= common.MaxPageSize {
			pageSize = ps
		}
	}
	return page, pageSize
}

// writeJSON writes a JSON response with the given status code.  A nil data
// value writes only the status line, for 204 responses.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the error body of every non-2xx API response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeValidationError answers a request that failed input parsing before it
// reached the application layer.
func writeValidationError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Code:    errors.ErrCodeValidation.String(),
		Message: message,
	})
}

// writeAppError maps a service error onto the HTTP response.  The error code
// picks the status; messages of server-side failures are replaced with the
// generic code message so internals never leak to callers.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	message := errors.DefaultMessageForCode(code)
	if status < 500 {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) && appErr.Message != "" {
			message = appErr.Message
		}
	}

	writeJSON(w, status, ErrorResponse{Code: code.String(), Message: message})
}
