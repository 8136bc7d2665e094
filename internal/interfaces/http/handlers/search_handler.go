package handlers

import (
	"context"
	"net/http"

	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/internal/infrastructure/search/opensearch"
)

// ClauseSearcher is the slice of the search backend the handler needs.
// *opensearch.Searcher satisfies it.
type ClauseSearcher interface {
	Search(ctx context.Context, q opensearch.ClauseQuery) (*opensearch.ClausePage, error)
}

// SearchHandler handles HTTP requests against the clause index.
type SearchHandler struct {
	searcher ClauseSearcher
	logger   logging.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(searcher ClauseSearcher, logger logging.Logger) *SearchHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SearchHandler{
		searcher: searcher,
		logger:   logger.Named("search_handler"),
	}
}

// Search handles GET /api/v1/clauses/search.  Supported query parameters:
// q for full-text matching, type, status, run_id and side as exact filters,
// plus the usual page and page_size.  Without q, results list by recency.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	params := r.URL.Query()

	query := opensearch.ClauseQuery{
		Text:       params.Get("q"),
		ClauseType: params.Get("type"),
		Status:     params.Get("status"),
		RunID:      params.Get("run_id"),
		Side:       params.Get("side"),
		Page:       page,
		PageSize:   pageSize,
	}

	result, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("clause search failed", logging.Err(err),
			logging.String("query", query.Text))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
