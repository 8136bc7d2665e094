package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/ClauseLens/internal/config"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ClauseQuery holds the parameters of one clause search call.  Zero values
// mean "no constraint"; Page is 1-based.
type ClauseQuery struct {
	Text       string
	ClauseType string
	Status     string
	RunID      string
	Side       string
	Page       int
	PageSize   int
}

// ClauseHit is one matching clause document.
type ClauseHit struct {
	ID         string              `json:"id"`
	Score      float64             `json:"score"`
	Clause     ClauseDocument      `json:"clause"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// ClausePage is one page of search results.
type ClausePage struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	TookMs   int64       `json:"took_ms"`
	Hits     []ClauseHit `json:"hits"`
}

// Searcher executes clause queries against the index the Indexer writes.
type Searcher struct {
	client *Client
	index  string
	logger logging.Logger
}

// NewSearcher returns a Searcher over the clause index derived from the
// configured prefix.
func NewSearcher(client *Client, cfg config.OpenSearchConfig, logger logging.Logger) *Searcher {
	return &Searcher{
		client: client,
		index:  clauseIndexName(cfg),
		logger: logger.Named("searcher"),
	}
}

// Search runs the query and returns one page of hits.  Text queries rank by
// relevance with content highlights; pure filter queries return newest first.
func (s *Searcher) Search(ctx context.Context, q ClauseQuery) (*ClausePage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	body, err := json.Marshal(buildClauseDSL(q, page, size))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode search query")
	}

	req := opensearchapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}

	start := time.Now()
	resp, err := req.Do(ctx, s.client.API())
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.New(errors.ErrCodeTimeout, "clause search timed out")
		}
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "clause search failed")
	}
	defer resp.Body.Close()

	// Searching before the first run has been indexed hits a missing index;
	// that is an empty result, not an error.
	if resp.StatusCode == http.StatusNotFound {
		return &ClausePage{Page: page, PageSize: size}, nil
	}
	if resp.IsError() {
		return nil, apiError(resp, errors.ErrCodeSearchFailed, "clause search")
	}

	result, err := parseClausePage(resp.Body)
	if err != nil {
		return nil, err
	}
	result.Page = page
	result.PageSize = size

	s.logger.Debug("clause search executed",
		logging.String("query", q.Text),
		logging.Int64("hits", result.Total),
		logging.Duration("took", time.Since(start)))

	return result, nil
}

// buildClauseDSL assembles the bool query: full-text match on title and
// content in must, exact terms in filter.
func buildClauseDSL(q ClauseQuery, page, size int) map[string]interface{} {
	boolQuery := map[string]interface{}{}

	if q.Text != "" {
		boolQuery["must"] = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"title^2", "content"},
			},
		}
	} else {
		boolQuery["must"] = map[string]interface{}{"match_all": map[string]interface{}{}}
	}

	var filters []map[string]interface{}
	addTerm := func(field, value string) {
		if value != "" {
			filters = append(filters, map[string]interface{}{
				"term": map[string]interface{}{field: value},
			})
		}
	}
	addTerm("clause_type", q.ClauseType)
	addTerm("status", q.Status)
	addTerm("run_id", q.RunID)
	addTerm("side", q.Side)
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	dsl := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"from":  (page - 1) * size,
		"size":  size,
	}

	if q.Text != "" {
		dsl["highlight"] = map[string]interface{}{
			"fields":    map[string]interface{}{"content": map[string]interface{}{}},
			"pre_tags":  []string{"<em>"},
			"post_tags": []string{"</em>"},
		}
	} else {
		dsl["sort"] = []map[string]interface{}{
			{"indexed_at": map[string]interface{}{"order": "desc"}},
		}
	}

	return dsl
}

func parseClausePage(body io.Reader) (*ClausePage, error) {
	var resp struct {
		Took int64 `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID        string              `json:"_id"`
				Score     float64             `json:"_score"`
				Source    ClauseDocument      `json:"_source"`
				Highlight map[string][]string `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search response")
	}

	page := &ClausePage{
		Total:  resp.Hits.Total.Value,
		TookMs: resp.Took,
	}
	for _, h := range resp.Hits.Hits {
		page.Hits = append(page.Hits, ClauseHit{
			ID:         h.ID,
			Score:      h.Score,
			Clause:     h.Source,
			Highlights: h.Highlight,
		})
	}
	return page, nil
}
