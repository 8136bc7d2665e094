package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/ClauseLens/internal/config"
	"github.com/turtacn/ClauseLens/internal/domain/comparison"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

// Side values for ClauseDocument.Side.
const (
	SideClient = "client"
	SideVendor = "vendor"
)

// ClauseDocument is the indexed representation of one clause side from a
// comparison result.
type ClauseDocument struct {
	RunID      string    `json:"run_id"`
	Side       string    `json:"side"`
	ClauseType string    `json:"clause_type"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Status     string    `json:"status"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// BulkResult reports the outcome of a bulk indexing call.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    []BulkError
}

// BulkError describes one rejected document.
type BulkError struct {
	DocID  string
	Type   string
	Reason string
}

// Indexer writes clause documents for completed comparison runs.  It backs
// the application layer's clause indexer port.
type Indexer struct {
	client    *Client
	index     string
	batchSize int
	logger    logging.Logger
}

// NewIndexer returns an Indexer writing to the clause index derived from the
// configured prefix.
func NewIndexer(client *Client, cfg config.OpenSearchConfig, logger logging.Logger) *Indexer {
	batch := cfg.BulkBatchSize
	if batch <= 0 {
		batch = 500
	}
	return &Indexer{
		client:    client,
		index:     clauseIndexName(cfg),
		batchSize: batch,
		logger:    logger.Named("indexer"),
	}
}

// clauseIndexName derives the clause index name from the configured prefix.
func clauseIndexName(cfg config.OpenSearchConfig) string {
	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = "clauselens"
	}
	return prefix + "-clauses"
}

// IndexName returns the index this indexer writes to.
func (i *Indexer) IndexName() string { return i.index }

// EnsureIndex creates the clause index when it does not exist yet.  Safe to
// call on every startup; a create losing the race to another instance is
// treated as success.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	exists, err := i.indexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	body, err := json.Marshal(clauseIndexMapping())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode index mapping")
	}

	req := opensearchapi.IndicesCreateRequest{
		Index: i.index,
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, i.client.API())
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodeIndexFailed, "failed to create index %s", i.index)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		err := apiError(resp, errors.ErrCodeIndexFailed, "index creation")
		if strings.Contains(err.Error(), "resource_already_exists_exception") {
			return nil
		}
		return err
	}

	i.logger.Info("clause index created", logging.String("index", i.index))
	return nil
}

// IndexRun indexes every clause side of a completed run.  Document ids are
// deterministic, so re-executing a run overwrites its documents instead of
// duplicating them.
func (i *Indexer) IndexRun(ctx context.Context, runID string, results []comparison.Result) error {
	docs := clauseDocuments(runID, results)
	if len(docs) == 0 {
		return nil
	}

	res, err := i.bulkIndex(ctx, docs)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		first := res.Errors[0]
		return errors.Newf(errors.ErrCodeIndexFailed,
			"%d of %d clause documents rejected: %s: %s",
			res.Failed, len(docs), first.Type, first.Reason)
	}

	i.logger.Info("run clauses indexed",
		logging.String("run_id", runID),
		logging.Int("documents", res.Succeeded))
	return nil
}

// bulkDoc pairs a document with its id, keeping batch order deterministic.
type bulkDoc struct {
	ID  string
	Doc ClauseDocument
}

// clauseDocuments flattens run results into indexable documents.  The client
// side is always present; the vendor side only when a counterpart matched.
func clauseDocuments(runID string, results []comparison.Result) []bulkDoc {
	now := time.Now().UTC()
	docs := make([]bulkDoc, 0, len(results)*2)
	for pos, r := range results {
		docs = append(docs, bulkDoc{
			ID: fmt.Sprintf("%s:%d:%s", runID, pos, SideClient),
			Doc: ClauseDocument{
				RunID:      runID,
				Side:       SideClient,
				ClauseType: r.ClauseType.String(),
				Title:      r.Title,
				Content:    r.ClientText,
				Status:     r.Status.String(),
				IndexedAt:  now,
			},
		})
		if r.VendorText == "" {
			continue
		}
		docs = append(docs, bulkDoc{
			ID: fmt.Sprintf("%s:%d:%s", runID, pos, SideVendor),
			Doc: ClauseDocument{
				RunID:      runID,
				Side:       SideVendor,
				ClauseType: r.ClauseType.String(),
				Title:      r.Title,
				Content:    r.VendorText,
				Status:     r.Status.String(),
				IndexedAt:  now,
			},
		})
	}
	return docs
}

func (i *Indexer) bulkIndex(ctx context.Context, docs []bulkDoc) (*BulkResult, error) {
	result := &BulkResult{}

	for start := 0; start < len(docs); start += i.batchSize {
		end := start + i.batchSize
		if end > len(docs) {
			end = len(docs)
		}

		var buf bytes.Buffer
		for _, d := range docs[start:end] {
			fmt.Fprintf(&buf, `{"index":{"_index":"%s","_id":"%s"}}`, i.index, d.ID)
			buf.WriteByte('\n')
			payload, err := json.Marshal(d.Doc)
			if err != nil {
				return result, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode clause document")
			}
			buf.Write(payload)
			buf.WriteByte('\n')
		}

		req := opensearchapi.BulkRequest{Body: bytes.NewReader(buf.Bytes())}
		resp, err := req.Do(ctx, i.client.API())
		if err != nil {
			return result, errors.Wrap(err, errors.ErrCodeIndexFailed, "bulk request failed")
		}
		if resp.IsError() {
			err := apiError(resp, errors.ErrCodeIndexFailed, "bulk indexing")
			resp.Body.Close()
			return result, err
		}

		batch, err := parseBulkResponse(resp.Body)
		resp.Body.Close()
		if err != nil {
			return result, err
		}
		result.Succeeded += batch.Succeeded
		result.Failed += batch.Failed
		result.Errors = append(result.Errors, batch.Errors...)
	}

	return result, nil
}

func parseBulkResponse(body io.Reader) (*BulkResult, error) {
	var resp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode bulk response")
	}

	result := &BulkResult{}
	for _, item := range resp.Items {
		// Each item holds a single action key, "index" for our requests.
		for _, v := range item {
			if v.Status >= 200 && v.Status < 300 {
				result.Succeeded++
			} else {
				result.Failed++
				result.Errors = append(result.Errors, BulkError{
					DocID:  v.ID,
					Type:   v.Error.Type,
					Reason: v.Error.Reason,
				})
			}
			break
		}
	}
	return result, nil
}

func (i *Indexer) indexExists(ctx context.Context) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{Index: []string{i.index}}
	resp, err := req.Do(ctx, i.client.API())
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrCodeIndexFailed, "failed to check index %s", i.index)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	}
	return false, apiError(resp, errors.ErrCodeIndexFailed, "index existence check")
}

// clauseIndexMapping is the schema for clause documents.  Title and content
// are analyzed for full-text search; the rest are exact-match keywords.
func clauseIndexMapping() map[string]interface{} {
	return map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 1,
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"run_id":      map[string]interface{}{"type": "keyword"},
				"side":        map[string]interface{}{"type": "keyword"},
				"clause_type": map[string]interface{}{"type": "keyword"},
				"title":       map[string]interface{}{"type": "text"},
				"content":     map[string]interface{}{"type": "text"},
				"status":      map[string]interface{}{"type": "keyword"},
				"indexed_at":  map[string]interface{}{"type": "date"},
			},
		},
	}
}
