package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/ClauseLens/internal/domain/comparison"
	"github.com/turtacn/ClauseLens/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/ClauseLens/pkg/errors"
)

const runColumns = `id, client_document_id, vendor_document_id, status, cache_key,
       error_msg, clause_count, created_at, started_at, completed_at`

// RunRepository is the PostgreSQL implementation of comparison.RunRepository.
// Results are stored one row per client clause, keyed by (run_id, position)
// so that read order always matches the client document's clause order.
type RunRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

var _ comparison.RunRepository = (*RunRepository)(nil)

// NewRunRepository constructs a ready-to-use RunRepository.
func NewRunRepository(pool *pgxpool.Pool, logger logging.Logger) *RunRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RunRepository{pool: pool, logger: logger.Named("run_repo")}
}

// CreateRun inserts a new run row.
func (r *RunRepository) CreateRun(ctx context.Context, run *comparison.Run) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO comparison_runs (`+runColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		run.ID, run.ClientDocumentID, run.VendorDocumentID, run.Status, run.CacheKey,
		run.ErrorMsg, run.ClauseCount, run.CreatedAt,
		nilIfZero(run.StartedAt), nilIfZero(run.CompletedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.Newf(appErrors.ErrCodeConflict, "comparison run %s already exists", run.ID)
		}
		r.logger.Error("failed to insert run", logging.Err(err), logging.String("run_id", run.ID))
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to insert run")
	}
	return nil
}

// GetRun loads one run by primary key.
func (r *RunRepository) GetRun(ctx context.Context, id string) (*comparison.Run, error) {
	run, err := scanRun(r.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM comparison_runs WHERE id = $1`, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, appErrors.Newf(appErrors.ErrCodeRunNotFound, "comparison run %s not found", id)
		}
		r.logger.Error("failed to query run", logging.Err(err), logging.String("run_id", id))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to query run")
	}
	return run, nil
}

// UpdateRun overwrites the mutable columns of an existing run.
func (r *RunRepository) UpdateRun(ctx context.Context, run *comparison.Run) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE comparison_runs
		SET status = $2, cache_key = $3, error_msg = $4, clause_count = $5,
		    started_at = $6, completed_at = $7
		WHERE id = $1`,
		run.ID, run.Status, run.CacheKey, run.ErrorMsg, run.ClauseCount,
		nilIfZero(run.StartedAt), nilIfZero(run.CompletedAt),
	)
	if err != nil {
		r.logger.Error("failed to update run", logging.Err(err), logging.String("run_id", run.ID))
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to update run")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.Newf(appErrors.ErrCodeRunNotFound, "comparison run %s not found", run.ID)
	}
	return nil
}

// ListRuns returns one page of runs matching filter, newest first, together
// with the unpaged total.
func (r *RunRepository) ListRuns(ctx context.Context, filter comparison.RunFilter, limit, offset int) ([]*comparison.Run, int64, error) {
	var (
		conditions []string
		args       []interface{}
	)
	nextArg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conditions = append(conditions, "status = "+nextArg(filter.Status))
	}
	if filter.DocumentID != "" {
		ph := nextArg(filter.DocumentID)
		conditions = append(conditions,
			fmt.Sprintf("(client_document_id = %s OR vendor_document_id = %s)", ph, ph))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM comparison_runs"+where, args...).Scan(&total); err != nil {
		if isMalformedID(err) {
			return nil, 0, nil
		}
		r.logger.Error("failed to count runs", logging.Err(err))
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to count runs")
	}

	query := "SELECT " + runColumns + " FROM comparison_runs" + where +
		" ORDER BY created_at DESC LIMIT " + nextArg(limit) + " OFFSET " + nextArg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list runs", logging.Err(err))
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to list runs")
	}
	defer rows.Close()

	var runs []*comparison.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to read run rows")
	}
	return runs, total, nil
}

// FindCompletedByCacheKey returns the most recent completed run for a
// document-pair digest.
func (r *RunRepository) FindCompletedByCacheKey(ctx context.Context, cacheKey string) (*comparison.Run, error) {
	if cacheKey == "" {
		return nil, appErrors.NewValidation("cache key is required")
	}
	run, err := scanRun(r.pool.QueryRow(ctx, `
		SELECT `+runColumns+`
		FROM comparison_runs
		WHERE cache_key = $1 AND status = $2
		ORDER BY completed_at DESC
		LIMIT 1`, cacheKey, comparison.RunStatusCompleted))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeRunNotFound, "no completed run for cache key")
		}
		r.logger.Error("failed to query run by cache key", logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to query run by cache key")
	}
	return run, nil
}

// SaveResults replaces the stored results of a run in a single transaction.
func (r *RunRepository) SaveResults(ctx context.Context, runID string, results []comparison.Result) error {
	if runID == "" {
		return appErrors.NewValidation("run id is required")
	}

	err := postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM comparison_results WHERE run_id = $1`, runID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to clear previous results")
		}
		for i, res := range results {
			if _, err := tx.Exec(ctx, `
				INSERT INTO comparison_results (
					run_id, position, title, clause_type, client_text, vendor_text,
					status, risk, score, summary, recommendation, suggested_fix
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
				runID, i, res.Title, res.ClauseType, res.ClientText, res.VendorText,
				res.Status, res.Risk, res.Score, res.Summary, res.Recommendation, res.SuggestedFix,
			); err != nil {
				return appErrors.Wrapf(err, appErrors.ErrCodeDatabaseError, "failed to insert result %d", i)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to save results", logging.Err(err), logging.String("run_id", runID))
		return err
	}

	r.logger.Debug("saved results", logging.String("run_id", runID), logging.Int("count", len(results)))
	return nil
}

// GetResults returns the stored results of a run in client-clause order.
func (r *RunRepository) GetResults(ctx context.Context, runID string) ([]comparison.Result, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT title, clause_type, client_text, vendor_text, status, risk,
		       score, summary, recommendation, suggested_fix
		FROM comparison_results
		WHERE run_id = $1
		ORDER BY position`, runID)
	if err != nil {
		if isMalformedID(err) {
			return nil, nil
		}
		r.logger.Error("failed to query results", logging.Err(err), logging.String("run_id", runID))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to query results")
	}
	defer rows.Close()

	var results []comparison.Result
	for rows.Next() {
		var res comparison.Result
		if err := rows.Scan(
			&res.Title, &res.ClauseType, &res.ClientText, &res.VendorText, &res.Status, &res.Risk,
			&res.Score, &res.Summary, &res.Recommendation, &res.SuggestedFix,
		); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan result")
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to read result rows")
	}
	return results, nil
}

// DeleteResults removes all stored results of a run.
func (r *RunRepository) DeleteResults(ctx context.Context, runID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM comparison_results WHERE run_id = $1`, runID); err != nil {
		if isMalformedID(err) {
			return nil
		}
		r.logger.Error("failed to delete results", logging.Err(err), logging.String("run_id", runID))
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to delete results")
	}
	return nil
}

func scanRun(row pgx.Row) (*comparison.Run, error) {
	var (
		run                    comparison.Run
		startedAt, completedAt *time.Time
	)
	if err := row.Scan(
		&run.ID, &run.ClientDocumentID, &run.VendorDocumentID, &run.Status, &run.CacheKey,
		&run.ErrorMsg, &run.ClauseCount, &run.CreatedAt, &startedAt, &completedAt,
	); err != nil {
		return nil, err
	}
	run.StartedAt = timeOrZero(startedAt)
	run.CompletedAt = timeOrZero(completedAt)
	return &run, nil
}
