package comparison

import "context"

// RunFilter narrows run listings.  Zero values match everything.
type RunFilter struct {
	Status     RunStatus
	DocumentID string // matches either side of the pair
}

// RunRepository defines the persistence contract for comparison runs and
// their results.
type RunRepository interface {
	// Runs
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	UpdateRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, filter RunFilter, limit, offset int) ([]*Run, int64, error)
	// FindCompletedByCacheKey returns the most recent completed run for a
	// document-pair digest, or a not-found error.
	FindCompletedByCacheKey(ctx context.Context, cacheKey string) (*Run, error)

	// Results, keyed by run and stored in client-clause order.
	SaveResults(ctx context.Context, runID string, results []Result) error
	GetResults(ctx context.Context, runID string) ([]Result, error)
	DeleteResults(ctx context.Context, runID string) error
}
