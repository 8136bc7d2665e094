package comparison

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	domainComparison "github.com/turtacn/ClauseLens/internal/domain/comparison"
	"github.com/turtacn/ClauseLens/internal/domain/contract"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/pkg/errors"
	"github.com/turtacn/ClauseLens/pkg/types/common"
)

// Topics for asynchronous run processing.  The worker consumes
// TopicRunRequested and moves poisoned requests to TopicRunDeadLetter;
// TopicRunCompleted is emitted after every successful run.
const (
	TopicRunRequested  = "comparison.run.requested"
	TopicRunCompleted  = "comparison.run.completed"
	TopicRunDeadLetter = "comparison.run.requested.dlq"
)

// Cache key prefixes. Result sets are keyed by document-pair digest,
// reports by run ID; both are immutable once a run completes.
const (
	resultCachePrefix = "comparison:results:"
	reportCachePrefix = "comparison:report:"
)

// RunRequestedEvent is the payload published to TopicRunRequested.
type RunRequestedEvent struct {
	RunID            string    `json:"run_id"`
	ClientDocumentID string    `json:"client_document_id"`
	VendorDocumentID string    `json:"vendor_document_id"`
	RequestedAt      time.Time `json:"requested_at"`
}

// RunCompletedEvent is the payload published to TopicRunCompleted.
type RunCompletedEvent struct {
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	ClauseCount int       `json:"clause_count"`
	DurationMs  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
}

// ResultCache is the slice of the redis cache consumed by the run service.
// The redis implementation in internal/infrastructure/database/redis
// satisfies it.
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
		loader func(ctx context.Context) (interface{}, error)) error
}

// EventPublisher dispatches run lifecycle events to the message bus.  The
// kafka producer in internal/infrastructure/messaging/kafka satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// ClauseIndexer mirrors completed run results into the clause search
// index.  The opensearch indexer in internal/infrastructure/search
// satisfies it.
type ClauseIndexer interface {
	IndexRun(ctx context.Context, runID string, results []domainComparison.Result) error
}

// Service is the application-level contract for comparison runs.
type Service interface {
	// Run compares two extracted documents synchronously and returns the
	// completed run with its ordered results.
	Run(ctx context.Context, clientDocumentID, vendorDocumentID string) (*RunOutput, error)

	// RunAsync persists a pending run and enqueues it for the worker.
	RunAsync(ctx context.Context, clientDocumentID, vendorDocumentID string) (*domainComparison.Run, error)

	// Execute runs a previously persisted pending run.  The worker calls
	// this for each consumed run request.
	Execute(ctx context.Context, runID string) (*RunOutput, error)

	// Get returns a single run by ID.
	Get(ctx context.Context, runID string) (*domainComparison.Run, error)

	// List returns a filtered page of runs.
	List(ctx context.Context, input *ListInput) (*ListResult, error)

	// Results returns the ordered results of a completed run.
	Results(ctx context.Context, runID string) ([]domainComparison.Result, error)

	// Report returns the headline category report of a completed run,
	// served from the result cache when one is configured.
	Report(ctx context.Context, runID string) (*domainComparison.Report, error)
}

// RunOutput couples a finished run with its ordered results.
type RunOutput struct {
	Run     *domainComparison.Run     `json:"run"`
	Results []domainComparison.Result `json:"results"`
}

// ListInput carries filtering and pagination parameters for listing runs.
type ListInput struct {
	Page       int
	PageSize   int
	Status     string
	DocumentID string
}

// ListResult is a page of runs.
type ListResult struct {
	Runs       []*domainComparison.Run `json:"runs"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalPages int                     `json:"total_pages"`
}

// Config carries the tunables of the run service.
type Config struct {
	// CacheTTL bounds how long cached result sets stay valid.
	CacheTTL time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{CacheTTL: 24 * time.Hour}
}

// serviceImpl is the concrete Service implementation.
type serviceImpl struct {
	docs      contract.DocumentRepository
	runs      domainComparison.RunRepository
	engine    *Orchestrator
	reporter  *ReportBuilder
	cache     ResultCache
	publisher EventPublisher
	indexer   ClauseIndexer
	metrics   Metrics
	cfg       Config
	logger    logging.Logger
}

// NewService constructs the run service.  cache, publisher and indexer may
// be nil, in which case the corresponding side effects are skipped; RunAsync
// requires a publisher.
func NewService(
	docs contract.DocumentRepository,
	runs domainComparison.RunRepository,
	engine *Orchestrator,
	cache ResultCache,
	publisher EventPublisher,
	indexer ClauseIndexer,
	metrics Metrics,
	cfg Config,
	logger logging.Logger,
) Service {
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	return &serviceImpl{
		docs:      docs,
		runs:      runs,
		engine:    engine,
		reporter:  NewReportBuilder(nil),
		cache:     cache,
		publisher: publisher,
		indexer:   indexer,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger.Named("comparison_service"),
	}
}

// PairCacheKey derives the content-addressed cache key for a document pair.
// The key is direction-sensitive: swapping client and vendor yields a
// different key.  Empty when either digest is missing.
func PairCacheKey(clientDigest, vendorDigest string) string {
	if clientDigest == "" || vendorDigest == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(clientDigest + ":" + vendorDigest))
	return hex.EncodeToString(sum[:])
}

func (s *serviceImpl) Run(ctx context.Context, clientDocumentID, vendorDocumentID string) (*RunOutput, error) {
	client, vendor, err := s.loadPair(ctx, clientDocumentID, vendorDocumentID)
	if err != nil {
		return nil, err
	}

	run, err := domainComparison.NewRun(client.ID, vendor.ID)
	if err != nil {
		return nil, err
	}
	run.CacheKey = PairCacheKey(client.TextDigest, vendor.TextDigest)
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create comparison run")
	}
	return s.execute(ctx, run, client, vendor)
}

func (s *serviceImpl) RunAsync(ctx context.Context, clientDocumentID, vendorDocumentID string) (*domainComparison.Run, error) {
	if s.publisher == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "async runs require a message producer")
	}
	client, vendor, err := s.loadPair(ctx, clientDocumentID, vendorDocumentID)
	if err != nil {
		return nil, err
	}

	run, err := domainComparison.NewRun(client.ID, vendor.ID)
	if err != nil {
		return nil, err
	}
	run.CacheKey = PairCacheKey(client.TextDigest, vendor.TextDigest)
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create comparison run")
	}

	event := RunRequestedEvent{
		RunID:            run.ID,
		ClientDocumentID: run.ClientDocumentID,
		VendorDocumentID: run.VendorDocumentID,
		RequestedAt:      run.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, TopicRunRequested, run.ID, event); err != nil {
		run.MarkFailed("failed to enqueue run request")
		if uerr := s.runs.UpdateRun(ctx, run); uerr != nil {
			s.logger.Error("failed to record enqueue failure",
				logging.String("run_id", run.ID), logging.Err(uerr))
		}
		return nil, errors.Wrap(err, errors.ErrCodeMessageQueueError, "failed to enqueue comparison run")
	}

	s.logger.Info("comparison run enqueued",
		logging.String("run_id", run.ID),
		logging.String("client_document_id", run.ClientDocumentID),
		logging.String("vendor_document_id", run.VendorDocumentID))
	return run, nil
}

func (s *serviceImpl) Execute(ctx context.Context, runID string) (*RunOutput, error) {
	if runID == "" {
		return nil, errors.NewValidation("run id is required")
	}
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Terminal() {
		return nil, errors.Newf(errors.ErrCodeRunInvalidState,
			"run %s already finished with status %s", run.ID, run.Status)
	}

	client, vendor, err := s.loadPair(ctx, run.ClientDocumentID, run.VendorDocumentID)
	if err != nil {
		s.failRun(ctx, run, err)
		return nil, err
	}
	if run.CacheKey == "" {
		run.CacheKey = PairCacheKey(client.TextDigest, vendor.TextDigest)
	}
	return s.execute(ctx, run, client, vendor)
}

func (s *serviceImpl) Get(ctx context.Context, runID string) (*domainComparison.Run, error) {
	if runID == "" {
		return nil, errors.NewValidation("run id is required")
	}
	return s.runs.GetRun(ctx, runID)
}

func (s *serviceImpl) List(ctx context.Context, input *ListInput) (*ListResult, error) {
	if input == nil {
		input = &ListInput{}
	}
	page := common.Pagination{Page: input.Page, PageSize: input.PageSize}.Normalize()

	filter := domainComparison.RunFilter{DocumentID: input.DocumentID}
	if input.Status != "" {
		status := domainComparison.RunStatus(input.Status)
		if !status.Valid() {
			return nil, errors.NewValidation("unknown run status %q", input.Status)
		}
		filter.Status = status
	}

	runs, total, err := s.runs.ListRuns(ctx, filter, page.PageSize, page.Offset())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list comparison runs")
	}

	return &ListResult{
		Runs:       runs,
		Total:      total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: common.TotalPages(total, page.PageSize),
	}, nil
}

func (s *serviceImpl) Results(ctx context.Context, runID string) ([]domainComparison.Result, error) {
	run, err := s.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != domainComparison.RunStatusCompleted {
		return nil, errors.Newf(errors.ErrCodeRunInvalidState,
			"results are only available for completed runs; run %s is %s", run.ID, run.Status)
	}
	results, err := s.runs.GetResults(ctx, run.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load comparison results")
	}
	return results, nil
}

// Report serves the category report from the cache when possible. A report
// never changes once its run has completed, so concurrent first readers are
// collapsed into a single build and every later reader hits the cached copy.
// Build failures pass through untouched and are never cached.
func (s *serviceImpl) Report(ctx context.Context, runID string) (*domainComparison.Report, error) {
	if s.cache == nil {
		return s.buildReport(ctx, runID)
	}
	var report domainComparison.Report
	err := s.cache.GetOrSet(ctx, reportCachePrefix+runID, &report, s.cfg.CacheTTL,
		func(ctx context.Context) (interface{}, error) {
			built, err := s.buildReport(ctx, runID)
			if err != nil {
				return nil, err
			}
			return built, nil
		})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *serviceImpl) buildReport(ctx context.Context, runID string) (*domainComparison.Report, error) {
	results, err := s.Results(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.reporter.Build(runID, results), nil
}

// execute drives a persisted run through the pipeline: cache lookup,
// comparison, result persistence, then the non-fatal side effects (cache
// write, search indexing, completion event, metrics).
func (s *serviceImpl) execute(ctx context.Context, run *domainComparison.Run, client, vendor *contract.Document) (*RunOutput, error) {
	run.MarkRunning()
	if err := s.runs.UpdateRun(ctx, run); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update comparison run")
	}
	s.logger.Info("comparison run started",
		logging.String("run_id", run.ID),
		logging.String("client_document_id", client.ID),
		logging.String("vendor_document_id", vendor.ID))

	results, cached := s.lookupCached(ctx, run.CacheKey)
	if !cached {
		var err error
		results, err = s.engine.Compare(ctx, client.Text, vendor.Text)
		if err != nil {
			s.failRun(ctx, run, err)
			return nil, err
		}
	}

	if err := s.runs.SaveResults(ctx, run.ID, results); err != nil {
		err = errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to persist comparison results")
		s.failRun(ctx, run, err)
		return nil, err
	}
	run.MarkCompleted(len(results))
	if err := s.runs.UpdateRun(ctx, run); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update comparison run")
	}

	if !cached {
		s.storeCached(ctx, run.CacheKey, results)
	}
	s.indexResults(ctx, run.ID, results)
	s.publishCompleted(ctx, run)
	s.metrics.ObserveRun(run.Status, runDuration(run))
	s.logger.Info("comparison run completed",
		logging.String("run_id", run.ID),
		logging.Int("clauses", len(results)),
		logging.Bool("cache_hit", cached))

	return &RunOutput{Run: run, Results: results}, nil
}

// loadPair fetches both documents and verifies they carry extracted text.
func (s *serviceImpl) loadPair(ctx context.Context, clientDocumentID, vendorDocumentID string) (*contract.Document, *contract.Document, error) {
	if clientDocumentID == "" || vendorDocumentID == "" {
		return nil, nil, errors.NewValidation("both client_document_id and vendor_document_id are required")
	}
	client, err := s.docs.GetByID(ctx, clientDocumentID)
	if err != nil {
		return nil, nil, err
	}
	vendor, err := s.docs.GetByID(ctx, vendorDocumentID)
	if err != nil {
		return nil, nil, err
	}
	for _, doc := range []*contract.Document{client, vendor} {
		if !doc.Extracted() {
			return nil, nil, errors.Newf(errors.ErrCodeRunInvalidState,
				"document %s has no extracted text (status %s)", doc.ID, doc.Status)
		}
	}
	return client, vendor, nil
}

// lookupCached checks redis first, then the durable store, for results of a
// previously completed run over the same content pair.
func (s *serviceImpl) lookupCached(ctx context.Context, cacheKey string) ([]domainComparison.Result, bool) {
	if cacheKey == "" {
		return nil, false
	}
	if s.cache != nil {
		var results []domainComparison.Result
		if err := s.cache.Get(ctx, resultCachePrefix+cacheKey, &results); err == nil && len(results) > 0 {
			s.metrics.ObserveCacheLookup(true)
			return results, true
		}
	}
	if prior, err := s.runs.FindCompletedByCacheKey(ctx, cacheKey); err == nil && prior != nil {
		if results, rerr := s.runs.GetResults(ctx, prior.ID); rerr == nil && len(results) > 0 {
			s.metrics.ObserveCacheLookup(true)
			return results, true
		}
	}
	s.metrics.ObserveCacheLookup(false)
	return nil, false
}

func (s *serviceImpl) storeCached(ctx context.Context, cacheKey string, results []domainComparison.Result) {
	if s.cache == nil || cacheKey == "" {
		return
	}
	if err := s.cache.Set(ctx, resultCachePrefix+cacheKey, results, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache comparison results",
			logging.String("cache_key", cacheKey), logging.Err(err))
	}
}

func (s *serviceImpl) indexResults(ctx context.Context, runID string, results []domainComparison.Result) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexRun(ctx, runID, results); err != nil {
		s.logger.Warn("clause indexing failed",
			logging.String("run_id", runID), logging.Err(err))
	}
}

func (s *serviceImpl) publishCompleted(ctx context.Context, run *domainComparison.Run) {
	if s.publisher == nil {
		return
	}
	event := RunCompletedEvent{
		RunID:       run.ID,
		Status:      run.Status.String(),
		ClauseCount: run.ClauseCount,
		DurationMs:  runDuration(run).Milliseconds(),
		CompletedAt: run.CompletedAt,
	}
	if err := s.publisher.Publish(ctx, TopicRunCompleted, run.ID, event); err != nil {
		s.logger.Warn("failed to publish run completion",
			logging.String("run_id", run.ID), logging.Err(err))
	}
}

// failRun marks the run failed and records the failure; the original error
// propagates to the caller unchanged.
func (s *serviceImpl) failRun(ctx context.Context, run *domainComparison.Run, cause error) {
	run.MarkFailed(cause.Error())
	if err := s.runs.UpdateRun(ctx, run); err != nil {
		s.logger.Error("failed to record run failure",
			logging.String("run_id", run.ID), logging.Err(err))
	}
	s.metrics.ObserveRun(domainComparison.RunStatusFailed, runDuration(run))
	s.logger.Error("comparison run failed",
		logging.String("run_id", run.ID), logging.Err(cause))
}

func runDuration(run *domainComparison.Run) time.Duration {
	if run.StartedAt.IsZero() || run.CompletedAt.IsZero() {
		return 0
	}
	return run.CompletedAt.Sub(run.StartedAt)
}
