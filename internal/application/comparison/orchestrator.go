// Package comparison provides the application-level services for contract
// comparison: the clause pipeline orchestrator, the run service with
// caching and asynchronous dispatch, and the headline report builder.
// This package sits between the HTTP/CLI/worker interfaces and the domain
// logic in internal/domain.
package comparison

import (
	"context"

	"golang.org/x/sync/errgroup"

	domainComparison "github.com/turtacn/ClauseLens/internal/domain/comparison"
	"github.com/turtacn/ClauseLens/internal/domain/contract"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/internal/intelligence/counsel_gpt"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

// DefaultAnalysisConcurrency bounds the per-run analysis fan-out when no
// explicit limit is configured.
const DefaultAnalysisConcurrency = 4

// Orchestrator executes the clause pipeline for one document pair:
// segmentation, classification, obligation splitting, cross-document
// matching, and per-pair analysis.  It is stateless across runs and safe
// for concurrent use.
type Orchestrator struct {
	segmenter   *contract.TextSegmenter
	classifier  *contract.ClauseClassifier
	splitter    *contract.ObligationSplitter
	matcher     *domainComparison.DocumentMatcher
	resolver    *domainComparison.StatusResolver
	analyzer    counsel_gpt.Analyzer
	concurrency int
	metrics     Metrics
	logger      logging.Logger
}

// NewOrchestrator constructs an orchestrator around the default taxonomy,
// segmenter and matcher.  analyzer may be nil, in which case every matched
// pair carries the degraded analysis triple; metrics and logger may be nil.
func NewOrchestrator(analyzer counsel_gpt.Analyzer, concurrency int, metrics Metrics, logger logging.Logger) *Orchestrator {
	if concurrency <= 0 {
		concurrency = DefaultAnalysisConcurrency
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Orchestrator{
		segmenter:   contract.NewTextSegmenter(),
		classifier:  contract.NewClauseClassifier(nil),
		splitter:    contract.NewObligationSplitter(),
		matcher:     domainComparison.NewDocumentMatcher(nil),
		resolver:    domainComparison.NewStatusResolver(),
		analyzer:    analyzer,
		concurrency: concurrency,
		metrics:     metrics,
		logger:      logger.Named("orchestrator"),
	}
}

// Compare runs the full pipeline for one document pair and returns one
// result per client clause, in client document order.  A segmentation
// failure on either side is fatal and nothing is produced; an analysis
// failure degrades only its own pair.
func (o *Orchestrator) Compare(ctx context.Context, clientText, vendorText string) ([]domainComparison.Result, error) {
	clientClauses, err := o.extractClauses(clientText)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "failed to segment client document")
	}
	vendorClauses, err := o.extractClauses(vendorText)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "failed to segment vendor document")
	}
	o.metrics.AddClauses(SideClient, len(clientClauses))
	o.metrics.AddClauses(SideVendor, len(vendorClauses))

	candidates := o.matcher.Match(clientClauses, vendorClauses)

	// Missing pairs are resolved synchronously; matched pairs fan out so
	// their analysis calls run concurrently.  Workers write into their own
	// slot, never return an error, and the join keeps client order intact.
	results := make([]domainComparison.Result, len(candidates))
	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)
	for i, candidate := range candidates {
		if !candidate.Matched() {
			results[i] = o.missingResult(candidate)
			continue
		}
		i, candidate := i, candidate
		g.Go(func() error {
			results[i] = o.matchedResult(ctx, candidate)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "comparison aborted")
	}

	o.logger.Debug("pipeline completed",
		logging.Int("client_clauses", len(clientClauses)),
		logging.Int("vendor_clauses", len(vendorClauses)))
	return results, nil
}

// extractClauses segments a document text and classifies and splits every
// section into a clause.
func (o *Orchestrator) extractClauses(text string) ([]contract.Clause, error) {
	sections, err := o.segmenter.Segment(text)
	if err != nil {
		return nil, err
	}
	clauses := make([]contract.Clause, len(sections))
	for i, section := range sections {
		clauses[i] = contract.Clause{
			Section:     section,
			Type:        o.classifier.Classify(section),
			Obligations: o.splitter.Split(section.Content),
		}
	}
	return clauses, nil
}

// missingResult builds the result for a client clause whose type is absent
// from the vendor document.  No analysis call is made for missing pairs.
func (o *Orchestrator) missingResult(c domainComparison.MatchCandidate) domainComparison.Result {
	return domainComparison.Result{
		Title:        c.Client.Title,
		ClauseType:   c.Client.Type,
		ClientText:   c.Client.Content,
		Status:       domainComparison.StatusMissing,
		Risk:         o.resolver.ResolveRisk(domainComparison.StatusMissing, ""),
		SuggestedFix: o.resolver.SuggestedFix(domainComparison.StatusMissing, c.Client.Type, c.Client.Title),
	}
}

// matchedResult builds the result for a matched pair.  When the analysis
// collaborator fails the pair keeps its similarity verdict but carries the
// fallback triple and an unknown risk level.
func (o *Orchestrator) matchedResult(ctx context.Context, c domainComparison.MatchCandidate) domainComparison.Result {
	status := o.resolver.ResolveStatus(c)
	score := c.Score
	result := domainComparison.Result{
		Title:        c.Client.Title,
		ClauseType:   c.Client.Type,
		ClientText:   c.Client.Content,
		VendorText:   c.Vendor.Content,
		Status:       status,
		Score:        &score,
		SuggestedFix: o.resolver.SuggestedFix(status, c.Client.Type, c.Client.Title),
	}

	analysis, err := o.analyze(ctx, c)
	if err != nil {
		fallback := counsel_gpt.FallbackAnalysis()
		result.Summary = fallback.Summary
		result.Recommendation = fallback.Recommendation
		result.Risk = domainComparison.RiskUnknown
		return result
	}
	result.Summary = analysis.Summary
	result.Recommendation = analysis.Recommendation
	result.Risk = o.resolver.ResolveRisk(status, analysis.Risk)
	return result
}

// analyze performs the single analysis attempt for a matched pair.
func (o *Orchestrator) analyze(ctx context.Context, c domainComparison.MatchCandidate) (*counsel_gpt.Analysis, error) {
	if o.analyzer == nil {
		return nil, errors.New(errors.ErrCodeAnalysisUnavailable, "no analyzer configured")
	}
	analysis, err := o.analyzer.Analyze(ctx, c.Client.Type, c.Client.Content, c.Vendor.Content)
	if err != nil {
		o.metrics.ObserveAnalysis(AnalysisOutcomeFailure)
		o.logger.Warn("clause analysis degraded",
			logging.String("clause_type", c.Client.Type.String()),
			logging.String("clause", c.Client.Title),
			logging.Err(err))
		return nil, err
	}
	if analysis == nil {
		o.metrics.ObserveAnalysis(AnalysisOutcomeFailure)
		return nil, errors.New(errors.ErrCodeAnalysisResponseInvalid, "analyzer returned no analysis")
	}
	o.metrics.ObserveAnalysis(AnalysisOutcomeSuccess)
	return analysis, nil
}
