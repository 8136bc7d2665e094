package comparison

import (
	"time"

	domainComparison "github.com/turtacn/ClauseLens/internal/domain/comparison"
	"github.com/turtacn/ClauseLens/internal/domain/contract"
)

// ReportBuilder condenses a run's stored results into the headline report
// over the reporting categories.
type ReportBuilder struct {
	taxonomy   *contract.ReportTaxonomy
	classifier *contract.ReportClassifier
}

// NewReportBuilder returns a builder over the given reporting taxonomy, or
// the default five-category taxonomy when nil.
func NewReportBuilder(taxonomy *contract.ReportTaxonomy) *ReportBuilder {
	if taxonomy == nil {
		taxonomy = contract.DefaultReportTaxonomy()
	}
	return &ReportBuilder{
		taxonomy:   taxonomy,
		classifier: contract.NewReportClassifier(taxonomy),
	}
}

// Build assembles the report for one run.  Overall counts every result;
// each category summary covers only the results matching that reporting
// category.  Categories appear in taxonomy order, including empty ones, so
// the report shape is stable across runs.
func (b *ReportBuilder) Build(runID string, results []domainComparison.Result) *domainComparison.Report {
	categories := b.taxonomy.Categories()
	summaries := make(map[contract.ReportCategory]*domainComparison.CategorySummary, len(categories))
	for _, category := range categories {
		summaries[category] = &domainComparison.CategorySummary{Category: category}
	}

	report := &domainComparison.Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
	}
	for _, result := range results {
		report.Overall.Add(result.Status)
		category, ok := b.classifier.Categorize(reportClause(result))
		if !ok {
			continue
		}
		summary := summaries[category]
		summary.Add(result.Status)
		if result.Risk == domainComparison.RiskHigh {
			summary.HighRisk++
		}
		summary.Clauses = append(summary.Clauses, result.Title)
	}

	report.Categories = make([]domainComparison.CategorySummary, 0, len(categories))
	for _, category := range categories {
		report.Categories = append(report.Categories, *summaries[category])
	}
	return report
}

// reportClause rebuilds the clause view the report classifier expects from
// a stored result.
func reportClause(r domainComparison.Result) contract.Clause {
	return contract.Clause{
		Section: contract.Section{Title: r.Title, Content: r.ClientText},
		Type:    r.ClauseType,
	}
}
