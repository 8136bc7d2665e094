package contract

import "strings"

// ClauseClassifier assigns a ClauseType to a section by case-insensitive
// keyword search over its title and content.  The taxonomy's rule order is
// the priority order and the first matching rule wins, so a clause mentioning
// both payment and termination vocabulary classifies as Payment Terms.
type ClauseClassifier struct {
	taxonomy *Taxonomy
}

// NewClauseClassifier returns a classifier over the given taxonomy, or the
// default taxonomy when nil.
func NewClauseClassifier(taxonomy *Taxonomy) *ClauseClassifier {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	return &ClauseClassifier{taxonomy: taxonomy}
}

// Classify returns the clause type for a section, or General Terms when no
// keyword set matches.
func (c *ClauseClassifier) Classify(section Section) ClauseType {
	haystack := strings.ToLower(section.Title + " " + section.Content)
	for _, rule := range c.taxonomy.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(haystack, kw) {
				return rule.Type
			}
		}
	}
	return ClauseGeneralTerms
}

// ReportClassifier maps a classified clause onto the five-member reporting
// taxonomy.  It searches the clause type name together with title and content
// against the reporting keyword table; clauses matching no category are
// excluded from headline reporting.
type ReportClassifier struct {
	taxonomy *ReportTaxonomy
}

// NewReportClassifier returns a classifier over the given reporting taxonomy,
// or the default when nil.
func NewReportClassifier(taxonomy *ReportTaxonomy) *ReportClassifier {
	if taxonomy == nil {
		taxonomy = DefaultReportTaxonomy()
	}
	return &ReportClassifier{taxonomy: taxonomy}
}

// Categorize returns the reporting category for a clause and whether the
// clause belongs to the reporting taxonomy at all.
func (c *ReportClassifier) Categorize(clause Clause) (ReportCategory, bool) {
	haystack := strings.ToLower(clause.Type.String() + " " + clause.Title + " " + clause.Content)
	for _, rule := range c.taxonomy.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(haystack, kw) {
				return rule.Category, true
			}
		}
	}
	return "", false
}
