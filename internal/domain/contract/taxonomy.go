package contract

// ClauseType is the legal-subject category assigned to a clause.
type ClauseType string

const (
	ClausePaymentTerms         ClauseType = "Payment Terms"
	ClauseDeliveryTerms        ClauseType = "Delivery Terms"
	ClauseRiskLiability        ClauseType = "Risk and Liability"
	ClauseAcceptance           ClauseType = "Acceptance"
	ClauseTermination          ClauseType = "Termination"
	ClauseConfidentiality      ClauseType = "Confidentiality"
	ClauseIntellectualProperty ClauseType = "Intellectual Property"
	ClauseServiceLevel         ClauseType = "Service Level"
	ClauseDataProtection       ClauseType = "Data Protection"
	ClauseForceMajeure         ClauseType = "Force Majeure"
	ClauseGoverningLaw         ClauseType = "Governing Law"

	// ClauseGeneralTerms is the fallback for content matching no keyword set.
	ClauseGeneralTerms ClauseType = "General Terms"
)

func (t ClauseType) String() string { return string(t) }

// classificationRule binds a ClauseType to its keyword set.  Rule order in the
// taxonomy is the priority order: the first rule with a keyword hit wins.
type classificationRule struct {
	Type     ClauseType
	Keywords []string
}

// Taxonomy is the immutable, priority-ordered clause classification table.
// It is constructed once at startup and shared read-only across concurrent
// comparison runs; it must never be mutated after construction.
type Taxonomy struct {
	rules []classificationRule
}

// DefaultTaxonomy returns the standard contract clause taxonomy.  Keyword
// matching is case-insensitive substring search over title and content, so
// keywords are stored lowercase.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{rules: []classificationRule{
		{ClausePaymentTerms, []string{
			"payment", "invoice", "fee", "compensation", "remuneration", "reimbursement", "late charge",
		}},
		{ClauseDeliveryTerms, []string{
			"delivery", "deliverable", "shipment", "shipping", "lead time", "milestone",
		}},
		{ClauseRiskLiability, []string{
			"liability", "liable", "indemnification", "indemnify", "damages", "risk of loss", "insurance",
		}},
		{ClauseAcceptance, []string{
			"acceptance", "inspection", "approval", "rejection", "acceptance criteria",
		}},
		{ClauseTermination, []string{
			"termination", "terminate", "cancellation", "expiration", "notice period",
		}},
		{ClauseConfidentiality, []string{
			"confidential", "non-disclosure", "nondisclosure", "trade secret", "proprietary information",
		}},
		{ClauseIntellectualProperty, []string{
			"intellectual property", "copyright", "patent", "trademark", "work product", "license",
		}},
		{ClauseServiceLevel, []string{
			"service level", "uptime", "availability", "response time", "performance standard", "service credit",
		}},
		{ClauseDataProtection, []string{
			"data protection", "personal data", "gdpr", "privacy", "data processing", "data breach",
		}},
		{ClauseForceMajeure, []string{
			"force majeure", "act of god", "beyond reasonable control", "natural disaster",
		}},
		{ClauseGoverningLaw, []string{
			"governing law", "jurisdiction", "venue", "arbitration", "dispute resolution", "applicable law",
		}},
	}}
}

// Types returns the clause types in priority order, excluding the fallback.
func (t *Taxonomy) Types() []ClauseType {
	out := make([]ClauseType, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r.Type)
	}
	return out
}

// ReportCategory is the narrow taxonomy used for headline cross-document
// reporting.  Clauses matching none of the five categories are excluded from
// the reporting path but remain part of the full clause list.
type ReportCategory string

const (
	ReportTermination         ReportCategory = "Termination"
	ReportDeliveryTerms       ReportCategory = "Delivery Terms"
	ReportPaymentTerms        ReportCategory = "Payment Terms"
	ReportConfidentialityIP   ReportCategory = "Confidentiality and IP"
	ReportLimitationLiability ReportCategory = "Limitation of Liability"
)

func (c ReportCategory) String() string { return string(c) }

// reportRule binds a ReportCategory to its keyword set.
type reportRule struct {
	Category ReportCategory
	Keywords []string
}

// ReportTaxonomy is the immutable keyword table for the five-member reporting
// taxonomy.  Its keyword sets deliberately overlap the main taxonomy; each
// table resolves matches independently, first hit wins.
type ReportTaxonomy struct {
	rules []reportRule
}

// DefaultReportTaxonomy returns the standard reporting taxonomy.
func DefaultReportTaxonomy() *ReportTaxonomy {
	return &ReportTaxonomy{rules: []reportRule{
		{ReportTermination, []string{
			"termination", "terminate", "cancellation", "expiration",
		}},
		{ReportDeliveryTerms, []string{
			"delivery", "deliverable", "shipment", "schedule", "timeline",
		}},
		{ReportPaymentTerms, []string{
			"payment", "invoice", "fee", "price", "compensation",
		}},
		{ReportConfidentialityIP, []string{
			"confidential", "non-disclosure", "intellectual property", "copyright", "patent", "trademark", "proprietary",
		}},
		{ReportLimitationLiability, []string{
			"liability", "liable", "indemnification", "damages", "limitation",
		}},
	}}
}

// Categories returns the report categories in priority order.
func (t *ReportTaxonomy) Categories() []ReportCategory {
	out := make([]ReportCategory, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r.Category)
	}
	return out
}
