package contract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClauseLens/internal/domain/contract"
)

func TestClauseClassifier_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		title   string
		content string
		want    contract.ClauseType
	}{
		{"payment by title", "Payment Terms", "Invoices are settled monthly.", contract.ClausePaymentTerms},
		{"payment by content", "Commercial Conditions", "All fees are due within 30 days of invoice.", contract.ClausePaymentTerms},
		{"delivery", "Delivery Schedule", "Shipment occurs within 14 days of order.", contract.ClauseDeliveryTerms},
		{"liability", "Allocation", "Each party shall indemnify the other against third-party damages.", contract.ClauseRiskLiability},
		{"acceptance", "Acceptance", "Client has ten days for inspection and approval.", contract.ClauseAcceptance},
		{"termination", "Term", "Either party may terminate on ninety days notice.", contract.ClauseTermination},
		{"confidentiality", "Secrecy", "All proprietary information remains confidential.", contract.ClauseConfidentiality},
		{"intellectual property", "Ownership", "All copyright in the work product vests in the client.", contract.ClauseIntellectualProperty},
		{"service level", "Support", "Vendor maintains 99.9% uptime measured monthly.", contract.ClauseServiceLevel},
		{"data protection", "Data Handling", "Vendor processes personal data per the GDPR.", contract.ClauseDataProtection},
		{"force majeure", "Excused Events", "Neither party is responsible for an act of god.", contract.ClauseForceMajeure},
		{"governing law", "Disputes", "This agreement is subject to the jurisdiction of the courts of Delaware.", contract.ClauseGoverningLaw},
		{"fallback", "Miscellaneous", "Headings are for convenience only.", contract.ClauseGeneralTerms},
		{"case insensitive", "PAYMENT SCHEDULE", "", contract.ClausePaymentTerms},
	}

	classifier := contract.NewClauseClassifier(nil)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classifier.Classify(contract.Section{Title: tt.title, Content: tt.content})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClauseClassifier_Classify_PriorityOrder(t *testing.T) {
	t.Parallel()

	classifier := contract.NewClauseClassifier(nil)

	// Payment outranks termination even when the clause is mostly about
	// ending the agreement.
	section := contract.Section{
		Title:   "Termination for Non-Payment",
		Content: "The vendor may terminate this agreement if any payment is overdue.",
	}
	assert.Equal(t, contract.ClausePaymentTerms, classifier.Classify(section))

	// Liability vocabulary outranks force majeure.
	section = contract.Section{
		Title:   "Excused Events",
		Content: "Neither party bears liability for delays caused by force majeure.",
	}
	assert.Equal(t, contract.ClauseRiskLiability, classifier.Classify(section))
}

func TestClauseClassifier_Classify_EscapedFallbackOnEmpty(t *testing.T) {
	t.Parallel()

	classifier := contract.NewClauseClassifier(nil)
	assert.Equal(t, contract.ClauseGeneralTerms, classifier.Classify(contract.Section{}))
}

func TestReportClassifier_Categorize(t *testing.T) {
	t.Parallel()

	classifier := contract.NewReportClassifier(nil)

	tests := []struct {
		name     string
		clause   contract.Clause
		want     contract.ReportCategory
		included bool
	}{
		{
			name: "payment clause",
			clause: contract.Clause{
				Section: contract.Section{Title: "Fees", Content: "Invoices are payable in arrears."},
				Type:    contract.ClausePaymentTerms,
			},
			want:     contract.ReportPaymentTerms,
			included: true,
		},
		{
			name: "type name alone matches",
			clause: contract.Clause{
				Section: contract.Section{Title: "Term", Content: "The agreement ends as stated herein."},
				Type:    contract.ClauseTermination,
			},
			want:     contract.ReportTermination,
			included: true,
		},
		{
			name: "liability maps to limitation category",
			clause: contract.Clause{
				Section: contract.Section{Title: "Caps", Content: "Aggregate liability is capped at amounts paid."},
				Type:    contract.ClauseRiskLiability,
			},
			want:     contract.ReportLimitationLiability,
			included: true,
		},
		{
			name: "confidentiality and ip share a category",
			clause: contract.Clause{
				Section: contract.Section{Title: "IP", Content: "Copyright in all created works vests in the client."},
				Type:    contract.ClauseIntellectualProperty,
			},
			want:     contract.ReportConfidentialityIP,
			included: true,
		},
		{
			name: "general clause excluded",
			clause: contract.Clause{
				Section: contract.Section{Title: "Counterparts", Content: "This agreement may be signed in counterparts."},
				Type:    contract.ClauseGeneralTerms,
			},
			included: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := classifier.Categorize(tt.clause)
			require.Equal(t, tt.included, ok)
			if tt.included {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
