package comparison

import (
	"time"

	"github.com/turtacn/ClauseLens/internal/domain/contract"
	"github.com/turtacn/ClauseLens/pkg/errors"
	"github.com/turtacn/ClauseLens/pkg/types/common"
)

// Status is the compliance verdict for one client clause.
type Status string

const (
	StatusAligned      Status = "Aligned"
	StatusPartial      Status = "Partial"
	StatusNonCompliant Status = "Non-Compliant"
	StatusMissing      Status = "Missing"
)

func (s Status) String() string { return string(s) }

// Risk is the severity attached to a comparison result.  RiskUnknown marks
// entries whose analysis could not be produced.
type Risk string

const (
	RiskLow     Risk = "low"
	RiskMedium  Risk = "medium"
	RiskHigh    Risk = "high"
	RiskUnknown Risk = "UNKNOWN"
)

func (r Risk) String() string { return string(r) }

// MatchCandidate pairs a client clause with its best same-type vendor clause.
// Vendor is nil when the vendor document has no clause of the client type;
// Score is meaningful only when Vendor is non-nil.
type MatchCandidate struct {
	Client contract.Clause
	Vendor *contract.Clause
	Score  float64
}

// Matched reports whether a vendor counterpart exists.
func (m MatchCandidate) Matched() bool { return m.Vendor != nil }

// Result is the outcome of comparing one client clause against the vendor
// document.  Results are ordered by the client document's clause order, one
// per client clause.
type Result struct {
	Title          string              `json:"title"`
	ClauseType     contract.ClauseType `json:"clause_type"`
	ClientText     string              `json:"client_text"`
	VendorText     string              `json:"vendor_text"`
	Status         Status              `json:"status"`
	Risk           Risk                `json:"risk"`
	Score          *float64            `json:"score,omitempty"`
	Summary        string              `json:"summary,omitempty"`
	Recommendation string              `json:"recommendation,omitempty"`
	SuggestedFix   string              `json:"suggested_fix,omitempty"`
}

// RunStatus tracks a comparison run through its lifecycle.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

func (s RunStatus) String() string { return string(s) }

// Valid reports whether s is a known run status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	}
	return false
}

// Run is one comparison of a client document against a vendor document.
type Run struct {
	ID               string    `json:"id"`
	ClientDocumentID string    `json:"client_document_id"`
	VendorDocumentID string    `json:"vendor_document_id"`
	Status           RunStatus `json:"status"`
	CacheKey         string    `json:"cache_key,omitempty"`
	ErrorMsg         string    `json:"error_msg,omitempty"`
	ClauseCount      int       `json:"clause_count"`
	CreatedAt        time.Time `json:"created_at"`
	StartedAt        time.Time `json:"started_at,omitempty"`
	CompletedAt      time.Time `json:"completed_at,omitempty"`
}

// NewRun creates a pending run for the given document pair.
func NewRun(clientDocumentID, vendorDocumentID string) (*Run, error) {
	if clientDocumentID == "" || vendorDocumentID == "" {
		return nil, errors.NewValidation("both client and vendor document ids are required")
	}
	if clientDocumentID == vendorDocumentID {
		return nil, errors.New(errors.ErrCodeSameDocumentComparison,
			"client and vendor documents must differ")
	}
	return &Run{
		ID:               common.NewID(),
		ClientDocumentID: clientDocumentID,
		VendorDocumentID: vendorDocumentID,
		Status:           RunStatusPending,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// MarkRunning transitions the run into execution.
func (r *Run) MarkRunning() {
	r.Status = RunStatusRunning
	r.StartedAt = time.Now().UTC()
}

// MarkCompleted records a successful run.
func (r *Run) MarkCompleted(clauseCount int) {
	r.Status = RunStatusCompleted
	r.ClauseCount = clauseCount
	r.ErrorMsg = ""
	r.CompletedAt = time.Now().UTC()
}

// MarkFailed records a failed run.
func (r *Run) MarkFailed(reason string) {
	r.Status = RunStatusFailed
	r.ErrorMsg = reason
	r.CompletedAt = time.Now().UTC()
}

// Terminal reports whether the run has finished, successfully or not.
func (r *Run) Terminal() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}

// StatusBreakdown counts results per status.
type StatusBreakdown struct {
	Aligned      int `json:"aligned"`
	Partial      int `json:"partial"`
	NonCompliant int `json:"non_compliant"`
	Missing      int `json:"missing"`
}

// Add increments the counter for s.
func (b *StatusBreakdown) Add(s Status) {
	switch s {
	case StatusAligned:
		b.Aligned++
	case StatusPartial:
		b.Partial++
	case StatusNonCompliant:
		b.NonCompliant++
	case StatusMissing:
		b.Missing++
	}
}

// Total returns the number of counted results.
func (b StatusBreakdown) Total() int {
	return b.Aligned + b.Partial + b.NonCompliant + b.Missing
}

// CategorySummary aggregates results for one reporting category.
type CategorySummary struct {
	Category contract.ReportCategory `json:"category"`
	StatusBreakdown
	HighRisk int      `json:"high_risk"`
	Clauses  []string `json:"clauses,omitempty"`
}

// Report is the headline view of a completed run, restricted to the
// reporting taxonomy.
type Report struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Overall     StatusBreakdown   `json:"overall"`
	Categories  []CategorySummary `json:"categories"`
}
