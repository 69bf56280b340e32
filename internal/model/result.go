package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// ErrMalformedRecord marks an input entry that could not be turned into a record.
var ErrMalformedRecord = eris.New("malformed record")

// ProblemKind classifies a validation finding.
type ProblemKind string

const (
	ProblemMissingField      ProblemKind = "MISSING_FIELD"
	ProblemOutOfRange        ProblemKind = "OUT_OF_RANGE"
	ProblemInconsistent      ProblemKind = "INCONSISTENT"
	ProblemMalformedRecord   ProblemKind = "MALFORMED_RECORD"
	ProblemEnhancementFailed ProblemKind = "ENHANCEMENT_FAILED"
	ProblemMalformedField    ProblemKind = "MALFORMED_FIELD"
	ProblemUnknownField      ProblemKind = "UNKNOWN_FIELD"
)

// Severity says whether a finding counts against the verdict.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is a single problem found on a record.
type Finding struct {
	Field    string      `json:"field,omitempty"`
	Kind     ProblemKind `json:"kind"`
	Severity Severity    `json:"severity"`
	Message  string      `json:"message,omitempty"`
}

// Verdict is the pass/fail outcome for a record.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

// ValidationResult is the outcome of validating (or enhancing) one record.
type ValidationResult struct {
	RecordID     string    `json:"record_id"`
	Findings     []Finding `json:"findings"`
	Completeness float64   `json:"completeness"`
	Verdict      Verdict   `json:"verdict"`
	Enhanced     []string  `json:"enhanced,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Passed reports whether the verdict is PASS.
func (r ValidationResult) Passed() bool {
	return r.Verdict == VerdictPass
}

// HasKind reports whether any finding has the given kind.
func (r ValidationResult) HasKind(kind ProblemKind) bool {
	for _, f := range r.Findings {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// FindingsFor returns the findings for a field.
func (r ValidationResult) FindingsFor(field string) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Field == field {
			out = append(out, f)
		}
	}
	return out
}

// Operation names a batch operation.
type Operation string

const (
	OperationValidate Operation = "validate"
	OperationEnhance  Operation = "enhance"
)

// BatchResult aggregates one batch run.
type BatchResult struct {
	RunID         string             `json:"run_id"`
	Operation     Operation          `json:"operation"`
	SchemaVersion string             `json:"schema_version"`
	Processed     int                `json:"processed"`
	Passed        int                `json:"passed"`
	Failed        int                `json:"failed"`
	Enhanced      int                `json:"enhanced"`
	Partial       bool               `json:"partial"`
	Results       []ValidationResult `json:"results"`
	// Records holds the output records of an enhance run, ordered by ID.
	Records       []*MaterialRecord  `json:"-"`
	StartedAt     time.Time          `json:"started_at"`
	CompletedAt   time.Time          `json:"completed_at"`
}

// Duration returns the wall-clock time of the batch.
func (b *BatchResult) Duration() time.Duration {
	if b.CompletedAt.IsZero() {
		return 0
	}
	return b.CompletedAt.Sub(b.StartedAt)
}

// FailedIDs returns the IDs of failed records in result order.
func (b *BatchResult) FailedIDs() []string {
	var ids []string
	for _, r := range b.Results {
		if !r.Passed() {
			ids = append(ids, r.RecordID)
		}
	}
	return ids
}
