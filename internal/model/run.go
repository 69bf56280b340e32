package model

import "time"

// RunStatus represents the state of a persisted batch run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusPartial  RunStatus = "partial"
	RunStatusFailed   RunStatus = "failed"
)

// RunSummary is the aggregate portion of a BatchResult kept in run history.
type RunSummary struct {
	Processed int      `json:"processed"`
	Passed    int      `json:"passed"`
	Failed    int      `json:"failed"`
	Enhanced  int      `json:"enhanced"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}

// Run is one batch invocation recorded in the store.
type Run struct {
	ID            string      `json:"id"`
	Operation     Operation   `json:"operation"`
	Input         string      `json:"input"`
	SchemaVersion string      `json:"schema_version"`
	Status        RunStatus   `json:"status"`
	Summary       *RunSummary `json:"summary,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// SummaryOf extracts the persisted summary from a batch result.
func SummaryOf(b *BatchResult) *RunSummary {
	return &RunSummary{
		Processed: b.Processed,
		Passed:    b.Passed,
		Failed:    b.Failed,
		Enhanced:  b.Enhanced,
		FailedIDs: b.FailedIDs(),
	}
}
