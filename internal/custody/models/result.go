package models

import (
	"time"

	"github.com/google/uuid"
)

// Summary holds outcome counts for a run.
type Summary struct {
	Total        int `json:"total"`
	InCustody    int `json:"in_custody"`
	NotInCustody int `json:"not_in_custody"`
	Errors       int `json:"errors"`
}

// Result is the ordered verdict list of a completed run.
type Result struct {
	Summary  Summary   `json:"summary"`
	Verdicts []Verdict `json:"verdicts"`
}

// InCustody returns the IN_CUSTODY verdicts in result order.
func (r Result) InCustody() []Verdict {
	var out []Verdict
	for _, v := range r.Verdicts {
		if v.Outcome == OutcomeInCustody {
			out = append(out, v)
		}
	}
	return out
}

// RunStatus distinguishes a completed check from one that could not be completed.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one custody-check invocation. Result is nil when Status is failed.
type Run struct {
	ID          uuid.UUID `json:"id"`
	Status      RunStatus `json:"status"`
	SourceFile  string    `json:"source_file,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	RosterSize  int       `json:"roster_size"`
	Error       string    `json:"error,omitempty"`
	ErrorReason string    `json:"error_reason,omitempty"`
	Result      *Result   `json:"result,omitempty"`
}

// Completed reports whether the run produced an authoritative result.
func (r *Run) Completed() bool {
	return r != nil && r.Status == RunStatusCompleted && r.Result != nil
}
