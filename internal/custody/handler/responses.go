package handler

import (
	"time"

	"jailcheck/internal/custody/models"
)

// RunSummary is one entry of GET /custody-checks.
type RunSummary struct {
	ID          string           `json:"id"`
	Status      models.RunStatus `json:"status"`
	SourceFile  string           `json:"source_file,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	RosterSize  int              `json:"roster_size"`
	Summary     *models.Summary  `json:"summary,omitempty"`
	Error       string           `json:"error,omitempty"`
	ErrorReason string           `json:"error_reason,omitempty"`
}

// ListResponse is the HTTP response for GET /custody-checks.
type ListResponse struct {
	Runs []RunSummary `json:"runs"`
}

func toSummary(run *models.Run) RunSummary {
	s := RunSummary{
		ID:          run.ID.String(),
		Status:      run.Status,
		SourceFile:  run.SourceFile,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		RosterSize:  run.RosterSize,
		Error:       run.Error,
		ErrorReason: run.ErrorReason,
	}
	if run.Completed() {
		summary := run.Result.Summary
		s.Summary = &summary
	}
	return s
}

func toList(runs []*models.Run) ListResponse {
	out := ListResponse{Runs: make([]RunSummary, 0, len(runs))}
	for _, run := range runs {
		out.Runs = append(out.Runs, toSummary(run))
	}
	return out
}
