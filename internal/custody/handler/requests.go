package handler

import (
	"fmt"
	"strings"

	"jailcheck/internal/custody/models"
	"jailcheck/internal/custody/service"
	"jailcheck/internal/ingest"
	dErrors "jailcheck/pkg/domain-errors"
)

const (
	maxDefendants    = 5000
	maxSourceFileLen = 512
)

// CheckRequest is the HTTP request body for POST /custody-checks.
type CheckRequest struct {
	SourceFile string         `json:"source_file"`
	Defendants []ingest.Entry `json:"defendants"`
}

// Validate implements httputil.Validatable.
func (r *CheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.SourceFile = strings.TrimSpace(r.SourceFile)
	if len(r.SourceFile) > maxSourceFileLen {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("source_file must be at most %d characters", maxSourceFileLen))
	}
	if len(r.Defendants) == 0 {
		return dErrors.New(dErrors.CodeValidation, "defendants is required")
	}
	if len(r.Defendants) > maxDefendants {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("at most %d defendants per check", maxDefendants))
	}
	return nil
}

// ToService converts the body into a service request. Entries with blank
// names are kept and resolve to insufficient-data verdicts.
func (r *CheckRequest) ToService() service.CheckRequest {
	defendants := make([]models.DefendantIdentity, 0, len(r.Defendants))
	for _, e := range r.Defendants {
		defendants = append(defendants, e.Defendant())
	}
	return service.CheckRequest{SourceFile: r.SourceFile, Defendants: defendants}
}
