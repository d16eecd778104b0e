package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks RosterSource,ResultStore

import (
	"context"

	"github.com/google/uuid"

	"jailcheck/internal/custody/models"
	"jailcheck/internal/custody/roster"
)

// RosterSource produces a complete roster snapshot per call.
type RosterSource interface {
	FetchFullRoster(ctx context.Context) (*roster.Index, error)
}

// ResultStore persists runs. Find returns sentinel.ErrNotFound for unknown
// IDs; List returns the most recent runs first.
type ResultStore interface {
	Save(ctx context.Context, run *models.Run) error
	Find(ctx context.Context, id uuid.UUID) (*models.Run, error)
	List(ctx context.Context, limit int) ([]*models.Run, error)
}
