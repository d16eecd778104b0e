// Package service runs custody checks: one roster snapshot per run, parallel
// resolution of every defendant, ordered aggregation, and persistence.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jailcheck/internal/custody/aggregate"
	"jailcheck/internal/custody/matcher"
	"jailcheck/internal/custody/metrics"
	"jailcheck/internal/custody/models"
	dErrors "jailcheck/pkg/domain-errors"
	"jailcheck/pkg/platform/circuit"
	"jailcheck/pkg/requestcontext"
)

const (
	defaultWorkers = 8
	maxListLimit   = 500
)

// ErrNotCompleted is returned with failed runs so callers never mistake a
// missing roster for an empty custody list.
var ErrNotCompleted = errors.New("custody check could not be completed")

// CheckRequest is the input of one run.
type CheckRequest struct {
	SourceFile string
	Defendants []models.DefendantIdentity
}

// Service orchestrates custody-check runs.
type Service struct {
	roster   RosterSource
	store    ResultStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	breaker  *circuit.Breaker
	workers  int
	location string
	newID    func() uuid.UUID
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the run logger. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records run outcomes and durations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithBreaker stops runs from reaching the jail service after repeated roster
// failures until the breaker's cooldown elapses.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		s.breaker = b
	}
}

// WithWorkers sets the number of concurrent resolutions.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithCustodyLocation sets the facility reported on IN_CUSTODY verdicts.
func WithCustodyLocation(location string) Option {
	return func(s *Service) {
		s.location = location
	}
}

// WithIDGenerator overrides run ID generation.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates a Service.
func New(roster RosterSource, store ResultStore, opts ...Option) (*Service, error) {
	if roster == nil {
		return nil, errors.New("roster source is required")
	}
	if store == nil {
		return nil, errors.New("result store is required")
	}
	s := &Service{
		roster:  roster,
		store:   store,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers: defaultWorkers,
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Check runs one custody check. A roster failure yields a saved run with
// status failed, returned together with an error wrapping ErrNotCompleted.
func (s *Service) Check(ctx context.Context, req CheckRequest) (*models.Run, error) {
	if len(req.Defendants) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one defendant is required")
	}

	run := &models.Run{
		ID:         s.newID(),
		SourceFile: req.SourceFile,
		StartedAt:  requestcontext.Now(ctx),
	}
	ctx = requestcontext.WithRunID(ctx, run.ID.String())
	start := time.Now()
	s.logger.InfoContext(ctx, "custody check started",
		"run_id", run.ID,
		"source_file", req.SourceFile,
		"defendants", len(req.Defendants),
	)

	result, rosterSize, err := s.resolve(ctx, req.Defendants)
	run.FinishedAt = run.StartedAt.Add(time.Since(start))
	run.RosterSize = rosterSize
	if err != nil {
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
		run.ErrorReason = string(models.GetCategory(err))
		s.metrics.ObserveRun(string(run.Status), time.Since(start))
		s.logger.ErrorContext(ctx, "custody check could not be completed",
			"run_id", run.ID,
			"reason", run.ErrorReason,
			"error", err,
		)
		if saveErr := s.store.Save(context.WithoutCancel(ctx), run); saveErr != nil {
			s.logger.ErrorContext(ctx, "failed to save failed run", "run_id", run.ID, "error", saveErr)
		}
		return run, dErrors.Wrap(fmt.Errorf("%w: %w", ErrNotCompleted, err), dErrors.CodeUnavailable, "jail roster unavailable")
	}

	run.Status = models.RunStatusCompleted
	run.Result = &result
	if err := s.store.Save(ctx, run); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save custody check")
	}
	s.metrics.ObserveRun(string(run.Status), time.Since(start))
	s.logger.InfoContext(ctx, "custody check completed",
		"run_id", run.ID,
		"roster_size", rosterSize,
		"in_custody", result.Summary.InCustody,
		"not_in_custody", result.Summary.NotInCustody,
		"errors", result.Summary.Errors,
		"duration", time.Since(start),
	)
	return run, nil
}

// resolve fetches a fresh roster and resolves every defendant against it.
// Verdict order follows input order before aggregation.
func (s *Service) resolve(ctx context.Context, defendants []models.DefendantIdentity) (models.Result, int, error) {
	if s.breaker != nil && !s.breaker.Allow() {
		return models.Result{}, 0, models.NewNetworkError("roster service circuit open", 0, nil)
	}

	idx, err := s.roster.FetchFullRoster(ctx)
	if s.breaker != nil {
		s.recordBreaker(ctx, err)
	}
	if err != nil {
		return models.Result{}, 0, err
	}

	verdicts := make([]models.Verdict, len(defendants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, d := range defendants {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			verdicts[i] = matcher.Resolve(d, idx, matcher.WithCustodyLocation(s.location))
			s.metrics.IncrementVerdict(string(verdicts[i].Outcome))
			if verdicts[i].Ambiguous() {
				s.logger.WarnContext(ctx, "ambiguous roster match",
					"defendant", d.RawName,
					"key", verdicts[i].MatchedKey,
					"candidates", len(verdicts[i].Candidates),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Result{}, idx.Len(), err
	}
	return aggregate.Aggregate(verdicts), idx.Len(), nil
}

func (s *Service) recordBreaker(ctx context.Context, err error) {
	if err == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "roster circuit closed", "breaker", s.breaker.Name())
		}
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	if _, change := s.breaker.RecordFailure(); change.Opened {
		s.logger.WarnContext(ctx, "roster circuit opened", "breaker", s.breaker.Name())
	}
}

// Get returns a stored run.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	run, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find run %s: %w", id, err)
	}
	return run, nil
}

// List returns up to limit runs, most recent first.
func (s *Service) List(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit < 1 || limit > maxListLimit {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("limit must be between 1 and %d", maxListLimit))
	}
	return s.store.List(ctx, limit)
}
