package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"jailcheck/internal/custody/handler"
	"jailcheck/internal/custody/metrics"
	"jailcheck/internal/custody/retry"
	"jailcheck/internal/custody/roster"
	"jailcheck/internal/custody/service"
	"jailcheck/internal/custody/store"
	"jailcheck/internal/platform/config"
	platformredis "jailcheck/internal/platform/redis"
	"jailcheck/pkg/platform/circuit"
)

// app holds the wired dependencies shared by check and serve.
type app struct {
	service  *service.Service
	registry *prometheus.Registry
	health   []handler.HealthCheck
	closers  []func() error
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegisterer(a.registry)

	fetcher, err := roster.NewFetcher(fetcherConfig(cfg.Roster),
		roster.WithHTTPClient(&http.Client{}),
		roster.WithLogger(logger),
		roster.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("configure roster fetcher: %w", err)
	}

	results, err := a.openStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	breaker := circuit.New("jail-roster",
		circuit.WithFailureThreshold(cfg.Roster.BreakerFailures),
		circuit.WithCooldown(cfg.Roster.BreakerCooldown),
	)
	a.service, err = service.New(fetcher, results,
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithBreaker(breaker),
		service.WithWorkers(cfg.Matcher.Workers),
		service.WithCustodyLocation(cfg.Roster.Facility),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func fetcherConfig(c config.RosterConfig) roster.Config {
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = c.MaxAttempts
	policy.Timeout = c.Timeout
	if c.InitialBackoff > 0 {
		policy.InitialInterval = c.InitialBackoff
	}
	if c.MaxBackoff > 0 {
		policy.MaxInterval = c.MaxBackoff
	}
	return roster.Config{
		BaseURL:     c.BaseURL,
		AgencyID:    c.AgencyID,
		JMSAgencyID: c.JMSAgencyID,
		UserAgent:   c.UserAgent,
		Delay:       c.Delay,
		Retry:       policy,
		Concurrency: c.Concurrency,
		MaxPages:    c.MaxPages,
	}
}

func (a *app) openStore(ctx context.Context, cfg config.Config) (service.ResultStore, error) {
	switch cfg.Store.Backend {
	case "redis":
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.health = append(a.health, client.Health)
		return store.NewRedis(client.Client, cfg.Store.ResultTTL), nil

	case "postgres":
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		a.closers = append(a.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("postgres ping failed: %w", err)
		}
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a.health = append(a.health, db.PingContext)
		return pg, nil

	default:
		return store.NewMemory(), nil
	}
}

// Close releases store connections in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for _, closeFn := range slices.Backward(a.closers) {
		errs = append(errs, closeFn())
	}
	a.closers = nil
	return errors.Join(errs...)
}
