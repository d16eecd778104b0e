// Package config loads jailcheck configuration: defaults, then an optional
// YAML file, then JAILCHECK_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxRosterConcurrency mirrors the roster fetcher's page window ceiling.
const MaxRosterConcurrency = 5

// Config is the full application configuration.
type Config struct {
	Roster   RosterConfig   `yaml:"roster"`
	Matcher  MatcherConfig  `yaml:"matcher"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Log      LogConfig      `yaml:"log"`
}

// RosterConfig describes the jail booking service and how politely to read it.
type RosterConfig struct {
	BaseURL         string        `yaml:"base_url"`
	AgencyID        string        `yaml:"agency_id"`
	JMSAgencyID     string        `yaml:"jms_agency_id"`
	UserAgent       string        `yaml:"user_agent"`
	Facility        string        `yaml:"facility"`
	Delay           time.Duration `yaml:"delay"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialBackoff  time.Duration `yaml:"initial_backoff"`
	MaxBackoff      time.Duration `yaml:"max_backoff"`
	Concurrency     int           `yaml:"concurrency"`
	MaxPages        int           `yaml:"max_pages"`
	BreakerFailures int           `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

type MatcherConfig struct {
	Workers int `yaml:"workers"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// RequestTimeout bounds a synchronous POST /custody-checks.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StoreConfig selects the run store backend.
type StoreConfig struct {
	Backend   string        `yaml:"backend"` // memory, redis, postgres
	ResultTTL time.Duration `yaml:"result_ttl"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Roster: RosterConfig{
			BaseURL:         "https://cc.southernsoftware.com/bookingsearch",
			AgencyID:        "DorchesterCoSC",
			JMSAgencyID:     "SC018013C",
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Facility:        "Dorchester County Detention Center",
			Delay:           time.Second,
			Timeout:         30 * time.Second,
			MaxAttempts:     3,
			InitialBackoff:  2 * time.Second,
			MaxBackoff:      30 * time.Second,
			Concurrency:     1,
			MaxPages:        200,
			BreakerFailures: 3,
			BreakerCooldown: 5 * time.Minute,
		},
		Matcher: MatcherConfig{Workers: 8},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  10 * time.Minute,
		},
		Store: StoreConfig{Backend: "memory", ResultTTL: 24 * time.Hour},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: PostgresConfig{MaxOpenConns: 10, MaxIdleConns: 5},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds a Config from defaults, the YAML file at path (if non-empty),
// and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("JAILCHECK_BASE_URL", &c.Roster.BaseURL)
	str("JAILCHECK_AGENCY_ID", &c.Roster.AgencyID)
	str("JAILCHECK_JMS_AGENCY_ID", &c.Roster.JMSAgencyID)
	str("JAILCHECK_USER_AGENT", &c.Roster.UserAgent)
	str("JAILCHECK_FACILITY", &c.Roster.Facility)
	dur("JAILCHECK_DELAY", &c.Roster.Delay)
	dur("JAILCHECK_TIMEOUT", &c.Roster.Timeout)
	num("JAILCHECK_MAX_ATTEMPTS", &c.Roster.MaxAttempts)
	num("JAILCHECK_CONCURRENCY", &c.Roster.Concurrency)
	num("JAILCHECK_MAX_PAGES", &c.Roster.MaxPages)
	num("JAILCHECK_WORKERS", &c.Matcher.Workers)
	str("JAILCHECK_ADDR", &c.Server.Addr)
	str("JAILCHECK_STORE", &c.Store.Backend)
	dur("JAILCHECK_RESULT_TTL", &c.Store.ResultTTL)
	str("JAILCHECK_REDIS_URL", &c.Redis.URL)
	str("JAILCHECK_POSTGRES_DSN", &c.Postgres.DSN)
	str("JAILCHECK_LOG_LEVEL", &c.Log.Level)
	str("JAILCHECK_LOG_FORMAT", &c.Log.Format)
	return errors.Join(errs...)
}

// Validate rejects configurations that cannot run.
func (c Config) Validate() error {
	var errs []error
	if c.Roster.BaseURL == "" {
		errs = append(errs, errors.New("roster.base_url is required"))
	}
	if c.Roster.Delay < 0 {
		errs = append(errs, errors.New("roster.delay must not be negative"))
	}
	if c.Roster.Timeout <= 0 {
		errs = append(errs, errors.New("roster.timeout must be positive"))
	}
	if c.Roster.MaxAttempts < 1 {
		errs = append(errs, errors.New("roster.max_attempts must be at least 1"))
	}
	if c.Roster.Concurrency < 1 || c.Roster.Concurrency > MaxRosterConcurrency {
		errs = append(errs, fmt.Errorf("roster.concurrency must be between 1 and %d", MaxRosterConcurrency))
	}
	if c.Roster.MaxPages < 1 {
		errs = append(errs, errors.New("roster.max_pages must be at least 1"))
	}
	if c.Matcher.Workers < 1 {
		errs = append(errs, errors.New("matcher.workers must be at least 1"))
	}
	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required for the redis store"))
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
