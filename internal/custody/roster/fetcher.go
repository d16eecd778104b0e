// Package roster retrieves the current-confinement roster from the jail
// booking service and indexes it for name lookups.
package roster

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"jailcheck/internal/custody/metrics"
	"jailcheck/internal/custody/models"
	"jailcheck/internal/custody/retry"
	"jailcheck/pkg/requestcontext"
)

// MaxConcurrency caps the number of roster pages requested at once.
const MaxConcurrency = 5

const (
	sessionPath = "/index.php"
	rosterPath  = "/fetchesforajax/fetch_current_confinements.php"

	phaseSession = "session"
	phasePage    = "page"

	maxBodyBytes = 16 << 20
)

// Config describes the booking service and the fetch policy.
type Config struct {
	BaseURL     string
	AgencyID    string
	JMSAgencyID string
	UserAgent   string
	// Delay is the minimum spacing between requests within one fetch.
	Delay time.Duration
	Retry retry.Policy
	// Concurrency is the page window size, at most MaxConcurrency.
	Concurrency int
	// MaxPages bounds pagination when the service never signals the end.
	MaxPages int
}

// DefaultConfig targets the Dorchester County booking search.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://cc.southernsoftware.com/bookingsearch",
		AgencyID:    "DorchesterCoSC",
		JMSAgencyID: "SC018013C",
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		Delay:       time.Second,
		Retry:       retry.DefaultPolicy(),
		Concurrency: 1,
		MaxPages:    200,
	}
}

// Fetcher retrieves complete roster snapshots. Every FetchFullRoster call
// opens its own session; nothing is cached between calls.
type Fetcher struct {
	cfg        Config
	base       *url.URL
	sessionURL string
	rosterURL  string
	client     *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the client used as a template for each session. Its
// cookie jar is replaced per fetch.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// NewFetcher validates cfg and builds a Fetcher.
func NewFetcher(cfg Config, opts ...Option) (*Fetcher, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid roster base url %q", cfg.BaseURL)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Concurrency > MaxConcurrency {
		return nil, fmt.Errorf("roster concurrency %d exceeds ceiling %d", cfg.Concurrency, MaxConcurrency)
	}
	if cfg.MaxPages < 1 {
		cfg.MaxPages = DefaultConfig().MaxPages
	}

	sessionURL := base.String() + sessionPath
	if cfg.AgencyID != "" {
		sessionURL += "?" + url.Values{"AgencyID": {cfg.AgencyID}}.Encode()
	}

	// Relative mugshot references resolve below the base path.
	photoBase := *base
	photoBase.Path += "/"

	f := &Fetcher{
		cfg:        cfg,
		base:       &photoBase,
		sessionURL: sessionURL,
		rosterURL:  base.String() + rosterPath,
		client:     &http.Client{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// session is the per-fetch state: a cookie-bearing client and the throttle
// shared by every request made with it.
type session struct {
	client  *http.Client
	limiter *rate.Limiter
}

// FetchFullRoster opens a session and reads every roster page. It fails with
// a session error when the handshake yields no cookie and with an
// incomplete-roster error when any page cannot be read; a partial roster is
// never returned.
func (f *Fetcher) FetchFullRoster(ctx context.Context) (*Index, error) {
	start := time.Now()

	sess, err := f.openSession(ctx)
	if err != nil {
		return nil, err
	}

	records, stats, err := f.fetchPages(ctx, sess)
	if err != nil {
		return nil, err
	}

	idx := NewIndex(records...)
	f.metrics.ObserveRoster(time.Since(start), idx.Len())
	f.log(ctx).InfoContext(ctx, "roster fetched",
		"pages", stats.pages,
		"cards", len(records),
		"inmates", idx.Len(),
		"released", stats.released,
		"skipped", stats.skipped,
		"duration", time.Since(start),
	)
	return idx, nil
}

// openSession performs the session handshake on a fresh cookie jar.
func (f *Fetcher) openSession(ctx context.Context) (*session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, models.NewSessionError("creating cookie jar", err)
	}
	client := *f.client
	client.Jar = jar

	limit := rate.Inf
	if f.cfg.Delay > 0 {
		limit = rate.Every(f.cfg.Delay)
	}
	sess := &session{client: &client, limiter: rate.NewLimiter(limit, 1)}

	err = f.do(ctx, sess, phaseSession, 0, func(actx context.Context) error {
		req, err := http.NewRequestWithContext(actx, http.MethodGet, f.sessionURL, nil)
		if err != nil {
			return err
		}
		f.setHeaders(req)
		resp, err := sess.client.Do(req)
		if err != nil {
			return models.NewNetworkError("session request failed", 0, err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return models.NewNetworkError(fmt.Sprintf("session page returned status %d", resp.StatusCode), resp.StatusCode, nil)
		}
		return nil
	})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, models.NewSessionError("session handshake failed", err)
	}

	rosterURL, _ := url.Parse(f.rosterURL)
	if len(jar.Cookies(rosterURL)) == 0 {
		return nil, models.NewSessionError("session handshake returned no cookie", nil)
	}
	f.log(ctx).DebugContext(ctx, "roster session opened")
	return sess, nil
}

type fetchStats struct {
	pages    int
	released int
	skipped  int
}

type pageResult struct {
	page Page
	err  error
}

// fetchPages reads pages in windows of cfg.Concurrency, consuming them in page
// order until the first end-of-results signal.
func (f *Fetcher) fetchPages(ctx context.Context, sess *session) ([]models.InmateRecord, fetchStats, error) {
	var (
		records []models.InmateRecord
		stats   fetchStats
	)
	window := f.cfg.Concurrency
	total := 0

	for next := 1; ; next += window {
		if next > f.cfg.MaxPages {
			return nil, stats, models.NewIncompleteRosterError(stats.pages,
				fmt.Errorf("no end-of-results signal within %d pages", f.cfg.MaxPages))
		}

		size := min(window, f.cfg.MaxPages-next+1)
		results := make([]pageResult, size)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(window)
		for i := range size {
			number := next + i
			g.Go(func() error {
				p, err := f.fetchPage(gctx, sess, number)
				results[i] = pageResult{page: p, err: err}
				return nil
			})
		}
		_ = g.Wait()

		for _, r := range results {
			if r.err != nil {
				if cerr := ctx.Err(); cerr != nil {
					return nil, stats, cerr
				}
				f.log(ctx).ErrorContext(ctx, "roster page failed", "page", r.page.Number, "error", r.err)
				return nil, stats, models.NewIncompleteRosterError(stats.pages, r.err)
			}
			stats.pages++
			stats.skipped += r.page.Skipped
			for _, rec := range r.page.Records {
				if rec.Released() {
					stats.released++
					f.log(ctx).DebugContext(ctx, "excluding released booking",
						"booking_number", rec.BookingNumber,
						"release_date", rec.ReleaseDateText,
					)
				}
				records = append(records, rec)
			}
			if r.page.TotalPages > 0 {
				total = r.page.TotalPages
			}
			if r.page.End || (total > 0 && r.page.Number >= total) {
				return records, stats, nil
			}
		}
	}
}

// fetchPage posts one page request and parses the fragment.
func (f *Fetcher) fetchPage(ctx context.Context, sess *session, number int) (Page, error) {
	form := url.Values{
		"JMSAgencyID": {f.cfg.JMSAgencyID},
		"search":      {""},
		"agency":      {""},
		"sort":        {"name"},
		"IDX":         {strconv.Itoa(number)},
	}.Encode()

	var page Page
	err := f.do(ctx, sess, phasePage, number, func(actx context.Context) error {
		req, err := http.NewRequestWithContext(actx, http.MethodPost, f.rosterURL, strings.NewReader(form))
		if err != nil {
			return err
		}
		f.setHeaders(req)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := sess.client.Do(req)
		if err != nil {
			return pageError(models.NewNetworkError("roster request failed", 0, err), number)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
			return pageError(models.NewNetworkError(
				fmt.Sprintf("roster page %d returned status %d", number, resp.StatusCode), resp.StatusCode, nil), number)
		}

		p, err := ParsePage(io.LimitReader(resp.Body, maxBodyBytes), f.base)
		if err != nil {
			return pageError(models.NewNetworkError("reading roster page", 0, err), number)
		}
		p.Number = number
		page = p
		return nil
	})
	if err != nil {
		return Page{Number: number}, err
	}
	f.metrics.RecordPage()
	f.log(ctx).DebugContext(ctx, "roster page fetched", "page", number, "cards", len(page.Records), "end", page.End)
	return page, nil
}

// do runs one throttled request under the retry policy.
func (f *Fetcher) do(ctx context.Context, sess *session, phase string, page int, op func(context.Context) error) error {
	return f.cfg.Retry.Do(ctx,
		func(actx context.Context) error {
			if err := sess.limiter.Wait(actx); err != nil {
				return models.NewNetworkError("waiting for request slot", 0, err)
			}
			err := op(actx)
			f.metrics.RecordRequest(phase, err)
			return err
		},
		models.IsRetryable,
		func(a retry.Attempt) {
			f.metrics.RecordRetry(phase)
			f.log(ctx).WarnContext(ctx, "roster request failed, retrying",
				"phase", phase,
				"page", page,
				"attempt", a.Number,
				"wait", a.Wait,
				"error", a.Err,
			)
		},
	)
}

func (f *Fetcher) setHeaders(req *http.Request) {
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", f.sessionURL)
}

func pageError(err *models.CustodyError, page int) error {
	err.Page = page
	return err
}

// log tags entries with the run being served, when there is one.
func (f *Fetcher) log(ctx context.Context) *slog.Logger {
	if id := requestcontext.RunID(ctx); id != "" {
		return f.logger.With("run_id", id)
	}
	return f.logger
}
