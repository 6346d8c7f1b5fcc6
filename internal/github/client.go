// Package github aggregates the GitHub REST data that data-driven widgets draw.
//
// SETTLE-ALL FAN-OUT:
// A stats card needs one primary call (/users/{u}) plus several secondary ones
// (repo list for stars, search totals for commits, PRs, issues). Only the primary
// call is allowed to fail the whole fetch. Every secondary call runs in an errgroup
// that never returns an error; a failed sub-fetch zeroes its field and records a
// model.Warning so the card can show "N/A" instead of a fake zero.
//
// CACHING AND DEDUPLICATION:
// Snapshots are cached per username for a fixed TTL (5 minutes by default) and can
// be invalidated explicitly. A snapshot with warnings is kept for DegradedTTL
// only. Concurrent requests for the same snapshot share one
// upstream round trip through singleflight.
//
// ERRORS:
// 404 → apperror.ErrNotFound, 429 or 403 with an exhausted quota → ErrRateLimited,
// anything else (network, timeout, 5xx) → ErrUpstream.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/sakif/readme-widgets/internal/cache"
	"github.com/sakif/readme-widgets/internal/clock"
	"github.com/sakif/readme-widgets/internal/model"
)

const (
	DefaultBaseURL     = "https://api.github.com"
	DefaultTimeout     = 10 * time.Second
	DefaultTTL         = 5 * time.Minute
	DefaultDegradedTTL = 30 * time.Second
	DefaultCacheSize   = 512
	DefaultMaxRepos    = 100
	DefaultConcurrency = 8
	DefaultRPS         = 10

	userAgent = "readme-widgets/1.0"
)

// Options configures a Client. Zero values take the defaults above.
type Options struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	TTL         time.Duration
	// DegradedTTL is the lifetime of a snapshot that carries warnings.
	DegradedTTL time.Duration
	CacheSize   int
	MaxRepos    int
	Concurrency int
	// RPS bounds outbound requests per second across all fetches.
	RPS   float64
	Clock clock.Clock
	// HTTPClient is the base client; the token transport wraps it.
	HTTPClient *http.Client
	Logger     *slog.Logger
	// OnRequest observes every upstream call (metrics hook).
	OnRequest func(endpoint, outcome string)
	// OnCacheLookup observes snapshot cache lookups (metrics hook).
	OnCacheLookup func(hit bool)
}

// Client is safe for concurrent use.
type Client struct {
	http        *http.Client
	baseURL     string
	limiter     *rate.Limiter
	group       singleflight.Group
	clock       clock.Clock
	logger      *slog.Logger
	maxRepos    int
	concurrency int
	degradedTTL time.Duration
	onRequest   func(endpoint, outcome string)

	stats     *cache.TTL[string, model.AggregatedStats]
	languages *cache.TTL[string, model.LanguageBytes]
	repos     *cache.TTL[string, model.RepoMetadata]
}

// New builds a Client. With a token, requests are authenticated through an
// oauth2 static token source.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.DegradedTTL <= 0 {
		opts.DegradedTTL = DefaultDegradedTTL
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.MaxRepos <= 0 {
		opts.MaxRepos = DefaultMaxRepos
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.RPS <= 0 {
		opts.RPS = DefaultRPS
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Client{
		http:        httpClient(opts),
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		limiter:     rate.NewLimiter(rate.Limit(opts.RPS), max(1, int(opts.RPS))),
		clock:       opts.Clock,
		logger:      opts.Logger,
		maxRepos:    opts.MaxRepos,
		concurrency: opts.Concurrency,
		degradedTTL: opts.DegradedTTL,
		onRequest:   opts.OnRequest,
	}

	var err error
	if c.stats, err = cache.New[string, model.AggregatedStats](opts.CacheSize, opts.TTL, opts.Clock); err != nil {
		return nil, fmt.Errorf("github: stats cache: %w", err)
	}
	if c.languages, err = cache.New[string, model.LanguageBytes](opts.CacheSize, opts.TTL, opts.Clock); err != nil {
		return nil, fmt.Errorf("github: languages cache: %w", err)
	}
	if c.repos, err = cache.New[string, model.RepoMetadata](opts.CacheSize, opts.TTL, opts.Clock); err != nil {
		return nil, fmt.Errorf("github: repo cache: %w", err)
	}
	c.stats.OnLookup = opts.OnCacheLookup
	c.languages.OnLookup = opts.OnCacheLookup
	c.repos.OnLookup = opts.OnCacheLookup
	return c, nil
}

func httpClient(opts Options) *http.Client {
	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{}
	}
	var hc *http.Client
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	} else {
		copied := *base
		hc = &copied
	}
	hc.Timeout = opts.Timeout
	return hc
}

// Invalidate drops every cached snapshot for username and returns how many were removed.
func (c *Client) Invalidate(username string) int {
	key := cacheKey(username)
	n := 0
	if c.stats.Remove(key) {
		n++
	}
	if c.languages.Remove(key) {
		n++
	}
	n += c.repos.RemoveFunc(func(k string) bool { return strings.HasPrefix(k, key+"/") })
	c.logger.Info("upstream cache invalidated", "username", username, "entries", n)
	return n
}

// GitHub logins and repo names are case-insensitive.
func cacheKey(parts ...string) string {
	return strings.ToLower(strings.Join(parts, "/"))
}
