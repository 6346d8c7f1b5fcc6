// Package enhance calls the external text-generation service that rewrites a
// README section. The service is opaque: it takes markdown plus free-form
// context and returns markdown.
//
// Wire format:
//
//	POST {URL}
//	Authorization: Bearer {API key}
//	{"content": "...", "context": "..."}
//	→ 200 {"markdown": "..."}
package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/sakif/readme-widgets/internal/apperror"
)

const (
	DefaultTimeout = 30 * time.Second
	// MaxContent bounds the markdown sent upstream.
	MaxContent = 20000
	// MaxContext bounds the free-form context.
	MaxContext = 2000

	maxResponse = 1 << 20
)

// ErrDisabled is returned when no service URL is configured.
var ErrDisabled = errors.New("enhance: not configured")

// Options configures a Client.
type Options struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	// RPM caps calls per minute across all users; zero means unlimited.
	RPM        int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is safe for concurrent use. A zero-URL Client reports ErrDisabled.
type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

type request struct {
	Content string `json:"content"`
	Context string `json:"context,omitempty"`
}

type response struct {
	Markdown string `json:"markdown"`
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{}
	}
	var hc *http.Client
	if opts.APIKey != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.APIKey}))
	} else {
		copied := *base
		hc = &copied
	}
	hc.Timeout = opts.Timeout

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RPM > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RPM)), max(1, opts.RPM/10))
	}
	return &Client{url: opts.URL, http: hc, limiter: limiter, logger: opts.Logger}
}

// Enabled reports whether a service URL is configured.
func (c *Client) Enabled() bool { return c.url != "" }

// Enhance sends content to the service and returns its markdown.
func (c *Client) Enhance(ctx context.Context, content, hint string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperror.ValidationFailed("content", "content is required")
	}
	if len(content) > MaxContent {
		return "", apperror.ValidationFailed("content", fmt.Sprintf("content must be %d characters or less", MaxContent))
	}
	if len(hint) > MaxContext {
		return "", apperror.ValidationFailed("context", fmt.Sprintf("context must be %d characters or less", MaxContext))
	}

	if !c.limiter.Allow() {
		return "", throttled(time.Minute)
	}

	body, err := json.Marshal(request{Content: content, Context: hint})
	if err != nil {
		return "", fmt.Errorf("enhance: encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("enhance: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("enhance request failed", "error", err)
		return "", unavailable(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", throttled(retryAfter(resp.Header))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", unavailable(fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var out response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponse)).Decode(&out); err != nil {
		return "", unavailable(fmt.Errorf("decode: %w", err))
	}
	if strings.TrimSpace(out.Markdown) == "" {
		return "", unavailable(errors.New("empty markdown in response"))
	}
	c.logger.Debug("enhance request", "duration", time.Since(start), "bytes", len(out.Markdown))
	return out.Markdown, nil
}

func throttled(d time.Duration) error {
	if d <= 0 {
		d = time.Minute
	}
	return &apperror.AppError{
		Err:        apperror.ErrRateLimited,
		Message:    "the enhance service is busy, try again later",
		RetryAfter: d,
	}
}

func unavailable(cause error) error {
	return &apperror.AppError{
		Err:        apperror.ErrUpstream,
		Message:    "the enhance service is unavailable",
		RetryAfter: apperror.DefaultTransientBackoff,
		Cause:      cause,
	}
}

func retryAfter(h http.Header) time.Duration {
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
