package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomnomnom/linkheader"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/model"
)

// call describes one upstream request.
type call struct {
	endpoint string // metric label, e.g. "users"
	resource string // subject for error messages, e.g. "user"
	id       string // e.g. the login
	path     string // path plus query, relative to the base URL
}

// get performs a rate-limited GET and decodes the JSON body into out. It returns
// the response headers for pagination.
func (c *Client) get(ctx context.Context, req call, out any) (http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		c.observe(req.endpoint, "canceled")
		return nil, apperror.Upstream(req.resource, err)
	}

	target := req.path
	if strings.HasPrefix(target, "/") {
		target = c.baseURL + target
	} else if !strings.HasPrefix(target, c.baseURL+"/") {
		// Pagination links must stay on the API host the token belongs to.
		return nil, apperror.Upstream(req.resource, fmt.Errorf("refusing off-host URL %q", target))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("github: new request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/vnd.github+json")
	httpReq.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	httpReq.Header.Set("User-Agent", userAgent)

	start := c.clock.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.observe(req.endpoint, "error")
		c.logger.Warn("github request failed", "endpoint", req.endpoint, "error", err)
		return nil, apperror.Upstream(req.resource, err)
	}
	defer resp.Body.Close()

	if err := c.statusError(req, resp); err != nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		c.observe(req.endpoint, apperror.Kind(err))
		c.logger.Debug("github request rejected",
			"endpoint", req.endpoint, "status", resp.StatusCode, "kind", apperror.Kind(err))
		return nil, err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.observe(req.endpoint, "decode_error")
		return nil, apperror.Upstream(req.resource, fmt.Errorf("decode %s: %w", req.endpoint, err))
	}
	c.observe(req.endpoint, "ok")
	c.logger.Debug("github request", "endpoint", req.endpoint, "duration", c.clock.Now().Sub(start))
	return resp.Header, nil
}

func (c *Client) observe(endpoint, outcome string) {
	if c.onRequest != nil {
		c.onRequest(endpoint, outcome)
	}
}

// statusError maps a non-2xx response to the error taxonomy.
func (c *Client) statusError(req call, resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return apperror.NotFound(req.resource, req.id)
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return apperror.RateLimited(req.resource, c.retryAfter(resp.Header))
	}
	return apperror.Upstream(req.resource, fmt.Errorf("unexpected status %d", resp.StatusCode))
}

// retryAfter reads Retry-After (seconds) or X-RateLimit-Reset (epoch seconds).
func (c *Client) retryAfter(h http.Header) time.Duration {
	if s, err := strconv.Atoi(h.Get("Retry-After")); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	if epoch, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		if d := time.Unix(epoch, 0).Sub(c.clock.Now()); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

// nextLink extracts the rel="next" URL from a Link header:
//
//	<https://api.github.com/user/1/repos?page=2>; rel="next", <...>; rel="last"
func nextLink(header string) string {
	if links := linkheader.Parse(header).FilterByRel("next"); len(links) > 0 {
		return links[0].URL
	}
	return ""
}

// degrade classifies a failed secondary fetch for its Warning.
func degrade(err error) model.WarningKind {
	switch {
	case errors.Is(err, apperror.ErrRateLimited):
		return model.WarnRateLimited
	case errors.Is(err, apperror.ErrNotFound):
		return model.WarnNotFound
	}
	return model.WarnUnavailable
}
