// Package service holds the business logic between the HTTP handlers and the
// storage and upstream layers.
//
// THE LAYERS:
//
//	Handler (HTTP)     → parses requests, writes SVG or JSON
//	Service (business) → normalizes, validates, fetches, renders, stores
//	Repository / github → SQLite and the GitHub REST API
//
// Services accept plain Go values (widget params, block lists), never
// *http.Request, so the CLI can drive the same code paths as the server.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/clock"
	"github.com/sakif/readme-widgets/internal/markdown"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/svg"
	"github.com/sakif/readme-widgets/internal/theme"
	"github.com/sakif/readme-widgets/internal/widget"
)

// Fetcher is the upstream data a data-driven widget needs. *github.Client
// implements it.
type Fetcher interface {
	FetchStats(ctx context.Context, username string) (model.AggregatedStats, error)
	FetchLanguages(ctx context.Context, username string) (model.LanguageBytes, error)
	FetchRepo(ctx context.Context, owner, repo string) (model.RepoMetadata, error)
	Invalidate(username string) int
}

// Link is everything needed to embed a widget without rendering it.
type Link struct {
	URL         string `json:"url"`
	Markdown    string `json:"markdown"`
	Fingerprint string `json:"fingerprint"`
}

// WidgetService turns raw parameters into rendered widgets.
type WidgetService struct {
	fetcher Fetcher
	baseURL string
	clock   clock.Clock
	logger  *slog.Logger
	// OnRender observes every render (metrics hook).
	OnRender func(widgetType, outcome string, d time.Duration)
}

func NewWidgetService(fetcher Fetcher, baseURL string, clk clock.Clock, logger *slog.Logger) *WidgetService {
	if clk == nil {
		clk = clock.Real()
	}
	return &WidgetService{fetcher: fetcher, baseURL: baseURL, clock: clk, logger: logger}
}

// Prepare normalizes raw for t and checks required fields. Notes carry
// non-fatal advice, such as a theme that was not recognized.
func (s *WidgetService) Prepare(t widget.Type, raw widget.Params) (cfg widget.Config, notes []string, err error) {
	cfg, err = widget.Normalize(t, raw)
	if err != nil {
		return nil, nil, apperror.ValidationFailed("type", err.Error())
	}
	if name := raw["theme"]; name != "" && !theme.Allowed(string(t), name) {
		note := fmt.Sprintf("unknown theme %q", name)
		if hint := theme.Suggest(string(t), name); hint != "" {
			note += fmt.Sprintf(", did you mean %q?", hint)
		}
		notes = append(notes, note)
	}
	return cfg, notes, widget.Validate(cfg)
}

// Link builds the URL and markdown fragment for cfg.
func (s *WidgetService) Link(cfg widget.Config) Link {
	return Link{
		URL:         markdown.WidgetURL(s.baseURL, cfg),
		Markdown:    markdown.Fragment(s.baseURL, cfg),
		Fingerprint: widget.FingerprintOf(cfg).Short(),
	}
}

// Render fetches whatever upstream data cfg needs and draws it. A missing primary
// entity fails the render; degraded secondary data is reported in Warnings.
func (s *WidgetService) Render(ctx context.Context, cfg widget.Config) (art model.Artifact, err error) {
	start := s.clock.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = apperror.Kind(err)
		} else if len(art.Warnings) > 0 {
			outcome = "degraded"
		}
		if s.OnRender != nil {
			s.OnRender(string(cfg.Type()), outcome, s.clock.Now().Sub(start))
		}
	}()

	if err := widget.Validate(cfg); err != nil {
		return model.Artifact{}, err
	}

	data, warnings, err := s.fetch(ctx, cfg)
	if err != nil {
		return model.Artifact{}, err
	}

	doc, err := svg.Render(cfg, data)
	if err != nil {
		s.logger.Error("widget composition failed", "type", cfg.Type(), "error", err)
		return model.Artifact{}, err
	}

	fp := widget.FingerprintOf(cfg)
	link := s.Link(cfg)
	art = model.Artifact{
		SVG:         doc,
		URL:         link.URL,
		Markdown:    link.Markdown,
		Fingerprint: fp.Short(),
		ETag:        fp.ETag(),
		Username:    upstreamUser(cfg),
		GeneratedAt: s.clock.Now(),
		Warnings:    warnings,
	}
	if cfg.Type().DataDriven() {
		// The same config draws different numbers as GitHub data changes.
		art.ETag = widget.ContentETag(doc)
	}
	return art, nil
}

// upstreamUser is the GitHub account whose data cfg draws, if any.
func upstreamUser(cfg widget.Config) string {
	switch c := cfg.(type) {
	case *widget.Stats:
		return c.Username
	case *widget.LanguageChart:
		return c.Username
	case *widget.Repo:
		return c.Username
	}
	return ""
}

func (s *WidgetService) fetch(ctx context.Context, cfg widget.Config) (svg.Data, []model.Warning, error) {
	switch c := cfg.(type) {
	case *widget.Stats:
		st, err := s.fetcher.FetchStats(ctx, c.Username)
		if err != nil {
			return svg.Data{}, nil, err
		}
		return svg.Data{Stats: &st}, st.Warnings, nil
	case *widget.LanguageChart:
		l, err := s.fetcher.FetchLanguages(ctx, c.Username)
		if err != nil {
			return svg.Data{}, nil, err
		}
		return svg.Data{Languages: &l}, l.Warnings, nil
	case *widget.Repo:
		r, err := s.fetcher.FetchRepo(ctx, c.Username, c.Repo)
		if err != nil {
			return svg.Data{}, nil, err
		}
		return svg.Data{Repo: &r}, r.Warnings, nil
	}
	return svg.Data{}, nil, nil
}

// ErrorCard draws err as an in-band SVG in cfg's theme.
func (s *WidgetService) ErrorCard(cfg widget.Config, err error) string {
	heading := "Something went wrong"
	switch apperror.Kind(err) {
	case "not_found":
		heading = "Not found"
	case "rate_limited":
		heading = "Rate limited"
	case "upstream_unavailable":
		heading = "GitHub unavailable"
	case "validation_error":
		heading = "Invalid widget settings"
	}
	return svg.ErrorCard(cfg, heading, apperror.UserMessage(err))
}

// Invalidate drops cached upstream snapshots for username.
func (s *WidgetService) Invalidate(username string) int {
	return s.fetcher.Invalidate(username)
}
