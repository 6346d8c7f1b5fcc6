package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/cache"
	"github.com/sakif/readme-widgets/internal/markdown"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/service"
	"github.com/sakif/readme-widgets/internal/theme"
	"github.com/sakif/readme-widgets/internal/widget"
)

// WidgetHandler serves the SVG endpoints and the widget catalog/link/parse API.
//
// HTTP CACHING:
// A static widget URL fully determines its SVG, so the config fingerprint
// doubles as the ETag and a matching If-None-Match gets a 304 without rendering.
// Data-driven widgets are tagged by their rendered content instead; they are
// compared only after the artifact has been looked up or rendered, so new
// GitHub data reaches revalidating clients.
type WidgetHandler struct {
	widgets *service.WidgetService
	cache   *cache.TTL[uint64, model.Artifact]
	maxAge  time.Duration
	logger  *slog.Logger
}

// NewWidgetHandler creates a WidgetHandler. Rendered artifacts are kept in
// artifacts; maxAge is advertised in Cache-Control.
func NewWidgetHandler(widgets *service.WidgetService, artifacts *cache.TTL[uint64, model.Artifact], maxAge time.Duration, logger *slog.Logger) *WidgetHandler {
	return &WidgetHandler{widgets: widgets, cache: artifacts, maxAge: maxAge, logger: logger}
}

// HandleWidget returns the handler for one widget type.
//
// HTTP: GET /api/{type}?username=octocat&theme=dracula
//
// STATUS CODES (the body is always SVG):
//
//	200 rendered widget, or an error card where the README should keep rendering
//	304 If-None-Match matched the current ETag
//	400 a required parameter is missing
//	404 the GitHub user or repository does not exist
//	429 GitHub rate limit, with Retry-After
//	502 GitHub unreachable (stats card only)
func (h *WidgetHandler) HandleWidget(t widget.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, notes, err := h.widgets.Prepare(t, widget.FromValues(r.URL.Query()))
		if err != nil {
			h.writeCard(w, t, cfg, err)
			return
		}

		fp := widget.FingerprintOf(cfg)
		inm := r.Header.Get("If-None-Match")
		if !t.DataDriven() && etagMatches(inm, fp.ETag()) {
			h.notModified(w, cfg, fp.ETag())
			return
		}

		art, ok := h.cache.Get(fp.Hash)
		if !ok {
			art, err = h.widgets.Render(r.Context(), cfg)
			if err != nil {
				h.writeCard(w, t, cfg, err)
				return
			}
			// Degraded renders are not kept; the next request may get full data.
			if len(art.Warnings) == 0 {
				h.cache.Add(fp.Hash, art)
			}
		}

		if etagMatches(inm, art.ETag) {
			h.notModified(w, cfg, art.ETag)
			return
		}

		for _, note := range append(notes, warningNotes(art.Warnings)...) {
			w.Header().Add("X-Widget-Warning", note)
		}
		h.setCacheHeaders(w, cfg, art.ETag)
		writeSVG(w, http.StatusOK, art.SVG)
	}
}

func (h *WidgetHandler) notModified(w http.ResponseWriter, cfg widget.Config, etag string) {
	h.setCacheHeaders(w, cfg, etag)
	w.WriteHeader(http.StatusNotModified)
}

// setCacheHeaders advertises the configured max-age. Stats cards carry their
// own, chosen by the embedder through the cache parameter.
func (h *WidgetHandler) setCacheHeaders(w http.ResponseWriter, cfg widget.Config, etag string) {
	secs := int(h.maxAge / time.Second)
	if stats, ok := cfg.(*widget.Stats); ok {
		secs = stats.CacheSec
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", secs, secs/2))
	w.Header().Set("ETag", etag)
}

// writeCard answers a failed widget request with an error card.
func (h *WidgetHandler) writeCard(w http.ResponseWriter, t widget.Type, cfg widget.Config, err error) {
	if cfg == nil {
		cfg = widget.MustNormalize(widget.TypeWave, nil)
	}
	status := cardStatus(t, err)
	if status >= http.StatusInternalServerError || status == http.StatusOK {
		h.logger.Warn("widget render failed",
			slog.String("type", string(t)),
			slog.String("kind", apperror.Kind(err)),
			slog.String("error", err.Error()),
		)
	}
	setRetryAfter(w, err)
	w.Header().Set("Cache-Control", "no-store")
	writeSVG(w, status, h.widgets.ErrorCard(cfg, err))
}

// cardStatus picks the status for an error card. Language charts and repo cards
// are commonly embedded once and forgotten, so transient failures stay 200 for
// them and the card itself explains the problem.
func cardStatus(t widget.Type, err error) int {
	status := statusOf(err)
	switch {
	case status == http.StatusBadGateway, errors.Is(err, apperror.ErrGeneration):
		if t == widget.TypeLanguageChart || t == widget.TypeRepo {
			return http.StatusOK
		}
	}
	return status
}

func warningNotes(ws []model.Warning) []string {
	notes := make([]string, 0, len(ws))
	for _, w := range ws {
		notes = append(notes, fmt.Sprintf("%s: %s", w.Field, w.Kind))
	}
	return notes
}

// etagMatches implements the weak comparison If-None-Match uses.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}

// CatalogEntry describes one widget type for editors.
type CatalogEntry struct {
	Type       widget.Type   `json:"type"`
	Endpoint   string        `json:"endpoint"`
	DataDriven bool          `json:"dataDriven"`
	Required   []string      `json:"required,omitempty"`
	Themes     []string      `json:"themes"`
	Defaults   widget.Params `json:"defaults"`
}

// HandleCatalog lists every widget type with its themes and defaults.
//
// HTTP: GET /api/widgets
func (h *WidgetHandler) HandleCatalog(w http.ResponseWriter, _ *http.Request) {
	entries := make([]CatalogEntry, 0, len(widget.Types))
	for _, t := range widget.Types {
		entries = append(entries, CatalogEntry{
			Type:       t,
			Endpoint:   t.Endpoint(),
			DataDriven: t.DataDriven(),
			Required:   t.Required(),
			Themes:     theme.Names(string(t)),
			Defaults:   widget.MustNormalize(t, nil).Params(),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

// widgetRequest is the body shared by the link and preview endpoints.
type widgetRequest struct {
	Type   string        `json:"type"`
	Params widget.Params `json:"params"`
}

func (req widgetRequest) widgetType() (widget.Type, error) {
	t, ok := widget.ParseType(req.Type)
	if !ok {
		return "", apperror.ValidationFailed("type", fmt.Sprintf("unknown widget type %q", req.Type))
	}
	return t, nil
}

type linkResponse struct {
	service.Link
	Params widget.Params `json:"params"`
	Notes  []string      `json:"notes,omitempty"`
}

// HandleLink normalizes a config and returns its embed URL and markdown.
//
// HTTP: POST /api/widgets/url
// REQUEST BODY: {"type": "github-stats", "params": {"username": "octocat"}}
func (h *WidgetHandler) HandleLink(w http.ResponseWriter, r *http.Request) {
	var req widgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	t, err := req.widgetType()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	cfg, notes, err := h.widgets.Prepare(t, req.Params)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, linkResponse{
		Link:   h.widgets.Link(cfg),
		Params: cfg.Params().Compact(),
		Notes:  notes,
	})
}

// ParsedWidget is one widget found in a markdown document.
type ParsedWidget struct {
	Type     widget.Type       `json:"type"`
	Params   widget.Params     `json:"params"`
	Alt      string            `json:"alt,omitempty"`
	URL      string            `json:"url"`
	Position markdown.Position `json:"position"`
	Valid    bool              `json:"valid"`
	Error    string            `json:"error,omitempty"`
}

// parseWidgets finds the widget embeds in md and normalizes their params.
func parseWidgets(md string) []ParsedWidget {
	found := markdown.Parse(md)
	out := make([]ParsedWidget, 0, len(found))
	for _, p := range found {
		pw := ParsedWidget{Type: p.Type, Alt: p.Alt, URL: p.URL, Position: p.Position, Valid: true}
		cfg, err := p.Config()
		if err == nil {
			err = widget.Validate(cfg)
		}
		if cfg != nil {
			pw.Params = cfg.Params().Compact()
		}
		if err != nil {
			pw.Valid = false
			pw.Error = apperror.UserMessage(err)
		}
		out = append(out, pw)
	}
	return out
}

// HandleParse extracts widget embeds from a markdown document.
//
// HTTP: POST /api/widgets/parse
// REQUEST BODY: {"markdown": "# Hi\n![stats](https://.../api/github-stats?username=octocat)"}
func (h *WidgetHandler) HandleParse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Markdown string `json:"markdown"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"widgets": parseWidgets(req.Markdown)})
}

// HandleInvalidate drops cached GitHub snapshots for a user and every rendered
// widget drawn from them.
//
// HTTP: DELETE /api/cache/github/{username}
func (h *WidgetHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		writeError(w, h.logger, apperror.ValidationFailed("username", "username is required"))
		return
	}
	removed := h.widgets.Invalidate(username)
	// Rendered artifacts embed the stale data too.
	removed += h.cache.RemoveWhere(func(_ uint64, art model.Artifact) bool {
		return strings.EqualFold(art.Username, username)
	})
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
