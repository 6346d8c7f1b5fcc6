package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/readme-widgets/internal/enhance"
)

// Enhancer rewrites a README section. *enhance.Client implements it.
type Enhancer interface {
	Enabled() bool
	Enhance(ctx context.Context, content, hint string) (string, error)
}

// EnhanceHandler proxies the AI rewrite service and reports which widgets the
// rewritten markdown embeds, so the editor can turn them back into blocks.
type EnhanceHandler struct {
	enhancer Enhancer
	logger   *slog.Logger
}

func NewEnhanceHandler(enhancer Enhancer, logger *slog.Logger) *EnhanceHandler {
	return &EnhanceHandler{enhancer: enhancer, logger: logger}
}

type enhanceResponse struct {
	Markdown string         `json:"markdown"`
	Widgets  []ParsedWidget `json:"widgets"`
}

// HandleEnhance rewrites a section.
//
// HTTP: POST /api/enhance
// REQUEST BODY: {"content": "# About me\n...", "context": "backend engineer"}
func (h *EnhanceHandler) HandleEnhance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
		Context string `json:"context"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	md, err := h.enhancer.Enhance(r.Context(), req.Content, req.Context)
	if errors.Is(err, enhance.ErrDisabled) {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "not_configured",
			Message: "README enhancement is not enabled on this server",
		})
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, enhanceResponse{Markdown: md, Widgets: parseWidgets(md)})
}
