package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/service"
)

// PreviewHandler drives live previews for the editor.
//
// LIFECYCLE:
// The editor PUTs every config edit. The server debounces them, renders the
// last one and the editor polls GET until the snapshot's state is "ready" or
// "failed". Until then the snapshot keeps the last good artifact with
// current=false, so the preview never flashes empty.
type PreviewHandler struct {
	previews *service.PreviewService
	logger   *slog.Logger
}

func NewPreviewHandler(previews *service.PreviewService, logger *slog.Logger) *PreviewHandler {
	return &PreviewHandler{previews: previews, logger: logger}
}

// HandleCreate starts a preview with a server-chosen id.
//
// HTTP: POST /api/previews
// REQUEST BODY: {"type": "wave-banner", "params": {"text": "Hi"}}
func (h *PreviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, "", http.StatusCreated)
}

// HandleUpdate feeds an edit to a preview, creating it if needed.
//
// HTTP: PUT /api/previews/{id}
func (h *PreviewHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, r.PathValue("id"), http.StatusOK)
}

func (h *PreviewHandler) update(w http.ResponseWriter, r *http.Request, id string, status int) {
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
	res, err := h.previews.Update(id, t, req.Params)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, status, res)
}

// HandleGet returns a preview's snapshot.
//
// HTTP: GET /api/previews/{id}
func (h *PreviewHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res, err := h.previews.Snapshot(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleSVG returns the artifact the preview currently shows.
//
// HTTP: GET /api/previews/{id}/svg
func (h *PreviewHandler) HandleSVG(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, err := h.previews.Snapshot(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	art := res.Snapshot.Artifact
	if art == nil {
		writeError(w, h.logger, apperror.NotFound("preview artifact", id))
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("ETag", art.ETag)
	writeSVG(w, http.StatusOK, art.SVG)
}

// HandleRetry regenerates a failed preview.
//
// HTTP: POST /api/previews/{id}/retry
func (h *PreviewHandler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	res, err := h.previews.Retry(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

// HandleDelete stops a preview.
//
// HTTP: DELETE /api/previews/{id}
func (h *PreviewHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.previews.Close(r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
