package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/auth"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/service"
)

// ProjectHandler manages saved READMEs.
//
// OWNERSHIP:
// Write routes sit behind auth.RequireAuth. The token subject becomes the
// project's owner and only that subject may change it later. Without a
// configured secret every caller is anonymous and projects are unowned.
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *slog.Logger
}

func NewProjectHandler(projects *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

type projectRequest struct {
	Name   string        `json:"name"`
	Blocks []model.Block `json:"blocks"`
}

// HandleList returns a page of projects.
//
// HTTP: GET /api/projects?limit=20&offset=0
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	projects, err := h.projects.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// HandleCreate saves a new project.
//
// HTTP: POST /api/projects
// REQUEST BODY: {"name": "profile", "blocks": [{"kind": "markdown", "content": "# Hi"}]}
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	owner, _ := auth.SubjectFromContext(r.Context())
	project, err := h.projects.Create(r.Context(), req.Name, req.Blocks, owner)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/projects/"+project.ID)
	writeJSON(w, http.StatusCreated, project)
}

// HandleGet returns one project.
//
// HTTP: GET /api/projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// HandleUpdate replaces a project's name and blocks. An empty name keeps the
// current one.
//
// HTTP: PUT /api/projects/{id}
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	caller, _ := auth.SubjectFromContext(r.Context())
	project, err := h.projects.Update(r.Context(), r.PathValue("id"), req.Name, req.Blocks, caller)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// HandleDelete removes a project.
//
// HTTP: DELETE /api/projects/{id}
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.SubjectFromContext(r.Context())
	if err := h.projects.Delete(r.Context(), r.PathValue("id"), caller); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReadme returns the assembled README as markdown.
//
// HTTP: GET /api/projects/{id}/readme
func (h *ProjectHandler) HandleReadme(w http.ResponseWriter, r *http.Request) {
	md, err := h.projects.Assemble(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="README.md"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(md))
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(key, key+" must be an integer")
	}
	return n, nil
}
