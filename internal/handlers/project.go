package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

type projectService interface {
	List(ctx context.Context) ([]models.Project, error)
	Create(ctx context.Context, req models.CreateProjectRequest) (*models.Project, error)
	Update(ctx context.Context, id uuid.UUID, req models.UpdateProjectRequest) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	InitDefaults(ctx context.Context) (*services.SeedResult, error)
}

type ProjectHandler struct {
	projects      projectService
	exposeDetails bool
}

func NewProjectHandler(projects projectService, exposeDetails bool) *ProjectHandler {
	return &ProjectHandler{projects: projects, exposeDetails: exposeDetails}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "Failed to fetch projects", h.exposeDetails)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	project, err := h.projects.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err, "Failed to create project", h.exposeDetails)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "project": project})
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	var req models.UpdateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	project, err := h.projects.Update(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err, "Failed to update project", h.exposeDetails)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "project": project})
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	if err := h.projects.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "Failed to delete project", h.exposeDetails)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// InitDefaults handles POST /init-defaults.
func (h *ProjectHandler) InitDefaults(w http.ResponseWriter, r *http.Request) {
	res, err := h.projects.InitDefaults(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "Failed to initialize projects", h.exposeDetails)
		return
	}

	message := "Projects already exist"
	if res.Inserted {
		message = "Default projects initialized"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
		"count":   res.Count,
	})
}

func projectID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid project ID"))
		return uuid.Nil, false
	}
	return id, true
}
