package handlers

import (
	"context"
	"net/http"

	"portfolio-backend/internal/models"
)

type adminAuthService interface {
	Login(ctx context.Context, req models.AdminLoginRequest) (*models.AuthTokens, error)
}

type AdminHandler struct {
	auth          adminAuthService
	exposeDetails bool
}

func NewAdminHandler(auth adminAuthService, exposeDetails bool) *AdminHandler {
	return &AdminHandler{auth: auth, exposeDetails: exposeDetails}
}

// Login handles POST /admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.AdminLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tokens, err := h.auth.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err, "Login failed", h.exposeDetails)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
