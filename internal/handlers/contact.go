package handlers

import (
	"context"
	"net/http"

	"portfolio-backend/internal/models"
)

type contactService interface {
	Submit(ctx context.Context, req models.ContactRequest) (*models.Contact, error)
	List(ctx context.Context) ([]models.Contact, error)
}

type ContactHandler struct {
	contacts      contactService
	exposeDetails bool
}

func NewContactHandler(contacts contactService, exposeDetails bool) *ContactHandler {
	return &ContactHandler{contacts: contacts, exposeDetails: exposeDetails}
}

// Submit handles POST /contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contact, err := h.contacts.Submit(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err, "Failed to save contact", h.exposeDetails)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    []models.Contact{*contact},
	})
}

// List handles GET /contacts.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contacts.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "Failed to fetch contacts", h.exposeDetails)
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"contacts": contacts})
}
