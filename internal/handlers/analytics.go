package handlers

import (
	"context"
	"net/http"

	"portfolio-backend/internal/models"
)

type analyticsService interface {
	Get(ctx context.Context) (*models.Analytics, error)
}

type AnalyticsHandler struct {
	analytics     analyticsService
	exposeDetails bool
}

func NewAnalyticsHandler(analytics analyticsService, exposeDetails bool) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, exposeDetails: exposeDetails}
}

func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.analytics.Get(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "Failed to fetch analytics", h.exposeDetails)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
