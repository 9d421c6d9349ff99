package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"portfolio-backend/internal/logger"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

const quotaExceededMessage = "You have reached the maximum number of questions for today. Please try again tomorrow."

type chatService interface {
	Ask(ctx context.Context, identity string, body io.Reader) (*models.ChatResponse, error)
	Usage(ctx context.Context, identity string) (*models.ChatUsage, error)
}

type ChatHandler struct {
	chat          chatService
	provider      string // display name used in upstream error payloads
	exposeDetails bool
	log           zerolog.Logger
}

func NewChatHandler(chat chatService, provider string, exposeDetails bool) *ChatHandler {
	return &ChatHandler{
		chat:          chat,
		provider:      provider,
		exposeDetails: exposeDetails,
		log:           logger.Component("chat-handler"),
	}
}

// Ask handles POST /chat.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	resp, err := h.chat.Ask(r.Context(), h.identity(r), body)
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Usage handles GET /chat/usage.
func (h *ChatHandler) Usage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.chat.Usage(r.Context(), h.identity(r))
	if err != nil {
		handleServiceError(w, r, err, "Failed to fetch chat usage", h.exposeDetails)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func (h *ChatHandler) identity(r *http.Request) string {
	identity := middleware.ClientIdentity(r)
	if identity == middleware.UnknownIdentity {
		h.log.Warn().
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("no forwarding headers, using shared unknown quota bucket")
	}
	return identity
}

func (h *ChatHandler) writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		quota       *services.QuotaExceededError
		validation  *services.ValidationError
		unavailable *services.UpstreamUnavailableError
		rejected    *services.UpstreamRejectedError
	)

	switch {
	case errors.As(err, &quota):
		writeJSON(w, http.StatusTooManyRequests, models.QuotaExceededResponse{
			Error:          "Rate limit exceeded",
			Message:        quotaExceededMessage,
			QuestionsAsked: quota.QuestionsAsked,
			MaxQuestions:   quota.MaxQuestions,
		})

	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResp(validation.Error()))

	case errors.As(err, &unavailable) && unavailable.NotConfigured:
		h.log.Error().Msg("chat request received but no completion provider is configured")
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error:   h.provider + " API key not configured",
			Message: "The chatbot is not configured yet. Please contact the site administrator.",
		})

	case errors.As(err, &rejected):
		h.log.Error().Err(err).Int("upstream_status", rejected.Status).Msg("completion service rejected request")
		resp := models.ErrorResponse{
			Error:   h.provider + " API error",
			Message: "Failed to get response from AI. Please try again later.",
		}
		if h.exposeDetails {
			resp.Details = rejected.Details
		}
		writeJSON(w, http.StatusInternalServerError, resp)

	case errors.As(err, &unavailable):
		h.log.Error().Err(err).Msg("completion service unavailable")
		resp := models.ErrorResponse{
			Error:   "Failed to communicate with " + h.provider,
			Message: "The AI service is temporarily unavailable. Please try again later.",
		}
		if h.exposeDetails {
			resp.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)

	default:
		handleServiceError(w, r, err, "Failed to process chat request", h.exposeDetails)
	}
}
