package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"portfolio-backend/internal/config"
	"portfolio-backend/internal/logger"
	"portfolio-backend/internal/metrics"
	"portfolio-backend/internal/models"
)

// CompletionRequest is the provider-neutral prompt handed to a Completer.
type CompletionRequest struct {
	Messages    []models.ConversationMessage
	Temperature float32
	MaxTokens   int
}

// Completer generates the assistant's next turn. An empty string with a nil
// error means the provider answered without a usable choice.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// PersonaSource supplies the system prompt. *config.PersonaStore satisfies it.
type PersonaSource interface {
	Current() config.Persona
}

type ChatOptions struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type ChatService struct {
	quota     *QuotaLimiter
	completer Completer
	persona   PersonaSource
	opts      ChatOptions
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewChatService wires the relay. completer may be nil, in which case every
// admitted request fails with an UpstreamUnavailableError.
func NewChatService(quota *QuotaLimiter, completer Completer, persona PersonaSource, opts ChatOptions, m *metrics.Metrics) *ChatService {
	return &ChatService{
		quota:     quota,
		completer: completer,
		persona:   persona,
		opts:      opts,
		metrics:   m,
		log:       logger.Component("chat"),
	}
}

func (s *ChatService) MaxQuestions() int { return s.quota.Max() }

// Ask runs one chat turn for identity: quota check, body validation, reservation,
// completion. body is not read until the quota check passes. The reservation is
// released when the completion fails.
func (s *ChatService) Ask(ctx context.Context, identity string, body io.Reader) (resp *models.ChatResponse, err error) {
	defer func() { s.observe(err) }()

	date := s.quota.Today()
	key, _, err := s.quota.Check(ctx, identity, date)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &ValidationError{Message: "Invalid request body"}
	}

	req, err := ParseChatRequest(raw)
	if err != nil {
		return nil, err
	}

	if s.completer == nil {
		return nil, &UpstreamUnavailableError{NotConfigured: true}
	}

	ticket, err := s.quota.Reserve(ctx, key)
	if err != nil {
		return nil, err
	}

	reply, err := s.Relay(ctx, req.Messages)
	if err != nil {
		s.quota.Release(ctx, ticket)
		return nil, err
	}

	s.log.Debug().
		Str("identity", identity).
		Int("questions_asked", ticket.Count).
		Msg("chat turn served")

	return &models.ChatResponse{
		Message:        reply,
		QuestionsAsked: ticket.Count,
		MaxQuestions:   ticket.Max,
	}, nil
}

// Usage reports today's count for identity without consuming anything.
func (s *ChatService) Usage(ctx context.Context, identity string) (*models.ChatUsage, error) {
	count, err := s.quota.Usage(ctx, Key(identity, s.quota.Today()))
	if err != nil {
		return nil, err
	}
	return &models.ChatUsage{QuestionsAsked: count, MaxQuestions: s.quota.Max()}, nil
}

// Relay prepends the persona's system prompt to msgs and asks the completer for a reply.
func (s *ChatService) Relay(ctx context.Context, msgs []models.ConversationMessage) (string, error) {
	if s.completer == nil {
		return "", &UpstreamUnavailableError{NotConfigured: true}
	}

	persona := s.persona.Current()
	req := BuildCompletionRequest(persona, msgs, s.opts)

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.completer.Complete(ctx, req)
	if s.metrics != nil {
		s.metrics.ChatUpstreamDuration.WithLabelValues(s.completer.Name()).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		var rejected *UpstreamRejectedError
		var unavailable *UpstreamUnavailableError
		if errors.As(err, &rejected) || errors.As(err, &unavailable) {
			return "", err
		}
		return "", &UpstreamUnavailableError{Err: err}
	}

	if text == "" {
		if s.metrics != nil {
			s.metrics.ChatFallbackReplies.Inc()
		}
		s.log.Warn().Str("provider", s.completer.Name()).Msg("completion returned no usable choice, using fallback")
		return persona.Fallback, nil
	}
	return text, nil
}

// BuildCompletionRequest places the system prompt first and the caller's messages
// after it, verbatim and in order. Persona overrides win over opts.
func BuildCompletionRequest(persona config.Persona, msgs []models.ConversationMessage, opts ChatOptions) CompletionRequest {
	prompt := make([]models.ConversationMessage, 0, len(msgs)+1)
	prompt = append(prompt, models.ConversationMessage{Role: models.RoleSystem, Content: persona.SystemPrompt})
	prompt = append(prompt, msgs...)

	temperature := opts.Temperature
	if persona.Temperature != nil {
		temperature = *persona.Temperature
	}
	maxTokens := opts.MaxTokens
	if persona.MaxTokens != nil {
		maxTokens = *persona.MaxTokens
	}

	return CompletionRequest{
		Messages:    prompt,
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
	}
}

// ParseChatRequest decodes and validates a chat body. Only user and assistant
// turns are accepted from callers; the system turn is always server-supplied.
func ParseChatRequest(body []byte) (models.ChatRequest, error) {
	var raw struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.ChatRequest{}, &ValidationError{Message: "Invalid request body"}
	}

	trimmed := bytes.TrimSpace(raw.Messages)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return models.ChatRequest{}, &ValidationError{Message: "Messages array is required"}
	}

	var msgs []models.ConversationMessage
	if err := json.Unmarshal(trimmed, &msgs); err != nil {
		return models.ChatRequest{}, &ValidationError{Message: "Messages array is required"}
	}
	if len(msgs) == 0 {
		return models.ChatRequest{}, &ValidationError{Message: "Messages array must not be empty"}
	}

	for i, m := range msgs {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
			return models.ChatRequest{}, &ValidationError{
				Message: "Each message must have role \"user\" or \"assistant\"",
				Fields:  map[string]string{fieldName(i, "role"): "must be user or assistant"},
			}
		}
		if strings.TrimSpace(m.Content) == "" {
			return models.ChatRequest{}, &ValidationError{
				Message: "Each message must have non-empty content",
				Fields:  map[string]string{fieldName(i, "content"): "is required"},
			}
		}
	}

	return models.ChatRequest{Messages: msgs}, nil
}

func fieldName(i int, field string) string {
	return "messages[" + strconv.Itoa(i) + "]." + field
}

func (s *ChatService) observe(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ChatRequestsTotal.WithLabelValues(ChatOutcome(err)).Inc()
}

// ChatOutcome maps an Ask result onto a metrics outcome label.
func ChatOutcome(err error) string {
	var (
		quota       *QuotaExceededError
		validation  *ValidationError
		rejected    *UpstreamRejectedError
		unavailable *UpstreamUnavailableError
	)
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &quota):
		return metrics.OutcomeQuotaExceeded
	case errors.As(err, &validation):
		return metrics.OutcomeValidationError
	case errors.As(err, &rejected):
		return metrics.OutcomeUpstreamRejected
	case errors.As(err, &unavailable):
		return metrics.OutcomeUpstreamUnavailable
	default:
		return metrics.OutcomeError
	}
}
