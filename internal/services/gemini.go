package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/option"

	"portfolio-backend/internal/models"
)

// gRPC status codes that mean the service could not be reached.
const (
	grpcDeadlineExceeded = 4
	grpcUnavailable      = 14
)

// GeminiCompleter relays conversations to Google's Gemini API.
type GeminiCompleter struct {
	client    *genai.Client
	modelName string
	rateChan  chan struct{} // Token bucket
}

func NewGeminiCompleter(ctx context.Context, apiKey, modelName string, concurrentReqs int) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if concurrentReqs <= 0 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiCompleter{client: client, modelName: modelName, rateChan: rateChan}, nil
}

func (g *GeminiCompleter) Name() string { return "gemini" }

func (g *GeminiCompleter) Close() {
	g.client.Close()
}

// acquireRate blocks until a rate slot is available
func (g *GeminiCompleter) acquireRate(ctx context.Context) error {
	select {
	case <-g.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *GeminiCompleter) releaseRate() {
	g.rateChan <- struct{}{}
}

func (g *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := g.acquireRate(ctx); err != nil {
		return "", &UpstreamUnavailableError{Err: err}
	}
	defer g.releaseRate()

	system, history, last := splitForGemini(req.Messages)
	if last == nil {
		return "", fmt.Errorf("conversation has no message to send")
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	return extractText(resp), nil
}

// splitForGemini turns the relay prompt into a system instruction, a chat
// history and the final turn to send. Gemini calls the assistant "model".
func splitForGemini(msgs []models.ConversationMessage) (string, []*genai.Content, *genai.Content) {
	var system []string
	var turns []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, m.Content)
		case models.RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(turns) == 0 {
		return strings.Join(system, "\n\n"), nil, nil
	}
	return strings.Join(system, "\n\n"), turns[:len(turns)-1], turns[len(turns)-1]
}

func classifyGeminiError(err error) error {
	ae, ok := apierror.FromError(err)
	if !ok {
		return &UpstreamUnavailableError{Err: err}
	}
	if code := ae.HTTPCode(); code > 0 {
		return &UpstreamRejectedError{Status: code, Details: ae.Reason(), Err: err}
	}
	if st := ae.GRPCStatus(); st != nil {
		code := int(st.Code())
		if code == grpcUnavailable || code == grpcDeadlineExceeded {
			return &UpstreamUnavailableError{Err: err}
		}
		return &UpstreamRejectedError{Status: code, Details: st.Message(), Err: err}
	}
	return &UpstreamRejectedError{Details: ae.Error(), Err: err}
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
