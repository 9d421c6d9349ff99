package services

import (
	"context"
	"errors"
	"net/http"

	openaiapi "github.com/sashabaranov/go-openai"

	"portfolio-backend/internal/models"
)

// OpenAICompleter talks to the OpenAI chat completions API.
type OpenAICompleter struct {
	api   *openaiapi.Client
	model string
}

// NewOpenAICompleter builds a client for model. baseURL overrides the API endpoint
// when set (compatible gateways, tests).
func NewOpenAICompleter(apiKey, model, baseURL string, httpClient *http.Client) *OpenAICompleter {
	cfg := openaiapi.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAICompleter{
		api:   openaiapi.NewClientWithConfig(cfg),
		model: model,
	}
}

func (c *OpenAICompleter) Name() string { return "openai" }

func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	apiReq := openaiapi.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	resp, err := c.api.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(msgs []models.ConversationMessage) []openaiapi.ChatCompletionMessage {
	res := make([]openaiapi.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, openaiapi.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return res
}

// classifyOpenAIError separates "the API answered with an error status" from
// "we never got an answer".
func classifyOpenAIError(err error) error {
	var apiErr *openaiapi.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamRejectedError{Status: apiErr.HTTPStatusCode, Details: apiErr.Message, Err: err}
	}
	var reqErr *openaiapi.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamRejectedError{Status: reqErr.HTTPStatusCode, Details: string(reqErr.Body), Err: err}
	}
	return &UpstreamUnavailableError{Err: err}
}
