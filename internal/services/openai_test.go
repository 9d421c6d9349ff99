package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolio-backend/internal/models"
)

func newOpenAITestServer(t *testing.T, status int, body string, seen *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if seen != nil {
			json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var testPrompt = CompletionRequest{
	Messages: []models.ConversationMessage{
		{Role: models.RoleSystem, Content: "persona"},
		{Role: models.RoleUser, Content: "Hello"},
	},
	Temperature: 0.7,
	MaxTokens:   500,
}

func TestOpenAICompleter_Success(t *testing.T) {
	var seen map[string]interface{}
	srv := newOpenAITestServer(t, http.StatusOK,
		`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hi from the model"},"finish_reason":"stop"}]}`,
		&seen)

	c := NewOpenAICompleter("test-key", "gpt-4o-mini", srv.URL+"/v1", srv.Client())
	got, err := c.Complete(context.Background(), testPrompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hi from the model" {
		t.Fatalf("unexpected reply %q", got)
	}

	if seen["model"] != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %v", seen["model"])
	}
	if seen["max_tokens"] != float64(500) {
		t.Errorf("expected max_tokens 500, got %v", seen["max_tokens"])
	}
	msgs, _ := seen["messages"].([]interface{})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %v", seen["messages"])
	}
	first, _ := msgs[0].(map[string]interface{})
	if first["role"] != "system" || first["content"] != "persona" {
		t.Errorf("unexpected first message %v", first)
	}
}

func TestOpenAICompleter_NoChoices(t *testing.T) {
	srv := newOpenAITestServer(t, http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[]}`, nil)

	c := NewOpenAICompleter("test-key", "gpt-4o-mini", srv.URL+"/v1", srv.Client())
	got, err := c.Complete(context.Background(), testPrompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty reply, got %q", got)
	}
}

func TestOpenAICompleter_ErrorStatusIsRejected(t *testing.T) {
	srv := newOpenAITestServer(t, http.StatusInternalServerError,
		`{"error":{"message":"The server had an error","type":"server_error"}}`, nil)

	c := NewOpenAICompleter("test-key", "gpt-4o-mini", srv.URL+"/v1", srv.Client())
	_, err := c.Complete(context.Background(), testPrompt)

	var rejected *UpstreamRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected UpstreamRejectedError, got %T %v", err, err)
	}
	if rejected.Status != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rejected.Status)
	}
}

func TestOpenAICompleter_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOpenAICompleter("test-key", "gpt-4o-mini", url+"/v1", nil)
	_, err := c.Complete(context.Background(), testPrompt)

	var unavailable *UpstreamUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UpstreamUnavailableError, got %T %v", err, err)
	}
}
