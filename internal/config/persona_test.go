package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParsePersona_FillsDefaults(t *testing.T) {
	p, err := parsePersona([]byte("name: tester\nsystem_prompt: You are a test persona.\ntemperature: 0.2\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Name != "tester" {
		t.Errorf("Expected name 'tester', got %q", p.Name)
	}
	if p.Fallback != DefaultFallbackReply {
		t.Errorf("Expected default fallback, got %q", p.Fallback)
	}
	if p.Temperature == nil || *p.Temperature != 0.2 {
		t.Errorf("Expected temperature override 0.2, got %v", p.Temperature)
	}
	if p.MaxTokens != nil {
		t.Errorf("Expected no max_tokens override, got %v", *p.MaxTokens)
	}
}

func TestParsePersona_RejectsEmptyPrompt(t *testing.T) {
	if _, err := parsePersona([]byte("name: blank\nsystem_prompt: \"   \"\n")); err == nil {
		t.Fatal("Expected error for blank system_prompt")
	}
}

func TestParsePersona_RejectsInvalidYAML(t *testing.T) {
	if _, err := parsePersona([]byte("system_prompt: [unterminated")); err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
}

func TestNewPersonaStore_DefaultWhenNoPath(t *testing.T) {
	s, err := NewPersonaStore("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Current().SystemPrompt != defaultSystemPrompt {
		t.Fatal("Expected built-in system prompt")
	}
}

func TestPersonaStore_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "persona.yaml")
	if err := os.WriteFile(path, []byte("name: v1\nsystem_prompt: first\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := NewPersonaStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Current().Name != "v1" {
		t.Fatalf("Expected v1, got %q", s.Current().Name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("name: v2\nsystem_prompt: second\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.Current().Name == "v2" {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	if s.Current().Name != "v2" {
		t.Fatalf("Expected persona to reload to v2, got %q", s.Current().Name)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
}
