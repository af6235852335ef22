package clientapp

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gradient-chat/internal/chat"
	"gradient-chat/internal/config"
)

func TestNewResponder(t *testing.T) {
	r, err := NewResponder(&config.ClientConfig{Responder: "canned", ResponderLatency: time.Second})
	if err != nil {
		t.Fatalf("canned: %v", err)
	}
	canned, ok := r.(*chat.CannedResponder)
	if !ok || canned.Latency != time.Second {
		t.Fatalf("expected canned responder with latency, got %T %+v", r, r)
	}

	r, err = NewResponder(&config.ClientConfig{Responder: "llm", LLMProvider: "anthropic", LLMAPIKey: "k"})
	if err != nil {
		t.Fatalf("llm: %v", err)
	}
	if _, ok := r.(*chat.LLMResponder); !ok {
		t.Fatalf("expected llm responder, got %T", r)
	}

	if _, err := NewResponder(&config.ClientConfig{Responder: "llm"}); err == nil {
		t.Fatalf("expected error for llm without api key")
	}
	if _, err := NewResponder(&config.ClientConfig{Responder: "oracle"}); err == nil {
		t.Fatalf("expected error for unknown responder")
	}
}

func TestNew_FileStore(t *testing.T) {
	cfg := &config.ClientConfig{
		AccountURL:      "http://127.0.0.1:1/api/auth",
		AccountTimeout:  time.Second,
		CredentialStore: "file",
		CredentialPath:  filepath.Join(t.TempDir(), "token.json"),
		Responder:       "canned",
	}
	app, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer app.Close()

	// Sin token persistido Restore no llama al servicio.
	if err := app.Sessions.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if app.Chat.Busy() {
		t.Fatalf("expected idle orchestrator")
	}
}

func TestNew_InvalidStore(t *testing.T) {
	if _, err := New(context.Background(), &config.ClientConfig{CredentialStore: "floppy"}, nil); err == nil {
		t.Fatalf("expected error for unknown store")
	}
	if _, err := New(context.Background(), &config.ClientConfig{CredentialStore: "redis"}, nil); err == nil {
		t.Fatalf("expected error for redis without address")
	}
}
