// Package llm envuelve los proveedores de chat (OpenAI-compatible y Anthropic)
// detras de una sola interfaz de generacion.
package llm

import (
	"context"
	"fmt"
	"strings"

	"gradient-chat/internal/errs"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message es un turno del historial que se envia al modelo.
type Message struct {
	Role    string
	Content string
}

// LLMClient define la interfaz para generar respuestas con un LLM.
type LLMClient interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Config selecciona proveedor y modelo.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// New construye el cliente del proveedor indicado ("openai" o "anthropic").
func New(cfg Config) (LLMClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: llm api key is required", errs.ErrValidation)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", errs.ErrValidation, cfg.Provider)
	}
}

// splitSystem separa los mensajes de sistema del resto del historial.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if s := strings.TrimSpace(m.Content); s != "" {
				system = append(system, s)
			}
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
