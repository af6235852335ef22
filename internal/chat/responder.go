package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gradient-chat/internal/domain"
	"gradient-chat/internal/llm"
)

// Responder produce la respuesta del asistente. history no incluye el mensaje text.
type Responder interface {
	Respond(ctx context.Context, history []domain.Message, text string) (string, error)
}

// ResponderFunc adapta una funcion a Responder.
type ResponderFunc func(ctx context.Context, history []domain.Message, text string) (string, error)

func (f ResponderFunc) Respond(ctx context.Context, history []domain.Message, text string) (string, error) {
	return f(ctx, history, text)
}

// DefaultLatency es la demora artificial del CannedResponder.
const DefaultLatency = 1500 * time.Millisecond

const fallbackReply = "That's an interesting question! I'm an AI assistant designed to help with various topics? I can help with programming, science, travel planning, and many other subjects."

type cannedEntry struct {
	trigger string
	reply   string
}

// El orden importa: gana la primera entrada cuyo disparador aparece en el texto.
var cannedReplies = []cannedEntry{
	{
		trigger: "explain quantum computing in simple terms",
		reply:   "Quantum computing is like having a computer that can be in multiple states at once, unlike regular computers that are either 0 or 1. It uses quantum bits (qubits) that can exist in superposition, allowing for incredibly fast calculations for certain problems like cryptography and optimization.",
	},
	{
		trigger: "write a python function to sort a list",
		reply:   "Here's a simple Python function to sort a list:\n\n```python\ndef sort_list(lst):\n    return sorted(lst)\n\n# Example usage:\nnumbers = [3, 1, 4, 1, 5, 9, 2, 6]\nprint(sort_list(numbers))  # [1, 1, 2, 3, 4, 5, 6, 9]\n```",
	},
	{
		trigger: "what are the benefits of meditation?",
		reply:   "Meditation offers numerous benefits including reduced stress and anxiety, improved focus and concentration, better emotional regulation, enhanced self-awareness, improved sleep quality, and increased feelings of calm and well-being. Regular practice can also boost immune function and reduce blood pressure.",
	},
	{
		trigger: "help me plan a weekend trip to paris",
		reply:   "Here's a great weekend itinerary for Paris:\n\n**Day 1:**\n- Morning: Visit the Eiffel Tower and Trocadéro\n- Afternoon: Explore the Louvre Museum\n- Evening: Walk along the Seine and have dinner in Montmartre\n\n**Day 2:**\n- Morning: Visit Notre-Dame and Île de la Cité\n- Afternoon: Stroll through the Latin Quarter\n- Evening: Enjoy a Seine river cruise\n\nDon't forget to try croissants, visit local cafés, and take in the beautiful architecture!",
	},
}

// CannedResponder responde desde una tabla fija tras una demora artificial.
type CannedResponder struct {
	Latency time.Duration
}

func NewCannedResponder(latency time.Duration) *CannedResponder {
	if latency < 0 {
		latency = 0
	}
	return &CannedResponder{Latency: latency}
}

func (r *CannedResponder) Respond(ctx context.Context, _ []domain.Message, text string) (string, error) {
	if r.Latency > 0 {
		timer := time.NewTimer(r.Latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return CannedReply(text), nil
}

// CannedReply busca la primera coincidencia por subcadena, sin distinguir mayusculas.
func CannedReply(text string) string {
	lower := strings.ToLower(text)
	for _, e := range cannedReplies {
		if strings.Contains(lower, e.trigger) {
			return e.reply
		}
	}
	return fallbackReply
}

// LLMResponder delega en un proveedor real con el historial de la conversacion.
type LLMResponder struct {
	client       llm.LLMClient
	systemPrompt string
}

func NewLLMResponder(client llm.LLMClient, systemPrompt string) *LLMResponder {
	return &LLMResponder{client: client, systemPrompt: strings.TrimSpace(systemPrompt)}
}

func (r *LLMResponder) Respond(ctx context.Context, history []domain.Message, text string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("llm client not configured")
	}
	msgs := make([]llm.Message, 0, len(history)+2)
	if r.systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: r.systemPrompt})
	}
	for _, m := range history {
		// Los mensajes sin respuesta no se reenvian.
		if m.Error != "" {
			continue
		}
		role := llm.RoleUser
		if m.Role == domain.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: text})

	reply, err := r.client.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
