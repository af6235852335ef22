package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real. Guarda el ultimo historial recibido.
type MockClient struct {
	Response string
	Err      error

	mu   sync.Mutex
	last []Message
}

func (m *MockClient) Generate(ctx context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	m.last = append([]Message(nil), messages...)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.Response, m.Err
}

// LastMessages devuelve una copia del ultimo historial enviado.
func (m *MockClient) LastMessages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.last...)
}
