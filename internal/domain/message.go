package domain

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxMessageLength es el limite de caracteres (runas) de un mensaje de usuario.
const MaxMessageLength = 2000

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	// Error marca un mensaje de usuario cuya respuesta fallo.
	Error string `json:"error,omitempty"`
}
