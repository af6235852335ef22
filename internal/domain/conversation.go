package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultConversationTitle es el titulo centinela hasta el primer intercambio resuelto.
const DefaultConversationTitle = "New Chat"

// maxTitleLength es la cantidad de caracteres visibles del titulo derivado.
const maxTitleLength = 30

type Conversation struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`

	titled bool
}

// HasDefaultTitle reporta si el titulo todavia no fue derivado de un intercambio.
// No compara texto: un titulo derivado puede coincidir con el centinela.
func (c *Conversation) HasDefaultTitle() bool {
	return !c.titled
}

// ApplyTitle fija el titulo derivado de text una sola vez.
// Devuelve false si ya estaba fijado.
func (c *Conversation) ApplyTitle(text string) bool {
	if c.titled {
		return false
	}
	c.Title = TitleFromMessage(text)
	c.titled = true
	return true
}

// Clone devuelve una copia con su propio slice de mensajes.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = append(make([]Message, 0, len(c.Messages)), c.Messages...)
	return out
}

// TitleFromMessage deriva el titulo a partir del texto del usuario:
// primeros 30 caracteres del texto recortado, con "..." si se trunco.
func TitleFromMessage(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= maxTitleLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxTitleLength]) + "..."
}
