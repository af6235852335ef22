// Package chat orquesta conversaciones: borrador, envio, respuesta diferida
// y el indice de conversaciones del usuario.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gradient-chat/internal/domain"
)

// Orchestrator es el unico duenio de las conversaciones del proceso.
// Toda mutacion pasa por mu; el responder corre fuera del lock.
type Orchestrator struct {
	logger    *zap.Logger
	responder Responder
	owner     func() string
	now       func() time.Time

	mu      sync.Mutex
	convs   map[string]*domain.Conversation
	order   []string
	active  string
	draft   string
	pending map[string]*Exchange
	closed  bool

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator recibe owner para registrar el usuario duenio de cada conversacion nueva.
func NewOrchestrator(logger *zap.Logger, responder Responder, owner func() string) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if owner == nil {
		owner = func() string { return "" }
	}
	base, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		logger:    logger,
		responder: responder,
		owner:     owner,
		now:       time.Now,
		convs:     make(map[string]*domain.Conversation),
		pending:   make(map[string]*Exchange),
		base:      base,
		cancel:    cancel,
	}
}

// SetDraft reemplaza el borrador; se recorta a MaxMessageLength caracteres.
func (o *Orchestrator) SetDraft(text string) {
	if utf8.RuneCountInString(text) > domain.MaxMessageLength {
		text = string([]rune(text)[:domain.MaxMessageLength])
	}
	o.mu.Lock()
	o.draft = text
	o.mu.Unlock()
}

func (o *Orchestrator) Draft() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft
}

// Submit envia el borrador actual. Crea la conversacion si no hay una activa,
// agrega el mensaje de usuario y lanza el responder en segundo plano.
func (o *Orchestrator) Submit(ctx context.Context) (*Exchange, error) {
	return o.submit(ctx, "", true)
}

// SubmitText envia text en lugar del borrador, con las mismas reglas que Submit.
func (o *Orchestrator) SubmitText(ctx context.Context, text string) (*Exchange, error) {
	return o.submit(ctx, text, false)
}

func (o *Orchestrator) submit(ctx context.Context, text string, fromDraft bool) (*Exchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	if fromDraft {
		text = o.draft
	}
	text = strings.TrimSpace(text)
	if text == "" {
		o.mu.Unlock()
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > domain.MaxMessageLength {
		o.mu.Unlock()
		return nil, ErrMessageTooLong
	}
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	if o.active != "" && o.pending[o.active] != nil {
		o.mu.Unlock()
		return nil, ErrAwaitingResponse
	}

	now := o.now().UTC()
	conv := o.convs[o.active]
	if conv == nil {
		conv = o.createLocked(now)
	}

	history := append([]domain.Message(nil), conv.Messages...)
	msg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           domain.RoleUser,
		Content:        text,
		Timestamp:      now,
	}
	conv.Messages = append(conv.Messages, msg)
	o.draft = ""

	ex := newExchange(conv.ID, msg)
	o.pending[conv.ID] = ex
	o.wg.Add(1)
	o.mu.Unlock()

	o.logger.Debug("message submitted",
		zap.String("conversation_id", conv.ID),
		zap.Int("history_len", len(history)),
	)
	go o.resolve(ex, history, text)
	return ex, nil
}

// createLocked agrega una conversacion nueva al frente del indice y la activa.
func (o *Orchestrator) createLocked(now time.Time) *domain.Conversation {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	conv := &domain.Conversation{
		ID:        id.String(),
		OwnerID:   o.owner(),
		Title:     domain.DefaultConversationTitle,
		Messages:  []domain.Message{},
		CreatedAt: now,
	}
	o.convs[conv.ID] = conv
	o.order = append([]string{conv.ID}, o.order...)
	o.active = conv.ID
	return conv
}

// resolve aplica la respuesta a la conversacion capturada en Submit, no a la activa.
func (o *Orchestrator) resolve(ex *Exchange, history []domain.Message, text string) {
	defer o.wg.Done()

	reply, err := o.responder.Respond(o.base, history, text)

	o.mu.Lock()
	delete(o.pending, ex.ConversationID)
	conv := o.convs[ex.ConversationID]
	if err != nil {
		for i := range conv.Messages {
			if conv.Messages[i].ID == ex.UserMessage.ID {
				conv.Messages[i].Error = err.Error()
				break
			}
		}
		ex.err = fmt.Errorf("respond: %w", err)
		o.mu.Unlock()
		o.logger.Warn("responder failed", zap.String("conversation_id", ex.ConversationID), zap.Error(err))
		close(ex.done)
		return
	}

	am := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           domain.RoleAssistant,
		Content:        reply,
		Timestamp:      o.now().UTC(),
	}
	conv.Messages = append(conv.Messages, am)
	conv.ApplyTitle(text)
	ex.reply = am
	o.mu.Unlock()
	close(ex.done)
}

// SelectConversation activa la conversacion id. Un id desconocido es no-op.
func (o *Orchestrator) SelectConversation(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.convs[id]; !ok {
		return false
	}
	o.active = id
	return true
}

// StartNewChat deja sin conversacion activa; el registro se crea al primer envio.
func (o *Orchestrator) StartNewChat() {
	o.mu.Lock()
	o.active = ""
	o.mu.Unlock()
}

func (o *Orchestrator) ActiveID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Conversations devuelve copias en orden de creacion, la mas reciente primero.
func (o *Orchestrator) Conversations() []domain.Conversation {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.Conversation, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, o.convs[id].Clone())
	}
	return out
}

func (o *Orchestrator) Conversation(id string) (domain.Conversation, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	conv, ok := o.convs[id]
	if !ok {
		return domain.Conversation{}, false
	}
	return conv.Clone(), true
}

// Transcript devuelve los mensajes de la conversacion activa; vacio si no hay.
func (o *Orchestrator) Transcript() []domain.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	conv, ok := o.convs[o.active]
	if !ok {
		return []domain.Message{}
	}
	return conv.Clone().Messages
}

// Busy reporta si hay algun intercambio pendiente.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending) > 0
}

// Awaiting reporta si la conversacion id tiene un intercambio pendiente.
func (o *Orchestrator) Awaiting(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending[id] != nil
}

// Close cancela los responders en curso y espera a que terminen.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.cancel()
	o.wg.Wait()
}
