package chat

import (
	"context"

	"gradient-chat/internal/domain"
)

// Exchange es el handle de un envio: el mensaje de usuario ya agregado y la
// respuesta diferida. ConversationID es la conversacion capturada al enviar.
type Exchange struct {
	ConversationID string
	UserMessage    domain.Message

	done  chan struct{}
	reply domain.Message
	err   error
}

func newExchange(convID string, msg domain.Message) *Exchange {
	return &Exchange{ConversationID: convID, UserMessage: msg, done: make(chan struct{})}
}

// Done se cierra cuando el intercambio se resolvio o fallo.
func (e *Exchange) Done() <-chan struct{} { return e.done }

// Wait bloquea hasta la resolucion o hasta que ctx termine.
func (e *Exchange) Wait(ctx context.Context) (domain.Message, error) {
	select {
	case <-e.done:
		return e.reply, e.err
	case <-ctx.Done():
		return domain.Message{}, ctx.Err()
	}
}

// Reply devuelve el mensaje del asistente; vacio si aun no hay resolucion.
func (e *Exchange) Reply() domain.Message {
	select {
	case <-e.done:
		return e.reply
	default:
		return domain.Message{}
	}
}

// Err devuelve el error del responder; nil mientras siga pendiente.
func (e *Exchange) Err() error {
	select {
	case <-e.done:
		return e.err
	default:
		return nil
	}
}
