package chat

import (
	"errors"
	"fmt"

	"gradient-chat/internal/domain"
	"gradient-chat/internal/errs"
)

var (
	ErrEmptyMessage     = fmt.Errorf("%w: message is empty", errs.ErrValidation)
	ErrMessageTooLong   = fmt.Errorf("%w: message exceeds %d characters", errs.ErrValidation, domain.MaxMessageLength)
	ErrAwaitingResponse = errors.New("conversation is awaiting a response")
	ErrClosed           = errors.New("orchestrator closed")
)
