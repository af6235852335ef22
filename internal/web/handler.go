// Package web expone el cliente de chat (sesion + conversaciones) como API HTTP local.
package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradient-chat/internal/chat"
	"gradient-chat/internal/domain"
	"gradient-chat/internal/errs"
	"gradient-chat/internal/session"
)

// Handler une el Session Manager y el Orchestrator del proceso.
type Handler struct {
	logger   *zap.Logger
	sessions *session.Manager
	chat     *chat.Orchestrator
}

func NewHandler(logger *zap.Logger, sessions *session.Manager, orch *chat.Orchestrator) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger, sessions: sessions, chat: orch}
}

// SignIn maneja POST /signin.
func (h *Handler) SignIn(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	previous := h.sessions.UserID()
	user, err := h.sessions.Login(c.Request.Context(), domain.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		h.releaseConversation()
		h.respondAuthError(c, "login", err)
		return
	}
	if user.ID != previous {
		h.releaseConversation()
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SignUp maneja POST /signup.
func (h *Handler) SignUp(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	previous := h.sessions.UserID()
	user, err := h.sessions.Register(c.Request.Context(), domain.Credentials{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.releaseConversation()
		h.respondAuthError(c, "register", err)
		return
	}
	if user.ID != previous {
		h.releaseConversation()
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *Handler) respondAuthError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, errs.ErrAuthRejected):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
	case errors.Is(err, errs.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrTransport):
		c.JSON(http.StatusBadGateway, gin.H{"error": "account service unavailable"})
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Logout maneja POST /logout. La conversacion activa se suelta; las respuestas
// pendientes siguen llegando a su conversacion.
func (h *Handler) Logout(c *gin.Context) {
	h.sessions.Logout(c.Request.Context())
	h.releaseConversation()
	c.Status(http.StatusNoContent)
}

// releaseConversation suelta la conversacion activa y el borrador del usuario anterior.
func (h *Handler) releaseConversation() {
	h.chat.StartNewChat()
	h.chat.SetDraft("")
}

// Session maneja GET /session y GET /signin.
func (h *Handler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, sessionBody(h.sessions.Snapshot()))
}

// RestoreSession maneja POST /session/restore: reintento explicito del perfil,
// por ejemplo despues de una falla de transporte (status error, token conservado).
func (h *Handler) RestoreSession(c *gin.Context) {
	err := h.sessions.Restore(c.Request.Context())
	body := sessionBody(h.sessions.Snapshot())
	switch {
	case err == nil, errors.Is(err, session.ErrSessionChanged), errors.Is(err, errs.ErrAuthRejected):
		c.JSON(http.StatusOK, body)
	default:
		h.logger.Warn("session restore failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, body)
	}
}

func sessionBody(snap domain.Session) gin.H {
	return gin.H{
		"status":     snap.Status,
		"user":       snap.User,
		"has_token":  snap.HasToken(),
		"last_error": snap.LastError,
		"decision":   session.Guard(snap.Status).String(),
	}
}

// Dashboard maneja GET /dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	userID := h.sessions.UserID()
	transcript := h.chat.Transcript()
	activeID := h.chat.ActiveID()
	if conv, ok := h.chat.Conversation(activeID); ok && !ownedBy(conv, userID) {
		activeID = ""
		transcript = []domain.Message{}
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          h.sessions.Snapshot().User,
		"conversations": h.conversationsFor(userID),
		"active_id":     activeID,
		"transcript":    transcript,
		"busy":          h.chat.Busy(),
		"draft":         h.chat.Draft(),
	})
}

// Suggestions maneja GET /suggestions.
func (h *Handler) Suggestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"suggestions": chat.Suggestions()})
}

// SetDraft maneja PUT /draft.
func (h *Handler) SetDraft(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	h.chat.SetDraft(req.Content)
	c.JSON(http.StatusOK, gin.H{"draft": h.chat.Draft()})
}

// SendMessage maneja POST /messages. Sin cuerpo envia el borrador.
// Con ?wait=true bloquea hasta la respuesta del asistente.
func (h *Handler) SendMessage(c *gin.Context) {
	// Una conversacion activa de otro usuario nunca recibe este envio.
	if conv, ok := h.chat.Conversation(h.chat.ActiveID()); ok && !ownedBy(conv, h.sessions.UserID()) {
		h.chat.StartNewChat()
	}

	var (
		ex  *chat.Exchange
		err error
	)
	if c.Request.ContentLength > 0 {
		var req struct {
			Content string `json:"content"`
		}
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		ex, err = h.chat.SubmitText(c.Request.Context(), req.Content)
	} else {
		ex, err = h.chat.Submit(c.Request.Context())
	}
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, chat.ErrAwaitingResponse):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("submit failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chat unavailable"})
		}
		return
	}

	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, gin.H{
			"conversation_id": ex.ConversationID,
			"message":         ex.UserMessage,
		})
		return
	}

	reply, err := ex.Wait(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"conversation_id": ex.ConversationID,
			"message":         ex.UserMessage,
			"error":           "no response from assistant",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation_id": ex.ConversationID,
		"message":         ex.UserMessage,
		"reply":           reply,
	})
}

// NewConversation maneja POST /conversations/new.
func (h *Handler) NewConversation(c *gin.Context) {
	h.chat.StartNewChat()
	c.Status(http.StatusNoContent)
}

// SelectConversation maneja POST /conversations/:id/select.
func (h *Handler) SelectConversation(c *gin.Context) {
	conv, ok := h.ownedConversation(c.Param("id"))
	if !ok || !h.chat.SelectConversation(conv.ID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

// GetConversation maneja GET /conversations/:id.
func (h *Handler) GetConversation(c *gin.Context) {
	conv, ok := h.ownedConversation(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

func (h *Handler) ownedConversation(id string) (domain.Conversation, bool) {
	conv, ok := h.chat.Conversation(id)
	if !ok || !ownedBy(conv, h.sessions.UserID()) {
		return domain.Conversation{}, false
	}
	return conv, true
}

func (h *Handler) conversationsFor(userID string) []domain.Conversation {
	all := h.chat.Conversations()
	out := make([]domain.Conversation, 0, len(all))
	for _, conv := range all {
		if ownedBy(conv, userID) {
			out = append(out, conv)
		}
	}
	return out
}

// Conversaciones sin duenio (creadas sin sesion) son visibles para cualquiera.
func ownedBy(conv domain.Conversation, userID string) bool {
	return conv.OwnerID == "" || conv.OwnerID == userID
}
