package web

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "gradient-chat/internal/http"
	"gradient-chat/internal/session"
)

// NewRouter arma las rutas del cliente: autenticacion abierta y vistas protegidas.
func NewRouter(logger *zap.Logger, h *Handler, sessions *session.Manager) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(apihttp.ZapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/signin", h.Session)
	r.POST("/signin", h.SignIn)
	r.POST("/signup", h.SignUp)
	r.POST("/logout", h.Logout)
	r.GET("/session", h.Session)
	r.POST("/session/restore", h.RestoreSession)

	protected := r.Group("", RequireSession(sessions))
	protected.GET("/dashboard", h.Dashboard)
	protected.GET("/suggestions", h.Suggestions)
	protected.PUT("/draft", h.SetDraft)
	protected.POST("/messages", h.SendMessage)
	protected.POST("/conversations/new", h.NewConversation)
	protected.POST("/conversations/:id/select", h.SelectConversation)
	protected.GET("/conversations/:id", h.GetConversation)

	return r
}
