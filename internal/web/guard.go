package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gradient-chat/internal/session"
)

// RequireSession aplica session.Guard antes de las vistas protegidas.
func RequireSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch session.Guard(sessions.Status()) {
		case session.Render:
			c.Next()
		case session.Loading:
			c.AbortWithStatusJSON(http.StatusAccepted, gin.H{"status": "loading"})
		default:
			c.Redirect(http.StatusSeeOther, "/signin")
			c.Abort()
		}
	}
}
