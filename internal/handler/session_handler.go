package handler

import (
	"context"
	"net/http"

	"github.com/OlharAngolano/MB.olharAngolano/internal/auth"

	"github.com/gin-gonic/gin"
)

// sessionRevoker is the slice of the session store the logout route
// needs. Implemented by auth.SessionStore.
type sessionRevoker interface {
	Revoke(ctx context.Context, token string) error
}

type SessionHandler interface {
	Logout(c *gin.Context)
}

type sessionHandler struct {
	sessions sessionRevoker
}

func NewSessionHandler(sessions sessionRevoker) SessionHandler {
	return &sessionHandler{
		sessions: sessions,
	}
}

// Logout revokes the caller's session so the token stops resolving, and
// clears the session cookie.
func (h *sessionHandler) Logout(c *gin.Context) {
	token := auth.TokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Not authorized",
		})
		return
	}

	if err := h.sessions.Revoke(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Not authorized",
		})
		return
	}

	c.SetCookie("session", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}
