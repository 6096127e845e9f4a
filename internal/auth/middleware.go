package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextUserIDKey is where the middleware stores the resolved user id.
const ContextUserIDKey = "userId"

// Resolver maps a session token to a user id. Implemented by
// SessionStore.
type Resolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// Middleware resolves the session cookie (or a bearer token) to a user
// identity and aborts with 401 when it cannot.
func Middleware(store Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Not authorized",
			})
			return
		}

		userID, err := store.Resolve(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Not authorized",
			})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// UserID reads the authenticated user id set by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

// TokenFromRequest extracts the session token: the session cookie wins,
// then a bearer Authorization header.
func TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie("session"); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return ""
}
