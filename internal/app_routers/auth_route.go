package approuters

import (
	"github.com/OlharAngolano/MB.olharAngolano/internal/auth"
	"github.com/OlharAngolano/MB.olharAngolano/internal/configuration"
	"github.com/OlharAngolano/MB.olharAngolano/internal/handler"

	"github.com/gin-gonic/gin"
)

// AuthRouters sets up the session lifecycle routes. Logout runs behind
// the session middleware so only a live session can revoke itself.
func AuthRouters(router *gin.Engine, container *configuration.Container) {
	sessionHandler := handler.NewSessionHandler(container.Sessions)

	authRoute := router.Group("/api/auth")
	authRoute.Use(auth.Middleware(container.Sessions))
	{
		authRoute.POST("/logout", sessionHandler.Logout)
	}
}
