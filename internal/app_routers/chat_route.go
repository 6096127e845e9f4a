package approuters

import (
	"github.com/OlharAngolano/MB.olharAngolano/internal/auth"
	"github.com/OlharAngolano/MB.olharAngolano/internal/configuration"

	"github.com/gin-gonic/gin"
)

// ChatRouters sets up the chat API routes. Every route resolves the
// session to a user identity before the handler runs.
func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/api/chat")
	chatRoute.Use(auth.Middleware(container.Sessions))
	{
		chatRoute.GET("/conversations", container.ChatHandler.GetConversations)
		chatRoute.POST("/conversations", container.ChatHandler.CreateConversation)
		chatRoute.GET("/messages/:conversationId", container.ChatHandler.GetMessages)
		chatRoute.POST("/messages/:conversationId", container.ChatHandler.SendMessage)
		chatRoute.GET("/users", container.ChatHandler.GetUsers)
	}
}
