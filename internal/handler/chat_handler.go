package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/OlharAngolano/MB.olharAngolano/internal/auth"
	"github.com/OlharAngolano/MB.olharAngolano/internal/repo"
	"github.com/OlharAngolano/MB.olharAngolano/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler interface {
	GetConversations(c *gin.Context)
	CreateConversation(c *gin.Context)
	GetMessages(c *gin.Context)
	SendMessage(c *gin.Context)
	GetUsers(c *gin.Context)
}

type chatHandler struct {
	service service.ChatService
}

func NewChatHandler(service service.ChatService) ChatHandler {
	return &chatHandler{
		service: service,
	}
}

// GetConversations returns the caller's conversation feed, most recently
// active first.
func (h *chatHandler) GetConversations(c *gin.Context) {
	views, err := h.service.Conversations(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get conversations",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations": views,
	})
}

type createConversationRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// CreateConversation upserts the two-party conversation between the
// caller and the requested user.
func (h *chatHandler) CreateConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "User ID is required",
		})
		return
	}

	conversation, err := h.service.StartConversation(c.Request.Context(), auth.UserID(c), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfConversation):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Cannot start a conversation with yourself",
			})
		case errors.Is(err, repo.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create conversation",
			})
		}
		return
	}

	c.JSON(http.StatusOK, conversation)
}

// GetMessages returns one chronological page of a conversation's history
// and marks the caller's unread messages as read.
func (h *chatHandler) GetMessages(c *gin.Context) {
	conversationID := c.Param("conversationId")
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid page number",
		})
		return
	}

	result, err := h.service.Messages(c.Request.Context(), auth.UserID(c), conversationID, page)
	if err != nil {
		h.renderConversationError(c, err, "Failed to get messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": result,
	})
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage persists a message and triggers the realtime fan-out.
func (h *chatHandler) SendMessage(c *gin.Context) {
	conversationID := c.Param("conversationId")

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Message cannot be empty",
		})
		return
	}

	message, err := h.service.SendMessage(c.Request.Context(), auth.UserID(c), conversationID, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrEmptyContent) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Message cannot be empty",
			})
			return
		}
		h.renderConversationError(c, err, "Failed to send message")
		return
	}

	c.JSON(http.StatusOK, message)
}

// GetUsers lists the users the caller can start a conversation with.
func (h *chatHandler) GetUsers(c *gin.Context) {
	users, err := h.service.Users(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get users",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
	})
}

// renderConversationError maps service errors on the conversation path to
// HTTP responses. A conversation the caller does not participate in is
// reported as not found, not forbidden, so participation stays private.
func (h *chatHandler) renderConversationError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound), errors.Is(err, service.ErrNotParticipant):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Conversation not found",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fallback,
		})
	}
}
