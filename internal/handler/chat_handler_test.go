package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OlharAngolano/MB.olharAngolano/internal/auth"
	"github.com/OlharAngolano/MB.olharAngolano/internal/db"
	"github.com/OlharAngolano/MB.olharAngolano/internal/model"
	"github.com/OlharAngolano/MB.olharAngolano/internal/repo"
	"github.com/OlharAngolano/MB.olharAngolano/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubChatService scripts each service call with a canned response.
type stubChatService struct {
	conversations    []model.ConversationView
	conversationsErr error

	started    *model.Conversation
	startedErr error

	page     *db.PaginatedResult[model.Message]
	pagesErr error

	sent    *model.Message
	sendErr error

	users    []model.User
	usersErr error

	lastSenderID       string
	lastConversationID string
	lastContent        string
	lastPage           int64
}

func (s *stubChatService) Conversations(context.Context, string) ([]model.ConversationView, error) {
	return s.conversations, s.conversationsErr
}

func (s *stubChatService) StartConversation(context.Context, string, string) (*model.Conversation, error) {
	return s.started, s.startedErr
}

func (s *stubChatService) Messages(_ context.Context, _ string, conversationID string, page int64) (*db.PaginatedResult[model.Message], error) {
	s.lastConversationID = conversationID
	s.lastPage = page
	return s.page, s.pagesErr
}

func (s *stubChatService) SendMessage(_ context.Context, senderID, conversationID, content string) (*model.Message, error) {
	s.lastSenderID = senderID
	s.lastConversationID = conversationID
	s.lastContent = content
	return s.sent, s.sendErr
}

func (s *stubChatService) SaveMessage(context.Context, string, string, string, time.Time) error {
	return nil
}

func (s *stubChatService) Users(context.Context, string) ([]model.User, error) {
	return s.users, s.usersErr
}

func newRouter(svc service.ChatService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewChatHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.ContextUserIDKey, userID)
	})
	r.GET("/api/chat/conversations", h.GetConversations)
	r.POST("/api/chat/conversations", h.CreateConversation)
	r.GET("/api/chat/messages/:conversationId", h.GetMessages)
	r.POST("/api/chat/messages/:conversationId", h.SendMessage)
	r.GET("/api/chat/users", h.GetUsers)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetConversations(t *testing.T) {
	svc := &stubChatService{conversations: []model.ConversationView{
		{ID: "c1", UnreadCount: 2},
	}}
	r := newRouter(svc, "u1")

	w := doRequest(r, http.MethodGet, "/api/chat/conversations", "")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Conversations []model.ConversationView `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Conversations, 1)
	assert.Equal(t, int64(2), response.Conversations[0].UnreadCount)
}

func TestCreateConversation(t *testing.T) {
	conversation := &model.Conversation{ID: primitive.NewObjectID(), User1ID: "u1", User2ID: "u2"}
	svc := &stubChatService{started: conversation}
	r := newRouter(svc, "u1")

	w := doRequest(r, http.MethodPost, "/api/chat/conversations", `{"userId":"u2"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateConversationMissingUserID(t *testing.T) {
	r := newRouter(&stubChatService{}, "u1")

	w := doRequest(r, http.MethodPost, "/api/chat/conversations", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateConversationWithSelf(t *testing.T) {
	svc := &stubChatService{startedErr: service.ErrSelfConversation}
	r := newRouter(svc, "u1")

	w := doRequest(r, http.MethodPost, "/api/chat/conversations", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateConversationUnknownUser(t *testing.T) {
	svc := &stubChatService{startedErr: repo.ErrNotFound}
	r := newRouter(svc, "u1")

	w := doRequest(r, http.MethodPost, "/api/chat/conversations", `{"userId":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMessages(t *testing.T) {
	svc := &stubChatService{page: &db.PaginatedResult[model.Message]{
		Data: []model.Message{{Content: "oi"}},
		Page: 2,
	}}
	r := newRouter(svc, "u1")

	w := doRequest(r, http.MethodGet, "/api/chat/messages/conv-1?page=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "conv-1", svc.lastConversationID)
	assert.Equal(t, int64(2), svc.lastPage)
}

func TestGetMessagesInvalidPage(t *testing.T) {
	r := newRouter(&stubChatService{}, "u1")

	w := doRequest(r, http.MethodGet, "/api/chat/messages/conv-1?page=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/api/chat/messages/conv-1?page=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMessagesNotParticipant(t *testing.T) {
	svc := &stubChatService{pagesErr: service.ErrNotParticipant}
	r := newRouter(svc, "intruder")

	// Non-participants get 404, same as a missing conversation.
	w := doRequest(r, http.MethodGet, "/api/chat/messages/conv-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessage(t *testing.T) {
	svc := &stubChatService{sent: &model.Message{Content: "oi", SenderID: "u1"}}
	r := newRouter(svc, "u1")

	w := doRequest(r, http.MethodPost, "/api/chat/messages/conv-1", `{"content":"oi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", svc.lastSenderID)
	assert.Equal(t, "conv-1", svc.lastConversationID)
	assert.Equal(t, "oi", svc.lastContent)
}

func TestSendMessageEmptyBody(t *testing.T) {
	r := newRouter(&stubChatService{}, "u1")

	w := doRequest(r, http.MethodPost, "/api/chat/messages/conv-1", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageBlankContent(t *testing.T) {
	svc := &stubChatService{sendErr: service.ErrEmptyContent}
	r := newRouter(svc, "u1")

	w := doRequest(r, http.MethodPost, "/api/chat/messages/conv-1", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageUnknownConversation(t *testing.T) {
	svc := &stubChatService{sendErr: service.ErrConversationNotFound}
	r := newRouter(svc, "u1")

	w := doRequest(r, http.MethodPost, "/api/chat/messages/missing", `{"content":"oi"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUsers(t *testing.T) {
	svc := &stubChatService{users: []model.User{{UserID: "u2", Name: "Beatriz"}}}
	r := newRouter(svc, "u1")

	w := doRequest(r, http.MethodGet, "/api/chat/users", "")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Users []model.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Users, 1)
	assert.Equal(t, "u2", response.Users[0].UserID)
}
