package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/OlharAngolano/MB.olharAngolano/internal/db"
	"github.com/OlharAngolano/MB.olharAngolano/internal/model"
	"github.com/OlharAngolano/MB.olharAngolano/internal/repo"

	"go.uber.org/zap"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("user is not a participant of the conversation")
	ErrEmptyContent         = errors.New("message content cannot be empty")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
)

// Broadcaster is the realtime fan-out the service triggers after a
// durable write. Implemented by hub.Hub.
type Broadcaster interface {
	PublishMessage(conversationID, senderID, receiverID, content string, sentAt time.Time)
}

type ChatService interface {
	Conversations(ctx context.Context, userID string) ([]model.ConversationView, error)
	StartConversation(ctx context.Context, userID, otherUserID string) (*model.Conversation, error)
	Messages(ctx context.Context, userID, conversationID string, page int64) (*db.PaginatedResult[model.Message], error)
	SendMessage(ctx context.Context, senderID, conversationID, content string) (*model.Message, error)
	SaveMessage(ctx context.Context, conversationID, senderID, content string, sentAt time.Time) error
	Users(ctx context.Context, exceptUserID string) ([]model.User, error)
}

type chatService struct {
	conversations repo.ConversationRepository
	messages      repo.MessageRepository
	users         repo.UserRepository
	broadcaster   Broadcaster
	logger        *zap.Logger
}

func NewChatService(
	conversations repo.ConversationRepository,
	messages repo.MessageRepository,
	users repo.UserRepository,
	broadcaster Broadcaster,
	logger *zap.Logger,
) ChatService {
	return &chatService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		broadcaster:   broadcaster,
		logger:        logger,
	}
}

// Conversations builds the caller's feed: counterpart user, last-message
// preview, and unread count, most recently active first. Conversations
// whose counterpart has vanished from the user directory are skipped.
func (s *chatService) Conversations(ctx context.Context, userID string) ([]model.ConversationView, error) {
	conversations, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	counterpartIDs := make([]string, 0, len(conversations))
	for i := range conversations {
		counterpartIDs = append(counterpartIDs, conversations[i].CounterpartOf(userID))
	}

	counterparts, err := s.users.GetUsersByIDs(ctx, counterpartIDs)
	if err != nil {
		return nil, err
	}

	known := Filter(conversations, func(c model.Conversation) bool {
		_, ok := counterparts[c.CounterpartOf(userID)]
		return ok
	})

	views := make([]model.ConversationView, 0, len(known))
	for i := range known {
		conversation := &known[i]
		conversationID := conversation.ID.Hex()

		unread, err := s.messages.CountUnread(ctx, conversationID, userID)
		if err != nil {
			s.logger.Warn("failed to count unread messages",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		}

		views = append(views, model.ConversationView{
			ID:            conversationID,
			User:          counterparts[conversation.CounterpartOf(userID)],
			LastMessage:   conversation.LastMessage,
			LastMessageAt: conversation.LastMessageAt,
			UnreadCount:   unread,
		})
	}

	return views, nil
}

// StartConversation returns the existing conversation between the two
// users or creates one. Both orderings of the pair resolve to the same
// document.
func (s *chatService) StartConversation(ctx context.Context, userID, otherUserID string) (*model.Conversation, error) {
	if userID == otherUserID {
		return nil, ErrSelfConversation
	}

	exists, err := s.users.UserExists(ctx, otherUserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repo.ErrNotFound
	}

	conversation, created, err := s.conversations.Upsert(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("conversation started",
			zap.String("conversation_id", conversation.ID.Hex()),
			zap.String("user_id", userID),
			zap.String("other_user_id", otherUserID),
		)
	}

	return conversation, nil
}

// Messages returns one chronological page of history and flips the
// caller's unread flags, mirroring a conversation view being opened.
func (s *chatService) Messages(ctx context.Context, userID, conversationID string, page int64) (*db.PaginatedResult[model.Message], error) {
	conversation, err := s.loadParticipantConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	result, err := s.messages.ListMessages(ctx, conversation.ID.Hex(), page)
	if err != nil {
		return nil, err
	}

	if _, err := s.messages.MarkRead(ctx, conversation.ID.Hex(), userID); err != nil {
		// Read flags are best-effort bookkeeping; the page itself is
		// already assembled.
		s.logger.Warn("failed to mark messages read",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}

	return result, nil
}

// SendMessage is the HTTP-path send: validate, persist, update the feed
// preview, then trigger the realtime fan-out. The receiver is always the
// conversation counterpart, never caller input.
func (s *chatService) SendMessage(ctx context.Context, senderID, conversationID, content string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	conversation, err := s.loadParticipantConversation(ctx, senderID, conversationID)
	if err != nil {
		return nil, err
	}

	message, err := s.storeMessage(ctx, conversation, senderID, content, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.PublishMessage(conversation.ID.Hex(), senderID, message.ReceiverID, content, message.CreatedAt)
	}

	return message, nil
}

// SaveMessage is the socket-path durable write. The hub has already
// broadcast by the time this runs; only persistence happens here.
func (s *chatService) SaveMessage(ctx context.Context, conversationID, senderID, content string, sentAt time.Time) error {
	conversation, err := s.loadParticipantConversation(ctx, senderID, conversationID)
	if err != nil {
		return err
	}

	_, err = s.storeMessage(ctx, conversation, senderID, content, sentAt)
	return err
}

// Users lists the directory of users the caller can message.
func (s *chatService) Users(ctx context.Context, exceptUserID string) ([]model.User, error) {
	return s.users.ListUsers(ctx, exceptUserID)
}

func (s *chatService) loadParticipantConversation(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	if !conversation.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}

	return conversation, nil
}

func (s *chatService) storeMessage(ctx context.Context, conversation *model.Conversation, senderID, content string, sentAt time.Time) (*model.Message, error) {
	message := &model.Message{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		ReceiverID:     conversation.CounterpartOf(senderID),
		Content:        content,
		CreatedAt:      sentAt,
	}

	if _, err := s.messages.InsertMessage(ctx, message); err != nil {
		return nil, err
	}

	if err := s.conversations.UpdatePreview(ctx, conversation.ID.Hex(), model.LastMessage{
		Content:  content,
		SenderID: senderID,
		SentAt:   sentAt,
	}); err != nil {
		// The message itself is durable; a stale preview only affects
		// feed ordering until the next send.
		s.logger.Warn("failed to update conversation preview",
			zap.String("conversation_id", conversation.ID.Hex()),
			zap.Error(err),
		)
	}

	return message, nil
}
