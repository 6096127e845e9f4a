package repo

import (
	"context"
	"fmt"

	"github.com/OlharAngolano/MB.olharAngolano/internal/db"
	"github.com/OlharAngolano/MB.olharAngolano/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const messagePageSize = 50

type messageRepository struct {
	messages *db.Repository[model.Message]
	logger   *zap.Logger
}

type MessageRepository interface {
	InsertMessage(ctx context.Context, msg *model.Message) (string, error)
	ListMessages(ctx context.Context, conversationID string, page int64) (*db.PaginatedResult[model.Message], error)
	MarkRead(ctx context.Context, conversationID, receiverID string) (int64, error)
	CountUnread(ctx context.Context, conversationID, receiverID string) (int64, error)
}

func NewMessageRepository(messages *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		messages: messages,
		logger:   logger,
	}
}

// -----------------------------------------------------------------------------
// InsertMessage
// -----------------------------------------------------------------------------

// InsertMessage persists a message with bounded retries. The realtime
// broadcast does not wait for this call; a failure here is surfaced to the
// caller and the live delivery stands on its own.
func (m *messageRepository) InsertMessage(ctx context.Context, msg *model.Message) (string, error) {
	if err := m.validateMessage(msg); err != nil {
		return "", err
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, attempt); err != nil {
				return "", err
			}
		}

		result, err := m.messages.Create(ctx, *msg)
		if err == nil {
			insertedID := ""
			if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
				insertedID = oid.Hex()
				msg.ID = oid
			}

			m.logger.Info("message inserted",
				zap.String("inserted_id", insertedID),
				zap.String("conversation_id", msg.ConversationID.Hex()),
				zap.Int("attempt", attempt+1),
			)
			return insertedID, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			break
		}

		m.logger.Warn("insert attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to insert message after all retries",
		zap.Error(lastErr),
		zap.String("conversation_id", msg.ConversationID.Hex()),
	)

	return "", fmt.Errorf("insert message failed: %w", lastErr)
}

func (m *messageRepository) validateMessage(msg *model.Message) error {
	if msg == nil {
		return ErrInvalidMessage
	}
	if msg.ConversationID.IsZero() {
		return ErrInvalidConversationID
	}
	if msg.SenderID == "" || msg.ReceiverID == "" {
		return ErrInvalidUserID
	}
	return nil
}

// isRetryableError distinguishes transient store failures from caller
// mistakes. Context cancellation and decode errors are never retried.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if err == context.Canceled || err == context.DeadlineExceeded {
		return false
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	// Server selection and write-concern style failures come back as
	// command errors; retrying those is safe for inserts.
	var cmdErr mongo.CommandError
	if ok := asCommandError(err, &cmdErr); ok {
		return cmdErr.HasErrorLabel("RetryableWriteError")
	}
	return false
}

func asCommandError(err error, target *mongo.CommandError) bool {
	ce, ok := err.(mongo.CommandError)
	if ok {
		*target = ce
	}
	return ok
}

// -----------------------------------------------------------------------------
// ListMessages
// -----------------------------------------------------------------------------

// ListMessages returns one chronological (oldest first) page of a
// conversation's history.
func (m *messageRepository) ListMessages(ctx context.Context, conversationID string, page int64) (*db.PaginatedResult[model.Message], error) {
	if conversationID == "" {
		return nil, ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().ObjectID("conversation_id", conversationID).Build()

	result, err := m.messages.FindWithPagination(ctx, filter, db.PaginationParams{
		Page:     page,
		PageSize: messagePageSize,
		SortBy:   "created_at",
	})
	if err != nil {
		m.logger.Error("failed to list messages",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return result, nil
}

// -----------------------------------------------------------------------------
// Read flags
// -----------------------------------------------------------------------------

// MarkRead flips every unread message addressed to receiverID in the
// conversation and returns how many were touched.
func (m *messageRepository) MarkRead(ctx context.Context, conversationID, receiverID string) (int64, error) {
	if conversationID == "" {
		return 0, ErrInvalidConversationID
	}
	if receiverID == "" {
		return 0, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		ObjectID("conversation_id", conversationID).
		Eq("receiver_id", receiverID).
		Eq("is_read", false).
		Build()

	result, err := m.messages.UpdateMany(ctx, filter, bson.M{"is_read": true})
	if err != nil {
		m.logger.Error("failed to mark messages read",
			zap.String("conversation_id", conversationID),
			zap.String("receiver_id", receiverID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}

	if result.ModifiedCount > 0 {
		m.logger.Debug("messages marked read",
			zap.String("conversation_id", conversationID),
			zap.Int64("count", result.ModifiedCount),
		)
	}

	return result.ModifiedCount, nil
}

// CountUnread counts messages addressed to receiverID that are still unread.
func (m *messageRepository) CountUnread(ctx context.Context, conversationID, receiverID string) (int64, error) {
	if conversationID == "" || receiverID == "" {
		return 0, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		ObjectID("conversation_id", conversationID).
		Eq("receiver_id", receiverID).
		Eq("is_read", false).
		Build()

	return m.messages.Count(ctx, filter)
}
