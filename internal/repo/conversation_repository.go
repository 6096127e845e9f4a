package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/OlharAngolano/MB.olharAngolano/internal/db"
	"github.com/OlharAngolano/MB.olharAngolano/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type conversationRepository struct {
	conversations *db.Repository[model.Conversation]
	logger        *zap.Logger
}

type ConversationRepository interface {
	GetByID(ctx context.Context, conversationID string) (*model.Conversation, error)
	Upsert(ctx context.Context, userA, userB string) (*model.Conversation, bool, error)
	ListForUser(ctx context.Context, userID string) ([]model.Conversation, error)
	UpdatePreview(ctx context.Context, conversationID string, preview model.LastMessage) error
}

func NewConversationRepository(conversations *db.Repository[model.Conversation], logger *zap.Logger) ConversationRepository {
	return &conversationRepository{
		conversations: conversations,
		logger:        logger,
	}
}

// pairFilter matches the single conversation between two users regardless
// of which of them is stored as user1. Both orderings must be checked to
// keep the one-row-per-pair invariant.
func pairFilter(userA, userB string) bson.M {
	return db.NewFilter().Or(
		bson.M{"user1_id": userA, "user2_id": userB},
		bson.M{"user1_id": userB, "user2_id": userA},
	).Build()
}

// GetByID fetches a conversation document by its hex id. Returns
// ErrNotFound when no such conversation exists.
func (r *conversationRepository) GetByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	if conversationID == "" {
		return nil, ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation ID format: %w", err)
	}

	conversation, err := r.conversations.FindOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		r.logger.Error("failed to fetch conversation",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}

	return conversation, nil
}

// Upsert returns the existing conversation between the two users or
// inserts a fresh one. The second return value reports whether a new
// document was created.
func (r *conversationRepository) Upsert(ctx context.Context, userA, userB string) (*model.Conversation, bool, error) {
	if userA == "" || userB == "" {
		return nil, false, ErrInvalidUserID
	}
	if userA == userB {
		return nil, false, ErrSameParticipant
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	existing, err := r.conversations.FindOne(ctx, pairFilter(userA, userB))
	if err == nil {
		return existing, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, fmt.Errorf("failed to look up conversation: %w", err)
	}

	now := time.Now().UTC()
	conversation := model.Conversation{
		User1ID:       userA,
		User2ID:       userB,
		LastMessageAt: now,
		CreatedAt:     now,
	}

	result, err := r.conversations.Create(ctx, conversation)
	if err != nil {
		r.logger.Error("failed to create conversation",
			zap.String("user1_id", userA),
			zap.String("user2_id", userB),
			zap.Error(err),
		)
		return nil, false, fmt.Errorf("failed to create conversation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		conversation.ID = oid
	}

	r.logger.Info("conversation created",
		zap.String("conversation_id", conversation.ID.Hex()),
		zap.String("user1_id", userA),
		zap.String("user2_id", userB),
	)

	return &conversation, true, nil
}

// ListForUser returns every conversation the user participates in,
// most recently active first.
func (r *conversationRepository) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Or(
		bson.M{"user1_id": userID},
		bson.M{"user2_id": userID},
	).Build()

	opts := options.Find().SetSort(bson.M{"last_message_at": -1})

	conversations, err := r.conversations.FindAll(ctx, filter, opts)
	if err != nil {
		r.logger.Error("failed to list conversations",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	return conversations, nil
}

// UpdatePreview refreshes the denormalized last-message fields used to
// order the conversation feed.
func (r *conversationRepository) UpdatePreview(ctx context.Context, conversationID string, preview model.LastMessage) error {
	if conversationID == "" {
		return ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return fmt.Errorf("invalid conversation ID format: %w", err)
	}

	_, err = r.conversations.Update(ctx, bson.M{"_id": objectID}, bson.M{
		"last_message":    preview,
		"last_message_at": preview.SentAt,
	})
	if err != nil {
		r.logger.Error("failed to update conversation preview",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to update conversation preview: %w", err)
	}

	return nil
}
