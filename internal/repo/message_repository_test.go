package repo

import (
	"context"
	"testing"

	"github.com/OlharAngolano/MB.olharAngolano/internal/model"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestValidateMessage(t *testing.T) {
	m := &messageRepository{logger: zap.NewNop()}

	valid := &model.Message{
		ConversationID: primitive.NewObjectID(),
		SenderID:       "u1",
		ReceiverID:     "u2",
		Content:        "oi",
	}
	assert.NoError(t, m.validateMessage(valid))

	assert.ErrorIs(t, m.validateMessage(nil), ErrInvalidMessage)

	missingConversation := &model.Message{SenderID: "u1", ReceiverID: "u2"}
	assert.ErrorIs(t, m.validateMessage(missingConversation), ErrInvalidConversationID)

	missingSender := &model.Message{ConversationID: primitive.NewObjectID(), ReceiverID: "u2"}
	assert.ErrorIs(t, m.validateMessage(missingSender), ErrInvalidUserID)

	missingReceiver := &model.Message{ConversationID: primitive.NewObjectID(), SenderID: "u1"}
	assert.ErrorIs(t, m.validateMessage(missingReceiver), ErrInvalidUserID)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(context.DeadlineExceeded))
	assert.False(t, isRetryableError(assert.AnError))

	retryable := mongo.CommandError{Labels: []string{"RetryableWriteError"}}
	assert.True(t, isRetryableError(retryable))

	duplicateKey := mongo.CommandError{Code: 11000}
	assert.False(t, isRetryableError(duplicateKey))
}
