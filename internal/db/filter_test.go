package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFilterBuilderConditions(t *testing.T) {
	filter := NewFilter().
		Eq("sender_id", "u1").
		Ne("is_read", true).
		In("receiver_id", []string{"u2", "u3"}).
		Build()

	assert.Equal(t, bson.M{
		"sender_id":   "u1",
		"is_read":     bson.M{"$ne": true},
		"receiver_id": bson.M{"$in": []string{"u2", "u3"}},
	}, filter)
}

func TestFilterBuilderObjectID(t *testing.T) {
	id := primitive.NewObjectID()

	filter := NewFilter().ObjectID("_id", id.Hex()).Build()
	assert.Equal(t, bson.M{"_id": id}, filter)
}

func TestFilterBuilderObjectIDInvalidHexMatchesNothing(t *testing.T) {
	// An invalid id must not drop the condition: combined with other
	// equality conditions, a dropped condition would widen the match set
	// (a bulk update keyed on conversation id would hit every document
	// for the receiver).
	filter := NewFilter().
		ObjectID("conversation_id", "not-a-hex-id").
		Eq("receiver_id", "u2").
		Build()

	assert.Equal(t, bson.M{
		"conversation_id": bson.M{"$in": []primitive.ObjectID{}},
		"receiver_id":     "u2",
	}, filter)
}

func TestFilterBuilderOr(t *testing.T) {
	filter := NewFilter().Or(
		bson.M{"user1_id": "u1"},
		bson.M{"user2_id": "u1"},
	).Build()

	require.Contains(t, filter, "$or")
	assert.Len(t, filter["$or"], 2)

	// Or with no branches leaves the filter untouched.
	assert.Equal(t, bson.M{}, NewFilter().Or().Build())
}
