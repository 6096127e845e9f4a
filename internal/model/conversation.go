package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a two-party pairing. Exactly one document exists per
// unordered pair of users; the repository checks both orderings of
// (user1, user2) before inserting.
type Conversation struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	User1ID       string             `json:"user1Id" bson:"user1_id"`
	User2ID       string             `json:"user2Id" bson:"user2_id"`
	LastMessage   *LastMessage       `json:"lastMessage" bson:"last_message"`
	LastMessageAt time.Time          `json:"lastMessageAt" bson:"last_message_at"`
	CreatedAt     time.Time          `json:"createdAt" bson:"created_at"`
}

// LastMessage is the denormalized preview used to order the conversation
// feed without loading the messages collection.
type LastMessage struct {
	Content  string    `json:"content" bson:"content"`
	SenderID string    `json:"senderId" bson:"sender_id"`
	SentAt   time.Time `json:"sentAt" bson:"sent_at"`
}

// CounterpartOf returns the participant who is not userID, or "" when
// userID is not a participant at all.
func (c *Conversation) CounterpartOf(userID string) string {
	switch userID {
	case c.User1ID:
		return c.User2ID
	case c.User2ID:
		return c.User1ID
	default:
		return ""
	}
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID == c.User1ID || userID == c.User2ID
}

// ConversationView is the API shape for the conversation feed: the
// counterpart user plus the preview fields.
type ConversationView struct {
	ID            string       `json:"id"`
	User          *User        `json:"user"`
	LastMessage   *LastMessage `json:"lastMessage"`
	LastMessageAt time.Time    `json:"lastMessageAt"`
	UnreadCount   int64        `json:"unreadCount"`
}
