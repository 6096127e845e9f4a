package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a persisted direct message. ReceiverID is derived from the
// conversation's counterpart at write time and never accepted from the
// client, so it cannot diverge from the conversation row.
type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversationId" bson:"conversation_id"`
	SenderID       string             `json:"senderId" bson:"sender_id"`
	ReceiverID     string             `json:"receiverId" bson:"receiver_id"`
	Content        string             `json:"content" bson:"content"`
	IsRead         bool               `json:"isRead" bson:"is_read"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
}
