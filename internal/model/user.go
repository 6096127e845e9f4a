package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a platform member in MongoDB. The realtime layer only
// ever sees the UserID string; the rest is served by the chat HTTP API.
type User struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID           string             `json:"userId" bson:"user_id"`
	Name             string             `json:"name" bson:"name"`
	Email            string             `json:"email" bson:"email"`
	Avatar           string             `json:"avatar" bson:"avatar"`
	IsVerified       bool               `json:"isVerified" bson:"is_verified"`
	VerificationType string             `json:"verificationType,omitempty" bson:"verification_type,omitempty"`
	IsActive         bool               `json:"isActive" bson:"is_active"`
	CreatedAt        time.Time          `json:"createdAt" bson:"created_at"`
}
