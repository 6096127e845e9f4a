package repo

import (
	"context"
	"fmt"

	"github.com/OlharAngolano/MB.olharAngolano/internal/db"
	"github.com/OlharAngolano/MB.olharAngolano/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	ListUsers(ctx context.Context, exceptUserID string) ([]model.User, error)
	GetUsersByIDs(ctx context.Context, userIDs []string) (map[string]*model.User, error)
}

type userRepository struct {
	users *db.Repository[model.User]
}

func NewUserRepository(users *db.Repository[model.User]) UserRepository {
	return &userRepository{
		users: users,
	}
}

// UserExists reports whether a user with the id is in the directory.
func (r *userRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	return r.users.Exists(ctx, db.NewFilter().Eq("user_id", userID).Build())
}

// ListUsers returns the active user directory, excluding the caller so a
// user can't start a conversation with themselves.
func (r *userRepository) ListUsers(ctx context.Context, exceptUserID string) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("is_active", true).
		Ne("user_id", exceptUserID).
		Build()

	opts := options.Find().SetSort(bson.M{"name": 1})

	return r.users.FindAll(ctx, filter, opts)
}

// GetUsersByIDs loads users in one query, keyed by their user id.
func (r *userRepository) GetUsersByIDs(ctx context.Context, userIDs []string) (map[string]*model.User, error) {
	if len(userIDs) == 0 {
		return map[string]*model.User{}, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	users, err := r.users.FindAll(ctx, db.NewFilter().In("user_id", userIDs).Build())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	byID := make(map[string]*model.User, len(users))
	for i := range users {
		byID[users[i].UserID] = &users[i]
	}

	return byID, nil
}
