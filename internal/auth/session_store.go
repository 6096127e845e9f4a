package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "chat:session:"

// sessionCommands is the slice of the redis API the store touches.
// Satisfied by *redis.Client; tests substitute an in-memory fake.
type sessionCommands interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SessionStore resolves opaque session tokens to user identities. Tokens
// are signed JWTs whose session id must still exist in redis, so a
// session can be revoked server-side before the token expires.
type SessionStore struct {
	rdb    sessionCommands
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

func NewSessionStore(rdb sessionCommands, secret []byte, ttl time.Duration, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		rdb:    rdb,
		secret: secret,
		ttl:    ttl,
		logger: logger,
	}
}

// Issue creates a session for userID and returns the signed token.
func (s *SessionStore) Issue(ctx context.Context, userID string) (string, error) {
	sessionID := uuid.New().String()

	if err := s.rdb.Set(ctx, sessionKeyPrefix+sessionID, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	token, err := SignToken(s.secret, userID, sessionID, s.ttl)
	if err != nil {
		return "", err
	}

	s.logger.Debug("session issued",
		zap.String("user_id", userID),
		zap.String("session_id", sessionID),
	)

	return token, nil
}

// Resolve maps a token back to its user id. The signature, expiry, and
// the live redis entry must all check out.
func (s *SessionStore) Resolve(ctx context.Context, token string) (string, error) {
	userID, sessionID, err := VerifyToken(s.secret, token)
	if err != nil {
		return "", err
	}

	stored, err := s.rdb.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return "", ErrSessionExpired
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up session: %w", err)
	}

	if stored != userID {
		// A token whose subject disagrees with the stored session is
		// forged or stale; treat it the same as an invalid signature.
		return "", ErrInvalidToken
	}

	return userID, nil
}

// Revoke deletes the session entry so the token stops resolving.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	_, sessionID, err := VerifyToken(s.secret, token)
	if err != nil {
		return err
	}

	if err := s.rdb.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}
