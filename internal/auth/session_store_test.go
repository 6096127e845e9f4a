package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRedis backs the session store with an in-memory map.
type fakeRedis struct {
	data   map[string]string
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	value, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var deleted int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			deleted++
		}
	}
	return redis.NewIntResult(deleted, nil)
}

func newTestStore(rdb *fakeRedis) *SessionStore {
	return NewSessionStore(rdb, testSecret, time.Hour, zap.NewNop())
}

func TestIssueResolveRoundTrip(t *testing.T) {
	rdb := newFakeRedis()
	store := newTestStore(rdb)
	ctx := context.Background()

	token, err := store.Issue(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Len(t, rdb.data, 1)

	userID, err := store.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestResolveInvalidToken(t *testing.T) {
	store := newTestStore(newFakeRedis())

	_, err := store.Resolve(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveWrongSecret(t *testing.T) {
	rdb := newFakeRedis()
	ctx := context.Background()

	foreign := NewSessionStore(rdb, []byte("some other secret"), time.Hour, zap.NewNop())
	token, err := foreign.Issue(ctx, "u1")
	require.NoError(t, err)

	_, err = newTestStore(rdb).Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveExpiredSession(t *testing.T) {
	rdb := newFakeRedis()
	store := newTestStore(rdb)
	ctx := context.Background()

	token, err := store.Issue(ctx, "u1")
	require.NoError(t, err)

	// The redis entry aged out while the token itself is still valid.
	rdb.data = make(map[string]string)

	_, err = store.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestResolveSubjectMismatch(t *testing.T) {
	rdb := newFakeRedis()
	store := newTestStore(rdb)
	ctx := context.Background()

	// A valid signature whose subject disagrees with the stored session.
	token, err := SignToken(testSecret, "u1", "session-abc", time.Hour)
	require.NoError(t, err)
	rdb.data[sessionKeyPrefix+"session-abc"] = "someone-else"

	_, err = store.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveRedisFailure(t *testing.T) {
	rdb := newFakeRedis()
	store := newTestStore(rdb)
	ctx := context.Background()

	token, err := store.Issue(ctx, "u1")
	require.NoError(t, err)

	rdb.getErr = errors.New("connection refused")

	_, err = store.Resolve(ctx, token)
	require.Error(t, err)
	// A store outage is not the same as a revoked session.
	assert.NotErrorIs(t, err, ErrSessionExpired)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeStopsResolve(t *testing.T) {
	rdb := newFakeRedis()
	store := newTestStore(rdb)
	ctx := context.Background()

	token, err := store.Issue(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, store.Revoke(ctx, token))
	assert.Empty(t, rdb.data)

	_, err = store.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestRevokeInvalidToken(t *testing.T) {
	store := newTestStore(newFakeRedis())

	err := store.Revoke(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
