// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/pethaul/internal/platform/constants"
	"github.com/taibuivan/pethaul/internal/session"
)

func newRedisStore(t *testing.T) (*session.RedisTokenStore, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return session.NewRedisTokenStore(client, time.Hour), server
}

func jwtExpiringIn(t *testing.T, lifetime time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(lifetime)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestRedisTokenStore_TokenLifecycle(t *testing.T) {
	store, server := newRedisStore(t)
	ctx := context.Background()

	token, err := store.Token(ctx, testSessionID)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.SaveToken(ctx, testSessionID, "opaque-token"))

	token, err = store.Token(ctx, testSessionID)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token)
	assert.Equal(t, time.Hour, server.TTL(constants.RedisPrefixBearerToken+testSessionID))

	require.NoError(t, store.DeleteToken(ctx, testSessionID))
	assert.False(t, server.Exists(constants.RedisPrefixBearerToken+testSessionID))
}

func TestRedisTokenStore_DeleteTokenIfMatch(t *testing.T) {
	store, server := newRedisStore(t)
	ctx := context.Background()
	key := constants.RedisPrefixBearerToken + testSessionID

	require.NoError(t, store.SaveToken(ctx, testSessionID, "newer-token"))

	// A stale writer must not clear a token it did not write.
	require.NoError(t, store.DeleteTokenIfMatch(ctx, testSessionID, "older-token"))
	assert.True(t, server.Exists(key))

	require.NoError(t, store.DeleteTokenIfMatch(ctx, testSessionID, "newer-token"))
	assert.False(t, server.Exists(key))

	// Missing keys are a no-op.
	require.NoError(t, store.DeleteTokenIfMatch(ctx, testSessionID, "newer-token"))
}

func TestRedisTokenStore_JWTLifetime(t *testing.T) {
	store, server := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveToken(ctx, testSessionID, jwtExpiringIn(t, 10*time.Minute)))

	ttl := server.TTL(constants.RedisPrefixBearerToken + testSessionID)
	assert.LessOrEqual(t, ttl, 10*time.Minute)
	assert.Greater(t, ttl, 9*time.Minute)

	// Cached tokens disappear with the JWT.
	server.FastForward(11 * time.Minute)
	token, err := store.Token(ctx, testSessionID)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestRedisTokenStore_RejectsExpiredJWT(t *testing.T) {
	store, server := newRedisStore(t)

	err := store.SaveToken(context.Background(), testSessionID, jwtExpiringIn(t, -time.Minute))

	assert.ErrorIs(t, err, session.ErrTokenExpired)
	assert.False(t, server.Exists(constants.RedisPrefixBearerToken+testSessionID))
}

func TestRedisTokenStore_SavedLogin(t *testing.T) {
	store, server := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveLoginID(ctx, testSessionID, "mungmung"))
	assert.Equal(t, constants.SavedLoginIDTTL, server.TTL(constants.RedisPrefixSavedLogin+testSessionID))

	loginID, err := store.LoginID(ctx, testSessionID)
	require.NoError(t, err)
	assert.Equal(t, "mungmung", loginID)

	require.NoError(t, store.DeleteLoginID(ctx, testSessionID))
	loginID, err = store.LoginID(ctx, testSessionID)
	require.NoError(t, err)
	assert.Empty(t, loginID)
}

func TestRedisTokenStore_ConnectionErrors(t *testing.T) {
	store, server := newRedisStore(t)
	server.Close()

	_, err := store.Token(context.Background(), testSessionID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis_bearer_token_get_failed")
}
