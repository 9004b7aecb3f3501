// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/pethaul/internal/platform/constants"
	"github.com/taibuivan/pethaul/internal/platform/sec"
)

// RedisTokenStore implements [TokenStore] using Redis.
type RedisTokenStore struct {
	client     *redis.Client
	defaultTTL time.Duration
	now        func() time.Time
}

// NewRedisTokenStore creates a Redis-backed [TokenStore].
//
// defaultTTL applies to opaque tokens; JWTs are cached until their "exp".
func NewRedisTokenStore(client *redis.Client, defaultTTL time.Duration) *RedisTokenStore {
	return &RedisTokenStore{client: client, defaultTTL: defaultTTL, now: time.Now}
}

/*
SaveToken stores the bearer token with a TTL matching its lifetime.

Parameters:
  - context: context.Context
  - sessionID: string
  - token: string

Returns:
  - error: ErrTokenExpired or execution errors
*/
func (repository *RedisTokenStore) SaveToken(context context.Context, sessionID, token string) error {
	ttl := sec.CacheTTL(token, repository.now(), repository.defaultTTL)
	if ttl <= 0 {
		return ErrTokenExpired
	}

	if err := repository.client.Set(context, constants.RedisPrefixBearerToken+sessionID, token, ttl).Err(); err != nil {
		return fmt.Errorf("redis_bearer_token_set_failed: %w", err)
	}

	return nil
}

// Token retrieves the bearer token, or "" if absent or expired.
func (repository *RedisTokenStore) Token(context context.Context, sessionID string) (string, error) {
	return repository.get(context, constants.RedisPrefixBearerToken+sessionID, "bearer_token")
}

// DeleteToken removes the bearer token.
func (repository *RedisTokenStore) DeleteToken(context context.Context, sessionID string) error {
	if err := repository.client.Del(context, constants.RedisPrefixBearerToken+sessionID).Err(); err != nil {
		return fmt.Errorf("redis_bearer_token_delete_failed: %w", err)
	}
	return nil
}

// deleteIfMatchScript deletes KEYS[1] only when it holds ARGV[1].
var deleteIfMatchScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DeleteTokenIfMatch removes the bearer token atomically when it still equals token.
func (repository *RedisTokenStore) DeleteTokenIfMatch(context context.Context, sessionID, token string) error {
	key := constants.RedisPrefixBearerToken + sessionID
	if err := deleteIfMatchScript.Run(context, repository.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("redis_bearer_token_compare_delete_failed: %w", err)
	}
	return nil
}

// SaveLoginID remembers the login id for [constants.SavedLoginIDTTL].
func (repository *RedisTokenStore) SaveLoginID(context context.Context, sessionID, loginID string) error {
	if err := repository.client.Set(context, constants.RedisPrefixSavedLogin+sessionID, loginID, constants.SavedLoginIDTTL).Err(); err != nil {
		return fmt.Errorf("redis_saved_login_set_failed: %w", err)
	}
	return nil
}

// LoginID retrieves the remembered login id, or "".
func (repository *RedisTokenStore) LoginID(context context.Context, sessionID string) (string, error) {
	return repository.get(context, constants.RedisPrefixSavedLogin+sessionID, "saved_login")
}

// DeleteLoginID forgets the remembered login id.
func (repository *RedisTokenStore) DeleteLoginID(context context.Context, sessionID string) error {
	if err := repository.client.Del(context, constants.RedisPrefixSavedLogin+sessionID).Err(); err != nil {
		return fmt.Errorf("redis_saved_login_delete_failed: %w", err)
	}
	return nil
}

func (repository *RedisTokenStore) get(context context.Context, key, tag string) (string, error) {
	value, err := repository.client.Get(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis_%s_get_failed: %w", tag, err)
	}
	return value, nil
}
