package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/errs"
)

// Error is the class of all errors returned by this package.
var Error = errs.Class("cache")

// APIKeyPrefix is the key prefix for cached api key lookups.
const APIKeyPrefix = "auth:apikey:"

// KeyCache maps api keys to user ids so that authentication can skip the
// users table on the hot path.
type KeyCache interface {
	// Get returns the cached user id; found is false on a miss.
	Get(ctx context.Context, apiKey string) (userID int64, found bool, err error)
	Set(ctx context.Context, apiKey string, userID int64) error
	Delete(ctx context.Context, apiKey string) error
}

// RedisKeyCache implements KeyCache with plain string keys and a TTL.
type RedisKeyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewKeyCache creates a KeyCache backed by Redis. A zero ttl keeps entries forever.
func NewKeyCache(client *redis.Client, ttl time.Duration) *RedisKeyCache {
	return &RedisKeyCache{client: client, ttl: ttl}
}

// apiKeyKey hashes the api key so raw credentials never sit in redis.
func apiKeyKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return APIKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *RedisKeyCache) Get(ctx context.Context, apiKey string) (int64, bool, error) {
	raw, err := c.client.Get(ctx, apiKeyKey(apiKey)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, Error.Wrap(err)
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, Error.New("corrupt entry for api key: %v", err)
	}
	return userID, true, nil
}

func (c *RedisKeyCache) Set(ctx context.Context, apiKey string, userID int64) error {
	return Error.Wrap(c.client.Set(ctx, apiKeyKey(apiKey), userID, c.ttl).Err())
}

func (c *RedisKeyCache) Delete(ctx context.Context, apiKey string) error {
	return Error.Wrap(c.client.Del(ctx, apiKeyKey(apiKey)).Err())
}
