package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a [Store] on a Redis client. Keys are namespaced under a
// configurable prefix so several clients can share one database.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig configures a [Redis] store.
type RedisConfig struct {
	// Prefix is prepended to every key. Defaults to "goauthclient:".
	Prefix string
	// TTL bounds how long a value may live without being rewritten.
	// Zero means no expiry.
	TTL time.Duration
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client, cfg RedisConfig) (*Redis, error) {
	if client == nil {
		return nil, errors.New("nil redis client")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "goauthclient:"
	}
	if cfg.TTL < 0 {
		return nil, errors.New("negative TTL")
	}
	return &Redis{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

// Load implements [Store].
func (r *Redis) Load(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Save implements [Store].
func (r *Redis) Save(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, r.ttl).Err()
}

// Delete implements [Store].
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
