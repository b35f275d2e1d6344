package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"viona/internal/config"

	"github.com/redis/go-redis/v9"
)

type RedisDocumentStore struct {
	client     *redis.Client
	prefix     string
	sessionTTL time.Duration
}

// NewRedisClient builds a client from the storage config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// NewRedisDocumentStore stores documents under prefix+key. sessionTTL expires
// flow session keys only; every other document is kept forever.
func NewRedisDocumentStore(client *redis.Client, prefix string, sessionTTL time.Duration) *RedisDocumentStore {
	return &RedisDocumentStore{
		client:     client,
		prefix:     prefix,
		sessionTTL: sessionTTL,
	}
}

func (r *RedisDocumentStore) key(k string) string {
	return r.prefix + k
}

func (r *RedisDocumentStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get document from redis: %w", err)
	}
	return val, true, nil
}

func (r *RedisDocumentStore) Save(ctx context.Context, key string, doc []byte) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	var ttl time.Duration
	if IsSessionKey(key) {
		ttl = r.sessionTTL
	}
	if err := r.client.Set(ctx, r.key(key), doc, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set document in redis: %w", err)
	}
	return nil
}

func (r *RedisDocumentStore) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete document from redis: %w", err)
	}
	return nil
}

func (r *RedisDocumentStore) Close() error {
	return Close(r.client)
}

// Ping checks the redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes a possibly nil client.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
