// Package redisstore keeps the state document in a single Redis key.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rpggio/hourbank/internal/repository"
)

// DefaultKey holds the ledger document.
const DefaultKey = "hourbank:state"

// Backend implements repository.DocumentBackend on Redis. SET replaces the
// value atomically, so readers never see a partial document.
type Backend struct {
	client *redis.Client
	key    string
}

// New connects to redisURL and verifies the connection.
func New(redisURL, key string) (*Backend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewWithClient(client, key), nil
}

// NewWithClient creates a backend from an existing client.
func NewWithClient(client *redis.Client, key string) *Backend {
	if key == "" {
		key = DefaultKey
	}
	return &Backend{client: client, key: key}
}

func (b *Backend) Read(ctx context.Context) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

func (b *Backend) Write(ctx context.Context, payload []byte) error {
	if err := b.client.Set(ctx, b.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (b *Backend) Close() error {
	return b.client.Close()
}
