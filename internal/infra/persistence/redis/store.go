// Package redis provides a Redis-backed durable medium. Each slot is a plain
// string key so external tooling can inspect collections with GET.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
)

const defaultPrefix = "medportal:"

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store persists named slots under prefixed Redis keys.
type Store struct {
	client *goredis.Client
	prefix string
}

// NewStore connects using cfg and verifies the server responds.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, cfg.Prefix), nil
}

// New wraps an existing client. An empty prefix uses "medportal:".
func New(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Key returns the Redis key backing the named slot.
func (s *Store) Key(name string) string { return s.prefix + name }

// Get returns the slot content; a missing key is reported as ok=false.
func (s *Store) Get(ctx context.Context, name string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.Key(name)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", name, err)
	}
	return v, true, nil
}

// Set replaces the slot content without expiry.
func (s *Store) Set(ctx context.Context, name, value string) error {
	if err := s.client.Set(ctx, s.Key(name), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error { return s.client.Close() }
