// Package kvstore implements C6: an opaque string->string store, backed by
// Redis, used to persist the serialized SPO index and build-time graph
// statistics (spec.md §6).
package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/kernelerr"
)

// Store wraps a Redis client behind the storage boundary's KeyValue
// capability set: get/set/delete of opaque strings.
type Store struct {
	client *redis.Client
}

// NewStore builds a Store and pings Redis to verify connectivity.
func NewStore(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, kernelerr.Wrap(kernelerr.KindStorageUnavailable, fmt.Errorf("kvstore.NewStore: %w", err))
	}
	return &Store{client: client}, nil
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Get returns the value for key, and false if key is unset.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, kernelerr.Wrap(kernelerr.KindStorageQueryFailed, fmt.Errorf("kvstore.Get: %w", err))
	}
	return val, true, nil
}

// Set stores value under key with no expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return kernelerr.Wrap(kernelerr.KindStorageQueryFailed, fmt.Errorf("kvstore.Set: %w", err))
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return kernelerr.Wrap(kernelerr.KindStorageQueryFailed, fmt.Errorf("kvstore.Delete: %w", err))
	}
	return nil
}
