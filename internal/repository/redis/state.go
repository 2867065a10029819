package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "state:"

// StateStore is a tolerant JSON key-value store backed by Redis. It persists
// named slices of application state (search history, cached profiles, theme
// choice). Reads never fail on bad data: an absent key or a payload that no
// longer decodes is reported as a miss so callers fall back to defaults.
type StateStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewStateStore creates a Redis-backed state store.
func NewStateStore(client *redis.Client, logger *slog.Logger) *StateStore {
	return &StateStore{client: client, logger: logger}
}

// Set persists value as JSON under key. A zero TTL stores it without expiry.
func (s *StateStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling state %q: %w", key, err)
	}
	if err := s.client.Set(ctx, stateKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("saving state %q: %w", key, err)
	}
	return nil
}

// Get loads the value for key into dest. It returns false on a missing key or
// a payload that fails to decode; the corrupt entry is dropped so the next
// write starts clean.
func (s *StateStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, stateKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading state %q: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("discarding malformed state entry",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		s.client.Del(ctx, stateKeyPrefix+key)
		return false, nil
	}
	return true, nil
}

// Delete removes the key.
func (s *StateStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, stateKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("deleting state %q: %w", key, err)
	}
	return nil
}
