package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/gamevault/gamevault/pkg/errors"
)

const sessionKeyPrefix = "session:"

// SessionRepository stores refresh token sessions in Redis. Keys carry the
// token hash, never the raw token; the TTL matches the refresh token lifetime
// so revocation on expiry is automatic.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a Redis-backed session repository.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Store saves a refresh token hash for the user.
func (r *SessionRepository) Store(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	if err := r.client.Set(ctx, sessionKeyPrefix+tokenHash, userID, ttl).Err(); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

// UserID resolves the user owning the given token hash. An unknown or expired
// token surfaces as Unauthorized.
func (r *SessionRepository) UserID(ctx context.Context, tokenHash string) (string, error) {
	userID, err := r.client.Get(ctx, sessionKeyPrefix+tokenHash).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.Unauthorized("invalid or expired refresh token")
	}
	if err != nil {
		return "", fmt.Errorf("resolving session: %w", err)
	}
	return userID, nil
}

// Revoke invalidates a refresh token. Revoking an unknown token is not an
// error.
func (r *SessionRepository) Revoke(ctx context.Context, tokenHash string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+tokenHash).Err(); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}
