package repository

import (
	"context"
	"time"

	"github.com/gamevault/gamevault/internal/domain"
)

// GameFilter narrows catalog listings.
type GameFilter struct {
	// Genre restricts results to games carrying the genre.
	Genre string
	// Platform restricts results to games available on the platform.
	Platform string
	// Search matches against title (case-insensitive substring).
	Search string
	// FreeOnly restricts results to free games.
	FreeOnly bool
}

// GameRepository defines game persistence operations.
type GameRepository interface {
	// Create inserts a new game into the store.
	Create(ctx context.Context, game *domain.Game) error

	// GetByID retrieves a game with its rating entries.
	GetByID(ctx context.Context, id string) (*domain.Game, error)

	// GetBySlug retrieves a game by its URL slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Game, error)

	// List returns a filtered, paginated page of games plus the total count.
	// Rating entries are not loaded for listings.
	List(ctx context.Context, filter GameFilter, page, perPage int) ([]domain.Game, int, error)

	// ListCandidates returns games sharing at least one genre, tag, platform,
	// developer, or publisher with the given game, in insertion order.
	ListCandidates(ctx context.Context, game *domain.Game, limit int) ([]domain.Game, error)

	// Update modifies a game's descriptive fields and derived stats.
	Update(ctx context.Context, game *domain.Game) error

	// UpsertRating stores a rating entry, replacing the user's previous one.
	UpsertRating(ctx context.Context, gameID string, rating domain.Rating) error

	// DeleteRating removes a user's rating entry.
	DeleteRating(ctx context.Context, gameID, userID string) error

	// UpdateStats persists the derived aggregate.
	UpdateStats(ctx context.Context, gameID string, stats domain.GameStats) error

	// Delete removes a game from the store.
	Delete(ctx context.Context, id string) error
}

// ReviewRepository defines review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review. At most one active review per (game, user)
	// pair; violations surface as AlreadyExists.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review with its vote sets.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByGameID returns paginated reviews for a game plus the total count.
	ListByGameID(ctx context.Context, gameID string, page, perPage int) ([]domain.Review, int, error)

	// ListByUserID returns all reviews written by a user.
	ListByUserID(ctx context.Context, userID string) ([]domain.Review, error)

	// Update persists content, vote sets, and edit history.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review from the store.
	Delete(ctx context.Context, id string) error
}

// UserRepository defines user persistence operations.
type UserRepository interface {
	// Create inserts a new user. Duplicate username or email surfaces as
	// AlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update persists profile, preferences, stats, and collections.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store.
	Delete(ctx context.Context, id string) error
}

// StateStore is a tolerant JSON key-value store for named state slices
// (search history, cached profiles, theme choice). Readers fall back to
// defaults on absent or malformed entries instead of failing.
type StateStore interface {
	// Set persists a JSON-serialized value under the key with a TTL.
	// A zero TTL stores the value without expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Get loads the value for key into dest. Returns false when the key is
	// absent or its payload cannot be decoded; callers keep their defaults.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Delete removes the key.
	Delete(ctx context.Context, key string) error
}

// SessionRepository stores refresh token sessions.
type SessionRepository interface {
	// Store saves a refresh token hash for the user with a TTL.
	Store(ctx context.Context, userID, tokenHash string, ttl time.Duration) error

	// UserID resolves the user owning the given token hash.
	UserID(ctx context.Context, tokenHash string) (string, error)

	// Revoke invalidates a refresh token.
	Revoke(ctx context.Context, tokenHash string) error
}
