package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gamevault/gamevault/internal/domain"
	"github.com/gamevault/gamevault/internal/event"
	"github.com/gamevault/gamevault/internal/metadata"
	"github.com/gamevault/gamevault/internal/repository"
	apperrors "github.com/gamevault/gamevault/pkg/errors"
	"github.com/gamevault/gamevault/pkg/slug"
)

// similarCandidateLimit caps how many games are pulled from the store for
// similarity scoring.
const similarCandidateLimit = 200

// similarCacheTTL bounds staleness of cached similar-game results.
const similarCacheTTL = 10 * time.Minute

// MetadataLookup resolves external catalog metadata for a title.
type MetadataLookup interface {
	Lookup(ctx context.Context, title string) (*metadata.GameMetadata, error)
}

// CatalogService implements the business logic for the game catalog.
type CatalogService struct {
	games    repository.GameRepository
	bus      *event.Bus
	logger   *slog.Logger
	metadata MetadataLookup
	state    repository.StateStore
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(games repository.GameRepository, bus *event.Bus, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		games:  games,
		bus:    bus,
		logger: logger,
	}
}

// WithMetadata enables external metadata enrichment on game creation.
func (s *CatalogService) WithMetadata(m MetadataLookup) *CatalogService {
	s.metadata = m
	return s
}

// WithStateCache enables caching of similar-game results.
func (s *CatalogService) WithStateCache(store repository.StateStore) *CatalogService {
	s.state = store
	return s
}

// CreateGameInput holds the parameters for adding a game to the catalog.
type CreateGameInput struct {
	Title       string
	Description string
	Developer   string
	Publisher   string
	Genres      []string
	Tags        []string
	Platforms   []string
	Price       domain.Price
	ReleaseDate time.Time
}

// CreateGame adds a game to the catalog.
func (s *CatalogService) CreateGame(ctx context.Context, input *CreateGameInput) (*domain.Game, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("game title is required")
	}
	if input.Price.Current < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	// Fill in genres and tags from the external provider when the caller
	// left them empty. Enrichment is best effort; a provider outage never
	// blocks game creation.
	if s.metadata != nil && (len(input.Genres) == 0 || len(input.Tags) == 0) {
		meta, err := s.metadata.Lookup(ctx, input.Title)
		if err != nil {
			s.logger.WarnContext(ctx, "metadata lookup failed",
				slog.String("title", input.Title),
				slog.String("error", err.Error()),
			)
		}
		if meta != nil {
			if len(input.Genres) == 0 {
				input.Genres = meta.Genres
			}
			if len(input.Tags) == 0 {
				input.Tags = meta.Tags
			}
		}
	}

	now := time.Now().UTC()
	game := &domain.Game{
		ID:          uuid.New().String(),
		Slug:        slug.Generate(input.Title),
		Title:       input.Title,
		Description: input.Description,
		Developer:   input.Developer,
		Publisher:   input.Publisher,
		Genres:      input.Genres,
		Tags:        input.Tags,
		Platforms:   input.Platforms,
		Price:       input.Price,
		ReleaseDate: input.ReleaseDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.games.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	s.logger.InfoContext(ctx, "game created",
		slog.String("game_id", game.ID),
		slog.String("slug", game.Slug),
	)

	return game, nil
}

// GetGame retrieves a game by its ID.
func (s *CatalogService) GetGame(ctx context.Context, id string) (*domain.Game, error) {
	game, err := s.games.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get game by id: %w", err)
	}
	return game, nil
}

// GetGameBySlug retrieves a game by its URL slug.
func (s *CatalogService) GetGameBySlug(ctx context.Context, gameSlug string) (*domain.Game, error) {
	game, err := s.games.GetBySlug(ctx, gameSlug)
	if err != nil {
		return nil, fmt.Errorf("get game by slug: %w", err)
	}
	return game, nil
}

// ListGames returns a filtered, paginated page of games plus the total count.
func (s *CatalogService) ListGames(ctx context.Context, filter repository.GameFilter, page, perPage int) ([]domain.Game, int, error) {
	games, total, err := s.games.List(ctx, filter, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list games: %w", err)
	}
	return games, total, nil
}

// RateGame records a user's rating for a game and recomputes the aggregate.
// Rating the same game again replaces the previous entry.
func (s *CatalogService) RateGame(ctx context.Context, gameID, userID string, value float64) (*domain.Game, error) {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("get game by id: %w", err)
	}

	ev, err := game.AddRating(value, userID)
	if err != nil {
		return nil, err
	}

	var rating domain.Rating
	for i := range game.Ratings {
		if game.Ratings[i].UserID == userID {
			rating = game.Ratings[i]
			break
		}
	}
	if err := s.games.UpsertRating(ctx, gameID, rating); err != nil {
		return nil, fmt.Errorf("upsert rating: %w", err)
	}
	if err := s.games.UpdateStats(ctx, gameID, game.Stats); err != nil {
		return nil, fmt.Errorf("update game stats: %w", err)
	}

	s.bus.Publish(ctx, ev)
	return game, nil
}

// RemoveRating drops a user's rating for a game.
func (s *CatalogService) RemoveRating(ctx context.Context, gameID, userID string) (*domain.Game, error) {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("get game by id: %w", err)
	}

	ev, err := game.RemoveRating(userID)
	if err != nil {
		return nil, err
	}

	if err := s.games.DeleteRating(ctx, gameID, userID); err != nil {
		return nil, fmt.Errorf("delete rating: %w", err)
	}
	if err := s.games.UpdateStats(ctx, gameID, game.Stats); err != nil {
		return nil, fmt.Errorf("update game stats: %w", err)
	}

	s.bus.Publish(ctx, ev)
	return game, nil
}

// SetPrice updates a game's price record.
func (s *CatalogService) SetPrice(ctx context.Context, gameID string, price domain.Price) (*domain.Game, error) {
	if price.Current < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("get game by id: %w", err)
	}

	ev := game.SetPrice(price)
	if err := s.games.Update(ctx, game); err != nil {
		return nil, fmt.Errorf("update game: %w", err)
	}

	s.bus.Publish(ctx, ev)
	return game, nil
}

// SimilarGames returns the games most similar to the given one, ranked by
// shared genres, tags, platforms, developer, and publisher.
func (s *CatalogService) SimilarGames(ctx context.Context, gameID string, limit int) ([]*domain.Game, error) {
	cacheKey := fmt.Sprintf("similar:%s:%d", gameID, limit)
	if s.state != nil {
		var cached []*domain.Game
		if ok, err := s.state.Get(ctx, cacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("get game by id: %w", err)
	}

	candidates, err := s.games.ListCandidates(ctx, game, similarCandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("list similar candidates: %w", err)
	}

	pointers := make([]*domain.Game, len(candidates))
	for i := range candidates {
		pointers[i] = &candidates[i]
	}
	similar := domain.SimilarGames(game, pointers, limit)

	if s.state != nil {
		if err := s.state.Set(ctx, cacheKey, similar, similarCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "failed to cache similar games",
				slog.String("game_id", gameID),
				slog.String("error", err.Error()),
			)
		}
	}
	return similar, nil
}

// DeleteGame removes a game from the catalog.
func (s *CatalogService) DeleteGame(ctx context.Context, id string) error {
	if err := s.games.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}

	s.logger.InfoContext(ctx, "game deleted", slog.String("game_id", id))
	return nil
}
