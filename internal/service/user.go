package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gamevault/gamevault/internal/auth"
	"github.com/gamevault/gamevault/internal/domain"
	"github.com/gamevault/gamevault/internal/event"
	"github.com/gamevault/gamevault/internal/repository"
	apperrors "github.com/gamevault/gamevault/pkg/errors"
)

// Search history retention.
const (
	searchHistoryTTL = 30 * 24 * time.Hour
	maxSearchHistory = 20
)

// UserService implements account, social, and collection operations.
type UserService struct {
	users    repository.UserRepository
	games    repository.GameRepository
	provider auth.Provider
	bus      *event.Bus
	logger   *slog.Logger
	state    repository.StateStore
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	games repository.GameRepository,
	provider auth.Provider,
	bus *event.Bus,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		games:    games,
		provider: provider,
		bus:      bus,
		logger:   logger,
	}
}

// WithSearchHistory enables per-user search-history recording backed by the
// given state store.
func (s *UserService) WithSearchHistory(store repository.StateStore) *UserService {
	s.state = store
	return s
}

// RegisterInput holds the parameters for creating an account.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// Register creates an account and opens a session.
func (s *UserService) Register(ctx context.Context, input *RegisterInput) (*domain.User, auth.TokenPair, error) {
	hash, err := s.provider.HashPassword(input.Password)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		DisplayName:  input.DisplayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.provider.IssueTokens(ctx, user)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}

	s.bus.Publish(ctx, &domain.Event{
		Type:          domain.EventUserRegistered,
		AggregateType: "user",
		AggregateID:   user.ID,
		Data:          map[string]any{"username": user.Username},
	})

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, pair, nil
}

// Login verifies credentials and opens a session. The identifier may be a
// username or an email address.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*domain.User, auth.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, identifier)
	if errors.Is(err, apperrors.ErrNotFound) {
		user, err = s.users.GetByEmail(ctx, identifier)
	}
	if err != nil {
		// Do not reveal whether the account exists.
		return nil, auth.TokenPair{}, apperrors.Unauthorized("invalid credentials")
	}

	if err := s.provider.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, auth.TokenPair{}, err
	}

	pair, err := s.provider.IssueTokens(ctx, user)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	pair, _, err := s.provider.Refresh(ctx, refreshToken)
	return pair, err
}

// Logout revokes the session behind a refresh token.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	return s.provider.Revoke(ctx, refreshToken)
}

// GetProfile returns a user's profile as seen by the requester. Privacy
// settings hide the library, wishlist, and activity from requesters the owner
// has not allowed; a blocked requester gets NotFound.
func (s *UserService) GetProfile(ctx context.Context, userID, requesterID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	if !user.CanPerformAction("view_profile", requesterID) {
		return nil, apperrors.NotFound("user", userID)
	}

	if !user.CanPerformAction("view_library", requesterID) {
		user.Library = nil
		user.Favorites = nil
	}
	if !user.CanPerformAction("view_wishlist", requesterID) {
		user.Wishlist = nil
	}
	if !user.CanPerformAction("view_activity", requesterID) {
		user.RecentActivity = nil
	}
	return user, nil
}

// AddFriend adds friendID to userID's friends set.
func (s *UserService) AddFriend(ctx context.Context, userID, friendID string) error {
	if _, err := s.users.GetByID(ctx, friendID); err != nil {
		return fmt.Errorf("get friend by id: %w", err)
	}
	return s.mutate(ctx, userID, func(u *domain.User) (*domain.Event, error) {
		return u.AddFriend(friendID)
	})
}

// RemoveFriend drops friendID from userID's friends set.
func (s *UserService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	return s.mutate(ctx, userID, func(u *domain.User) (*domain.Event, error) {
		return u.RemoveFriend(friendID)
	})
}

// Block blocks targetID for userID, severing any existing friendship.
func (s *UserService) Block(ctx context.Context, userID, targetID string) error {
	return s.mutate(ctx, userID, func(u *domain.User) (*domain.Event, error) {
		return u.Block(targetID)
	})
}

// Unblock lifts userID's block on targetID.
func (s *UserService) Unblock(ctx context.Context, userID, targetID string) error {
	return s.mutate(ctx, userID, func(u *domain.User) (*domain.Event, error) {
		return u.Unblock(targetID)
	})
}

// AddToWishlist puts a game on the user's wishlist and bumps the game's
// wishlist count.
func (s *UserService) AddToWishlist(ctx context.Context, userID, gameID string) error {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("get game by id: %w", err)
	}

	if err := s.mutate(ctx, userID, func(u *domain.User) (*domain.Event, error) {
		return u.AddToWishlist(gameID)
	}); err != nil {
		return err
	}

	game.Stats.WishlistCount++
	if err := s.games.UpdateStats(ctx, gameID, game.Stats); err != nil {
		s.logger.ErrorContext(ctx, "failed to bump wishlist count",
			slog.String("game_id", gameID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// RemoveFromWishlist drops a game from the user's wishlist.
func (s *UserService) RemoveFromWishlist(ctx context.Context, userID, gameID string) error {
	if err := s.mutate(ctx, userID, func(u *domain.User) (*domain.Event, error) {
		return u.RemoveFromWishlist(gameID)
	}); err != nil {
		return err
	}

	if game, err := s.games.GetByID(ctx, gameID); err == nil && game.Stats.WishlistCount > 0 {
		game.Stats.WishlistCount--
		if err := s.games.UpdateStats(ctx, gameID, game.Stats); err != nil {
			s.logger.ErrorContext(ctx, "failed to drop wishlist count",
				slog.String("game_id", gameID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// AddToLibrary records ownership of a game, clearing any wishlist entry.
func (s *UserService) AddToLibrary(ctx context.Context, userID, gameID string) error {
	if _, err := s.games.GetByID(ctx, gameID); err != nil {
		return fmt.Errorf("get game by id: %w", err)
	}
	return s.mutate(ctx, userID, func(u *domain.User) (*domain.Event, error) {
		return u.AddToLibrary(gameID)
	})
}

// ToggleFavorite flips a game's favorite state and reports the new state.
func (s *UserService) ToggleFavorite(ctx context.Context, userID, gameID string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get user by id: %w", err)
	}

	favorited := user.ToggleFavorite(gameID)
	if err := s.users.Update(ctx, user); err != nil {
		return false, fmt.Errorf("update user: %w", err)
	}
	return favorited, nil
}

// SavePreferences merges the given preference patch into the user's settings.
func (s *UserService) SavePreferences(ctx context.Context, userID string, prefs domain.PreferencesPatch) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	ev := user.MergePreferences(prefs)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.bus.Publish(ctx, ev)
	return user, nil
}

// ContactInput holds a support contact submission.
type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// SubmitContact accepts a support contact submission and hands it to the
// support pipeline via the event bus. It returns the submission's ID.
func (s *UserService) SubmitContact(ctx context.Context, input *ContactInput) string {
	id := uuid.New().String()

	s.bus.Publish(ctx, &domain.Event{
		Type:          domain.EventContactSubmitted,
		AggregateType: "contact",
		AggregateID:   id,
		Data: map[string]any{
			"name":    input.Name,
			"email":   input.Email,
			"phone":   input.Phone,
			"message": input.Message,
		},
	})

	s.logger.InfoContext(ctx, "contact submission received",
		slog.String("contact_id", id),
	)
	return id
}

// SearchEntry is one recorded catalog search.
type SearchEntry struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// RecordSearch appends a catalog search to the user's history, newest first.
// A repeated query moves to the front instead of duplicating. Recording is
// best-effort: failures are logged, never surfaced to the caller.
func (s *UserService) RecordSearch(ctx context.Context, userID, query string) {
	if s.state == nil || userID == "" || query == "" {
		return
	}

	key := searchHistoryKey(userID)
	var history []SearchEntry
	if _, err := s.state.Get(ctx, key, &history); err != nil {
		s.logger.WarnContext(ctx, "failed to load search history",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}

	for i := range history {
		if history[i].Query == query {
			history = append(history[:i], history[i+1:]...)
			break
		}
	}
	history = append([]SearchEntry{{Query: query, Timestamp: time.Now().UTC()}}, history...)
	if len(history) > maxSearchHistory {
		history = history[:maxSearchHistory]
	}

	if err := s.state.Set(ctx, key, history, searchHistoryTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to save search history",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// SearchHistory returns the user's recorded searches, newest first.
func (s *UserService) SearchHistory(ctx context.Context, userID string) ([]SearchEntry, error) {
	history := []SearchEntry{}
	if s.state == nil {
		return history, nil
	}
	if _, err := s.state.Get(ctx, searchHistoryKey(userID), &history); err != nil {
		return nil, fmt.Errorf("load search history: %w", err)
	}
	return history, nil
}

func searchHistoryKey(userID string) string {
	return "search-history:" + userID
}

// mutate loads the user, applies a domain mutation, persists the result, and
// publishes the returned event.
func (s *UserService) mutate(ctx context.Context, userID string, fn func(*domain.User) (*domain.Event, error)) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user by id: %w", err)
	}

	ev, err := fn(user)
	if err != nil {
		return err
	}

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	s.bus.Publish(ctx, ev)
	return nil
}
