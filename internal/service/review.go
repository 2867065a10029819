package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gamevault/gamevault/internal/domain"
	"github.com/gamevault/gamevault/internal/event"
	"github.com/gamevault/gamevault/internal/repository"
	apperrors "github.com/gamevault/gamevault/pkg/errors"
)

// ReviewService implements the business logic for game reviews.
type ReviewService struct {
	reviews repository.ReviewRepository
	games   repository.GameRepository
	users   repository.UserRepository
	bus     *event.Bus
	logger  *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	games repository.GameRepository,
	users repository.UserRepository,
	bus *event.Bus,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		games:   games,
		users:   users,
		bus:     bus,
		logger:  logger,
	}
}

// CreateReviewInput holds the parameters for posting a review.
type CreateReviewInput struct {
	GameID      string
	UserID      string
	Rating      int
	Title       string
	Body        string
	HoursPlayed float64
	Completed   bool
	Pros        []string
	Cons        []string
}

// CreateReview posts a review for a game. A user holds at most one review per
// game; a second attempt surfaces as AlreadyExists. Reviews by users who own
// the game are marked verified.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if input.Rating < 0 || input.Rating > 10 {
		return nil, apperrors.InvalidInput("rating must be between 0 and 10")
	}
	if input.Body == "" {
		return nil, apperrors.InvalidInput("review body is required")
	}

	game, err := s.games.GetByID(ctx, input.GameID)
	if err != nil {
		return nil, fmt.Errorf("get game by id: %w", err)
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	verified := false
	for _, owned := range user.Library {
		if owned == game.ID {
			verified = true
			break
		}
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:          uuid.New().String(),
		GameID:      input.GameID,
		UserID:      input.UserID,
		Rating:      input.Rating,
		Title:       input.Title,
		Body:        input.Body,
		HoursPlayed: input.HoursPlayed,
		Verified:    verified,
		Completed:   input.Completed,
		Pros:        input.Pros,
		Cons:        input.Cons,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	game.Stats.ReviewCount++
	if err := s.games.UpdateStats(ctx, game.ID, game.Stats); err != nil {
		s.logger.ErrorContext(ctx, "failed to bump review count",
			slog.String("game_id", game.ID),
			slog.String("error", err.Error()),
		)
	}

	user.Stats.Reviews++
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to bump user review stat",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.bus.Publish(ctx, &domain.Event{
		Type:          domain.EventReviewCreated,
		AggregateType: "review",
		AggregateID:   review.ID,
		Data: map[string]any{
			"game_id": review.GameID,
			"user_id": review.UserID,
			"rating":  review.Rating,
		},
	})

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("game_id", review.GameID),
	)

	return review, nil
}

// GetReview retrieves a review by its ID.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review by id: %w", err)
	}
	return review, nil
}

// ListGameReviews returns paginated reviews for a game plus the total count.
func (s *ReviewService) ListGameReviews(ctx context.Context, gameID string, page, perPage int) ([]domain.Review, int, error) {
	reviews, total, err := s.reviews.ListByGameID(ctx, gameID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

// ListUserReviews returns all reviews written by a user.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID string) ([]domain.Review, error) {
	reviews, err := s.reviews.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviews by user: %w", err)
	}
	return reviews, nil
}

// EditReview replaces a review's title and body, recording the previous
// content in the edit history. Only the author may edit.
func (s *ReviewService) EditReview(ctx context.Context, id, userID, title, body string) (*domain.Review, error) {
	if body == "" {
		return nil, apperrors.InvalidInput("review body is required")
	}

	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review by id: %w", err)
	}
	if review.UserID != userID {
		return nil, apperrors.Forbidden("only the author may edit a review")
	}

	ev := review.Edit(title, body)
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.bus.Publish(ctx, ev)
	return review, nil
}

// VoteHelpful casts a helpful vote on a review. Repeating the same vote is a
// no-op; switching sides moves the vote atomically.
func (s *ReviewService) VoteHelpful(ctx context.Context, id, voterID string) (*domain.Review, error) {
	return s.vote(ctx, id, voterID, true)
}

// VoteUnhelpful casts an unhelpful vote on a review.
func (s *ReviewService) VoteUnhelpful(ctx context.Context, id, voterID string) (*domain.Review, error) {
	return s.vote(ctx, id, voterID, false)
}

func (s *ReviewService) vote(ctx context.Context, id, voterID string, helpful bool) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review by id: %w", err)
	}

	var ev *domain.Event
	if helpful {
		ev, err = review.VoteHelpful(voterID)
	} else {
		ev, err = review.VoteUnhelpful(voterID)
	}
	if err != nil {
		return nil, err
	}
	if ev == nil {
		// Same vote repeated; nothing changed.
		return review, nil
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.bus.Publish(ctx, ev)
	return review, nil
}

// DeleteReview removes a review. Only the author may delete.
func (s *ReviewService) DeleteReview(ctx context.Context, id, userID string) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get review by id: %w", err)
	}
	if review.UserID != userID {
		return apperrors.Forbidden("only the author may delete a review")
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if game, err := s.games.GetByID(ctx, review.GameID); err == nil && game.Stats.ReviewCount > 0 {
		game.Stats.ReviewCount--
		if err := s.games.UpdateStats(ctx, game.ID, game.Stats); err != nil {
			s.logger.ErrorContext(ctx, "failed to drop review count",
				slog.String("game_id", game.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", id),
		slog.String("game_id", review.GameID),
	)
	return nil
}
