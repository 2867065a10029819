package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/gamevault/gamevault/internal/domain"
	"github.com/gamevault/gamevault/pkg/database"
	apperrors "github.com/gamevault/gamevault/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository backed by PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, game_id, user_id, rating, title, body,
		hours_played, verified, completed, pros, cons,
		helpful_voters, unhelpful_voters, edit_history,
		created_at, updated_at`

func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	ctx, end := database.TraceQuery(ctx, "CreateReview", "INSERT INTO reviews")

	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.Exec(ctx, query,
		review.ID, review.GameID, review.UserID, review.Rating, review.Title, review.Body,
		review.HoursPlayed, review.Verified, review.Completed, review.Pros, review.Cons,
		review.HelpfulVoters, review.UnhelpfulVoters, review.EditHistory,
		review.CreatedAt, review.UpdatedAt,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "game_id", review.GameID)
		}
		return fmt.Errorf("creating review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	ctx, end := database.TraceQuery(ctx, "GetReview", "SELECT FROM reviews")

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("getting review: %w", err)
	}
	return review, nil
}

func (r *ReviewRepository) ListByGameID(ctx context.Context, gameID string, page, perPage int) ([]domain.Review, int, error) {
	ctx, end := database.TraceQuery(ctx, "ListReviewsByGame", "SELECT FROM reviews")

	query := `
		SELECT ` + reviewColumns + `, count(*) OVER() AS total
		FROM reviews
		WHERE game_id = $1
		ORDER BY cardinality(helpful_voters) - cardinality(unhelpful_voters) DESC,
			created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, gameID, perPage, (page-1)*perPage)
	end(err)
	if err != nil {
		return nil, 0, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews []domain.Review
		total   int
	)
	for rows.Next() {
		var rev domain.Review
		if err := scanReviewInto(rows, &rev, &total); err != nil {
			return nil, 0, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating reviews: %w", err)
	}
	return reviews, total, nil
}

func (r *ReviewRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Review, error) {
	ctx, end := database.TraceQuery(ctx, "ListReviewsByUser", "SELECT FROM reviews")

	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	end(err)
	if err != nil {
		return nil, fmt.Errorf("listing reviews by user: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rev domain.Review
		if err := scanReviewInto(rows, &rev); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	ctx, end := database.TraceQuery(ctx, "UpdateReview", "UPDATE reviews")

	query := `
		UPDATE reviews SET
			rating = $2, title = $3, body = $4,
			hours_played = $5, verified = $6, completed = $7, pros = $8, cons = $9,
			helpful_voters = $10, unhelpful_voters = $11, edit_history = $12,
			updated_at = $13
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		review.ID, review.Rating, review.Title, review.Body,
		review.HoursPlayed, review.Verified, review.Completed, review.Pros, review.Cons,
		review.HelpfulVoters, review.UnhelpfulVoters, review.EditHistory,
		review.UpdatedAt,
	)
	end(err)
	if err != nil {
		return fmt.Errorf("updating review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("review", review.ID)
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	ctx, end := database.TraceQuery(ctx, "DeleteReview", "DELETE FROM reviews")

	query := `DELETE FROM reviews WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	end(err)
	if err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}
	return nil
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rev domain.Review
	if err := scanReviewInto(row, &rev); err != nil {
		return nil, err
	}
	return &rev, nil
}

func scanReviewInto(row pgx.Row, rev *domain.Review, extra ...any) error {
	dest := []any{
		&rev.ID, &rev.GameID, &rev.UserID, &rev.Rating, &rev.Title, &rev.Body,
		&rev.HoursPlayed, &rev.Verified, &rev.Completed, &rev.Pros, &rev.Cons,
		&rev.HelpfulVoters, &rev.UnhelpfulVoters, &rev.EditHistory,
		&rev.CreatedAt, &rev.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
