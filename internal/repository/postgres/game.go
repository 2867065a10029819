package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/gamevault/gamevault/internal/domain"
	"github.com/gamevault/gamevault/internal/repository"
	"github.com/gamevault/gamevault/pkg/database"
	apperrors "github.com/gamevault/gamevault/pkg/errors"
)

// GameRepository implements repository.GameRepository backed by PostgreSQL.
type GameRepository struct {
	db database.DBTX
}

// NewGameRepository creates a new PostgreSQL game repository.
func NewGameRepository(db database.DBTX) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = `id, slug, title, description, developer, publisher,
		genres, tags, platforms,
		price_current, price_original, price_currency, price_discount, price_is_free,
		avg_rating, rating_count, review_count, wishlist_count,
		recent_activity, release_date, created_at, updated_at`

func (r *GameRepository) Create(ctx context.Context, game *domain.Game) error {
	ctx, end := database.TraceQuery(ctx, "CreateGame", "INSERT INTO games")

	query := `
		INSERT INTO games (` + gameColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)`

	_, err := r.db.Exec(ctx, query,
		game.ID, game.Slug, game.Title, game.Description, game.Developer, game.Publisher,
		game.Genres, game.Tags, game.Platforms,
		game.Price.Current, game.Price.Original, game.Price.Currency, game.Price.Discount, game.Price.IsFree,
		game.Stats.AverageRating, game.Stats.RatingCount, game.Stats.ReviewCount, game.Stats.WishlistCount,
		game.Activity, game.ReleaseDate, game.CreatedAt, game.UpdatedAt,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("game", "slug", game.Slug)
		}
		return fmt.Errorf("creating game: %w", err)
	}
	return nil
}

func (r *GameRepository) GetByID(ctx context.Context, id string) (*domain.Game, error) {
	return r.getBy(ctx, "GetGame", "id", id)
}

func (r *GameRepository) GetBySlug(ctx context.Context, slug string) (*domain.Game, error) {
	return r.getBy(ctx, "GetGameBySlug", "slug", slug)
}

func (r *GameRepository) getBy(ctx context.Context, operation, column, value string) (*domain.Game, error) {
	ctx, end := database.TraceQuery(ctx, operation, "SELECT FROM games")

	query := `SELECT ` + gameColumns + ` FROM games WHERE ` + column + ` = $1`

	game, err := scanGame(r.db.QueryRow(ctx, query, value))
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("game", value)
		}
		return nil, fmt.Errorf("getting game by %s: %w", column, err)
	}

	if err := r.loadRatings(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

func (r *GameRepository) loadRatings(ctx context.Context, game *domain.Game) error {
	query := `
		SELECT user_id, value, created_at
		FROM game_ratings
		WHERE game_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, game.ID)
	if err != nil {
		return fmt.Errorf("loading ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(&rating.UserID, &rating.Value, &rating.CreatedAt); err != nil {
			return fmt.Errorf("scanning rating: %w", err)
		}
		game.Ratings = append(game.Ratings, rating)
	}
	return rows.Err()
}

func (r *GameRepository) List(ctx context.Context, filter repository.GameFilter, page, perPage int) ([]domain.Game, int, error) {
	ctx, end := database.TraceQuery(ctx, "ListGames", "SELECT FROM games")

	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Genre != "" {
		conditions = append(conditions, arg(filter.Genre)+" = ANY(genres)")
	}
	if filter.Platform != "" {
		conditions = append(conditions, arg(filter.Platform)+" = ANY(platforms)")
	}
	if filter.Search != "" {
		conditions = append(conditions, "title ILIKE "+arg("%"+filter.Search+"%"))
	}
	if filter.FreeOnly {
		conditions = append(conditions, "price_is_free = TRUE")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT `+gameColumns+`, count(*) OVER() AS total
		FROM games
		%s
		ORDER BY created_at DESC
		LIMIT %s OFFSET %s`,
		where, arg(perPage), arg((page-1)*perPage))

	rows, err := r.db.Query(ctx, query, args...)
	end(err)
	if err != nil {
		return nil, 0, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var (
		games []domain.Game
		total int
	)
	for rows.Next() {
		var g domain.Game
		if err := scanGameInto(rows, &g, &total); err != nil {
			return nil, 0, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating games: %w", err)
	}
	return games, total, nil
}

func (r *GameRepository) ListCandidates(ctx context.Context, game *domain.Game, limit int) ([]domain.Game, error) {
	ctx, end := database.TraceQuery(ctx, "ListSimilarCandidates", "SELECT FROM games")

	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE id <> $1
		  AND (genres && $2 OR tags && $3 OR platforms && $4
		       OR developer = $5 OR publisher = $6)
		ORDER BY created_at
		LIMIT $7`

	rows, err := r.db.Query(ctx, query,
		game.ID, game.Genres, game.Tags, game.Platforms,
		game.Developer, game.Publisher, limit,
	)
	end(err)
	if err != nil {
		return nil, fmt.Errorf("listing similar candidates: %w", err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		var g domain.Game
		if err := scanGameInto(rows, &g); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (r *GameRepository) Update(ctx context.Context, game *domain.Game) error {
	ctx, end := database.TraceQuery(ctx, "UpdateGame", "UPDATE games")

	query := `
		UPDATE games SET
			slug = $2, title = $3, description = $4, developer = $5, publisher = $6,
			genres = $7, tags = $8, platforms = $9,
			price_current = $10, price_original = $11, price_currency = $12,
			price_discount = $13, price_is_free = $14,
			avg_rating = $15, rating_count = $16, review_count = $17, wishlist_count = $18,
			recent_activity = $19, release_date = $20, updated_at = $21
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		game.ID, game.Slug, game.Title, game.Description, game.Developer, game.Publisher,
		game.Genres, game.Tags, game.Platforms,
		game.Price.Current, game.Price.Original, game.Price.Currency,
		game.Price.Discount, game.Price.IsFree,
		game.Stats.AverageRating, game.Stats.RatingCount, game.Stats.ReviewCount, game.Stats.WishlistCount,
		game.Activity, game.ReleaseDate, game.UpdatedAt,
	)
	end(err)
	if err != nil {
		return fmt.Errorf("updating game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("game", game.ID)
	}
	return nil
}

// UpsertRating stores a rating entry. The primary key on (game_id, user_id)
// makes a repeat rating by the same user replace the previous one.
func (r *GameRepository) UpsertRating(ctx context.Context, gameID string, rating domain.Rating) error {
	ctx, end := database.TraceQuery(ctx, "UpsertRating", "INSERT INTO game_ratings")

	query := `
		INSERT INTO game_ratings (game_id, user_id, value, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id, user_id)
		DO UPDATE SET value = EXCLUDED.value, created_at = EXCLUDED.created_at`

	_, err := r.db.Exec(ctx, query, gameID, rating.UserID, rating.Value, rating.CreatedAt)
	end(err)
	if err != nil {
		return fmt.Errorf("upserting rating: %w", err)
	}
	return nil
}

func (r *GameRepository) DeleteRating(ctx context.Context, gameID, userID string) error {
	ctx, end := database.TraceQuery(ctx, "DeleteRating", "DELETE FROM game_ratings")

	query := `DELETE FROM game_ratings WHERE game_id = $1 AND user_id = $2`

	tag, err := r.db.Exec(ctx, query, gameID, userID)
	end(err)
	if err != nil {
		return fmt.Errorf("deleting rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("rating", userID)
	}
	return nil
}

func (r *GameRepository) UpdateStats(ctx context.Context, gameID string, stats domain.GameStats) error {
	ctx, end := database.TraceQuery(ctx, "UpdateGameStats", "UPDATE games")

	query := `
		UPDATE games SET
			avg_rating = $2, rating_count = $3, review_count = $4, wishlist_count = $5,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, gameID,
		stats.AverageRating, stats.RatingCount, stats.ReviewCount, stats.WishlistCount)
	end(err)
	if err != nil {
		return fmt.Errorf("updating game stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("game", gameID)
	}
	return nil
}

func (r *GameRepository) Delete(ctx context.Context, id string) error {
	ctx, end := database.TraceQuery(ctx, "DeleteGame", "DELETE FROM games")

	query := `DELETE FROM games WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	end(err)
	if err != nil {
		return fmt.Errorf("deleting game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("game", id)
	}
	return nil
}

func scanGame(row pgx.Row) (*domain.Game, error) {
	var g domain.Game
	if err := scanGameInto(row, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// scanGameInto scans a game row; extra receives trailing columns such as the
// windowed total count.
func scanGameInto(row pgx.Row, g *domain.Game, extra ...any) error {
	dest := []any{
		&g.ID, &g.Slug, &g.Title, &g.Description, &g.Developer, &g.Publisher,
		&g.Genres, &g.Tags, &g.Platforms,
		&g.Price.Current, &g.Price.Original, &g.Price.Currency, &g.Price.Discount, &g.Price.IsFree,
		&g.Stats.AverageRating, &g.Stats.RatingCount, &g.Stats.ReviewCount, &g.Stats.WishlistCount,
		&g.Activity, &g.ReleaseDate, &g.CreatedAt, &g.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}
