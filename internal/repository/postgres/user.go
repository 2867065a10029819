package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gamevault/gamevault/internal/domain"
	"github.com/gamevault/gamevault/pkg/database"
	apperrors "github.com/gamevault/gamevault/pkg/errors"
)

// UserRepository implements repository.UserRepository backed by PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, display_name, avatar_url,
		preferences, stats,
		library, wishlist, favorites, friends, blocked,
		recent_activity, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, end := database.TraceQuery(ctx, "CreateUser", "INSERT INTO users")

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.DisplayName, user.AvatarURL,
		user.Preferences, user.Stats,
		user.Library, user.Wishlist, user.Favorites, user.Friends, user.Blocked,
		user.RecentActivity, user.CreatedAt, user.UpdatedAt,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "username or email", user.Username)
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "GetUser", "id", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "GetUserByUsername", "username", username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "GetUserByEmail", "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, operation, column, value string) (*domain.User, error) {
	ctx, end := database.TraceQuery(ctx, operation, "SELECT FROM users")

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, value))
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", value)
		}
		return nil, fmt.Errorf("getting user by %s: %w", column, err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, end := database.TraceQuery(ctx, "UpdateUser", "UPDATE users")

	query := `
		UPDATE users SET
			username = $2, email = $3, password_hash = $4, display_name = $5, avatar_url = $6,
			preferences = $7, stats = $8,
			library = $9, wishlist = $10, favorites = $11, friends = $12, blocked = $13,
			recent_activity = $14, updated_at = $15
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.DisplayName, user.AvatarURL,
		user.Preferences, user.Stats,
		user.Library, user.Wishlist, user.Favorites, user.Friends, user.Blocked,
		user.RecentActivity, user.UpdatedAt,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "username or email", user.Username)
		}
		return fmt.Errorf("updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("user", user.ID)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx, end := database.TraceQuery(ctx, "DeleteUser", "DELETE FROM users")

	query := `DELETE FROM users WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	end(err)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName, &u.AvatarURL,
		&u.Preferences, &u.Stats,
		&u.Library, &u.Wishlist, &u.Favorites, &u.Friends, &u.Blocked,
		&u.RecentActivity, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
