package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/gamevault/gamevault/internal/domain"
	"github.com/gamevault/gamevault/internal/repository"
	apperrors "github.com/gamevault/gamevault/pkg/errors"
)

// bcryptCost is the work factor for password hashing.
const bcryptCost = 12

// TokenPair bundles the tokens issued for an authenticated session.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Provider abstracts credential handling and session issuance so handlers and
// services never depend on a concrete token scheme. Tests substitute a mock.
type Provider interface {
	// HashPassword derives a storable hash from a plaintext password.
	HashPassword(password string) (string, error)

	// VerifyPassword checks a plaintext password against a stored hash.
	// A mismatch surfaces as Unauthorized.
	VerifyPassword(hash, password string) error

	// IssueTokens creates an access/refresh token pair for the user and
	// records the refresh session.
	IssueTokens(ctx context.Context, user *domain.User) (TokenPair, error)

	// Authenticate validates an access token and returns its claims.
	Authenticate(token string) (*Claims, error)

	// Refresh exchanges a valid refresh token for a new pair, rotating the
	// stored session.
	Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error)

	// Revoke invalidates a refresh token's session.
	Revoke(ctx context.Context, refreshToken string) error
}

// JWTProvider implements Provider with HS256 JWTs, bcrypt password hashing,
// and Redis-backed refresh sessions.
type JWTProvider struct {
	tokens   *JWTManager
	sessions repository.SessionRepository
}

// NewJWTProvider creates the production auth provider.
func NewJWTProvider(tokens *JWTManager, sessions repository.SessionRepository) *JWTProvider {
	return &JWTProvider{tokens: tokens, sessions: sessions}
}

func (p *JWTProvider) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func (p *JWTProvider) VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return apperrors.Unauthorized("invalid credentials")
	}
	return nil
}

func (p *JWTProvider) IssueTokens(ctx context.Context, user *domain.User) (TokenPair, error) {
	access, err := p.tokens.GenerateAccessToken(user.ID, user.Username, user.Email, "user")
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := p.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, err
	}

	if err := p.sessions.Store(ctx, user.ID, hashToken(refresh), p.tokens.RefreshExpiry()); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(p.tokens.accessExpiry.Seconds()),
	}, nil
}

func (p *JWTProvider) Authenticate(token string) (*Claims, error) {
	claims, err := p.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid access token")
	}
	return claims, nil
}

// Refresh validates the refresh token against both its signature and the
// stored session, then rotates the session. Returns the new pair and the
// owning user ID.
func (p *JWTProvider) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := p.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", apperrors.Unauthorized("invalid refresh token")
	}

	userID, err := p.sessions.UserID(ctx, hashToken(refreshToken))
	if err != nil {
		return TokenPair{}, "", err
	}
	if userID != claims.UserID {
		return TokenPair{}, "", apperrors.Unauthorized("refresh token does not match session")
	}

	if err := p.sessions.Revoke(ctx, hashToken(refreshToken)); err != nil {
		return TokenPair{}, "", err
	}

	access, err := p.tokens.GenerateAccessToken(userID, "", "", "user")
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, err := p.tokens.GenerateRefreshToken(userID)
	if err != nil {
		return TokenPair{}, "", err
	}
	if err := p.sessions.Store(ctx, userID, hashToken(refresh), p.tokens.RefreshExpiry()); err != nil {
		return TokenPair{}, "", err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(p.tokens.accessExpiry.Seconds()),
	}, userID, nil
}

func (p *JWTProvider) Revoke(ctx context.Context, refreshToken string) error {
	return p.sessions.Revoke(ctx, hashToken(refreshToken))
}

// hashToken stores only a digest of the refresh token server-side.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
