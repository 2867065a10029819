package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NotFound("game", "game-1")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "game-1")

	wrapped := Internal(errors.New("pool exhausted"))
	assert.Contains(t, wrapped.Error(), "pool exhausted")
}

func TestAppError_Unwrap(t *testing.T) {
	err := AlreadyExists("review", "game_id/user_id", "g1/u1")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	err2 := fmt.Errorf("save review: %w", err)
	assert.ErrorIs(t, err2, ErrAlreadyExists)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", NotFound("user", "u1"), http.StatusNotFound},
		{"already exists", AlreadyExists("user", "email", "a@b.c"), http.StatusConflict},
		{"invalid input", InvalidInput("rating out of range"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("bad credentials"), http.StatusUnauthorized},
		{"forbidden", Forbidden("profile is private"), http.StatusForbidden},
		{"conflict", Conflict("vote already cast"), http.StatusConflict},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("x: %w", ErrNotFound), http.StatusNotFound},
		{"plain error", errors.New("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	base := ErrConflict
	err := Wrap(base, "cast vote")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "cast vote")
}
