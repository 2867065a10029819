package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gamevault/gamevault/internal/domain"
	"github.com/gamevault/gamevault/internal/service"
	"github.com/gamevault/gamevault/pkg/httputil"
	"github.com/gamevault/gamevault/pkg/middleware"
)

// UserHandler handles HTTP requests for profile, social, and collection
// endpoints.
type UserHandler struct {
	users   *service.UserService
	reviews *service.ReviewService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(users *service.UserService, reviews *service.ReviewService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:   users,
		reviews: reviews,
		logger:  logger,
	}
}

// GetProfile handles GET /api/v1/users/{id}
// The requester's identity, when present, drives privacy filtering.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.UserIDFromContext(r.Context())

	user, err := h.users.GetProfile(r.Context(), chi.URLParam(r, "id"), requesterID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := h.users.GetProfile(r.Context(), userID, userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"user":        user,
		"level":       user.Stats.Level(),
		"total_score": user.Stats.TotalScore(),
		"exp_to_next": user.Stats.ExperienceToNextLevel(),
	}})
}

// SearchHistory handles GET /api/v1/users/me/searches
func (h *UserHandler) SearchHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.users.SearchHistory(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: history})
}

// ListMyReviews handles GET /api/v1/users/me/reviews
func (h *UserHandler) ListMyReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListUserReviews(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reviews})
}

// SavePreferences handles PUT /api/v1/users/me/preferences
func (h *UserHandler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs domain.PreferencesPatch
	if !decodeJSON(w, r, &prefs) {
		return
	}

	user, err := h.users.SavePreferences(r.Context(), middleware.UserIDFromContext(r.Context()), prefs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user.Preferences})
}

// AddFriend handles PUT /api/v1/users/me/friends/{id}
func (h *UserHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	h.social(w, r, h.users.AddFriend, http.StatusCreated)
}

// RemoveFriend handles DELETE /api/v1/users/me/friends/{id}
func (h *UserHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	h.social(w, r, h.users.RemoveFriend, http.StatusNoContent)
}

// Block handles PUT /api/v1/users/me/blocks/{id}
func (h *UserHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.social(w, r, h.users.Block, http.StatusCreated)
}

// Unblock handles DELETE /api/v1/users/me/blocks/{id}
func (h *UserHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.social(w, r, h.users.Unblock, http.StatusNoContent)
}

// AddToWishlist handles PUT /api/v1/users/me/wishlist/{gameID}
func (h *UserHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	h.collection(w, r, h.users.AddToWishlist, http.StatusCreated)
}

// RemoveFromWishlist handles DELETE /api/v1/users/me/wishlist/{gameID}
func (h *UserHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	h.collection(w, r, h.users.RemoveFromWishlist, http.StatusNoContent)
}

// AddToLibrary handles PUT /api/v1/users/me/library/{gameID}
func (h *UserHandler) AddToLibrary(w http.ResponseWriter, r *http.Request) {
	h.collection(w, r, h.users.AddToLibrary, http.StatusCreated)
}

// ToggleFavorite handles PUT /api/v1/users/me/favorites/{gameID}
func (h *UserHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	favorited, err := h.users.ToggleFavorite(r.Context(),
		middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "gameID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"favorited": favorited,
	}})
}

// social runs a user-to-user mutation (friend/block) for the authenticated
// user against the {id} path parameter.
func (h *UserHandler) social(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, targetID string) error, status int) {
	userID := middleware.UserIDFromContext(r.Context())
	if err := op(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(status)
}

// collection runs a user-to-game mutation (wishlist/library) for the
// authenticated user against the {gameID} path parameter.
func (h *UserHandler) collection(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, gameID string) error, status int) {
	userID := middleware.UserIDFromContext(r.Context())
	if err := op(r.Context(), userID, chi.URLParam(r, "gameID")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(status)
}
