package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gamevault/gamevault/internal/domain"
	"github.com/gamevault/gamevault/internal/repository"
	"github.com/gamevault/gamevault/internal/service"
	"github.com/gamevault/gamevault/pkg/httputil"
	"github.com/gamevault/gamevault/pkg/middleware"
	"github.com/gamevault/gamevault/pkg/pagination"
	"github.com/gamevault/gamevault/pkg/validator"
)

// SearchRecorder records catalog searches made by authenticated requesters.
type SearchRecorder interface {
	RecordSearch(ctx context.Context, userID, query string)
}

// GameHandler handles HTTP requests for catalog endpoints.
type GameHandler struct {
	catalog  *service.CatalogService
	searches SearchRecorder
	logger   *slog.Logger
}

// NewGameHandler creates a new game HTTP handler.
func NewGameHandler(catalog *service.CatalogService, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// WithSearchRecorder enables search-history recording on catalog listings.
func (h *GameHandler) WithSearchRecorder(rec SearchRecorder) *GameHandler {
	h.searches = rec
	return h
}

// CreateGameRequest is the JSON request body for adding a game.
type CreateGameRequest struct {
	Title       string       `json:"title" validate:"required,max=200"`
	Description string       `json:"description" validate:"max=10000"`
	Developer   string       `json:"developer" validate:"max=120"`
	Publisher   string       `json:"publisher" validate:"max=120"`
	Genres      []string     `json:"genres" validate:"max=10"`
	Tags        []string     `json:"tags" validate:"max=25"`
	Platforms   []string     `json:"platforms" validate:"max=10"`
	Price       domain.Price `json:"price"`
	ReleaseDate time.Time    `json:"release_date"`
}

// RateGameRequest is the JSON request body for rating a game.
type RateGameRequest struct {
	Value float64 `json:"value"`
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.GameFilter{
		Genre:    r.URL.Query().Get("genre"),
		Platform: r.URL.Query().Get("platform"),
		Search:   r.URL.Query().Get("search"),
		FreeOnly: r.URL.Query().Get("free") == "true",
	}

	games, total, err := h.catalog.ListGames(r.Context(), filter, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if filter.Search != "" && h.searches != nil {
		if userID := middleware.UserIDFromContext(r.Context()); userID != "" {
			h.searches.RecordSearch(r.Context(), userID, filter.Search)
		}
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(games, total, params))
}

// GetGame handles GET /api/v1/games/{idOrSlug}
// It accepts both a UUID (game ID) and a slug for lookup.
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "idOrSlug")

	var (
		game *domain.Game
		err  error
	)
	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		game, err = h.catalog.GetGame(r.Context(), idOrSlug)
	} else {
		game, err = h.catalog.GetGameBySlug(r.Context(), idOrSlug)
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: game})
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	game, err := h.catalog.CreateGame(r.Context(), &service.CreateGameInput{
		Title:       req.Title,
		Description: req.Description,
		Developer:   req.Developer,
		Publisher:   req.Publisher,
		Genres:      req.Genres,
		Tags:        req.Tags,
		Platforms:   req.Platforms,
		Price:       req.Price,
		ReleaseDate: req.ReleaseDate,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: game})
}

// SetPrice handles PUT /api/v1/games/{id}/price
func (h *GameHandler) SetPrice(w http.ResponseWriter, r *http.Request) {
	var price domain.Price
	if !decodeJSON(w, r, &price) {
		return
	}

	game, err := h.catalog.SetPrice(r.Context(), chi.URLParam(r, "id"), price)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: game})
}

// RateGame handles PUT /api/v1/games/{id}/rating
func (h *GameHandler) RateGame(w http.ResponseWriter, r *http.Request) {
	var req RateGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	game, err := h.catalog.RateGame(r.Context(), chi.URLParam(r, "id"), userID, req.Value)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: game.Stats})
}

// RemoveRating handles DELETE /api/v1/games/{id}/rating
func (h *GameHandler) RemoveRating(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	game, err := h.catalog.RemoveRating(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: game.Stats})
}

// SimilarGames handles GET /api/v1/games/{id}/similar
func (h *GameHandler) SimilarGames(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "limit must be an integer between 1 and 50"},
			})
			return
		}
		limit = n
	}

	similar, err := h.catalog.SimilarGames(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: similar})
}

// DeleteGame handles DELETE /api/v1/games/{id}
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteGame(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
