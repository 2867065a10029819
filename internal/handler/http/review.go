package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gamevault/gamevault/internal/domain"
	"github.com/gamevault/gamevault/internal/forms"
	"github.com/gamevault/gamevault/internal/service"
	"github.com/gamevault/gamevault/pkg/httputil"
	"github.com/gamevault/gamevault/pkg/middleware"
	"github.com/gamevault/gamevault/pkg/pagination"
	"github.com/gamevault/gamevault/pkg/rules"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	reviews   *service.ReviewService
	validator *rules.Validator
	logger    *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(reviews *service.ReviewService, validator *rules.Validator, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews:   reviews,
		validator: validator,
		logger:    logger,
	}
}

// CreateReviewRequest is the JSON request body for posting a review.
type CreateReviewRequest struct {
	Rating      int      `json:"rating"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	HoursPlayed float64  `json:"hours_played"`
	Completed   bool     `json:"completed"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
}

// EditReviewRequest is the JSON request body for editing a review.
type EditReviewRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// reviewView decorates a review with its derived quality score.
type reviewView struct {
	*domain.Review
	QualityScore int `json:"quality_score"`
	HelpfulScore int `json:"helpful_score"`
}

func newReviewView(r *domain.Review) reviewView {
	return reviewView{
		Review:       r,
		QualityScore: r.QualityScore(),
		HelpfulScore: r.HelpfulScore(),
	}
}

// ListReviews handles GET /api/v1/games/{id}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	reviews, total, err := h.reviews.ListGameReviews(r.Context(), chi.URLParam(r, "id"), params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	views := make([]reviewView, len(reviews))
	for i := range reviews {
		views[i] = newReviewView(&reviews[i])
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(views, total, params))
}

// CreateReview handles POST /api/v1/games/{id}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result := h.validator.Validate(map[string]string{
		"rating": strconv.Itoa(req.Rating),
		"title":  req.Title,
		"body":   req.Body,
	}, forms.Review)
	if !result.Valid {
		writeRuleErrors(w, result)
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), &service.CreateReviewInput{
		GameID:      chi.URLParam(r, "id"),
		UserID:      middleware.UserIDFromContext(r.Context()),
		Rating:      req.Rating,
		Title:       req.Title,
		Body:        req.Body,
		HoursPlayed: req.HoursPlayed,
		Completed:   req.Completed,
		Pros:        req.Pros,
		Cons:        req.Cons,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: newReviewView(review)})
}

// GetReview handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviews.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newReviewView(review)})
}

// EditReview handles PATCH /api/v1/reviews/{id}
func (h *ReviewHandler) EditReview(w http.ResponseWriter, r *http.Request) {
	var req EditReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.reviews.EditReview(r.Context(),
		chi.URLParam(r, "id"), middleware.UserIDFromContext(r.Context()), req.Title, req.Body)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newReviewView(review)})
}

// VoteHelpful handles POST /api/v1/reviews/{id}/helpful
func (h *ReviewHandler) VoteHelpful(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, true)
}

// VoteUnhelpful handles POST /api/v1/reviews/{id}/unhelpful
func (h *ReviewHandler) VoteUnhelpful(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, false)
}

func (h *ReviewHandler) vote(w http.ResponseWriter, r *http.Request, helpful bool) {
	id := chi.URLParam(r, "id")
	voterID := middleware.UserIDFromContext(r.Context())

	var (
		review *domain.Review
		err    error
	)
	if helpful {
		review, err = h.reviews.VoteHelpful(r.Context(), id, voterID)
	} else {
		review, err = h.reviews.VoteUnhelpful(r.Context(), id, voterID)
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newReviewView(review)})
}

// DeleteReview handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	err := h.reviews.DeleteReview(r.Context(),
		chi.URLParam(r, "id"), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
