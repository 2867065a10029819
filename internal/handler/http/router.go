package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gamevault/gamevault/internal/auth"
	"github.com/gamevault/gamevault/internal/service"
	"github.com/gamevault/gamevault/pkg/health"
	"github.com/gamevault/gamevault/pkg/middleware"
	"github.com/gamevault/gamevault/pkg/rules"
)

// authRateLimit throttles credential endpoints per client IP.
const (
	authRateLimitRPS   = 5
	authRateLimitBurst = 10
)

// catalogCacheMaxAge is the browser cache lifetime for public catalog reads.
const catalogCacheMaxAge = 60

// NewRouter creates a chi router with all API routes registered.
func NewRouter(
	catalogService *service.CatalogService,
	reviewService *service.ReviewService,
	userService *service.UserService,
	provider auth.Provider,
	validator *rules.Validator,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
	pprofAllowedCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("gamevault"))
	r.Use(middleware.Tracing("gamevault"))
	r.Use(middleware.CORS(corsConfig))

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, pprofAllowedCIDRs, logger)

	requireAuth := middleware.Auth(tokenValidator(provider))
	maybeAuth := optionalAuth(tokenValidator(provider))

	// Auth endpoints
	authHandler := NewAuthHandler(userService, validator, logger)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RateLimit(authRateLimitRPS, authRateLimitBurst, logger))

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
	})

	// Support contact form. Public and rate-limited like the auth endpoints.
	contactHandler := NewContactHandler(userService, validator, logger)
	r.With(ContentTypeJSON, middleware.RateLimit(authRateLimitRPS, authRateLimitBurst, logger)).
		Post("/api/v1/contact", contactHandler.Submit)

	// Catalog endpoints
	gameHandler := NewGameHandler(catalogService, logger).WithSearchRecorder(userService)
	reviewHandler := NewReviewHandler(reviewService, validator, logger)

	r.Route("/api/v1/games", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public catalog reads are safe to cache briefly at the client.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(catalogCacheMaxAge))

			r.With(maybeAuth).Get("/", gameHandler.ListGames)
			r.Get("/{idOrSlug}", gameHandler.GetGame)
			r.Get("/{id}/similar", gameHandler.SimilarGames)
			r.Get("/{id}/reviews", reviewHandler.ListReviews)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Put("/{id}/rating", gameHandler.RateGame)
			r.Delete("/{id}/rating", gameHandler.RemoveRating)
			r.Post("/{id}/reviews", reviewHandler.CreateReview)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, middleware.RequireRole("admin"))

			r.Post("/", gameHandler.CreateGame)
			r.Put("/{id}/price", gameHandler.SetPrice)
			r.Delete("/{id}", gameHandler.DeleteGame)
		})
	})

	// Review endpoints
	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/{id}", reviewHandler.GetReview)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Patch("/{id}", reviewHandler.EditReview)
			r.Delete("/{id}", reviewHandler.DeleteReview)
			r.Post("/{id}/helpful", reviewHandler.VoteHelpful)
			r.Post("/{id}/unhelpful", reviewHandler.VoteUnhelpful)
		})
	})

	// User endpoints
	userHandler := NewUserHandler(userService, reviewService, logger)

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(maybeAuth).Get("/{id}", userHandler.GetProfile)

		r.Route("/me", func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/", userHandler.GetMe)
			r.Get("/reviews", userHandler.ListMyReviews)
			r.Get("/searches", userHandler.SearchHistory)
			r.Put("/preferences", userHandler.SavePreferences)

			r.Put("/friends/{id}", userHandler.AddFriend)
			r.Delete("/friends/{id}", userHandler.RemoveFriend)
			r.Put("/blocks/{id}", userHandler.Block)
			r.Delete("/blocks/{id}", userHandler.Unblock)

			r.Put("/wishlist/{gameID}", userHandler.AddToWishlist)
			r.Delete("/wishlist/{gameID}", userHandler.RemoveFromWishlist)
			r.Put("/library/{gameID}", userHandler.AddToLibrary)
			r.Put("/favorites/{gameID}", userHandler.ToggleFavorite)
		})
	})

	return r
}

// tokenValidator adapts the auth provider to the middleware's validator shape.
func tokenValidator(provider auth.Provider) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		claims, err := provider.Authenticate(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}
}

// optionalAuth resolves the requester's identity when a bearer token is
// present but lets anonymous requests through. Used on endpoints whose
// response shape depends on who is asking.
func optionalAuth(validate middleware.TokenValidator) func(http.Handler) http.Handler {
	authed := middleware.Auth(validate)
	return func(next http.Handler) http.Handler {
		withAuth := authed(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
				withAuth.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON sets the response content type for API routes.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
