package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storescout/storescout/internal/auth"
	"github.com/storescout/storescout/internal/domain"
	"github.com/storescout/storescout/internal/service"
	"github.com/storescout/storescout/pkg/health"
	"github.com/storescout/storescout/pkg/middleware"
)

// RouterConfig carries the router-level settings wired from app config.
type RouterConfig struct {
	CORS         middleware.CORSConfig
	PprofEnabled bool
	PprofCIDRs   []string
}

// NewRouter creates a chi router with all routes registered. Reads are
// public; mutating routes require a valid access token and admin routes
// additionally require the admin role.
func NewRouter(
	storeService *service.StoreService,
	reviewService *service.ReviewService,
	ratingService *service.RatingService,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storescout"))
	r.Use(middleware.Tracing("storescout"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	storeHandler := NewStoreHandler(storeService, logger)
	reviewHandler := NewReviewHandler(reviewService, logger)
	adminHandler := NewAdminHandler(reviewService, ratingService, logger)

	r.Route("/api/v1/stores", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public reads, cacheable by edge proxies for a short window.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(60))

			r.Get("/", storeHandler.ListStores)
			r.Get("/{idOrSlug}", storeHandler.GetStore)
		})

		// Review listing is public but honors claims when present: admins
		// see pending and flagged reviews alongside approved ones.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(tokenValidator))

			r.Get("/{storeId}/reviews", reviewHandler.ListReviews)
		})

		// Authenticated writes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Post("/", storeHandler.CreateStore)
			r.Put("/{id}", storeHandler.UpdateStore)
			r.Delete("/{id}", storeHandler.DeleteStore)
			r.Post("/{storeId}/reviews", reviewHandler.SubmitReview)
		})
	})

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Put("/{id}", reviewHandler.EditReview)
		r.Delete("/{id}", reviewHandler.DeleteReview)
		r.Post("/{id}/reply", reviewHandler.ReplyToReview)
		r.Post("/{id}/vote", reviewHandler.VoteReview)
		r.Post("/{id}/flag", reviewHandler.FlagReview)
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))
		r.Use(middleware.RequireRole(domain.RoleAdmin))

		r.Post("/reviews/{id}/approve", adminHandler.ApproveReview)
		r.Post("/reviews/{id}/reject", adminHandler.RejectReview)
		r.Post("/reviews/{id}/unflag", adminHandler.UnflagReview)
		r.Post("/stores/{id}/recompute", adminHandler.RecomputeStoreRating)
	})

	return r
}
