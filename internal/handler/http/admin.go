package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storescout/storescout/internal/service"
	"github.com/storescout/storescout/pkg/httputil"
)

// AdminHandler handles HTTP requests for admin moderation and repair endpoints.
type AdminHandler struct {
	reviews *service.ReviewService
	rating  *service.RatingService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(reviews *service.ReviewService, rating *service.RatingService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		reviews: reviews,
		rating:  rating,
		logger:  logger,
	}
}

// ApproveReview handles POST /api/v1/admin/reviews/{id}/approve
func (h *AdminHandler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviews.Approve(r.Context(), chi.URLParam(r, "id"), actorFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// RejectReview handles POST /api/v1/admin/reviews/{id}/reject
func (h *AdminHandler) RejectReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviews.Reject(r.Context(), chi.URLParam(r, "id"), actorFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// UnflagReview handles POST /api/v1/admin/reviews/{id}/unflag
func (h *AdminHandler) UnflagReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviews.Unflag(r.Context(), chi.URLParam(r, "id"), actorFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// RecomputeStoreRating handles POST /api/v1/admin/stores/{id}/recompute.
// It reconciles the store's stored aggregates against its approved reviews
// and reports whether they had drifted.
func (h *AdminHandler) RecomputeStoreRating(w http.ResponseWriter, r *http.Request) {
	result, err := h.rating.Reconcile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
