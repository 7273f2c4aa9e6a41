package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storescout/storescout/internal/domain"
	"github.com/storescout/storescout/internal/service"
	"github.com/storescout/storescout/pkg/httputil"
	"github.com/storescout/storescout/pkg/middleware"
	"github.com/storescout/storescout/pkg/pagination"
	"github.com/storescout/storescout/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SubmitReviewRequest is the JSON request body for submitting a review.
type SubmitReviewRequest struct {
	Rating  int      `json:"rating" validate:"required,min=1,max=5"`
	Title   string   `json:"title" validate:"max=200"`
	Comment string   `json:"comment" validate:"max=2000"`
	Images  []string `json:"images" validate:"max=5,dive,url"`
}

// EditReviewRequest is the JSON request body for editing a review. Omitted
// fields are left unchanged.
type EditReviewRequest struct {
	Rating  *int     `json:"rating" validate:"omitempty,min=1,max=5"`
	Title   *string  `json:"title" validate:"omitempty,max=200"`
	Comment *string  `json:"comment" validate:"omitempty,max=2000"`
	Images  []string `json:"images" validate:"omitempty,max=5,dive,url"`
}

// ReplyRequest is the JSON request body for replying to a review.
type ReplyRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// FlagRequest is the JSON request body for flagging a review.
type FlagRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// --- Handlers ---

// SubmitReview handles POST /api/v1/stores/{storeId}/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeId")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.Submit(r.Context(), &service.SubmitReviewInput{
		StoreID: storeID,
		UserID:  middleware.UserIDFromContext(r.Context()),
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
		Images:  req.Images,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// ListReviews handles GET /api/v1/stores/{storeId}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeId")
	params := pagination.FromRequest(r)

	// Admins may inspect the full set including pending and flagged reviews.
	approvedOnly := middleware.RoleFromContext(r.Context()) != domain.RoleAdmin

	result, err := h.service.ListByStore(r.Context(), storeID, approvedOnly, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"data":        result.Reviews,
		"summary":     result.Summary,
		"total_count": result.TotalCount,
		"page":        result.Page,
		"per_page":    result.PerPage,
		"total_pages": result.TotalPages,
	})
}

// EditReview handles PUT /api/v1/reviews/{id}
func (h *ReviewHandler) EditReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req EditReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.Edit(r.Context(), id, middleware.UserIDFromContext(r.Context()), &service.EditReviewInput{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
		Images:  req.Images,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// DeleteReview handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Remove(r.Context(), id, actorFromRequest(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReplyToReview handles POST /api/v1/reviews/{id}/reply
func (h *ReviewHandler) ReplyToReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.Reply(r.Context(), id, actorFromRequest(r), req.Text)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// VoteReview handles POST /api/v1/reviews/{id}/vote
func (h *ReviewHandler) VoteReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	votes, err := h.service.Vote(r.Context(), id, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int{"helpful_votes": votes}})
}

// FlagReview handles POST /api/v1/reviews/{id}/flag
func (h *ReviewHandler) FlagReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req FlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.Flag(r.Context(), id, actorFromRequest(r), domain.FlagReason(req.Reason))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}
