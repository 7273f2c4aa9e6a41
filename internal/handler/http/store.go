package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storescout/storescout/internal/domain"
	"github.com/storescout/storescout/internal/repository"
	"github.com/storescout/storescout/internal/service"
	"github.com/storescout/storescout/pkg/httputil"
	"github.com/storescout/storescout/pkg/middleware"
	"github.com/storescout/storescout/pkg/validator"
)

// StoreHandler handles HTTP requests for store endpoints.
type StoreHandler struct {
	service *service.StoreService
	logger  *slog.Logger
}

// NewStoreHandler creates a new store HTTP handler.
func NewStoreHandler(svc *service.StoreService, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateStoreRequest is the JSON request body for registering a store.
type CreateStoreRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=100"`
	City        string `json:"city" validate:"max=100"`
	Address     string `json:"address" validate:"max=500"`
}

// UpdateStoreRequest is the JSON request body for updating a store. Omitted
// fields are left unchanged.
type UpdateStoreRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Slug        *string `json:"slug" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	City        *string `json:"city" validate:"omitempty,max=100"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// --- Handlers ---

// CreateStore handles POST /api/v1/stores
func (h *StoreHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateStoreRequest
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

	store, err := h.service.CreateStore(r.Context(), &service.CreateStoreInput{
		OwnerID:     middleware.UserIDFromContext(r.Context()),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		City:        req.City,
		Address:     req.Address,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: store})
}

// ListStores handles GET /api/v1/stores
func (h *StoreHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	filter := repository.StoreFilter{
		Page:    1,
		PerPage: 20,
	}

	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "page must be a valid positive integer"},
			})
			return
		}
		filter.Page = page
	}
	if v := q.Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > 100 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "per_page must be a valid integer between 1 and 100"},
			})
			return
		}
		filter.PerPage = perPage
	}
	if v := q.Get("category"); v != "" {
		filter.Category = &v
	}
	if v := q.Get("city"); v != "" {
		filter.City = &v
	}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}

	stores, total, err := h.service.ListStores(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(stores, total, filter.Page, filter.PerPage))
}

// GetStore handles GET /api/v1/stores/{idOrSlug}
func (h *StoreHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "idOrSlug")
	if idOrSlug == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "store id or slug is required"},
		})
		return
	}

	var (
		store *domain.Store
		err   error
	)

	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		store, err = h.service.GetStore(r.Context(), idOrSlug)
	} else {
		store, err = h.service.GetStoreBySlug(r.Context(), idOrSlug)
	}

	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: store})
}

// UpdateStore handles PUT /api/v1/stores/{id}
func (h *StoreHandler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateStoreRequest
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

	store, err := h.service.UpdateStore(r.Context(), id, actorFromRequest(r), &service.UpdateStoreInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Category:    req.Category,
		City:        req.City,
		Address:     req.Address,
		IsActive:    req.IsActive,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: store})
}

// DeleteStore handles DELETE /api/v1/stores/{id}
func (h *StoreHandler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteStore(r.Context(), id, actorFromRequest(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
