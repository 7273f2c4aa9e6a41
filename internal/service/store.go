package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storescout/storescout/internal/domain"
	"github.com/storescout/storescout/internal/event"
	"github.com/storescout/storescout/internal/repository"
	apperrors "github.com/storescout/storescout/pkg/errors"
	"github.com/storescout/storescout/pkg/slug"
)

// StoreService implements the business logic for store operations. The
// derived rating fields on a store are read-only here; they change only
// through the rating service.
type StoreService struct {
	repo     repository.StoreRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewStoreService creates a new store service.
func NewStoreService(repo repository.StoreRepository, producer *event.Producer, logger *slog.Logger) *StoreService {
	return &StoreService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// CreateStoreInput holds the parameters for registering a store.
type CreateStoreInput struct {
	OwnerID     string
	Name        string
	Description string
	Category    string
	City        string
	Address     string
}

// UpdateStoreInput holds the parameters for updating a store. Nil fields are
// left unchanged. Setting Slug overrides the generated one; setting Name
// without Slug regenerates the slug from the new name.
type UpdateStoreInput struct {
	Name        *string
	Slug        *string
	Description *string
	Category    *string
	City        *string
	Address     *string
	IsActive    *bool
}

// CreateStore registers a new store. The slug is derived from the name and
// made unique by probing numeric suffixes against existing stores.
func (s *StoreService) CreateStore(ctx context.Context, input *CreateStoreInput) (*domain.Store, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.InvalidInput("store name is required")
	}
	if input.OwnerID == "" {
		return nil, apperrors.InvalidInput("owner_id is required")
	}

	storeSlug, err := slug.Unique(input.Name, func(candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, candidate)
	})
	if err != nil {
		return nil, fmt.Errorf("generate store slug: %w", err)
	}

	now := time.Now().UTC()
	store := &domain.Store{
		ID:          uuid.New().String(),
		OwnerID:     input.OwnerID,
		Name:        strings.TrimSpace(input.Name),
		Slug:        storeSlug,
		Description: input.Description,
		Category:    input.Category,
		City:        input.City,
		Address:     input.Address,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, store); err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	if err := s.producer.PublishStoreCreated(ctx, store); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish store.created event",
			slog.String("store_id", store.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "store created",
		slog.String("store_id", store.ID),
		slog.String("slug", store.Slug),
		slog.String("owner_id", store.OwnerID),
	)

	return store, nil
}

// GetStore retrieves a store by its ID.
func (s *StoreService) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	store, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get store by id: %w", err)
	}
	return store, nil
}

// GetStoreBySlug retrieves a store by its slug.
func (s *StoreService) GetStoreBySlug(ctx context.Context, slugValue string) (*domain.Store, error) {
	store, err := s.repo.GetBySlug(ctx, slugValue)
	if err != nil {
		return nil, fmt.Errorf("get store by slug: %w", err)
	}
	return store, nil
}

// ListStores returns stores matching the filter with the total count.
func (s *StoreService) ListStores(ctx context.Context, filter repository.StoreFilter) ([]domain.Store, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	stores, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list stores: %w", err)
	}

	return stores, total, nil
}

// UpdateStore applies a partial update to a store. Only the owner or an
// admin may update it.
func (s *StoreService) UpdateStore(ctx context.Context, id string, actor domain.Actor, input *UpdateStoreInput) (*domain.Store, error) {
	store, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get store for update: %w", err)
	}

	if store.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("only the store owner or an admin can update it")
	}

	nameChanged := false
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("store name must not be empty")
		}
		nameChanged = name != store.Name
		store.Name = name
	}

	switch {
	case input.Slug != nil:
		if !slug.IsValid(*input.Slug) {
			return nil, apperrors.InvalidInput("slug must contain only lowercase letters, digits and hyphens")
		}
		if *input.Slug != store.Slug {
			taken, err := s.repo.SlugExists(ctx, *input.Slug)
			if err != nil {
				return nil, fmt.Errorf("check slug availability: %w", err)
			}
			if taken {
				return nil, apperrors.AlreadyExists("store", "slug", *input.Slug)
			}
			store.Slug = *input.Slug
		}
	case nameChanged:
		newSlug, err := slug.Unique(store.Name, func(candidate string) (bool, error) {
			if candidate == store.Slug {
				return false, nil
			}
			return s.repo.SlugExists(ctx, candidate)
		})
		if err != nil {
			return nil, fmt.Errorf("regenerate store slug: %w", err)
		}
		store.Slug = newSlug
	}

	if input.Description != nil {
		store.Description = *input.Description
	}
	if input.Category != nil {
		store.Category = *input.Category
	}
	if input.City != nil {
		store.City = *input.City
	}
	if input.Address != nil {
		store.Address = *input.Address
	}
	if input.IsActive != nil {
		store.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, fmt.Errorf("update store: %w", err)
	}

	s.logger.InfoContext(ctx, "store updated",
		slog.String("store_id", store.ID),
		slog.String("slug", store.Slug),
	)

	return store, nil
}

// DeleteStore removes a store. Only the owner or an admin may delete it.
func (s *StoreService) DeleteStore(ctx context.Context, id string, actor domain.Actor) error {
	store, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get store for delete: %w", err)
	}

	if store.OwnerID != actor.ID && !actor.IsAdmin() {
		return apperrors.Forbidden("only the store owner or an admin can delete it")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete store: %w", err)
	}

	if err := s.producer.PublishStoreDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish store.deleted event",
			slog.String("store_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "store deleted",
		slog.String("store_id", id),
		slog.String("actor_id", actor.ID),
	)

	return nil
}
