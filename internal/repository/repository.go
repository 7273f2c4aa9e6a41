package repository

import (
	"context"

	"github.com/storescout/storescout/internal/domain"
)

// StoreFilter defines filter criteria for listing stores.
type StoreFilter struct {
	Category *string
	City     *string
	Search   *string
	IsActive *bool
	Page     int
	PerPage  int
}

// StoreRepository defines the interface for store persistence operations.
type StoreRepository interface {
	// Create inserts a new store.
	Create(ctx context.Context, store *domain.Store) error

	// GetByID retrieves a store by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Store, error)

	// GetBySlug retrieves a store by its URL-friendly slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Store, error)

	// List returns stores matching the given filter along with the total count.
	List(ctx context.Context, filter StoreFilter) ([]domain.Store, int, error)

	// Update modifies an existing store. Aggregate rating fields are not
	// written here; they change only through RecomputeRating.
	Update(ctx context.Context, store *domain.Store) error

	// Delete removes a store by its identifier.
	Delete(ctx context.Context, id string) error

	// SlugExists reports whether any store already uses the given slug.
	SlugExists(ctx context.Context, slug string) (bool, error)

	// RecomputeRating recalculates the store's average_rating and
	// total_reviews from its approved reviews in a single atomic statement
	// and returns the new summary.
	RecomputeRating(ctx context.Context, storeID string) (*domain.RatingSummary, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review. A unique-constraint violation on
	// (user_id, store_id) surfaces as AlreadyExists.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// FindByUserAndStore retrieves the review a user left on a store,
	// or ErrNotFound when none exists.
	FindByUserAndStore(ctx context.Context, userID, storeID string) (*domain.Review, error)

	// Update persists a modified review using the version column as an
	// optimistic lock: a stale version yields a Conflict error.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review by its identifier.
	Delete(ctx context.Context, id string) error

	// ListByStore returns paginated reviews for a store along with the
	// total count. When approvedOnly is set, only approved reviews are
	// returned.
	ListByStore(ctx context.Context, storeID string, approvedOnly bool, page, perPage int) ([]domain.Review, int, error)

	// IncrementHelpfulVotes atomically bumps the helpful-vote counter and
	// returns the new value.
	IncrementHelpfulVotes(ctx context.Context, id string) (int, error)
}
