package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storescout/storescout/internal/domain"
	"github.com/storescout/storescout/internal/event"
	"github.com/storescout/storescout/internal/repository"
)

// RatingService keeps a store's derived aggregate fields consistent with its
// approved reviews. Recompute is idempotent: it derives the aggregates from
// the review set alone, never from the previous aggregate values, so running
// it twice is harmless and running it after a missed trigger repairs the
// store.
type RatingService struct {
	stores   repository.StoreRepository
	reviews  repository.ReviewRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(stores repository.StoreRepository, reviews repository.ReviewRepository, producer *event.Producer, logger *slog.Logger) *RatingService {
	return &RatingService{
		stores:   stores,
		reviews:  reviews,
		producer: producer,
		logger:   logger,
	}
}

// Recompute recalculates a store's average rating and review count from its
// approved reviews and publishes store.rating_updated.
func (s *RatingService) Recompute(ctx context.Context, storeID string) (*domain.RatingSummary, error) {
	summary, err := s.stores.RecomputeRating(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("recompute rating: %w", err)
	}

	if err := s.producer.PublishStoreRatingUpdated(ctx, storeID, *summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish store.rating_updated event",
			slog.String("store_id", storeID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "store rating recomputed",
		slog.String("store_id", storeID),
		slog.Float64("average_rating", summary.AverageRating),
		slog.Int("total_reviews", summary.TotalReviews),
	)

	return summary, nil
}

// Reconcile compares the aggregates currently stored on the store row against
// a fresh recompute and reports whether they had drifted apart. The recompute
// itself repairs any drift, so the store is consistent when this returns.
func (s *RatingService) Reconcile(ctx context.Context, storeID string) (*domain.ReconcileResult, error) {
	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("get store for reconcile: %w", err)
	}

	before := domain.RatingSummary{
		AverageRating: store.AverageRating,
		TotalReviews:  store.TotalReviews,
	}

	after, err := s.Recompute(ctx, storeID)
	if err != nil {
		return nil, err
	}

	result := &domain.ReconcileResult{
		Drifted: !before.Equal(*after),
		Before:  before,
		After:   *after,
	}

	if result.Drifted {
		s.logger.WarnContext(ctx, "store rating aggregates had drifted",
			slog.String("store_id", storeID),
			slog.Float64("stored_average", before.AverageRating),
			slog.Int("stored_total", before.TotalReviews),
			slog.Float64("actual_average", after.AverageRating),
			slog.Int("actual_total", after.TotalReviews),
		)
	}

	return result, nil
}
