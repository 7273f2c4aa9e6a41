package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storescout/storescout/internal/domain"
	pkgkafka "github.com/storescout/storescout/pkg/kafka"
)

// RatingReconciler repairs a store's derived aggregates against its approved
// review set. Satisfied by service.RatingService.
type RatingReconciler interface {
	Reconcile(ctx context.Context, storeID string) (*domain.ReconcileResult, error)
}

// NewRatingRepairHandler returns a Kafka handler that reconciles a store's
// rating aggregates whenever a moderation event is observed. The synchronous
// recompute inside the moderation path is authoritative; this consumer is a
// self-healing pass that repairs aggregates if that write raced or was lost.
func NewRatingRepairHandler(rating RatingReconciler, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, evt *pkgkafka.Event) error {
		var data ReviewModeratedData
		if err := evt.UnmarshalData(&data); err != nil {
			return fmt.Errorf("unmarshal moderation event %s: %w", evt.EventID, err)
		}
		if data.StoreID == "" {
			logger.Warn("moderation event missing store_id, skipping",
				slog.String("event_id", evt.EventID),
				slog.String("review_id", data.ID),
			)
			return nil
		}

		result, err := rating.Reconcile(ctx, data.StoreID)
		if err != nil {
			return fmt.Errorf("reconcile store %s: %w", data.StoreID, err)
		}
		if result.Drifted {
			logger.Info("rating repair applied",
				slog.String("store_id", data.StoreID),
				slog.Float64("average_rating", result.After.AverageRating),
				slog.Int("total_reviews", result.After.TotalReviews),
			)
		}
		return nil
	}
}
