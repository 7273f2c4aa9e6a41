package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storescout/storescout/internal/domain"
	pkgkafka "github.com/storescout/storescout/pkg/kafka"
)

// Kafka topic constants for review and store domain events.
const (
	TopicReviewCreated   = "storescout.review.created"
	TopicReviewUpdated   = "storescout.review.updated"
	TopicReviewDeleted   = "storescout.review.deleted"
	TopicReviewModerated = "storescout.review.moderated"

	TopicStoreCreated       = "storescout.store.created"
	TopicStoreDeleted       = "storescout.store.deleted"
	TopicStoreRatingUpdated = "storescout.store.rating_updated"
)

// Aggregate type constants.
const (
	AggregateTypeReview = "review"
	AggregateTypeStore  = "store"
)

// Source identifier for events originating from this service.
const SourceReviewService = "review-service"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID                 string `json:"id"`
	StoreID            string `json:"store_id"`
	UserID             string `json:"user_id"`
	Rating             int    `json:"rating"`
	Status             string `json:"status"`
	IsVerifiedPurchase bool   `json:"is_verified_purchase"`
}

// ReviewUpdatedData is the payload for a review.updated event.
type ReviewUpdatedData struct {
	ID      string `json:"id"`
	StoreID string `json:"store_id"`
	Rating  int    `json:"rating"`
	Status  string `json:"status"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID      string `json:"id"`
	StoreID string `json:"store_id"`
}

// ReviewModeratedData is the payload for a review.moderated event. It drives
// downstream notification fan-out, so it carries the transition alongside the
// review identity.
type ReviewModeratedData struct {
	ID         string `json:"id"`
	StoreID    string `json:"store_id"`
	UserID     string `json:"user_id"`
	Event      string `json:"event"`
	Status     string `json:"status"`
	FlagReason string `json:"flag_reason,omitempty"`
	ActorID    string `json:"actor_id"`
}

// StoreCreatedData is the payload for a store.created event.
type StoreCreatedData struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
}

// StoreDeletedData is the payload for a store.deleted event.
type StoreDeletedData struct {
	ID string `json:"id"`
}

// StoreRatingUpdatedData is the payload for a store.rating_updated event.
type StoreRatingUpdatedData struct {
	StoreID       string  `json:"store_id"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}

// Producer publishes review and store domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ID:                 review.ID,
		StoreID:            review.StoreID,
		UserID:             review.UserID,
		Rating:             review.Rating,
		Status:             string(review.Status),
		IsVerifiedPurchase: review.IsVerifiedPurchase,
	}

	return p.publish(ctx, TopicReviewCreated, review.ID, AggregateTypeReview, data)
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	data := ReviewUpdatedData{
		ID:      review.ID,
		StoreID: review.StoreID,
		Rating:  review.Rating,
		Status:  string(review.Status),
	}

	return p.publish(ctx, TopicReviewUpdated, review.ID, AggregateTypeReview, data)
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, reviewID, storeID string) error {
	data := ReviewDeletedData{ID: reviewID, StoreID: storeID}

	return p.publish(ctx, TopicReviewDeleted, reviewID, AggregateTypeReview, data)
}

// PublishReviewModerated publishes a review.moderated event.
func (p *Producer) PublishReviewModerated(ctx context.Context, review *domain.Review, modEvent domain.ModerationEvent, actorID string) error {
	data := ReviewModeratedData{
		ID:         review.ID,
		StoreID:    review.StoreID,
		UserID:     review.UserID,
		Event:      string(modEvent),
		Status:     string(review.Status),
		FlagReason: string(review.FlagReason),
		ActorID:    actorID,
	}

	return p.publish(ctx, TopicReviewModerated, review.ID, AggregateTypeReview, data)
}

// PublishStoreCreated publishes a store.created event.
func (p *Producer) PublishStoreCreated(ctx context.Context, store *domain.Store) error {
	data := StoreCreatedData{
		ID:      store.ID,
		OwnerID: store.OwnerID,
		Name:    store.Name,
		Slug:    store.Slug,
	}

	return p.publish(ctx, TopicStoreCreated, store.ID, AggregateTypeStore, data)
}

// PublishStoreDeleted publishes a store.deleted event.
func (p *Producer) PublishStoreDeleted(ctx context.Context, storeID string) error {
	data := StoreDeletedData{ID: storeID}

	return p.publish(ctx, TopicStoreDeleted, storeID, AggregateTypeStore, data)
}

// PublishStoreRatingUpdated publishes a store.rating_updated event.
func (p *Producer) PublishStoreRatingUpdated(ctx context.Context, storeID string, summary domain.RatingSummary) error {
	data := StoreRatingUpdatedData{
		StoreID:       storeID,
		AverageRating: summary.AverageRating,
		TotalReviews:  summary.TotalReviews,
	}

	return p.publish(ctx, TopicStoreRatingUpdated, storeID, AggregateTypeStore, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published domain event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
