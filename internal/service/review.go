package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storescout/storescout/internal/domain"
	"github.com/storescout/storescout/internal/event"
	"github.com/storescout/storescout/internal/repository"
	apperrors "github.com/storescout/storescout/pkg/errors"
)

// PurchaseVerifier answers whether a user has a completed order with a store.
// Verification is best-effort: callers treat any error as "not verified" so a
// downstream outage never blocks review submission.
type PurchaseVerifier interface {
	HasPurchased(ctx context.Context, userID, storeID string) (bool, error)
}

// SubmitReviewInput holds the parameters for submitting a review.
type SubmitReviewInput struct {
	StoreID string
	UserID  string
	Rating  int
	Title   string
	Comment string
	Images  []string
}

// EditReviewInput holds the parameters for editing a review. Nil fields are
// left unchanged.
type EditReviewInput struct {
	Rating  *int
	Title   *string
	Comment *string
	Images  []string
}

// ReviewListResult contains a page of reviews and the store's aggregate summary.
type ReviewListResult struct {
	Reviews    []domain.Review      `json:"reviews"`
	Summary    domain.RatingSummary `json:"summary"`
	TotalCount int                  `json:"total_count"`
	Page       int                  `json:"page"`
	PerPage    int                  `json:"per_page"`
	TotalPages int                  `json:"total_pages"`
}

// ReviewService implements the review lifecycle: submission, editing,
// removal, owner replies, helpful votes and moderation. Every mutation that
// changes the approved set triggers an aggregate recompute on the store.
type ReviewService struct {
	reviews     repository.ReviewRepository
	stores      repository.StoreRepository
	rating      *RatingService
	producer    *event.Producer
	verifier    PurchaseVerifier
	autoApprove bool
	logger      *slog.Logger
}

// NewReviewService creates a new review service. When autoApprove is set,
// submitted reviews are approved immediately; otherwise they start pending
// and only count toward the store's rating after an admin approves them.
func NewReviewService(
	reviews repository.ReviewRepository,
	stores repository.StoreRepository,
	rating *RatingService,
	producer *event.Producer,
	verifier PurchaseVerifier,
	autoApprove bool,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:     reviews,
		stores:      stores,
		rating:      rating,
		producer:    producer,
		verifier:    verifier,
		autoApprove: autoApprove,
		logger:      logger,
	}
}

// Submit creates a new review for a store. A user may review a store at most
// once; the pre-check keeps the common path friendly and the unique index in
// the reviews table closes the race between concurrent submissions.
func (s *ReviewService) Submit(ctx context.Context, input *SubmitReviewInput) (*domain.Review, error) {
	if err := validateReviewContent(input.Rating, input.Title, input.Comment, input.Images); err != nil {
		return nil, err
	}

	if _, err := s.stores.GetByID(ctx, input.StoreID); err != nil {
		return nil, fmt.Errorf("get store for review: %w", err)
	}

	existing, err := s.reviews.FindByUserAndStore(ctx, input.UserID, input.StoreID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyExists("review", "store_id", input.StoreID)
	}

	verified := false
	if s.verifier != nil {
		verified, err = s.verifier.HasPurchased(ctx, input.UserID, input.StoreID)
		if err != nil {
			s.logger.WarnContext(ctx, "purchase verification failed, treating as unverified",
				slog.String("user_id", input.UserID),
				slog.String("store_id", input.StoreID),
				slog.String("error", err.Error()),
			)
			verified = false
		}
	}

	status := domain.StatusPending
	if s.autoApprove {
		status = domain.StatusApproved
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:                 uuid.New().String(),
		StoreID:            input.StoreID,
		UserID:             input.UserID,
		Rating:             input.Rating,
		Title:              strings.TrimSpace(input.Title),
		Comment:            strings.TrimSpace(input.Comment),
		Images:             input.Images,
		IsVerifiedPurchase: verified,
		Status:             status,
		IsApproved:         status == domain.StatusApproved,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if review.IsApproved {
		if _, err := s.rating.Recompute(ctx, review.StoreID); err != nil {
			return nil, fmt.Errorf("recompute after submit: %w", err)
		}
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("store_id", review.StoreID),
		slog.String("user_id", review.UserID),
		slog.Int("rating", review.Rating),
		slog.String("status", string(review.Status)),
	)

	return review, nil
}

// Edit modifies an existing review. Only the review's author may edit it.
// The store aggregate is recomputed when the rating changed on an approved
// review; editing text alone leaves the aggregate untouched.
func (s *ReviewService) Edit(ctx context.Context, reviewID, actorID string, input *EditReviewInput) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review for edit: %w", err)
	}

	if review.UserID != actorID {
		return nil, apperrors.Forbidden("only the review author can edit it")
	}

	ratingChanged := false
	if input.Rating != nil && *input.Rating != review.Rating {
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, apperrors.InvalidInput("rating must be between 1 and 5")
		}
		review.Rating = *input.Rating
		ratingChanged = true
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if len(title) > domain.MaxTitleLength {
			return nil, apperrors.InvalidInput(fmt.Sprintf("title must be at most %d characters", domain.MaxTitleLength))
		}
		review.Title = title
	}

	if input.Comment != nil {
		comment := strings.TrimSpace(*input.Comment)
		if len(comment) > domain.MaxCommentLength {
			return nil, apperrors.InvalidInput(fmt.Sprintf("comment must be at most %d characters", domain.MaxCommentLength))
		}
		review.Comment = comment
	}

	if input.Images != nil {
		if len(input.Images) > domain.MaxImages {
			return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d images are allowed", domain.MaxImages))
		}
		review.Images = input.Images
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	if ratingChanged && review.IsApproved {
		if _, err := s.rating.Recompute(ctx, review.StoreID); err != nil {
			return nil, fmt.Errorf("recompute after edit: %w", err)
		}
	}

	if err := s.producer.PublishReviewUpdated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.updated event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review edited",
		slog.String("review_id", review.ID),
		slog.Bool("rating_changed", ratingChanged),
	)

	return review, nil
}

// Remove deletes a review. The author or an admin may remove it. The store
// ID is captured before deletion so the aggregate can still be recomputed.
func (s *ReviewService) Remove(ctx context.Context, reviewID string, actor domain.Actor) error {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("get review for delete: %w", err)
	}

	if review.UserID != actor.ID && !actor.IsAdmin() {
		return apperrors.Forbidden("only the review author or an admin can delete it")
	}

	storeID := review.StoreID
	wasApproved := review.IsApproved

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if wasApproved {
		if _, err := s.rating.Recompute(ctx, storeID); err != nil {
			return fmt.Errorf("recompute after delete: %w", err)
		}
	}

	if err := s.producer.PublishReviewDeleted(ctx, reviewID, storeID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", reviewID),
		slog.String("store_id", storeID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

// Reply records the store owner's response to a review. Only the owner of
// the reviewed store or an admin may reply; replying again overwrites the
// previous reply.
func (s *ReviewService) Reply(ctx context.Context, reviewID string, actor domain.Actor, text string) (*domain.Review, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.InvalidInput("reply text is required")
	}
	if len(text) > domain.MaxReplyLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("reply must be at most %d characters", domain.MaxReplyLength))
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review for reply: %w", err)
	}

	if !actor.IsAdmin() {
		store, err := s.stores.GetByID(ctx, review.StoreID)
		if err != nil {
			return nil, fmt.Errorf("get store for reply: %w", err)
		}
		if store.OwnerID != actor.ID {
			return nil, apperrors.Forbidden("only the store owner or an admin can reply to a review")
		}
	}

	review.Reply = &domain.Reply{
		Text:      text,
		AuthorID:  actor.ID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("save reply: %w", err)
	}

	s.logger.InfoContext(ctx, "review reply saved",
		slog.String("review_id", review.ID),
		slog.String("author_id", actor.ID),
	)

	return review, nil
}

// Vote marks a review as helpful and returns the new vote count. Users
// cannot vote on their own reviews. Repeat votes from the same user are
// accepted; the counter tracks raw helpfulness signals, not distinct voters.
func (s *ReviewService) Vote(ctx context.Context, reviewID, actorID string) (int, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return 0, fmt.Errorf("get review for vote: %w", err)
	}

	if review.UserID == actorID {
		return 0, apperrors.SelfVote()
	}

	votes, err := s.reviews.IncrementHelpfulVotes(ctx, reviewID)
	if err != nil {
		return 0, fmt.Errorf("increment helpful votes: %w", err)
	}

	return votes, nil
}

// Flag reports a review for moderation. Any authenticated user may flag;
// a valid reason is required.
func (s *ReviewService) Flag(ctx context.Context, reviewID string, actor domain.Actor, reason domain.FlagReason) (*domain.Review, error) {
	if !domain.IsValidFlagReason(reason) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid flag reason %q, must be one of: %s", reason, strings.Join(domain.ValidFlagReasonNames(), ", ")))
	}

	return s.moderate(ctx, reviewID, actor, domain.EventFlag, reason)
}

// Unflag dismisses a flag and restores the review to approved. Admin only.
func (s *ReviewService) Unflag(ctx context.Context, reviewID string, actor domain.Actor) (*domain.Review, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can unflag reviews")
	}

	return s.moderate(ctx, reviewID, actor, domain.EventUnflag, "")
}

// Approve makes a review publicly visible and counts it toward the store's
// rating. Admin only.
func (s *ReviewService) Approve(ctx context.Context, reviewID string, actor domain.Actor) (*domain.Review, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can approve reviews")
	}

	return s.moderate(ctx, reviewID, actor, domain.EventApprove, "")
}

// Reject permanently removes a review from public view. Admin only.
func (s *ReviewService) Reject(ctx context.Context, reviewID string, actor domain.Actor) (*domain.Review, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can reject reviews")
	}

	return s.moderate(ctx, reviewID, actor, domain.EventReject, "")
}

// moderate applies a moderation event to a review, persists the transition,
// and recomputes the store aggregate when the review entered or left the
// approved set.
func (s *ReviewService) moderate(ctx context.Context, reviewID string, actor domain.Actor, modEvent domain.ModerationEvent, reason domain.FlagReason) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review for moderation: %w", err)
	}

	approvedChanged, err := review.ApplyModeration(modEvent, reason)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			appErr := apperrors.Conflict(err.Error())
			appErr.Err = err
			return nil, appErr
		}
		return nil, err
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("save moderated review: %w", err)
	}

	if approvedChanged {
		if _, err := s.rating.Recompute(ctx, review.StoreID); err != nil {
			return nil, fmt.Errorf("recompute after moderation: %w", err)
		}
	}

	if err := s.producer.PublishReviewModerated(ctx, review, modEvent, actor.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.moderated event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review moderated",
		slog.String("review_id", review.ID),
		slog.String("event", string(modEvent)),
		slog.String("status", string(review.Status)),
		slog.String("actor_id", actor.ID),
	)

	return review, nil
}

// Get retrieves a single review by ID.
func (s *ReviewService) Get(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review by id: %w", err)
	}
	return review, nil
}

// ListByStore returns a page of a store's reviews together with its current
// aggregate summary. Non-admin callers only see approved reviews.
func (s *ReviewService) ListByStore(ctx context.Context, storeID string, approvedOnly bool, page, perPage int) (*ReviewListResult, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("get store for review listing: %w", err)
	}

	reviews, total, err := s.reviews.ListByStore(ctx, storeID, approvedOnly, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	totalPages := total / perPage
	if total%perPage > 0 {
		totalPages++
	}

	return &ReviewListResult{
		Reviews: reviews,
		Summary: domain.RatingSummary{
			AverageRating: store.AverageRating,
			TotalReviews:  store.TotalReviews,
		},
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// validateReviewContent checks the shared content constraints for a new review.
func validateReviewContent(rating int, title, comment string, images []string) error {
	if rating < 1 || rating > 5 {
		return apperrors.InvalidInput("rating must be between 1 and 5")
	}
	if len(strings.TrimSpace(title)) > domain.MaxTitleLength {
		return apperrors.InvalidInput(fmt.Sprintf("title must be at most %d characters", domain.MaxTitleLength))
	}
	if len(strings.TrimSpace(comment)) > domain.MaxCommentLength {
		return apperrors.InvalidInput(fmt.Sprintf("comment must be at most %d characters", domain.MaxCommentLength))
	}
	if len(images) > domain.MaxImages {
		return apperrors.InvalidInput(fmt.Sprintf("at most %d images are allowed", domain.MaxImages))
	}
	return nil
}
