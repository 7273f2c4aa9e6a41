package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/storescout/storescout/internal/domain"
	"github.com/storescout/storescout/pkg/database"
	apperrors "github.com/storescout/storescout/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

const reviewColumns = `id, store_id, user_id, rating, title, comment, images, helpful_votes,
	       reply_text, reply_author_id, reply_created_at,
	       is_verified_purchase, status, is_approved, flag_reason, version, created_at, updated_at`

// Create inserts a new review into the database. The (user_id, store_id)
// unique index is the race-proof backstop behind the service-level duplicate
// check; a violation surfaces as AlreadyExists.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `
		INSERT INTO reviews (id, store_id, user_id, rating, title, comment, images, helpful_votes,
		                     reply_text, reply_author_id, reply_created_at,
		                     is_verified_purchase, status, is_approved, flag_reason, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	replyText, replyAuthorID, replyCreatedAt := replyFields(rv.Reply)

	_, err := r.pool.Exec(ctx, query,
		rv.ID,
		rv.StoreID,
		rv.UserID,
		rv.Rating,
		rv.Title,
		rv.Comment,
		rv.Images,
		rv.HelpfulVotes,
		replyText,
		replyAuthorID,
		replyCreatedAt,
		rv.IsVerifiedPurchase,
		rv.Status,
		rv.IsApproved,
		rv.FlagReason,
		rv.Version,
		rv.CreatedAt,
		rv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "user_id/store_id", rv.UserID+"/"+rv.StoreID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)

	return r.scanReview(ctx, query, id)
}

// FindByUserAndStore retrieves the review a user left on a store.
func (r *ReviewRepository) FindByUserAndStore(ctx context.Context, userID, storeID string) (*domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE user_id = $1 AND store_id = $2`, reviewColumns)

	return r.scanReview(ctx, query, userID, storeID)
}

// Update persists a modified review guarded by the version column. A zero
// row count means either the review vanished (NotFound) or another writer
// bumped the version first (Conflict); the follow-up existence probe tells
// the two apart. On success the in-memory version is advanced to match.
func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) error {
	rv.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE reviews
		SET rating = $1, title = $2, comment = $3, images = $4, helpful_votes = $5,
		    reply_text = $6, reply_author_id = $7, reply_created_at = $8,
		    is_verified_purchase = $9, status = $10, is_approved = $11, flag_reason = $12,
		    version = version + 1, updated_at = $13
		WHERE id = $14 AND version = $15`

	replyText, replyAuthorID, replyCreatedAt := replyFields(rv.Reply)

	ct, err := r.pool.Exec(ctx, query,
		rv.Rating,
		rv.Title,
		rv.Comment,
		rv.Images,
		rv.HelpfulVotes,
		replyText,
		replyAuthorID,
		replyCreatedAt,
		rv.IsVerifiedPurchase,
		rv.Status,
		rv.IsApproved,
		rv.FlagReason,
		rv.UpdatedAt,
		rv.ID,
		rv.Version,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		var exists bool
		if probeErr := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM reviews WHERE id = $1)`, rv.ID).Scan(&exists); probeErr != nil {
			return fmt.Errorf("probe review after stale update: %w", probeErr)
		}
		if !exists {
			return apperrors.NotFound("review", rv.ID)
		}
		return apperrors.Conflict("review was modified concurrently, retry with fresh data")
	}

	rv.Version++

	return nil
}

// Delete removes a review from the database by its ID.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM reviews WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// ListByStore returns paginated reviews for a store with the total count.
func (r *ReviewRepository) ListByStore(ctx context.Context, storeID string, approvedOnly bool, page, perPage int) ([]domain.Review, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	where := "WHERE store_id = $1"
	if approvedOnly {
		where += " AND is_approved"
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       count(*) OVER() AS total_count
		FROM reviews
		%s
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, reviewColumns, where)

	rows, err := r.pool.Query(ctx, query, storeID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		var (
			rv             domain.Review
			replyText      *string
			replyAuthorID  *string
			replyCreatedAt *time.Time
		)

		if err := rows.Scan(
			&rv.ID,
			&rv.StoreID,
			&rv.UserID,
			&rv.Rating,
			&rv.Title,
			&rv.Comment,
			&rv.Images,
			&rv.HelpfulVotes,
			&replyText,
			&replyAuthorID,
			&replyCreatedAt,
			&rv.IsVerifiedPurchase,
			&rv.Status,
			&rv.IsApproved,
			&rv.FlagReason,
			&rv.Version,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}

		rv.Reply = buildReply(replyText, replyAuthorID, replyCreatedAt)
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}

// IncrementHelpfulVotes atomically bumps the helpful-vote counter.
func (r *ReviewRepository) IncrementHelpfulVotes(ctx context.Context, id string) (int, error) {
	query := `
		UPDATE reviews
		SET helpful_votes = helpful_votes + 1, updated_at = now()
		WHERE id = $1
		RETURNING helpful_votes`

	var votes int
	err := r.pool.QueryRow(ctx, query, id).Scan(&votes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFound("review", id)
		}
		return 0, fmt.Errorf("increment helpful votes: %w", err)
	}

	return votes, nil
}

// scanReview is a helper that executes a query expected to return a single review row.
func (r *ReviewRepository) scanReview(ctx context.Context, query string, args ...any) (*domain.Review, error) {
	var (
		rv             domain.Review
		replyText      *string
		replyAuthorID  *string
		replyCreatedAt *time.Time
	)

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&rv.ID,
		&rv.StoreID,
		&rv.UserID,
		&rv.Rating,
		&rv.Title,
		&rv.Comment,
		&rv.Images,
		&rv.HelpfulVotes,
		&replyText,
		&replyAuthorID,
		&replyCreatedAt,
		&rv.IsVerifiedPurchase,
		&rv.Status,
		&rv.IsApproved,
		&rv.FlagReason,
		&rv.Version,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	rv.Reply = buildReply(replyText, replyAuthorID, replyCreatedAt)

	return &rv, nil
}

func replyFields(reply *domain.Reply) (*string, *string, *time.Time) {
	if reply == nil {
		return nil, nil, nil
	}
	return &reply.Text, &reply.AuthorID, &reply.CreatedAt
}

func buildReply(text, authorID *string, createdAt *time.Time) *domain.Reply {
	if text == nil || authorID == nil || createdAt == nil {
		return nil
	}
	return &domain.Reply{Text: *text, AuthorID: *authorID, CreatedAt: *createdAt}
}
