package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/storescout/storescout/internal/domain"
	"github.com/storescout/storescout/internal/repository"
	"github.com/storescout/storescout/pkg/database"
	apperrors "github.com/storescout/storescout/pkg/errors"
)

// StoreRepository implements repository.StoreRepository using PostgreSQL.
type StoreRepository struct {
	pool database.DBTX
}

// NewStoreRepository creates a new PostgreSQL-backed store repository.
func NewStoreRepository(pool database.DBTX) *StoreRepository {
	return &StoreRepository{pool: pool}
}

// Create inserts a new store into the database.
func (r *StoreRepository) Create(ctx context.Context, s *domain.Store) error {
	query := `
		INSERT INTO stores (id, owner_id, name, slug, description, category, city, address, is_active, average_rating, total_reviews, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.OwnerID,
		s.Name,
		s.Slug,
		s.Description,
		s.Category,
		s.City,
		s.Address,
		s.IsActive,
		s.AverageRating,
		s.TotalReviews,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("store", "slug", s.Slug)
		}
		return fmt.Errorf("insert store: %w", err)
	}

	return nil
}

// GetByID retrieves a store by its ID.
func (r *StoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	query := `
		SELECT id, owner_id, name, slug, description, category, city, address, is_active, average_rating, total_reviews, created_at, updated_at
		FROM stores
		WHERE id = $1`

	return r.scanStore(ctx, query, id)
}

// GetBySlug retrieves a store by its slug.
func (r *StoreRepository) GetBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	query := `
		SELECT id, owner_id, name, slug, description, category, city, address, is_active, average_rating, total_reviews, created_at, updated_at
		FROM stores
		WHERE slug = $1`

	return r.scanStore(ctx, query, slug)
}

// List returns stores matching the given filter with the total count.
func (r *StoreRepository) List(ctx context.Context, filter repository.StoreFilter) ([]domain.Store, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.City != nil {
		conditions = append(conditions, fmt.Sprintf("city = $%d", argIndex))
		args = append(args, *filter.City)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *filter.IsActive)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT id, owner_id, name, slug, description, category, city, address, is_active, average_rating, total_reviews, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM stores
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	var (
		stores     []domain.Store
		totalCount int
	)

	for rows.Next() {
		var s domain.Store

		if err := rows.Scan(
			&s.ID,
			&s.OwnerID,
			&s.Name,
			&s.Slug,
			&s.Description,
			&s.Category,
			&s.City,
			&s.Address,
			&s.IsActive,
			&s.AverageRating,
			&s.TotalReviews,
			&s.CreatedAt,
			&s.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan store row: %w", err)
		}

		stores = append(stores, s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate store rows: %w", err)
	}

	if stores == nil {
		stores = []domain.Store{}
	}

	return stores, totalCount, nil
}

// Update modifies an existing store in the database. The derived rating
// columns are deliberately excluded; RecomputeRating is the only writer.
func (r *StoreRepository) Update(ctx context.Context, s *domain.Store) error {
	s.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE stores
		SET name = $1, slug = $2, description = $3, category = $4, city = $5,
		    address = $6, is_active = $7, updated_at = $8
		WHERE id = $9`

	ct, err := r.pool.Exec(ctx, query,
		s.Name,
		s.Slug,
		s.Description,
		s.Category,
		s.City,
		s.Address,
		s.IsActive,
		s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("store", "slug", s.Slug)
		}
		return fmt.Errorf("update store: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("store", s.ID)
	}

	return nil
}

// Delete removes a store from the database by its ID.
func (r *StoreRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM stores WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("store", id)
	}

	return nil
}

// SlugExists reports whether a store with the given slug already exists.
func (r *StoreRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM stores WHERE slug = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slug exists: %w", err)
	}

	return exists, nil
}

// RecomputeRating recalculates the store's aggregate rating fields from its
// approved reviews. The read of the review set and the write of both derived
// columns happen in one statement, so concurrent recomputes cannot interleave
// a stale aggregate between them.
func (r *StoreRepository) RecomputeRating(ctx context.Context, storeID string) (*domain.RatingSummary, error) {
	query := `
		UPDATE stores
		SET average_rating = COALESCE((
				SELECT ROUND(AVG(rating)::numeric, 2)
				FROM reviews
				WHERE store_id = $1 AND is_approved
			), 0),
		    total_reviews = (
				SELECT COUNT(*)
				FROM reviews
				WHERE store_id = $1 AND is_approved
			),
		    updated_at = now()
		WHERE id = $1
		RETURNING average_rating, total_reviews`

	var summary domain.RatingSummary

	err := r.pool.QueryRow(ctx, query, storeID).Scan(
		&summary.AverageRating,
		&summary.TotalReviews,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("store", storeID)
		}
		return nil, fmt.Errorf("recompute store rating: %w", err)
	}

	return &summary, nil
}

// scanStore is a helper that executes a query expected to return a single store row.
func (r *StoreRepository) scanStore(ctx context.Context, query string, args ...any) (*domain.Store, error) {
	var s domain.Store

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.ID,
		&s.OwnerID,
		&s.Name,
		&s.Slug,
		&s.Description,
		&s.Category,
		&s.City,
		&s.Address,
		&s.IsActive,
		&s.AverageRating,
		&s.TotalReviews,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan store: %w", err)
	}

	return &s, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
