package domain

import (
	"time"
)

// Store represents a registered store that users can discover and review.
//
// AverageRating and TotalReviews are derived from the store's approved
// reviews. They are recomputed by the rating service after every review
// mutation and are never written by any other code path.
type Store struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Category      string    `json:"category,omitempty"`
	City          string    `json:"city,omitempty"`
	Address       string    `json:"address,omitempty"`
	IsActive      bool      `json:"is_active"`
	AverageRating float64   `json:"average_rating"`
	TotalReviews  int       `json:"total_reviews"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RatingSummary contains a store's derived aggregate rating fields.
type RatingSummary struct {
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}

// ComputeRatingSummary computes the aggregate summary from a set of approved
// review ratings: the mean rounded half-up to two decimals, or 0.00 when the
// set is empty. It is the pure reference for the SQL recompute and is used by
// the reconciliation path to detect drift.
func ComputeRatingSummary(ratings []int) RatingSummary {
	if len(ratings) == 0 {
		return RatingSummary{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	// Round half-up to two decimals without drifting through float division:
	// scaled = (100*sum + count/2) / count, then back to a float.
	count := len(ratings)
	scaled := (100*sum + count/2) / count
	return RatingSummary{
		AverageRating: float64(scaled) / 100,
		TotalReviews:  count,
	}
}

// ReconcileResult reports the outcome of a consistency check between a
// store's stored aggregates and a fresh recompute over its approved reviews.
type ReconcileResult struct {
	Drifted bool          `json:"drifted"`
	Before  RatingSummary `json:"before"`
	After   RatingSummary `json:"after"`
}

// Equal reports whether two summaries agree on both derived fields, comparing
// averages at two-decimal precision.
func (s RatingSummary) Equal(other RatingSummary) bool {
	if s.TotalReviews != other.TotalReviews {
		return false
	}
	diff := s.AverageRating - other.AverageRating
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.005
}
