package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRatingSummary_Empty(t *testing.T) {
	summary := ComputeRatingSummary(nil)

	assert.Equal(t, 0.0, summary.AverageRating)
	assert.Equal(t, 0, summary.TotalReviews)
}

func TestComputeRatingSummary_SingleReview(t *testing.T) {
	summary := ComputeRatingSummary([]int{5})

	assert.Equal(t, 5.0, summary.AverageRating)
	assert.Equal(t, 1, summary.TotalReviews)
}

func TestComputeRatingSummary_TwoDecimalRounding(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"exact mean", []int{5, 3}, 4.0},
		{"repeating third rounds up", []int{5, 5, 4}, 4.67},
		{"repeating third rounds down", []int{4, 4, 5}, 4.33},
		{"half rounds up", []int{1, 1, 1, 1, 1, 1, 1, 2}, 1.13}, // 9/8 = 1.125
		{"one of each", []int{1, 2, 3, 4, 5}, 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := ComputeRatingSummary(tt.ratings)
			assert.InDelta(t, tt.want, summary.AverageRating, 0.0001)
			assert.Equal(t, len(tt.ratings), summary.TotalReviews)
		})
	}
}

func TestComputeRatingSummary_Idempotent(t *testing.T) {
	ratings := []int{5, 4, 4, 2}

	first := ComputeRatingSummary(ratings)
	second := ComputeRatingSummary(ratings)

	assert.Equal(t, first, second)
}

func TestRatingSummaryEqual(t *testing.T) {
	a := RatingSummary{AverageRating: 4.67, TotalReviews: 3}

	assert.True(t, a.Equal(RatingSummary{AverageRating: 4.67, TotalReviews: 3}))
	assert.True(t, a.Equal(RatingSummary{AverageRating: 4.671, TotalReviews: 3}))
	assert.False(t, a.Equal(RatingSummary{AverageRating: 4.67, TotalReviews: 4}))
	assert.False(t, a.Equal(RatingSummary{AverageRating: 4.5, TotalReviews: 3}))
}
