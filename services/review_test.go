package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeRatingFirstRating(t *testing.T) {
	assert.Equal(t, 5.0, RecomputeRating(0, 0, 5))
	assert.Equal(t, 1.0, RecomputeRating(0, 0, 1))
}

func TestRecomputeRatingRunningAverage(t *testing.T) {
	// 5, then 3, then 4 averages to 4.0
	avg := RecomputeRating(0, 0, 5)
	avg = RecomputeRating(avg, 1, 3)
	avg = RecomputeRating(avg, 2, 4)
	assert.Equal(t, 4.0, avg)

	// order does not matter
	avg = RecomputeRating(0, 0, 4)
	avg = RecomputeRating(avg, 1, 5)
	avg = RecomputeRating(avg, 2, 3)
	assert.Equal(t, 4.0, avg)
}

func TestRecomputeRatingRounding(t *testing.T) {
	// (5 + 4) / 2 = 4.5
	assert.Equal(t, 4.5, RecomputeRating(5, 1, 4))

	// (4*3 + 5) / 4 = 4.25
	assert.Equal(t, 4.25, RecomputeRating(4, 3, 5))

	// (5 + 5 + 4) / 3 = 4.666... rounds to 4.67
	avg := RecomputeRating(5, 1, 5)
	assert.Equal(t, 4.67, RecomputeRating(avg, 2, 4))
}

func TestRecomputeRatingLargeHistory(t *testing.T) {
	// a single rating barely moves an established average
	avg := RecomputeRating(4.8, 99, 1)
	assert.Equal(t, 4.76, avg)
}
