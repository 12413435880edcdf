package menu

import (
	"errors"
	"testing"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name        string
		ratings     RatingCounters
		wantTotal   int64
		wantAverage float64
		wantPercent map[int]float64
	}{
		{
			name:        "no reviews",
			wantPercent: map[int]float64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		},
		{
			name:        "fives and a four",
			ratings:     RatingCounters{0, 0, 0, 1, 3},
			wantTotal:   4,
			wantAverage: 4.8,
			wantPercent: map[int]float64{1: 0, 2: 0, 3: 0, 4: 25, 5: 75},
		},
		{
			name:        "thirds round to two decimals",
			ratings:     RatingCounters{1, 1, 1, 0, 0},
			wantTotal:   3,
			wantAverage: 2,
			wantPercent: map[int]float64{1: 33.33, 2: 33.33, 3: 33.33, 4: 0, 5: 0},
		},
		{
			name:        "average rounds to one decimal",
			ratings:     RatingCounters{0, 0, 2, 1, 0},
			wantTotal:   3,
			wantAverage: 3.3,
			wantPercent: map[int]float64{1: 0, 2: 0, 3: 66.67, 4: 33.33, 5: 0},
		},
		{
			name:        "1.05 is stored just above the tie",
			ratings:     RatingCounters{19, 1, 0, 0, 0},
			wantTotal:   20,
			wantAverage: 1.1,
			wantPercent: map[int]float64{1: 95, 2: 5, 3: 0, 4: 0, 5: 0},
		},
		{
			name:        "4.35 is stored just below the tie",
			ratings:     RatingCounters{0, 0, 0, 13, 7},
			wantTotal:   20,
			wantAverage: 4.3,
			wantPercent: map[int]float64{1: 0, 2: 0, 3: 0, 4: 65, 5: 35},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.ratings)
			assert.Equal(t, tt.wantTotal, got.TotalReviews)
			assert.InDelta(t, tt.wantAverage, got.AverageRating, 1e-9)
			require.Len(t, got.StarPercentages, MaxStars)
			for star, want := range tt.wantPercent {
				assert.InDelta(t, want, got.StarPercentages[star], 1e-9, "star %d", star)
			}
		})
	}
}

func TestRatingCountersCountOutOfRange(t *testing.T) {
	r := RatingCounters{1, 2, 3, 4, 5}
	assert.Equal(t, int64(0), r.Count(0))
	assert.Equal(t, int64(0), r.Count(6))
	assert.Equal(t, int64(5), r.Count(5))
}

func TestPrefix(t *testing.T) {
	prefix, err := Prefix([]string{"coffee", "snack"})
	require.NoError(t, err)
	assert.Equal(t, "CS", prefix)

	prefix, err = Prefix([]string{"non-coffee"})
	require.NoError(t, err)
	assert.Equal(t, "N", prefix)

	_, err = Prefix(nil)
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = Prefix([]string{"coffee", ""})
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestNextMenuID(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		existing []string
		want     string
	}{
		{name: "empty catalog", prefix: "CS", want: "CS01"},
		{name: "other prefixes ignored", prefix: "CS", existing: []string{"CS01", "CS02", "CF05"}, want: "CS03"},
		{name: "longer prefix not matched", prefix: "C", existing: []string{"CS07", "C03"}, want: "C04"},
		{name: "gaps use max", prefix: "S", existing: []string{"S01", "S09", "S04"}, want: "S10"},
		{name: "width is a minimum", prefix: "C", existing: []string{"C99"}, want: "C100"},
		{name: "non numeric suffix ignored", prefix: "C", existing: []string{"C1a", "Cx"}, want: "C01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextMenuID(tt.prefix, tt.existing))
		})
	}
}

func TestItemInputValidate(t *testing.T) {
	assert.NoError(t, ItemInput{Name: "Latte", PriceMinor: 0, Categories: []string{"coffee"}}.Validate(true))
	assert.ErrorIs(t, ItemInput{PriceMinor: 1}.Validate(false), errs.ErrValidation)
	assert.ErrorIs(t, ItemInput{Name: "Latte", PriceMinor: -1}.Validate(false), errs.ErrValidation)
	assert.ErrorIs(t, ItemInput{Name: "Latte"}.Validate(true), errs.ErrValidation)
}
