package menu

import "strconv"

// RatingSummary is the user-visible aggregate of an item's rating counters.
type RatingSummary struct {
	TotalReviews    int64           `json:"totalReviews"`
	AverageRating   float64         `json:"averageRating"`
	StarPercentages map[int]float64 `json:"starPercentages"`
}

// Aggregate derives the average rating (one decimal) and the share of each
// star bucket (two decimals) from the counters. With no reviews everything is 0.
func Aggregate(r RatingCounters) RatingSummary {
	summary := RatingSummary{
		StarPercentages: make(map[int]float64, MaxStars),
	}

	var weighted int64
	for star := 1; star <= MaxStars; star++ {
		summary.TotalReviews += r.Count(star)
		weighted += int64(star) * r.Count(star)
		summary.StarPercentages[star] = 0
	}

	if summary.TotalReviews == 0 {
		return summary
	}

	total := float64(summary.TotalReviews)
	summary.AverageRating = roundTo(float64(weighted)/total, 1)
	for star := 1; star <= MaxStars; star++ {
		summary.StarPercentages[star] = roundTo(100*float64(r.Count(star))/total, 2)
	}

	return summary
}

// roundTo rounds the exact binary value of v to places decimals, ties to even.
func roundTo(v float64, places int) float64 {
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)

	return rounded
}
