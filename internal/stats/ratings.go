package stats

import (
	"math"
	"sort"

	"filmlens/internal/merge"
)

func computeRatings(films []*merge.Film) RatingStats {
	var ratings []float64
	for _, f := range films {
		if f.Rating != nil {
			ratings = append(ratings, *f.Rating)
		}
	}

	rs := RatingStats{Count: len(ratings), Histogram: histogram(ratings)}
	if len(ratings) == 0 {
		return rs
	}

	rs.Mean = ptr(mean(ratings))
	rs.Median = ptr(median(ratings))
	rs.StdDev = ptr(stdDev(ratings, *rs.Mean))

	// Mode: highest bucket count; ties go to the lower bucket because
	// buckets are walked in ascending order.
	best := 0
	for _, b := range rs.Histogram {
		if b.Count > best {
			best = b.Count
			rs.Mode = ptr(b.Rating)
		}
	}

	return rs
}

// histogram buckets ratings at every half star from 0.5 to 5.0, each
// value snapped to its nearest 0.5 increment.
func histogram(ratings []float64) []RatingBucket {
	buckets := make([]RatingBucket, 10)
	for i := range buckets {
		buckets[i].Rating = float64(i+1) * 0.5
	}
	for _, r := range ratings {
		snapped := snapHalf(r)
		idx := int(snapped*2) - 1
		if idx < 0 {
			idx = 0
		}
		if idx > 9 {
			idx = 9
		}
		buckets[idx].Count++
	}
	return buckets
}

// snapHalf rounds a rating to the nearest 0.5.
func snapHalf(r float64) float64 {
	return math.Round(r*2) / 2
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// stdDev is the population standard deviation.
func stdDev(vals []float64, m float64) float64 {
	sum := 0.0
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)))
}
