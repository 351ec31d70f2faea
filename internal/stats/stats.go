// Package stats derives descriptive statistics from a merged film
// record set. Everything here is a pure function of the immutable
// records plus configuration; missing data yields nil fields, never
// errors.
package stats

import (
	"filmlens/internal/config"
	"filmlens/internal/merge"
)

// StatPack is the canonical statistics result. Presentation layers
// project and rename from here; their field names never leak back in.
type StatPack struct {
	Label    string        `json:"label"`
	Totals   Totals        `json:"totals"`
	Ratings  RatingStats   `json:"ratings"`
	Timeline TimelineStats `json:"timeline"`
	Years    YearStats     `json:"years"`
	Text     TextStats     `json:"text"`
	Indices  Indices       `json:"indices"`
}

type Totals struct {
	Watched        int     `json:"watched"`
	Rated          int     `json:"rated"`
	Reviewed       int     `json:"reviewed"`
	UnratedWatched int     `json:"unratedWatched"`
	RatedShare     float64 `json:"ratedShare"`
}

type RatingStats struct {
	Count     int            `json:"count"`
	Mean      *float64       `json:"mean,omitempty"`
	Median    *float64       `json:"median,omitempty"`
	StdDev    *float64       `json:"stdDev,omitempty"`
	Mode      *float64       `json:"mode,omitempty"`
	Histogram []RatingBucket `json:"histogram"`
}

// RatingBucket is one half-star histogram bucket, 0.5 through 5.0.
type RatingBucket struct {
	Rating float64 `json:"rating"`
	Count  int     `json:"count"`
}

type TimelineStats struct {
	DatedFilms            int            `json:"datedFilms"`
	DayCounts             map[string]int `json:"dayCounts,omitempty"`
	Months                []MonthStat    `json:"months,omitempty"`
	LongestStreak         int            `json:"longestStreak"`
	RatingDateCorrelation *float64       `json:"ratingDateCorrelation,omitempty"`
}

// MonthStat is one YYYY-MM trend bucket. MeanRating is nil for months
// with no rated films, never zero.
type MonthStat struct {
	Month      string   `json:"month"`
	Watched    int      `json:"watched"`
	MeanRating *float64 `json:"meanRating,omitempty"`
}

type YearStats struct {
	YearCounts map[int]int   `json:"yearCounts,omitempty"`
	Decades    []DecadeCount `json:"decades,omitempty"`
	MinYear    *int          `json:"minYear,omitempty"`
	MaxYear    *int          `json:"maxYear,omitempty"`
}

type DecadeCount struct {
	Decade string `json:"decade"`
	Count  int    `json:"count"`
}

type TextStats struct {
	ReviewCount   int         `json:"reviewCount"`
	TopWords      []WordCount `json:"topWords,omitempty"`
	AverageLength float64     `json:"averageLength"`
}

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Indices are derived viewer indices, all reproducible from the other
// StatPack fields. Badge thresholds come from configuration.
type Indices struct {
	Commitment float64 `json:"commitment"`
	Volatility float64 `json:"volatility"`
	Badge      string  `json:"badge"`
}

// Compute derives the full statistics pack from a merged record set.
func Compute(films []*merge.Film, label string, cfg config.Analysis) *StatPack {
	pack := &StatPack{Label: label}
	pack.Totals = computeTotals(films)
	pack.Ratings = computeRatings(films)
	pack.Timeline = computeTimeline(films)
	pack.Years = computeYears(films)
	pack.Text = computeText(films, cfg.Text)
	pack.Indices = computeIndices(pack, cfg.Badges)
	return pack
}

func computeTotals(films []*merge.Film) Totals {
	t := Totals{}
	for _, f := range films {
		if f.Watched {
			t.Watched++
			if f.Rating == nil {
				t.UnratedWatched++
			}
		}
		if f.Rating != nil {
			t.Rated++
		}
		if len(f.ReviewTexts) > 0 {
			t.Reviewed++
		}
	}
	if t.Watched > 0 {
		t.RatedShare = float64(t.Rated) / float64(t.Watched)
	}
	return t
}

func computeIndices(pack *StatPack, b config.Badges) Indices {
	idx := Indices{Commitment: pack.Totals.RatedShare}
	if pack.Ratings.StdDev != nil {
		idx.Volatility = *pack.Ratings.StdDev
	}
	idx.Badge = classifyBadge(idx.Commitment, idx.Volatility, pack.Ratings.Count > 0, b)
	return idx
}

// classifyBadge picks the viewer badge from fixed configured
// thresholds, checked in this order.
func classifyBadge(commitment, volatility float64, hasRatings bool, b config.Badges) string {
	switch {
	case !hasRatings:
		return "The Silent Type"
	case volatility >= b.HighVolatility:
		return "The Wildcard"
	case commitment >= b.HighCommitment:
		return "The Completionist"
	case commitment <= b.LowCommitment:
		return "The Lurker"
	default:
		return "The Steady Hand"
	}
}

func ptr(v float64) *float64 { return &v }
