package stats

import (
	"math"
	"sort"
	"time"

	"filmlens/internal/merge"
)

// timelinePoint is one watched film placed on the timeline by its
// best-date.
type timelinePoint struct {
	day    string
	rating *float64
}

func computeTimeline(films []*merge.Film) TimelineStats {
	ts := TimelineStats{}

	var points []timelinePoint
	for _, f := range films {
		if !f.Watched {
			continue
		}
		day, ok := f.BestDate()
		if !ok {
			continue
		}
		points = append(points, timelinePoint{day: day, rating: f.Rating})
	}
	ts.DatedFilms = len(points)
	if len(points) == 0 {
		return ts
	}

	ts.DayCounts = make(map[string]int)
	monthWatched := make(map[string]int)
	monthRatingSum := make(map[string]float64)
	monthRatingN := make(map[string]int)

	for _, p := range points {
		ts.DayCounts[p.day]++
		month := p.day[:7]
		monthWatched[month]++
		if p.rating != nil {
			monthRatingSum[month] += *p.rating
			monthRatingN[month]++
		}
	}

	months := make([]string, 0, len(monthWatched))
	for m := range monthWatched {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		stat := MonthStat{Month: m, Watched: monthWatched[m]}
		if n := monthRatingN[m]; n > 0 {
			stat.MeanRating = ptr(monthRatingSum[m] / float64(n))
		}
		ts.Months = append(ts.Months, stat)
	}

	ts.LongestStreak = longestStreak(ts.DayCounts)
	ts.RatingDateCorrelation = ratingDateCorrelation(points)
	return ts
}

// longestStreak finds the longest run of calendar-consecutive days with
// at least one watched film. Duplicate dates collapse into the day set.
func longestStreak(dayCounts map[string]int) int {
	if len(dayCounts) == 0 {
		return 0
	}
	days := make([]time.Time, 0, len(dayCounts))
	for d := range dayCounts {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		days = append(days, t)
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	return longest
}

// ratingDateCorrelation is the Pearson correlation between a film's
// best-date (as a day index) and its rating. It needs at least two
// rated, dated films and non-zero variance in both dimensions.
func ratingDateCorrelation(points []timelinePoint) *float64 {
	var xs, ys []float64
	for _, p := range points {
		if p.rating == nil {
			continue
		}
		t, err := time.Parse("2006-01-02", p.day)
		if err != nil {
			continue
		}
		xs = append(xs, float64(t.Unix()/86400))
		ys = append(ys, *p.rating)
	}
	if len(xs) < 2 {
		return nil
	}
	r, ok := pearson(xs, ys)
	if !ok {
		return nil
	}
	return ptr(r)
}

// pearson computes the Pearson correlation coefficient. ok is false
// when either dimension has zero variance.
func pearson(xs, ys []float64) (float64, bool) {
	n := float64(len(xs))
	mx := mean(xs)
	my := mean(ys)

	var cov, vx, vy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	return (cov / n) / (math.Sqrt(vx/n) * math.Sqrt(vy/n)), true
}
