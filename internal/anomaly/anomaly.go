// Package anomaly derives data-quality signals from a merged record
// set, chiefly import-spike detection: a user who bulk-imports years of
// history in one sitting must not look like a one-day viewing binge to
// downstream consumers.
package anomaly

import (
	"math/rand"
	"time"

	"filmlens/internal/archive"
	"filmlens/internal/config"
	"filmlens/internal/merge"
)

// Summary flags import artifacts and reports the observed activity spans.
type Summary struct {
	ImportSpikeDetected   bool    `json:"importSpikeDetected"`
	BusiestImportDay      string  `json:"busiestImportDay,omitempty"`
	BusiestImportDayCount int     `json:"busiestImportDayCount"`
	ImportDayShare        float64 `json:"importDayShare"`
	WatchedDateSpanYears  int     `json:"watchedDateSpanYears"`
	DiaryEntrySpanYears   int     `json:"diaryEntrySpanYears"`
}

// Debug reports coverage ratios and cross-source hit rates, plus a
// small random film sample for human inspection. Nothing downstream
// computes on the sample.
type Debug struct {
	PercentWithWatchedAt    float64      `json:"percentWithWatchedAt"`
	RatingsHitRate          float64      `json:"ratingsHitRate"`
	ReviewsHitRate          float64      `json:"reviewsHitRate"`
	OnlyInRatingsNotWatched int          `json:"onlyInRatingsNotWatched"`
	OnlyInReviewsNotWatched int          `json:"onlyInReviewsNotWatched"`
	Sample                  []merge.Film `json:"sample,omitempty"`
}

// Summarizer computes anomaly and debug summaries. The random source
// only feeds debug sampling; pass a seeded one in tests for
// deterministic samples.
type Summarizer struct {
	spike      config.ImportSpike
	sampleSize int
	rng        *rand.Rand
}

// New creates a Summarizer. A nil rng falls back to a time-seeded one.
func New(cfg config.Analysis, rng *rand.Rand) *Summarizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Summarizer{
		spike:      cfg.ImportSpike,
		sampleSize: cfg.SampleSize,
		rng:        rng,
	}
}

// Summarize computes both summaries over an immutable record set.
func (s *Summarizer) Summarize(ts *archive.TableSet, films []*merge.Film) (Summary, Debug) {
	sum := s.summarizeAnomaly(ts, films)
	dbg := s.summarizeDebug(ts, films)
	return sum, dbg
}

func (s *Summarizer) summarizeAnomaly(ts *archive.TableSet, films []*merge.Film) Summary {
	sum := Summary{}

	// Group the watched table's import dates by calendar day. These
	// dates say when a row was recorded, not when the film was seen.
	watchedRows := ts.Rows(archive.RoleWatched)
	byDay := make(map[string]int)
	for _, row := range watchedRows {
		if d := merge.ImportDate(row); d != "" {
			byDay[d]++
		}
	}
	for day, n := range byDay {
		if n > sum.BusiestImportDayCount || (n == sum.BusiestImportDayCount && day < sum.BusiestImportDay) {
			sum.BusiestImportDay = day
			sum.BusiestImportDayCount = n
		}
	}
	if len(watchedRows) > 0 {
		sum.ImportDayShare = float64(sum.BusiestImportDayCount) / float64(len(watchedRows))
	}

	var genuine, effective []string
	for _, f := range films {
		for _, d := range f.WatchedDates {
			if !contains(f.EstimatedDates, d) {
				genuine = append(genuine, d)
			}
		}
		for _, e := range f.DiaryEntries {
			if e.EffectiveDate != "" {
				effective = append(effective, e.EffectiveDate)
			}
		}
	}
	sum.WatchedDateSpanYears = spanYears(genuine)
	sum.DiaryEntrySpanYears = spanYears(effective)

	activitySpan := sum.WatchedDateSpanYears
	if sum.DiaryEntrySpanYears > activitySpan {
		activitySpan = sum.DiaryEntrySpanYears
	}
	sum.ImportSpikeDetected = sum.ImportDayShare >= s.spike.MinShare &&
		float64(activitySpan) > s.spike.MinSpanYears

	return sum
}

func (s *Summarizer) summarizeDebug(ts *archive.TableSet, films []*merge.Film) Debug {
	dbg := Debug{}

	var entries, genuine int
	for _, f := range films {
		for _, e := range f.DiaryEntries {
			entries++
			if e.EffectiveDate != "" && !e.Estimated {
				genuine++
			}
		}
	}
	if entries > 0 {
		dbg.PercentWithWatchedAt = float64(genuine) / float64(entries)
	}

	var rated, reviewed int
	for _, f := range films {
		if f.HasSource(archive.RoleRatings) {
			rated++
			if !f.HasSource(archive.RoleWatched) {
				dbg.OnlyInRatingsNotWatched++
			}
		}
		if f.HasSource(archive.RoleReviews) {
			reviewed++
			if !f.HasSource(archive.RoleWatched) {
				dbg.OnlyInReviewsNotWatched++
			}
		}
	}
	if len(films) > 0 {
		dbg.RatingsHitRate = float64(rated) / float64(len(films))
		dbg.ReviewsHitRate = float64(reviewed) / float64(len(films))
	}

	dbg.Sample = s.sample(films)
	return dbg
}

// sample copies up to sampleSize randomly chosen films.
func (s *Summarizer) sample(films []*merge.Film) []merge.Film {
	if s.sampleSize <= 0 || len(films) == 0 {
		return nil
	}
	n := s.sampleSize
	if n > len(films) {
		n = len(films)
	}
	out := make([]merge.Film, 0, n)
	for _, idx := range s.rng.Perm(len(films))[:n] {
		out = append(out, *films[idx])
	}
	return out
}

// spanYears is the year difference between the earliest and latest date.
func spanYears(dates []string) int {
	if len(dates) < 2 {
		return 0
	}
	min, max := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return yearOf(max) - yearOf(min)
}

func yearOf(date string) int {
	var y int
	for i := 0; i < 4 && i < len(date); i++ {
		c := date[i]
		if c < '0' || c > '9' {
			return 0
		}
		y = y*10 + int(c-'0')
	}
	return y
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
