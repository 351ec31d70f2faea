package anomaly

import (
	"fmt"
	"math/rand"
	"testing"

	"filmlens/internal/archive"
	"filmlens/internal/config"
	"filmlens/internal/merge"
)

func watchedTable(dates ...string) *archive.TableSet {
	header := []string{"Date", "Name", "Year"}
	rows := make([]archive.Row, 0, len(dates))
	for i, d := range dates {
		rows = append(rows, archive.NewRow(header, []string{d, fmt.Sprintf("Film %d", i), "2000"}))
	}
	return &archive.TableSet{Tables: []archive.Table{
		{Role: archive.RoleWatched, Filename: "watched.csv", Rows: rows},
	}}
}

func diaryFilm(name string, dates ...string) *merge.Film {
	f := &merge.Film{Name: name, Watched: true, Sources: []archive.Role{archive.RoleDiary}}
	for _, d := range dates {
		f.WatchedDates = append(f.WatchedDates, d)
		f.DiaryEntries = append(f.DiaryEntries, merge.DiaryEntry{EffectiveDate: d})
	}
	return f
}

func newSummarizer(t *testing.T) *Summarizer {
	t.Helper()
	return New(config.Default().Analysis, rand.New(rand.NewSource(1)))
}

func TestImportSpikeDetected(t *testing.T) {
	// 200 of 500 watched rows recorded on one day, viewing history
	// spanning several years: a bulk import, not a binge.
	var dates []string
	for i := 0; i < 200; i++ {
		dates = append(dates, "2024-06-01")
	}
	for i := 0; i < 300; i++ {
		dates = append(dates, fmt.Sprintf("2024-%02d-%02d", i%12+1, i%28+1))
	}

	films := []*merge.Film{
		diaryFilm("Old", "2020-01-15"),
		diaryFilm("New", "2024-05-30"),
	}

	sum, _ := newSummarizer(t).Summarize(watchedTable(dates...), films)
	if !sum.ImportSpikeDetected {
		t.Error("expected spike detection")
	}
	if sum.BusiestImportDay != "2024-06-01" {
		t.Errorf("expected busiest day 2024-06-01, got %q", sum.BusiestImportDay)
	}
	if sum.BusiestImportDayCount != 200 {
		t.Errorf("expected busiest day count 200, got %d", sum.BusiestImportDayCount)
	}
	if sum.ImportDayShare != 0.4 {
		t.Errorf("expected share 0.4, got %v", sum.ImportDayShare)
	}
	if sum.DiaryEntrySpanYears != 4 {
		t.Errorf("expected diary span 4 years, got %d", sum.DiaryEntrySpanYears)
	}
}

func TestNoSpikeWhenImportsSpread(t *testing.T) {
	var dates []string
	for i := 0; i < 500; i++ {
		dates = append(dates, fmt.Sprintf("%d-%02d-%02d", 2020+i%5, i%12+1, i%28+1))
	}
	films := []*merge.Film{
		diaryFilm("Old", "2020-01-15"),
		diaryFilm("New", "2024-05-30"),
	}

	sum, _ := newSummarizer(t).Summarize(watchedTable(dates...), films)
	if sum.ImportSpikeDetected {
		t.Errorf("expected no spike at share %v", sum.ImportDayShare)
	}
}

func TestNoSpikeWithoutMultiYearSpan(t *testing.T) {
	// Everything imported on one day, but all activity inside one year:
	// a new account, not an import artifact.
	var dates []string
	for i := 0; i < 100; i++ {
		dates = append(dates, "2024-06-01")
	}
	films := []*merge.Film{
		diaryFilm("A", "2024-01-15"),
		diaryFilm("B", "2024-05-30"),
	}

	sum, _ := newSummarizer(t).Summarize(watchedTable(dates...), films)
	if sum.ImportSpikeDetected {
		t.Error("expected no spike for single-year history")
	}
	if sum.ImportDayShare != 1.0 {
		t.Errorf("expected share 1.0, got %v", sum.ImportDayShare)
	}
}

func TestSpanYearsIgnoresEstimatedDates(t *testing.T) {
	genuine := diaryFilm("Genuine", "2024-02-01")
	estimated := &merge.Film{
		Name:           "Estimated",
		Watched:        true,
		WatchedDates:   []string{"2019-01-01"},
		EstimatedDates: []string{"2019-01-01"},
		DiaryEntries:   []merge.DiaryEntry{{EffectiveDate: "2019-01-01", Estimated: true}},
	}

	sum, _ := newSummarizer(t).Summarize(&archive.TableSet{}, []*merge.Film{genuine, estimated})
	if sum.WatchedDateSpanYears != 0 {
		t.Errorf("expected genuine span 0, got %d", sum.WatchedDateSpanYears)
	}
	if sum.DiaryEntrySpanYears != 5 {
		t.Errorf("expected effective span 5, got %d", sum.DiaryEntrySpanYears)
	}
}

func TestDebugCoverage(t *testing.T) {
	films := []*merge.Film{
		{
			Name:    "Rated and watched",
			Watched: true,
			Sources: []archive.Role{archive.RoleRatings, archive.RoleWatched},
		},
		{
			Name:    "Rated only",
			Sources: []archive.Role{archive.RoleRatings},
		},
		{
			Name:    "Reviewed only",
			Sources: []archive.Role{archive.RoleReviews},
		},
		{
			Name:    "Watched only",
			Watched: true,
			Sources: []archive.Role{archive.RoleWatched},
			DiaryEntries: []merge.DiaryEntry{
				{EffectiveDate: "2024-01-01"},
				{EffectiveDate: "2024-01-02", Estimated: true},
			},
		},
	}

	_, dbg := newSummarizer(t).Summarize(&archive.TableSet{}, films)
	if dbg.RatingsHitRate != 0.5 {
		t.Errorf("expected ratings hit rate 0.5, got %v", dbg.RatingsHitRate)
	}
	if dbg.ReviewsHitRate != 0.25 {
		t.Errorf("expected reviews hit rate 0.25, got %v", dbg.ReviewsHitRate)
	}
	if dbg.OnlyInRatingsNotWatched != 1 {
		t.Errorf("expected 1 rated-not-watched, got %d", dbg.OnlyInRatingsNotWatched)
	}
	if dbg.OnlyInReviewsNotWatched != 1 {
		t.Errorf("expected 1 reviewed-not-watched, got %d", dbg.OnlyInReviewsNotWatched)
	}
	if dbg.PercentWithWatchedAt != 0.5 {
		t.Errorf("expected 0.5 genuine diary coverage, got %v", dbg.PercentWithWatchedAt)
	}
}

func TestSampleIsDeterministicWithSeededSource(t *testing.T) {
	films := make([]*merge.Film, 20)
	for i := range films {
		films[i] = diaryFilm(fmt.Sprintf("Film %d", i))
	}

	cfg := config.Default().Analysis
	_, first := New(cfg, rand.New(rand.NewSource(7))).Summarize(&archive.TableSet{}, films)
	_, second := New(cfg, rand.New(rand.NewSource(7))).Summarize(&archive.TableSet{}, films)

	if len(first.Sample) != cfg.SampleSize {
		t.Fatalf("expected sample of %d, got %d", cfg.SampleSize, len(first.Sample))
	}
	for i := range first.Sample {
		if first.Sample[i].Name != second.Sample[i].Name {
			t.Fatalf("sample diverged at %d: %q vs %q", i, first.Sample[i].Name, second.Sample[i].Name)
		}
	}
}

func TestSampleSmallerThanPopulation(t *testing.T) {
	films := []*merge.Film{diaryFilm("Only one")}
	_, dbg := newSummarizer(t).Summarize(&archive.TableSet{}, films)
	if len(dbg.Sample) != 1 {
		t.Errorf("expected sample of 1, got %d", len(dbg.Sample))
	}
}
