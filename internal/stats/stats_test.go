package stats

import (
	"testing"

	"filmlens/internal/config"
	"filmlens/internal/merge"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func watchedFilm(name string, rating *float64) *merge.Film {
	return &merge.Film{Name: name, Watched: true, Rating: rating, Rated: rating != nil}
}

func TestComputeTotals(t *testing.T) {
	films := []*merge.Film{
		watchedFilm("A", fptr(4.0)),
		watchedFilm("B", nil),
		watchedFilm("C", fptr(3.0)),
		watchedFilm("D", nil),
		{Name: "Reviewed only", ReviewTexts: []string{"great"}},
	}

	tot := computeTotals(films)
	if tot.Watched != 4 {
		t.Errorf("expected 4 watched, got %d", tot.Watched)
	}
	if tot.Rated != 2 {
		t.Errorf("expected 2 rated, got %d", tot.Rated)
	}
	if tot.UnratedWatched != 2 {
		t.Errorf("expected 2 unrated watched, got %d", tot.UnratedWatched)
	}
	if tot.Reviewed != 1 {
		t.Errorf("expected 1 reviewed, got %d", tot.Reviewed)
	}
	if tot.RatedShare != 0.5 {
		t.Errorf("expected rated share 0.5, got %v", tot.RatedShare)
	}
}

func TestTotalsEmptySet(t *testing.T) {
	tot := computeTotals(nil)
	if tot.RatedShare != 0 {
		t.Errorf("expected zero rated share on empty set, got %v", tot.RatedShare)
	}
}

func TestHistogramSnapsToHalfStars(t *testing.T) {
	films := []*merge.Film{
		watchedFilm("A", fptr(4.3)),
		watchedFilm("B", fptr(4.5)),
		watchedFilm("C", fptr(0.5)),
		watchedFilm("D", fptr(5.0)),
	}

	rs := computeRatings(films)
	if len(rs.Histogram) != 10 {
		t.Fatalf("expected 10 buckets, got %d", len(rs.Histogram))
	}
	want := map[float64]int{0.5: 1, 4.5: 2, 5.0: 1}
	for _, b := range rs.Histogram {
		if b.Count != want[b.Rating] {
			t.Errorf("bucket %v: expected %d, got %d", b.Rating, want[b.Rating], b.Count)
		}
	}
}

func TestRatingModeTiesGoLower(t *testing.T) {
	films := []*merge.Film{
		watchedFilm("A", fptr(3.0)),
		watchedFilm("B", fptr(3.0)),
		watchedFilm("C", fptr(4.0)),
		watchedFilm("D", fptr(4.0)),
	}

	rs := computeRatings(films)
	if rs.Mode == nil || *rs.Mode != 3.0 {
		t.Errorf("expected mode 3.0 on tie, got %v", rs.Mode)
	}
}

func TestRatingSummaryValues(t *testing.T) {
	films := []*merge.Film{
		watchedFilm("A", fptr(2.0)),
		watchedFilm("B", fptr(3.0)),
		watchedFilm("C", fptr(4.0)),
	}

	rs := computeRatings(films)
	if rs.Count != 3 {
		t.Fatalf("expected 3 ratings, got %d", rs.Count)
	}
	if *rs.Mean != 3.0 {
		t.Errorf("expected mean 3.0, got %v", *rs.Mean)
	}
	if *rs.Median != 3.0 {
		t.Errorf("expected median 3.0, got %v", *rs.Median)
	}
	if got := *rs.StdDev; got < 0.81 || got > 0.82 {
		t.Errorf("expected population stddev ~0.816, got %v", got)
	}
}

func TestRatingsEmptyLeavesNilSummary(t *testing.T) {
	rs := computeRatings([]*merge.Film{watchedFilm("A", nil)})
	if rs.Count != 0 || rs.Mean != nil || rs.Mode != nil {
		t.Errorf("expected empty summary, got %+v", rs)
	}
	if len(rs.Histogram) != 10 {
		t.Errorf("expected empty 10-bucket histogram, got %d buckets", len(rs.Histogram))
	}
}

func TestComputeYears(t *testing.T) {
	films := []*merge.Film{
		{Name: "A", Watched: true, Year: iptr(1979)},
		{Name: "B", Watched: true, Year: iptr(1995)},
		{Name: "C", Watched: true, Year: iptr(1999)},
		{Name: "No year", Watched: true},
		{Name: "Not watched", Year: iptr(2020)},
	}

	ys := computeYears(films)
	if ys.YearCounts[1995] != 1 || len(ys.YearCounts) != 3 {
		t.Errorf("unexpected year counts %v", ys.YearCounts)
	}
	if *ys.MinYear != 1979 || *ys.MaxYear != 1999 {
		t.Errorf("expected range 1979..1999, got %v..%v", ys.MinYear, ys.MaxYear)
	}
	if len(ys.Decades) != 2 {
		t.Fatalf("expected 2 decades, got %v", ys.Decades)
	}
	if ys.Decades[0].Decade != "1970s" || ys.Decades[0].Count != 1 {
		t.Errorf("unexpected first decade %+v", ys.Decades[0])
	}
	if ys.Decades[1].Decade != "1990s" || ys.Decades[1].Count != 2 {
		t.Errorf("unexpected second decade %+v", ys.Decades[1])
	}
}

func TestBadgeClassification(t *testing.T) {
	b := config.Default().Analysis.Badges
	tests := []struct {
		name       string
		commitment float64
		volatility float64
		hasRatings bool
		want       string
	}{
		{"no ratings", 0.9, 0, false, "The Silent Type"},
		{"volatile", 0.9, 1.5, true, "The Wildcard"},
		{"committed", 0.8, 0.5, true, "The Completionist"},
		{"lurker", 0.1, 0.5, true, "The Lurker"},
		{"middle", 0.5, 0.5, true, "The Steady Hand"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyBadge(tt.commitment, tt.volatility, tt.hasRatings, b)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestComputeAssemblesAllSections(t *testing.T) {
	films := []*merge.Film{
		{
			Name:         "Heat",
			Watched:      true,
			Rated:        true,
			Rating:       fptr(4.5),
			Year:         iptr(1995),
			WatchedDates: []string{"2024-03-01"},
			DiaryEntries: []merge.DiaryEntry{{EffectiveDate: "2024-03-01"}},
			ReviewTexts:  []string{"A masterpiece of craft and tension."},
		},
	}

	pack := Compute(films, "export", config.Default().Analysis)
	if pack.Label != "export" {
		t.Errorf("expected label carried through, got %q", pack.Label)
	}
	if pack.Totals.Watched != 1 || pack.Ratings.Count != 1 {
		t.Errorf("unexpected totals %+v ratings %+v", pack.Totals, pack.Ratings)
	}
	if pack.Timeline.DatedFilms != 1 {
		t.Errorf("expected 1 dated film, got %d", pack.Timeline.DatedFilms)
	}
	if pack.Years.YearCounts[1995] != 1 {
		t.Errorf("unexpected year counts %v", pack.Years.YearCounts)
	}
	if pack.Text.ReviewCount != 1 {
		t.Errorf("expected 1 review, got %d", pack.Text.ReviewCount)
	}
	if pack.Indices.Badge == "" {
		t.Error("expected a badge")
	}
}
