// Package report renders a finished analysis into a markdown document.
// It only reads StatPack and summary fields; it never re-derives merge
// decisions.
package report

import (
	"fmt"
	"strings"

	"filmlens/internal/anomaly"
	"filmlens/internal/stats"
)

// Compose assembles the full markdown report.
func Compose(pack *stats.StatPack, sum anomaly.Summary, dbg anomaly.Debug) string {
	var sections []string

	title := "# Film diary report"
	if pack.Label != "" {
		title = fmt.Sprintf("# Film diary report: %s", pack.Label)
	}
	sections = append(sections, title)

	sections = append(sections, totalsSection(pack))
	if pack.Ratings.Count > 0 {
		sections = append(sections, ratingsSection(pack))
	}
	if pack.Timeline.DatedFilms > 0 {
		sections = append(sections, timelineSection(pack))
	}
	if len(pack.Years.Decades) > 0 {
		sections = append(sections, yearsSection(pack))
	}
	if pack.Text.ReviewCount > 0 {
		sections = append(sections, textSection(pack))
	}
	sections = append(sections, badgeSection(pack))
	sections = append(sections, qualitySection(sum, dbg))

	return strings.Join(sections, "\n\n")
}

func totalsSection(pack *stats.StatPack) string {
	t := pack.Totals
	return strings.Join([]string{
		"## Totals",
		"",
		fmt.Sprintf("- Watched: %d", t.Watched),
		fmt.Sprintf("- Rated: %d (%.0f%% of watched)", t.Rated, t.RatedShare*100),
		fmt.Sprintf("- Reviewed: %d", t.Reviewed),
		fmt.Sprintf("- Watched but unrated: %d", t.UnratedWatched),
	}, "\n")
}

func ratingsSection(pack *stats.StatPack) string {
	r := pack.Ratings
	lines := []string{"## Ratings", ""}
	if r.Mean != nil {
		lines = append(lines, fmt.Sprintf("- Mean %.2f, median %.2f, std dev %.2f", *r.Mean, *r.Median, *r.StdDev))
	}
	if r.Mode != nil {
		lines = append(lines, fmt.Sprintf("- Most common rating: %.1f", *r.Mode))
	}
	var bars []string
	for _, b := range r.Histogram {
		if b.Count > 0 {
			bars = append(bars, fmt.Sprintf("%.1f×%d", b.Rating, b.Count))
		}
	}
	if len(bars) > 0 {
		lines = append(lines, "- Distribution: "+strings.Join(bars, ", "))
	}
	return strings.Join(lines, "\n")
}

func timelineSection(pack *stats.StatPack) string {
	tl := pack.Timeline
	lines := []string{"## Timeline", ""}
	lines = append(lines, fmt.Sprintf("- Films with a timeline date: %d", tl.DatedFilms))
	lines = append(lines, fmt.Sprintf("- Longest daily streak: %d day(s)", tl.LongestStreak))

	if len(tl.Months) > 0 {
		busiest := tl.Months[0]
		for _, m := range tl.Months[1:] {
			if m.Watched > busiest.Watched {
				busiest = m
			}
		}
		lines = append(lines, fmt.Sprintf("- Busiest month: %s (%d films)", busiest.Month, busiest.Watched))
	}
	if tl.RatingDateCorrelation != nil {
		lines = append(lines, fmt.Sprintf("- Rating vs. time correlation: %.2f", *tl.RatingDateCorrelation))
	}
	return strings.Join(lines, "\n")
}

func yearsSection(pack *stats.StatPack) string {
	y := pack.Years
	lines := []string{"## Release years", ""}
	if y.MinYear != nil && y.MaxYear != nil {
		lines = append(lines, fmt.Sprintf("- Span: %d–%d", *y.MinYear, *y.MaxYear))
	}
	var parts []string
	for _, d := range y.Decades {
		parts = append(parts, fmt.Sprintf("%s×%d", d.Decade, d.Count))
	}
	lines = append(lines, "- Decades: "+strings.Join(parts, ", "))
	return strings.Join(lines, "\n")
}

func textSection(pack *stats.StatPack) string {
	t := pack.Text
	lines := []string{"## Reviews", ""}
	lines = append(lines, fmt.Sprintf("- %d review(s), average length %.0f characters", t.ReviewCount, t.AverageLength))
	if len(t.TopWords) > 0 {
		n := len(t.TopWords)
		if n > 10 {
			n = 10
		}
		var words []string
		for _, w := range t.TopWords[:n] {
			words = append(words, fmt.Sprintf("%s (%d)", w.Word, w.Count))
		}
		lines = append(lines, "- Frequent words: "+strings.Join(words, ", "))
	}
	return strings.Join(lines, "\n")
}

func badgeSection(pack *stats.StatPack) string {
	i := pack.Indices
	return strings.Join([]string{
		"## Viewer profile",
		"",
		fmt.Sprintf("- Commitment index: %.2f", i.Commitment),
		fmt.Sprintf("- Taste volatility: %.2f", i.Volatility),
		fmt.Sprintf("- Badge: **%s**", i.Badge),
	}, "\n")
}

func qualitySection(sum anomaly.Summary, dbg anomaly.Debug) string {
	lines := []string{"## Data quality", ""}
	if sum.ImportSpikeDetected {
		lines = append(lines, fmt.Sprintf(
			"- **Bulk import detected**: %d rows were recorded on %s (%.0f%% of the watched table). Day-level activity around that date reflects the import, not viewing behavior.",
			sum.BusiestImportDayCount, sum.BusiestImportDay, sum.ImportDayShare*100))
	} else {
		lines = append(lines, "- No bulk-import artifacts detected.")
	}
	lines = append(lines, fmt.Sprintf("- Diary entries with a genuine watched date: %.0f%%", dbg.PercentWithWatchedAt*100))
	lines = append(lines, fmt.Sprintf("- Films carrying a rating: %.0f%%, carrying a review: %.0f%%",
		dbg.RatingsHitRate*100, dbg.ReviewsHitRate*100))
	if dbg.OnlyInRatingsNotWatched > 0 || dbg.OnlyInReviewsNotWatched > 0 {
		lines = append(lines, fmt.Sprintf("- Films missing from the watched table: %d rated-only, %d reviewed-only",
			dbg.OnlyInRatingsNotWatched, dbg.OnlyInReviewsNotWatched))
	}
	return strings.Join(lines, "\n")
}
