package merge

import (
	"strconv"
	"strings"
	"time"

	"filmlens/internal/archive"
)

// Accepted column-name aliases per logical field. Export versions are
// inconsistent about header names, so each field is looked up through
// an ordered alias list and the first non-empty value wins.
var (
	nameAliases        = []string{"Name", "Film", "Title"}
	yearAliases        = []string{"Year"}
	uriAliases         = []string{"Letterboxd URI", "URI", "Link", "Url", "URL"}
	ratingAliases      = []string{"Rating", "Rated", "Stars"}
	watchedDateAliases = []string{"Watched Date", "Watched", "Date"}
	loggedDateAliases  = []string{"Logged Date", "Date", "Diary Date"}
	reviewAliases      = []string{"Review", "Text", "Content"}
	rewatchAliases     = []string{"Rewatch"}
	tagsAliases        = []string{"Tags"}

	// The watched table's date column records when the row was added to
	// the service, not when the film was seen. It feeds import-spike
	// detection only and must never reach a film's viewing timeline.
	importDateAliases = []string{"Date", "Added Date"}
)

// ImportDate reads the watched table's record date from a row,
// normalized to an ISO day. Spike detection groups by this value.
func ImportDate(row archive.Row) string {
	return normalizeDate(row.First(importDateAliases...))
}

// parseRating parses a numeric rating. The half-star glyph counts as
// 0.5 and a comma decimal separator is accepted.
func parseRating(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	half := 0.0
	if strings.Contains(s, "½") {
		half = 0.5
		s = strings.TrimSpace(strings.ReplaceAll(s, "½", ""))
	}
	s = strings.ReplaceAll(s, ",", ".")

	if s == "" {
		if half > 0 {
			return &half
		}
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v += half
	return &v
}

// parseYear parses a release year, returning nil for anything that is
// not a positive integer.
func parseYear(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	y, err := strconv.Atoi(s)
	if err != nil || y <= 0 {
		return nil
	}
	return &y
}

// normalizeDate reduces a raw date value to a calendar date in ISO
// YYYY-MM-DD form. Values that do not parse are treated as absent.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return ""
	}
	day := s[:10]
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return ""
	}
	return day
}

// truthy reports whether a flag column holds an affirmative value.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true
	}
	return false
}

// splitTags splits a comma-separated tag list into trimmed entries.
func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
