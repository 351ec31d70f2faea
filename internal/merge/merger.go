package merge

import (
	"sort"

	"filmlens/internal/archive"
)

// mergedRoles lists the tables that create or enrich film records, in
// processing order. Profile is a user-level table, not a film table,
// and unknown files are preserved by the reader but never merged.
var mergedRoles = []archive.Role{
	archive.RoleWatched,
	archive.RoleRatings,
	archive.RoleReviews,
	archive.RoleDiary,
	archive.RoleWatchlist,
	archive.RoleLikes,
	archive.RoleComments,
}

// Merge folds every recognized table of a set into one deduplicated,
// provenance-tagged film record list. The identity map is owned
// exclusively by this call; the returned records are not mutated
// afterwards. Films appear in first-reference order.
func Merge(ts *archive.TableSet) []*Film {
	m := &merger{films: make(map[string]*Film)}

	for _, role := range mergedRoles {
		for i, row := range ts.Rows(role) {
			m.consume(role, i, row)
		}
	}

	for _, f := range m.order {
		finalize(f)
	}
	return m.order
}

type merger struct {
	films map[string]*Film
	order []*Film
}

func (m *merger) consume(role archive.Role, index int, row archive.Row) {
	id := ResolveIdentity(row, role, index)
	f := m.getOrCreate(id)

	// Descriptive fields are first-writer-wins across tables.
	if f.Slug == "" {
		f.Slug = id.Slug
	}
	if f.Name == "" {
		f.Name = row.First(nameAliases...)
	}
	if f.Year == nil {
		f.Year = parseYear(row.First(yearAliases...))
	}
	if f.URL == "" {
		f.URL = row.First(uriAliases...)
	}

	switch role {
	case archive.RoleWatched:
		f.Watched = true
	case archive.RoleRatings:
		m.applyRating(f, row)
	case archive.RoleReviews:
		if text := row.First(reviewAliases...); text != "" {
			f.ReviewTexts = append(f.ReviewTexts, text)
		}
	case archive.RoleDiary:
		m.applyDiary(f, row)
	}
	// Watchlist, likes and comments only establish presence: they create
	// the record and mark provenance but own no film fields. In
	// particular, comment text is never merged into ReviewTexts.

	if !f.HasSource(role) {
		f.Sources = append(f.Sources, role)
	}
}

func (m *merger) getOrCreate(id Identity) *Film {
	if f, ok := m.films[id.Key]; ok {
		return f
	}
	f := &Film{Key: id.Key}
	m.films[id.Key] = f
	m.order = append(m.order, f)
	return f
}

// applyRating applies one ratings-table row. The ratings table is the
// sole owner of Rated/Rating; when an export carries several rows for
// the same film the last one wins.
func (m *merger) applyRating(f *Film, row archive.Row) {
	if r := parseRating(row.First(ratingAliases...)); r != nil {
		f.Rated = true
		f.Rating = r
	}
	if d := normalizeDate(row.Get("Date")); d != "" {
		f.RatedDates = append(f.RatedDates, d)
	}
}

// applyDiary applies one diary-table row. The diary is the sole owner
// of the viewing timeline; the logged date stands in for a missing
// watched date and is marked estimated. Diary rows never set
// Rated/Rating, even when the export carries a rating column.
func (m *merger) applyDiary(f *Film, row archive.Row) {
	f.Watched = true

	logged := normalizeDate(row.First(loggedDateAliases...))
	watched := normalizeDate(row.First(watchedDateAliases...))

	entry := DiaryEntry{
		LoggedDate: logged,
		Rewatch:    truthy(row.First(rewatchAliases...)),
		Tags:       splitTags(row.First(tagsAliases...)),
	}
	if watched != "" {
		entry.EffectiveDate = watched
	} else if logged != "" {
		entry.EffectiveDate = logged
		entry.Estimated = true
	}

	if entry.EffectiveDate != "" {
		f.WatchedDates = append(f.WatchedDates, entry.EffectiveDate)
		if entry.Estimated {
			f.EstimatedDates = append(f.EstimatedDates, entry.EffectiveDate)
		}
	}
	if entry.Rewatch {
		f.RewatchCount++
	}
	f.Tags = append(f.Tags, entry.Tags...)
	f.DiaryEntries = append(f.DiaryEntries, entry)
}

// finalize deduplicates and sorts the collection fields. ISO dates sort
// lexicographically in chronological order.
func finalize(f *Film) {
	f.WatchedDates = dedupeSorted(f.WatchedDates)
	f.EstimatedDates = dedupeSorted(f.EstimatedDates)
	f.RatedDates = dedupeSorted(f.RatedDates)
	f.Tags = dedupeSorted(f.Tags)

	sort.SliceStable(f.DiaryEntries, func(i, j int) bool {
		return f.DiaryEntries[i].EffectiveDate < f.DiaryEntries[j].EffectiveDate
	})
	sort.Slice(f.Sources, func(i, j int) bool {
		return f.Sources[i] < f.Sources[j]
	})
}

func dedupeSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	sort.Strings(in)
	out := in[:1]
	for _, v := range in[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
