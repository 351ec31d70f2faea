package merge

import "filmlens/internal/archive"

// DiaryEntry is one diary row attributed to a film. EffectiveDate is
// the watched date when the export carried one, otherwise the logged
// date with Estimated set.
type DiaryEntry struct {
	EffectiveDate string   `json:"effectiveDate"`
	Estimated     bool     `json:"estimated"`
	LoggedDate    string   `json:"loggedDate,omitempty"`
	Rewatch       bool     `json:"rewatch"`
	Tags          []string `json:"tags,omitempty"`
}

// Film is the canonical per-film record assembled from all export
// tables. Field ownership is strict: Rating comes only from the
// ratings table, ReviewTexts only from reviews, WatchedDates only from
// diary. Sources records which tables contributed anything.
type Film struct {
	Key  string `json:"key"`
	Slug string `json:"slug,omitempty"`
	Name string `json:"name,omitempty"`
	Year *int   `json:"year,omitempty"`
	URL  string `json:"url,omitempty"`

	Watched bool `json:"watched"`

	// WatchedDates is the viewing timeline (ISO dates, deduplicated,
	// ascending). EstimatedDates is the subset that came from the
	// logged-date fallback.
	WatchedDates   []string `json:"watchedDates,omitempty"`
	EstimatedDates []string `json:"estimatedDates,omitempty"`

	Rated      bool     `json:"rated"`
	Rating     *float64 `json:"rating,omitempty"`
	RatedDates []string `json:"ratedDates,omitempty"`

	ReviewTexts []string `json:"reviewTexts,omitempty"`

	RewatchCount int      `json:"rewatchCount"`
	Tags         []string `json:"tags,omitempty"`

	Sources      []archive.Role `json:"sources"`
	DiaryEntries []DiaryEntry   `json:"diaryEntries,omitempty"`
}

// HasSource reports whether the given table role contributed to this film.
func (f *Film) HasSource(role archive.Role) bool {
	for _, s := range f.Sources {
		if s == role {
			return true
		}
	}
	return false
}

// BestDate returns the single date that places this film on the viewing
// timeline: the latest genuine watched date if any exist, otherwise the
// latest logged-date fallback. The second return is false when the film
// has no usable date at all.
func (f *Film) BestDate() (string, bool) {
	var genuine, estimated string
	for _, e := range f.DiaryEntries {
		if e.EffectiveDate == "" {
			continue
		}
		if e.Estimated {
			if e.EffectiveDate > estimated {
				estimated = e.EffectiveDate
			}
		} else {
			if e.EffectiveDate > genuine {
				genuine = e.EffectiveDate
			}
		}
	}
	if genuine != "" {
		return genuine, true
	}
	if estimated != "" {
		return estimated, true
	}
	return "", false
}
