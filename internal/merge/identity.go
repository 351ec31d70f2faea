package merge

import (
	"fmt"
	"strings"

	"filmlens/internal/archive"
)

// Identity is the resolved deduplication key for one row, plus the slug
// when it could be extracted from a detail URL.
type Identity struct {
	Key  string
	Slug string
}

// ResolveIdentity derives a stable identity for the film a row refers
// to. Resolution priority: a slug extracted from a detail URL or
// short link, then normalized name::year, then the raw trimmed URL when
// no name exists, and finally a synthetic per-row key so that no row is
// ever silently dropped. The function is pure and deterministic.
func ResolveIdentity(row archive.Row, role archive.Role, index int) Identity {
	uri := row.First(uriAliases...)
	name := row.First(nameAliases...)

	if uri != "" {
		if slug := slugFromURL(uri); slug != "" {
			return Identity{Key: slug, Slug: slug}
		}
		if name == "" {
			// Unparseable URL and no name: the raw URL still
			// identifies the film within this import.
			return Identity{Key: uri}
		}
	}

	if name != "" {
		year := "unknown"
		if y := parseYear(row.First(yearAliases...)); y != nil {
			year = fmt.Sprintf("%d", *y)
		}
		return Identity{Key: normalizeName(name) + "::" + year}
	}

	return Identity{Key: fmt.Sprintf("unknown:%s:%d", role, index)}
}

// slugFromURL extracts the film slug from a detail URL
// (".../film/<slug>/...") or the token of a short link
// ("https://boxd.it/<token>").
func slugFromURL(uri string) string {
	uri = strings.TrimSpace(uri)

	if idx := strings.Index(uri, "/film/"); idx >= 0 {
		rest := uri[idx+len("/film/"):]
		if end := strings.IndexAny(rest, "/?#"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}

	if idx := strings.Index(uri, "boxd.it/"); idx >= 0 {
		rest := uri[idx+len("boxd.it/"):]
		if end := strings.IndexAny(rest, "/?#"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}

	return ""
}

// normalizeName lower-cases a film name and collapses internal
// whitespace, so "The  Matrix" and "the matrix" coalesce.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
