package archive

import (
	"path"
	"strings"
)

// Role identifies which logical export table a CSV file belongs to.
type Role string

const (
	RoleWatched   Role = "watched"
	RoleRatings   Role = "ratings"
	RoleReviews   Role = "reviews"
	RoleDiary     Role = "diary"
	RoleWatchlist Role = "watchlist"
	RoleProfile   Role = "profile"
	RoleComments  Role = "comments"
	RoleLikes     Role = "likes"
	RoleUnknown   Role = "unknown"
)

var knownRoles = map[string]Role{
	"watched":   RoleWatched,
	"ratings":   RoleRatings,
	"reviews":   RoleReviews,
	"diary":     RoleDiary,
	"watchlist": RoleWatchlist,
	"profile":   RoleProfile,
	"comments":  RoleComments,
	"likes":     RoleLikes,
}

// RoleForFilename classifies a CSV file by its lower-cased base name.
// Unrecognized names map to RoleUnknown; such tables are kept but never merged.
func RoleForFilename(name string) Role {
	base := strings.ToLower(path.Base(name))
	base = strings.TrimSuffix(base, ".csv")
	if role, ok := knownRoles[base]; ok {
		return role
	}
	return RoleUnknown
}
