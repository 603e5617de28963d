package keys

import (
	"sort"
	"strings"
)

// CharacterID derives a stable identifier from a display name: trims,
// lower-cases and replaces spaces with underscores. Used when a config
// entry omits an explicit character_id.
func CharacterID(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

// RosterKey produces a canonical key for a set of character names.
// Parts are normalized like CharacterID, sorted and joined with
// underscore, so the same roster always yields the same key.
func RosterKey(names []string) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		s := CharacterID(n)
		if s == "" {
			continue
		}
		parts = append(parts, s)
	}
	sort.Strings(parts)
	return strings.Join(parts, "_")
}
