package util

import (
	"sort"
	"strings"
)

// NormalizeSkills trims, lower-cases, de-duplicates and sorts a skill set.
// A nil input yields an empty, non-nil slice.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.Join(strings.Fields(s), " "))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
