package asi

import (
	"sort"
	"strings"
)

// RankedBasin is one entry of a worst-first basin ranking.
type RankedBasin struct {
	BasinID string  `json:"basin_id"`
	Name    string  `json:"name"`
	ASI     float64 `json:"asi"`
	Class   string  `json:"class"`
	Date    string  `json:"date"`
}

// TopN returns the n lowest-ASI basins, ascending, optionally restricted to
// the given classes. An empty class set means no filter. The input slice is
// not modified.
func TopN(rows []RankedBasin, n int, classes map[string]bool) []RankedBasin {
	if n < 0 {
		n = 0
	}

	filtered := make([]RankedBasin, 0, len(rows))
	for _, r := range rows {
		if len(classes) > 0 && !classes[r.Class] {
			continue
		}
		filtered = append(filtered, r)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].ASI < filtered[j].ASI
	})

	if len(filtered) > n {
		filtered = filtered[:n]
	}
	return filtered
}

// ParseClasses splits a comma-separated class filter ("alert,watch") into a
// set. Blank segments are dropped; an empty result means no filter.
func ParseClasses(s string) map[string]bool {
	set := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			set[part] = true
		}
	}
	return set
}
