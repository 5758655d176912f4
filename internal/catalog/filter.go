package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter returns the units whose title or path contains query, ignoring case.
// An empty or blank query returns every unit.
func Filter(units []Unit, query string) []Unit {
	q := strings.TrimSpace(query)
	if q == "" {
		out := make([]Unit, len(units))
		copy(out, units)
		return out
	}

	fold := cases.Fold()
	needle := fold.String(q)

	var out []Unit
	for _, u := range units {
		if strings.Contains(fold.String(u.Title), needle) || strings.Contains(fold.String(u.Path), needle) {
			out = append(out, u)
		}
	}
	return out
}
