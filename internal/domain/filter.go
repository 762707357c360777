package domain

import (
	"strings"
	"time"
)

// FilterCriteria holds user-selected predicates. A nil/zero criterion
// matches everything; set criteria are AND-combined. It is a pure value
// object: applying it never mutates shared state.
//
// Verified is a tri-state pointer because "show everything" and "show
// unverified only" are different views. The documented default is nil: a
// view renders all reports regardless of verification until the user opts
// into a verified or unverified toggle.
type FilterCriteria struct {
	Category *Category
	Verified *bool
	Location string
	DateFrom time.Time
	DateTo   time.Time
}

// IsZero reports whether no criterion is set.
func (c FilterCriteria) IsZero() bool {
	return c.Category == nil && c.Verified == nil && c.Location == "" &&
		c.DateFrom.IsZero() && c.DateTo.IsZero()
}

// ApplyFilter returns the points matching the criteria. It is pure,
// order-preserving, and criteria-order-independent: each predicate inspects
// one normalized field and never errors on missing data, it only excludes.
func ApplyFilter(points []GeoPoint, criteria FilterCriteria) []GeoPoint {
	if criteria.IsZero() {
		return points
	}
	out := make([]GeoPoint, 0, len(points))
	for _, p := range points {
		if matches(p, criteria) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p GeoPoint, c FilterCriteria) bool {
	if c.Category != nil && p.Category != *c.Category {
		return false
	}
	if c.Verified != nil && p.Verified != *c.Verified {
		return false
	}
	if c.Location != "" && !matchesLocation(p, c.Location) {
		return false
	}
	if !c.DateFrom.IsZero() || !c.DateTo.IsZero() {
		if !matchesDate(p.ReportedAt, c.DateFrom, c.DateTo) {
			return false
		}
	}
	return true
}

// matchesLocation does case-insensitive substring containment against the
// enriched place name and the free-text description. Points with neither
// field simply do not match; that is exclusion, not an error.
func matchesLocation(p GeoPoint, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Place), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

func matchesDate(t, from, to time.Time) bool {
	if t.IsZero() {
		return false
	}
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
