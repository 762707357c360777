package domain

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Category is the closed hazard category enumeration. Classification is
// total: any label we do not recognize maps to CategoryOther.
type Category int

const (
	CategoryFlooding Category = iota
	CategoryTsunami
	CategoryHighWaves
	CategoryCoastalDamage
	CategoryOther
)

// Categories lists every category in rendering order. Iterate over this
// rather than hand-rolling switch statements so adding a hazard type stays a
// one-line change.
func Categories() []Category {
	return []Category{
		CategoryFlooding,
		CategoryTsunami,
		CategoryHighWaves,
		CategoryCoastalDamage,
		CategoryOther,
	}
}

// String returns the stable slug used in JSON payloads and metric labels.
func (c Category) String() string {
	switch c {
	case CategoryFlooding:
		return "flooding"
	case CategoryTsunami:
		return "tsunami"
	case CategoryHighWaves:
		return "highwaves"
	case CategoryCoastalDamage:
		return "coastaldamage"
	default:
		return "other"
	}
}

// DisplayName returns the user-facing label, matching the submission form.
func (c Category) DisplayName() string {
	switch c {
	case CategoryFlooding:
		return "Flooding"
	case CategoryTsunami:
		return "Tsunami"
	case CategoryHighWaves:
		return "High Waves"
	case CategoryCoastalDamage:
		return "Coastal Damage"
	default:
		return "Other"
	}
}

// MarshalJSON serializes a category as its slug.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON reads any recognized spelling back into a category.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = Classify(s)
	return nil
}

// categoryTable maps every known spelling, keyed after lower-casing and
// whitespace stripping, to its canonical category. Legacy keys that collide
// once whitespace is removed ("high waves" vs "highwaves") intentionally
// share an entry. "tsunamialert" is the old submission-form label.
var categoryTable = map[string]Category{
	"flooding":      CategoryFlooding,
	"tsunami":       CategoryTsunami,
	"tsunamialert":  CategoryTsunami,
	"highwaves":     CategoryHighWaves,
	"coastaldamage": CategoryCoastalDamage,
	"other":         CategoryOther,
}

// Classify maps a free-text category label to its canonical bucket. It is
// case-insensitive, whitespace-insensitive, and total; unmatched input
// returns CategoryOther. Classifying a category's own DisplayName yields the
// same category back, so classification is idempotent.
func Classify(label string) Category {
	key := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, label)

	if cat, ok := categoryTable[key]; ok {
		return cat
	}
	return CategoryOther
}

// CountByCategory tallies points per category, including empty buckets, for
// overview panels and the alert feed summary.
func CountByCategory(points []GeoPoint) map[Category]int {
	counts := make(map[Category]int, len(Categories()))
	for _, cat := range Categories() {
		counts[cat] = 0
	}
	for _, p := range points {
		counts[p.Category]++
	}
	return counts
}
