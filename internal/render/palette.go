package render

import (
	"github.com/Monocled004/HarborNet/internal/domain"
)

// categoryColors is the deterministic palette for per-category heat layers
// and the overview pie chart. Keyed at compile time, never derived at
// runtime, so admin map colors stay stable across releases.
var categoryColors = map[domain.Category]string{
	domain.CategoryFlooding:      "#42a5f5",
	domain.CategoryTsunami:       "#66bb6a",
	domain.CategoryHighWaves:     "#ffa726",
	domain.CategoryCoastalDamage: "#ab47bc",
	domain.CategoryOther:         "#ff7043",
}

// CategoryColor returns the fixed display color for a category.
func CategoryColor(cat domain.Category) string {
	if color, ok := categoryColors[cat]; ok {
		return color
	}
	return categoryColors[domain.CategoryOther]
}

// AggregateHeatOptions are the options for the single hotspot layer on the
// public live map: wide radius, heavy blur, multi-stop thermal gradient.
func AggregateHeatOptions() HeatOptions {
	return HeatOptions{
		Radius:     30,
		Blur:       20,
		MaxZoom:    17,
		MinOpacity: 0.5,
		Gradient: map[string]string{
			"0.2": "blue",
			"0.4": "lime",
			"0.6": "yellow",
			"0.8": "red",
		},
	}
}

// CategoryHeatOptions are the options for one admin sub-layer: tight radius,
// no blur, near-opaque, and a flat two-stop gradient in the category color so
// overlapping categories stay visually distinct.
func CategoryHeatOptions(cat domain.Category) HeatOptions {
	color := CategoryColor(cat)
	return HeatOptions{
		Radius:     20,
		Blur:       0,
		MaxZoom:    17,
		MinOpacity: 0.9,
		Gradient: map[string]string{
			"0.2": color,
			"0.8": color,
		},
	}
}
