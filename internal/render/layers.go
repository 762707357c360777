package render

import (
	"github.com/Monocled004/HarborNet/internal/domain"
)

// RenderMode selects which overlays a reconciliation pass produces.
type RenderMode int

const (
	// ModeMarkersOnly renders report pins without a density field (the user
	// nearby-alerts map).
	ModeMarkersOnly RenderMode = iota

	// ModeAggregateHeat renders pins plus one weighted hotspot layer built
	// from all qualifying points (the public live map).
	ModeAggregateHeat

	// ModeCategoryHeat renders pins plus one fixed-color heat sub-layer per
	// non-empty category bucket (the admin interactive map).
	ModeCategoryHeat
)

// minHeatPoints is the smallest point set that defines a density field. A
// single point still renders as a marker.
const minHeatPoints = 2

// buildLayers computes the desired overlay set for a point set and mode.
// The result is what the surface must show after reconciliation, in a stable
// order: markers first, then heat layers in category order.
func buildLayers(points []domain.GeoPoint, mode RenderMode, markersVisible bool) []Layer {
	var layers []Layer

	if markersVisible && len(points) > 0 {
		layers = append(layers, markerLayer(points))
	}

	switch mode {
	case ModeAggregateHeat:
		if len(points) >= minHeatPoints {
			layers = append(layers, Layer{
				Kind:    LayerHeat,
				Heat:    heatSamples(points),
				Options: AggregateHeatOptions(),
			})
		}
	case ModeCategoryHeat:
		for _, cat := range domain.Categories() {
			cat := cat
			bucket := bucketByCategory(points, cat)
			if len(bucket) < minHeatPoints {
				continue
			}
			layers = append(layers, Layer{
				Kind:     LayerHeat,
				Heat:     heatSamples(bucket),
				Options:  CategoryHeatOptions(cat),
				Category: &cat,
			})
		}
	}

	return layers
}

func markerLayer(points []domain.GeoPoint) Layer {
	markers := make([]Marker, len(points))
	for i, p := range points {
		markers[i] = Marker{
			Lat:   p.Lat,
			Lng:   p.Lng,
			Title: p.Category.DisplayName(),
			Body:  p.Description,
		}
	}
	return Layer{Kind: LayerMarkers, Markers: markers}
}

func heatSamples(points []domain.GeoPoint) []HeatSample {
	samples := make([]HeatSample, len(points))
	for i, p := range points {
		samples[i] = HeatSample{Lat: p.Lat, Lng: p.Lng, Weight: p.Weight}
	}
	return samples
}

func bucketByCategory(points []domain.GeoPoint, cat domain.Category) []domain.GeoPoint {
	var bucket []domain.GeoPoint
	for _, p := range points {
		if p.Category == cat {
			bucket = append(bucket, p)
		}
	}
	return bucket
}
