package domain

import (
	"context"
	"log/slog"
)

// PlaceResult contains location data returned by a geocoding provider.
type PlaceResult struct {
	Name             string
	FormattedAddress string
	Confidence       float64 // 0.0 to 1.0 provider confidence score
}

// Geocoder resolves coordinates to place details so the location filter has
// text to match against.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (PlaceResult, error)
}

// EnrichPlaces attaches place names to points via reverse geocoding. If
// geocoder is nil the points are returned unchanged; individual lookup
// failures are logged and leave that point without a place; enrichment never
// blocks a snapshot.
func EnrichPlaces(ctx context.Context, points []GeoPoint, geocoder Geocoder, logger *slog.Logger) []GeoPoint {
	if geocoder == nil || len(points) == 0 {
		return points
	}

	enriched := make([]GeoPoint, len(points))
	copy(enriched, points)

	for i := range enriched {
		result, err := geocoder.ReverseGeocode(ctx, enriched[i].Lat, enriched[i].Lng)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"lat", enriched[i].Lat,
				"lng", enriched[i].Lng,
				"error", err,
			)
			continue
		}
		if result.Name != "" {
			enriched[i].Place = result.Name
		} else if result.FormattedAddress != "" {
			enriched[i].Place = result.FormattedAddress
		}
	}
	return enriched
}
