package domain

import (
	"math"
	"time"
)

// NormalizeRecords converts raw report records into validated GeoPoints.
// Records with missing, non-finite, or out-of-range coordinates are silently
// dropped; malformed upstream data is expected and non-fatal. The result
// preserves input order and is deterministic for identical input. Callers
// that want a drop count can compare lengths.
func NormalizeRecords(records []RawRecord) []GeoPoint {
	points := make([]GeoPoint, 0, len(records))
	for _, rec := range records {
		p, ok := normalizeRecord(rec)
		if !ok {
			continue
		}
		points = append(points, p)
	}
	return points
}

func normalizeRecord(rec RawRecord) (GeoPoint, bool) {
	if !validCoords(rec.Latitude, rec.Longitude) {
		return GeoPoint{}, false
	}

	weight := rec.Volume
	if weight < 1 {
		weight = 1
	}

	return GeoPoint{
		Lat:         rec.Latitude.Value,
		Lng:         rec.Longitude.Value,
		Category:    Classify(rec.Category),
		Weight:      weight,
		Verified:    rec.Status == "verified",
		Description: rec.Description,
		ReportedAt:  parseReportDate(rec.Date),
	}, true
}

func validCoords(lat, lng Coord) bool {
	if !lat.Valid || !lng.Valid {
		return false
	}
	if math.IsNaN(lat.Value) || math.IsInf(lat.Value, 0) ||
		math.IsNaN(lng.Value) || math.IsInf(lng.Value, 0) {
		return false
	}
	return lat.Value >= -90 && lat.Value <= 90 &&
		lng.Value >= -180 && lng.Value <= 180
}

// parseReportDate reads the backend's YYYY-MM-DD issue date. A missing or
// malformed date leaves the zero time; the date filter skips such points
// only when a range is actually set.
func parseReportDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
