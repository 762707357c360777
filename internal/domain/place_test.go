package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct {
	result PlaceResult
	err    error
	calls  int
}

func (s *stubGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (PlaceResult, error) {
	s.calls++
	return s.result, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnrichPlaces(t *testing.T) {
	points := []GeoPoint{{Lat: 13.08, Lng: 80.27}}

	t.Run("nil geocoder is a no-op", func(t *testing.T) {
		out := EnrichPlaces(context.Background(), points, nil, discardLogger())
		assert.Equal(t, points, out)
	})

	t.Run("attaches place name", func(t *testing.T) {
		geo := &stubGeocoder{result: PlaceResult{Name: "Chennai", Confidence: 0.9}}
		out := EnrichPlaces(context.Background(), points, geo, discardLogger())

		require.Len(t, out, 1)
		assert.Equal(t, "Chennai", out[0].Place)
		assert.Equal(t, 1, geo.calls)
	})

	t.Run("falls back to formatted address", func(t *testing.T) {
		geo := &stubGeocoder{result: PlaceResult{FormattedAddress: "Chennai, Tamil Nadu"}}
		out := EnrichPlaces(context.Background(), points, geo, discardLogger())
		assert.Equal(t, "Chennai, Tamil Nadu", out[0].Place)
	})

	t.Run("lookup failure keeps point without place", func(t *testing.T) {
		geo := &stubGeocoder{err: errors.New("rate limited")}
		out := EnrichPlaces(context.Background(), points, geo, discardLogger())

		require.Len(t, out, 1)
		assert.Empty(t, out[0].Place)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		geo := &stubGeocoder{result: PlaceResult{Name: "Chennai"}}
		_ = EnrichPlaces(context.Background(), points, geo, discardLogger())
		assert.Empty(t, points[0].Place)
	})
}
