package leaflet

import (
	"encoding/json"
	"testing"

	"github.com/Monocled004/HarborNet/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSurface() *Surface {
	return NewSurface(Options{
		Center: LatLng{Lat: 15.235, Lng: 78.44},
		Zoom:   5,
		Width:  1280,
		Height: 720,
	})
}

func TestSurface_AddAndRemoveLayers(t *testing.T) {
	s := newTestSurface()

	h1, err := s.AddLayer(render.Layer{Kind: render.LayerMarkers})
	require.NoError(t, err)
	h2, err := s.AddLayer(render.Layer{Kind: render.LayerHeat})
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
	assert.Equal(t, 2, s.LayerCount())

	require.NoError(t, s.RemoveLayer(h1))
	assert.Equal(t, 1, s.LayerCount())

	state := s.State()
	require.Len(t, state.Layers, 1)
	assert.Equal(t, render.LayerHeat, state.Layers[0].Kind)
}

func TestSurface_RemoveUnknownHandle(t *testing.T) {
	s := newTestSurface()

	err := s.RemoveLayer("no-such-handle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown overlay handle")
}

func TestSurface_StatePreservesAttachOrder(t *testing.T) {
	s := newTestSurface()

	_, err := s.AddLayer(render.Layer{Kind: render.LayerMarkers})
	require.NoError(t, err)
	first, err := s.AddLayer(render.Layer{Kind: render.LayerHeat})
	require.NoError(t, err)
	_, err = s.AddLayer(render.Layer{Kind: render.LayerHeat})
	require.NoError(t, err)

	require.NoError(t, s.RemoveLayer(first))

	state := s.State()
	require.Len(t, state.Layers, 2)
	assert.Equal(t, render.LayerMarkers, state.Layers[0].Kind)
	assert.Equal(t, render.LayerHeat, state.Layers[1].Kind)
}

func TestSurface_SizeAndResize(t *testing.T) {
	s := NewSurface(Options{})

	w, h := s.Size()
	assert.Zero(t, w)
	assert.Zero(t, h)

	s.SetSize(800, 600)
	w, h = s.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
}

func TestSurface_DefaultTileProvider(t *testing.T) {
	s := NewSurface(Options{})

	state := s.State()
	assert.Equal(t, DefaultTileURL, state.TileURL)
	assert.Contains(t, state.Attribution, "OpenStreetMap")
}

func TestSurface_StateSerializes(t *testing.T) {
	s := newTestSurface()
	_, err := s.AddLayer(render.Layer{
		Kind: render.LayerMarkers,
		Markers: []render.Marker{
			{Lat: 13.08, Lng: 80.27, Title: "Flooding"},
		},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(s.State())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "center")
	assert.Contains(t, decoded, "tile_url")
	assert.Contains(t, decoded, "layers")
}
