// Package leaflet implements render.Surface as server-held Leaflet map
// state. Browser clients poll the map-state endpoint and draw the layer
// specs verbatim with leaflet and leaflet.heat; the server side owns which
// overlays exist, so every map view renders the same reconciled state.
package leaflet

import (
	"fmt"
	"sync"

	"github.com/Monocled004/HarborNet/internal/render"
	"github.com/google/uuid"
)

// DefaultTileURL is the public raster tile template used when none is
// configured.
const DefaultTileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"

// DefaultAttribution is a fixed display requirement of the tile provider,
// not a functional dependency.
const DefaultAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`

// LatLng is a WGS-84 coordinate pair in Leaflet's [lat, lng] order.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Options configure a surface. Zero Width/Height mean the surface starts
// unmounted; reconciliation is deferred until SetSize reports dimensions.
type Options struct {
	Center      LatLng
	Zoom        int
	TileURL     string
	Attribution string
	Width       int
	Height      int
}

// Surface is an in-memory, JSON-serializable rendering surface.
type Surface struct {
	mu     sync.Mutex
	opts   Options
	layers map[render.OverlayHandle]render.Layer
	order  []render.OverlayHandle
}

// NewSurface creates a surface with the given options, applying the default
// tile provider when unset.
func NewSurface(opts Options) *Surface {
	if opts.TileURL == "" {
		opts.TileURL = DefaultTileURL
	}
	if opts.Attribution == "" {
		opts.Attribution = DefaultAttribution
	}
	return &Surface{
		opts:   opts,
		layers: map[render.OverlayHandle]render.Layer{},
	}
}

// AddLayer attaches a layer and returns its handle.
func (s *Surface) AddLayer(layer render.Layer) (render.OverlayHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := render.OverlayHandle(uuid.NewString())
	s.layers[h] = layer
	s.order = append(s.order, h)
	return h, nil
}

// RemoveLayer detaches a previously attached layer.
func (s *Surface) RemoveLayer(h render.OverlayHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.layers[h]; !ok {
		return fmt.Errorf("leaflet: unknown overlay handle %q", h)
	}
	delete(s.layers, h)
	for i, existing := range s.order {
		if existing == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Size reports the surface dimensions; zeros mean not mounted.
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Width, s.opts.Height
}

// SetSize updates the container dimensions. Resizing to zero marks the
// surface unavailable without touching attached layers; rendering defers
// until the surface regains dimensions, and polling is unaffected.
func (s *Surface) SetSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Width = width
	s.opts.Height = height
}

// MapState is the JSON document a browser client needs to draw the view.
type MapState struct {
	Center      LatLng         `json:"center"`
	Zoom        int            `json:"zoom"`
	TileURL     string         `json:"tile_url"`
	Attribution string         `json:"attribution"`
	Layers      []render.Layer `json:"layers"`
}

// State returns the current map state with layers in attach order.
func (s *Surface) State() MapState {
	s.mu.Lock()
	defer s.mu.Unlock()

	layers := make([]render.Layer, 0, len(s.order))
	for _, h := range s.order {
		layers = append(layers, s.layers[h])
	}
	return MapState{
		Center:      s.opts.Center,
		Zoom:        s.opts.Zoom,
		TileURL:     s.opts.TileURL,
		Attribution: s.opts.Attribution,
		Layers:      layers,
	}
}

// LayerCount reports how many overlays are attached.
func (s *Surface) LayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.layers)
}
