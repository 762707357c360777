// Package render owns the overlay layer lifecycle: given the latest filtered
// point set and a rendering surface, it computes and applies the attach and
// detach operations that keep the surface's overlays equal to exactly what
// the data implies, with no orphaned layers across refreshes or teardown.
package render

import (
	"github.com/Monocled004/HarborNet/internal/domain"
)

// OverlayHandle identifies one layer attached to a rendering surface. Handles
// are owned by the Manager for the lifetime of the surface and are never
// handed out.
type OverlayHandle string

// LayerKind distinguishes marker layers from heat layers.
type LayerKind string

const (
	LayerMarkers LayerKind = "markers"
	LayerHeat    LayerKind = "heat"
)

// Marker is one report pin with its popup content.
type Marker struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Title string  `json:"title"`
	Body  string  `json:"body,omitempty"`
}

// HeatSample is one weighted point feeding a heat layer.
type HeatSample struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Weight float64 `json:"weight"`
}

// HeatOptions mirror the leaflet.heat parameters the map frontends consume.
// Gradient stops are keyed by normalized intensity.
type HeatOptions struct {
	Radius     int               `json:"radius"`
	Blur       int               `json:"blur"`
	MaxZoom    int               `json:"maxZoom"`
	MinOpacity float64           `json:"minOpacity"`
	Gradient   map[string]string `json:"gradient"`
}

// Layer is the specification of one overlay to attach. Exactly one of
// Markers or Heat is populated depending on Kind.
type Layer struct {
	Kind     LayerKind        `json:"kind"`
	Markers  []Marker         `json:"markers,omitempty"`
	Heat     []HeatSample     `json:"heat,omitempty"`
	Options  HeatOptions      `json:"options,omitzero"`
	Category *domain.Category `json:"category,omitempty"` // set on per-category heat sub-layers
}

// Surface is the mutable rendering target. It has its own lifecycle: it may
// not be sized yet (Size returns zeros until the container is mounted), and
// only the Manager mutates it. Implementations are not required to be
// goroutine-safe; the Manager serializes all access.
type Surface interface {
	// AddLayer attaches a layer and returns its handle.
	AddLayer(layer Layer) (OverlayHandle, error)

	// RemoveLayer detaches a previously attached layer. Removing an unknown
	// handle is an error; the Manager never issues one.
	RemoveLayer(handle OverlayHandle) error

	// Size reports the surface dimensions. A zero dimension means the
	// surface is not ready to render.
	Size() (width, height int)
}
