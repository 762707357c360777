package render

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Monocled004/HarborNet/internal/domain"
	"github.com/Monocled004/HarborNet/internal/observability"
)

var (
	// ErrSurfaceUnavailable means the surface has no dimensions yet. This is
	// a precondition, not a failure: callers retry on the next snapshot or
	// criteria change.
	ErrSurfaceUnavailable = errors.New("render: surface not sized")

	// ErrDisposed means the manager's surface was torn down; no further
	// reconciliation is possible.
	ErrDisposed = errors.New("render: manager disposed")
)

// Manager owns the add/remove lifecycle of every overlay attached to one
// rendering surface. After any completed reconciliation the attached set
// equals exactly what the latest point set implies; Dispose is the only path
// that fully clears state and it runs unconditionally.
//
// Reconciliation is serialized: a request arriving while a pass is in flight
// is coalesced into a single trailing pass with the latest data, never
// interleaved. The in-progress flag also guards against reentrancy when a
// surface mutation synchronously triggers another reconcile.
type Manager struct {
	surface Surface
	logger  *slog.Logger
	metrics *observability.Metrics

	mu             sync.Mutex
	handles        []OverlayHandle
	reconciling    bool
	pending        *pass
	markersVisible bool
	disposed       bool
}

type pass struct {
	points []domain.GeoPoint
	mode   RenderMode
}

// NewManager creates a Manager for one surface. Markers start visible.
func NewManager(surface Surface, logger *slog.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		surface:        surface,
		logger:         logger,
		metrics:        metrics,
		markersVisible: true,
	}
}

// SetMarkersVisible toggles the marker layer for subsequent passes. The
// caller re-reconciles to apply the change.
func (m *Manager) SetMarkersVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markersVisible = visible
}

// AttachedCount reports how many overlay handles are currently attached.
func (m *Manager) AttachedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// Reconcile brings the surface's overlays in line with the given point set.
// If a pass is already in flight the request is queued (latest data wins)
// and applied by the in-flight call before it returns. Returns
// ErrSurfaceUnavailable while the surface has no dimensions.
func (m *Manager) Reconcile(points []domain.GeoPoint, mode RenderMode) error {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return ErrDisposed
	}
	if m.reconciling {
		// Finish the in-flight pass first; this data becomes the trailing pass.
		m.pending = &pass{points: points, mode: mode}
		m.metrics.ReconcilesQueued.Inc()
		m.mu.Unlock()
		return nil
	}

	if w, h := m.surface.Size(); w == 0 || h == 0 {
		m.mu.Unlock()
		return ErrSurfaceUnavailable
	}

	m.reconciling = true
	current := &pass{points: points, mode: mode}
	m.mu.Unlock()

	var err error
	for current != nil {
		passErr := m.applyPass(current)
		if passErr != nil {
			err = passErr
		}

		m.mu.Lock()
		current, m.pending = m.pending, nil
		if current == nil || m.disposed {
			m.reconciling = false
			disposed := m.disposed
			m.mu.Unlock()
			if disposed {
				return ErrDisposed
			}
			break
		}
		m.mu.Unlock()
	}

	return err
}

// applyPass detaches every previously attached handle, then attaches the
// overlays the new point set implies. Detach-before-attach ordering prevents
// duplicate overlapping heat fields during a refresh.
func (m *Manager) applyPass(p *pass) error {
	m.mu.Lock()
	old := m.handles
	m.handles = nil
	markersVisible := m.markersVisible
	m.mu.Unlock()

	for _, h := range old {
		if err := m.surface.RemoveLayer(h); err != nil {
			m.logger.Warn("detach overlay failed", "handle", string(h), "error", err)
			continue
		}
		m.metrics.LayersDetached.Inc()
	}

	layers := buildLayers(p.points, p.mode, markersVisible)

	attached := make([]OverlayHandle, 0, len(layers))
	var firstErr error
	for _, layer := range layers {
		h, err := m.surface.AddLayer(layer)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("attach %s layer: %w", layer.Kind, err)
			}
			m.logger.Error("attach overlay failed", "kind", string(layer.Kind), "error", err)
			continue
		}
		attached = append(attached, h)
		m.metrics.LayersAttached.Inc()
	}

	m.mu.Lock()
	if m.disposed {
		// Torn down mid-pass: release what this pass attached right away.
		m.mu.Unlock()
		for _, h := range attached {
			if err := m.surface.RemoveLayer(h); err != nil {
				m.logger.Warn("detach overlay on dispose failed", "handle", string(h), "error", err)
				continue
			}
			m.metrics.LayersDetached.Inc()
		}
		m.metrics.AttachedLayers.Set(0)
		return firstErr
	}
	m.handles = attached
	m.mu.Unlock()

	m.metrics.Reconciliations.Inc()
	m.metrics.AttachedLayers.Set(float64(len(attached)))
	m.logger.Debug("reconciled overlays",
		"points", len(p.points),
		"layers", len(attached),
		"mode", int(p.mode),
	)

	return firstErr
}

// Dispose detaches all currently attached handles and permanently retires
// the manager. This is the teardown path and it always runs to completion:
// individual detach failures are logged, never propagated.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	m.pending = nil
	old := m.handles
	m.handles = nil
	m.mu.Unlock()

	for _, h := range old {
		if err := m.surface.RemoveLayer(h); err != nil {
			m.logger.Warn("detach overlay on dispose failed", "handle", string(h), "error", err)
			continue
		}
		m.metrics.LayersDetached.Inc()
	}
	m.metrics.AttachedLayers.Set(0)
}
