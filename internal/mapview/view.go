// Package mapview binds one live report feed to one managed map surface.
// A View subscribes to feed snapshots, applies its filter criteria, and
// reconciles the surface overlays, so the rendered map always reflects the
// latest filtered data without the transport or rendering layers knowing
// about each other.
package mapview

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/Monocled004/HarborNet/internal/domain"
	"github.com/Monocled004/HarborNet/internal/livefeed"
	"github.com/Monocled004/HarborNet/internal/render"
)

// Config describes one map view. Query sets the upstream fetch scope;
// Criteria narrows the fetched points locally.
type Config struct {
	Name           string
	Mode           render.RenderMode
	MarkersVisible bool
	Query          livefeed.Query
	Criteria       domain.FilterCriteria
}

// View is the binding between a live feed and a rendering surface.
type View struct {
	cfg     Config
	source  *livefeed.Source
	manager *render.Manager
	logger  *slog.Logger

	mu       sync.Mutex
	criteria domain.FilterCriteria
	latest   domain.Snapshot
	unsub    func()
	started  bool
	closed   bool
}

// New creates a View. Call Start to begin receiving snapshots.
func New(cfg Config, source *livefeed.Source, manager *render.Manager, logger *slog.Logger) *View {
	manager.SetMarkersVisible(cfg.MarkersVisible)
	return &View{
		cfg:      cfg,
		source:   source,
		manager:  manager,
		logger:   logger.With("view", cfg.Name),
		criteria: cfg.Criteria,
	}
}

// Start sets the view's fetch scope and subscribes to the feed. The first
// snapshot arrives synchronously.
func (v *View) Start() {
	v.mu.Lock()
	if v.started || v.closed {
		v.mu.Unlock()
		return
	}
	v.started = true
	v.mu.Unlock()

	v.source.SetQuery(v.cfg.Query)
	unsub := v.source.Subscribe(v.onSnapshot)

	v.mu.Lock()
	v.unsub = unsub
	v.mu.Unlock()
}

// Name returns the view's configured name.
func (v *View) Name() string {
	return v.cfg.Name
}

// Snapshot returns the latest feed snapshot this view has seen.
func (v *View) Snapshot() domain.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.latest
}

// Criteria returns the currently applied filter criteria.
func (v *View) Criteria() domain.FilterCriteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.criteria
}

// SetCriteria replaces the filter criteria and re-renders. Changing the
// verification criterion also narrows the upstream fetch scope, superseding
// any fetch in flight; other criteria are applied to the data already held.
func (v *View) SetCriteria(c domain.FilterCriteria) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.criteria = c
	snap := v.latest
	v.mu.Unlock()

	current := v.source.Query()
	if !boolPtrEqual(current.Verified, c.Verified) {
		current.Verified = c.Verified
		v.source.SetQuery(current)
		return
	}
	v.apply(snap)
}

// SetMarkersVisible toggles the marker layer and re-renders.
func (v *View) SetMarkersVisible(visible bool) {
	v.manager.SetMarkersVisible(visible)

	v.mu.Lock()
	snap := v.latest
	closed := v.closed
	v.mu.Unlock()
	if closed {
		return
	}
	v.apply(snap)
}

// RefreshNow asks the feed for fresh data immediately.
func (v *View) RefreshNow() {
	v.source.RefreshNow()
}

// Close unsubscribes from the feed and disposes the surface overlays.
// Safe to call more than once.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	unsub := v.unsub
	v.unsub = nil
	v.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	v.manager.Dispose()
}

// onSnapshot runs on every feed publish, including the initial delivery at
// subscribe time. It must not call back into the Source.
func (v *View) onSnapshot(snap domain.Snapshot) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.latest = snap
	v.mu.Unlock()

	v.apply(snap)
}

func (v *View) apply(snap domain.Snapshot) {
	v.mu.Lock()
	criteria := v.criteria
	v.mu.Unlock()

	filtered := domain.ApplyFilter(snap.Points, criteria)
	err := v.manager.Reconcile(filtered, v.cfg.Mode)
	switch {
	case err == nil:
	case errors.Is(err, render.ErrSurfaceUnavailable):
		// Surface not mounted yet; the next snapshot retries.
		v.logger.Debug("render deferred, surface not sized")
	case errors.Is(err, render.ErrDisposed):
	default:
		v.logger.Warn("overlay reconcile failed", "error", err)
	}
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
