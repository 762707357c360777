// Package httpapi exposes the rendered map views, backend pass-throughs,
// and operational endpoints over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Monocled004/HarborNet/internal/adapter/leaflet"
	"github.com/Monocled004/HarborNet/internal/adapter/reportsapi"
	"github.com/Monocled004/HarborNet/internal/domain"
	"github.com/Monocled004/HarborNet/internal/mapview"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReadinessFunc adapts a function to the ReadinessChecker interface.
type ReadinessFunc func(ctx context.Context) error

func (f ReadinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// ReportsBackend is the subset of the collaborator API the server proxies.
type ReportsBackend interface {
	FetchOverview(ctx context.Context) (reportsapi.Overview, error)
	FetchSocialPosts(ctx context.Context) ([]reportsapi.SocialPost, error)
}

// View pairs a feed binding with the surface it renders to.
type View struct {
	Binding *mapview.View
	Surface *leaflet.Surface
}

// NearbyFactory builds a markers-only view scoped to one uploader's reports.
// The server starts the binding on first request and closes it on Shutdown.
type NearbyFactory func(uploaderID int) View

// Server exposes the map views plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	views      map[string]View
	reports    ReportsBackend
	logger     *slog.Logger

	nearbyFactory NearbyFactory
	nearbyMu      sync.Mutex
	nearby        map[int]View
}

// NewServer creates the HTTP server and mounts all routes. A nil nearby
// factory disables the per-uploader map routes.
func NewServer(addr string, views map[string]View, reports ReportsBackend, nearby NearbyFactory, ready ReadinessChecker, logger *slog.Logger) *Server {
	s := &Server{
		views:         views,
		reports:       reports,
		logger:        logger,
		nearbyFactory: nearby,
		nearby:        make(map[int]View),
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/views", s.handleListViews)
		r.Route("/map/nearby/{uploader}", func(r chi.Router) {
			r.Get("/", s.handleNearbyState)
			r.Post("/refresh", s.handleNearbyRefresh)
		})
		r.Route("/map/{view}", func(r chi.Router) {
			r.Get("/", s.handleMapState)
			r.Put("/filters", s.handleSetFilters)
			r.Put("/markers", s.handleSetMarkers)
			r.Post("/refresh", s.handleRefresh)
		})
		r.Get("/overview", s.handleOverview)
		r.Get("/social/highlights", s.handleSocialHighlights)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline
// and closes every nearby view the server created on demand.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	s.nearbyMu.Lock()
	for _, view := range s.nearby {
		view.Binding.Close()
	}
	s.nearby = make(map[int]View)
	s.nearbyMu.Unlock()

	return err
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleListViews(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(s.views))
	for name := range s.views {
		names = append(names, name)
	}
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string][]string{"views": names})
}

// mapResponse is the full document one map view serves to a client.
type mapResponse struct {
	View      string            `json:"view"`
	Status    domain.FeedStatus `json:"status"`
	FetchedAt time.Time         `json:"fetched_at,omitzero"`
	Stale     bool              `json:"stale"`
	Points    int               `json:"points"`
	Map       leaflet.MapState  `json:"map"`
}

func (s *Server) handleMapState(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookupView(w, r)
	if !ok {
		return
	}
	writeMapState(w, view)
}

func writeMapState(w http.ResponseWriter, view View) {
	snap := view.Binding.Snapshot()
	writeJSON(w, http.StatusOK, mapResponse{
		View:      view.Binding.Name(),
		Status:    snap.Status,
		FetchedAt: snap.FetchedAt,
		Stale:     snap.Stale(),
		Points:    len(snap.Points),
		Map:       view.Surface.State(),
	})
}

func (s *Server) handleNearbyState(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookupNearby(w, r)
	if !ok {
		return
	}
	writeMapState(w, view)
}

func (s *Server) handleNearbyRefresh(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookupNearby(w, r)
	if !ok {
		return
	}
	view.Binding.RefreshNow()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

// lookupNearby resolves the uploader's view, creating and starting it on
// first use.
func (s *Server) lookupNearby(w http.ResponseWriter, r *http.Request) (View, bool) {
	if s.nearbyFactory == nil {
		writeError(w, http.StatusNotFound, "nearby views not configured")
		return View{}, false
	}
	uploaderID, err := strconv.Atoi(chi.URLParam(r, "uploader"))
	if err != nil || uploaderID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid uploader id")
		return View{}, false
	}

	s.nearbyMu.Lock()
	defer s.nearbyMu.Unlock()
	if view, ok := s.nearby[uploaderID]; ok {
		return view, true
	}
	view := s.nearbyFactory(uploaderID)
	view.Binding.Start()
	s.nearby[uploaderID] = view
	s.logger.Info("nearby view created", "uploader_id", uploaderID)
	return view, true
}

// filterRequest is the wire form of filter criteria. Dates are YYYY-MM-DD.
type filterRequest struct {
	Category *domain.Category `json:"category"`
	Verified *bool            `json:"verified"`
	Location string           `json:"location"`
	DateFrom string           `json:"date_from"`
	DateTo   string           `json:"date_to"`
}

func (fr filterRequest) toCriteria() (domain.FilterCriteria, error) {
	criteria := domain.FilterCriteria{
		Category: fr.Category,
		Verified: fr.Verified,
		Location: fr.Location,
	}
	if fr.DateFrom != "" {
		t, err := time.Parse("2006-01-02", fr.DateFrom)
		if err != nil {
			return domain.FilterCriteria{}, errors.New("invalid date_from, want YYYY-MM-DD")
		}
		criteria.DateFrom = t
	}
	if fr.DateTo != "" {
		t, err := time.Parse("2006-01-02", fr.DateTo)
		if err != nil {
			return domain.FilterCriteria{}, errors.New("invalid date_to, want YYYY-MM-DD")
		}
		criteria.DateTo = t
	}
	return criteria, nil
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookupView(w, r)
	if !ok {
		return
	}

	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter body")
		return
	}
	criteria, err := req.toCriteria()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view.Binding.SetCriteria(criteria)
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

func (s *Server) handleSetMarkers(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookupView(w, r)
	if !ok {
		return
	}

	var req struct {
		Visible *bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Visible == nil {
		writeError(w, http.StatusBadRequest, "invalid marker body, want {\"visible\": bool}")
		return
	}

	view.Binding.SetMarkersVisible(*req.Visible)
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookupView(w, r)
	if !ok {
		return
	}

	view.Binding.RefreshNow()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.reports.FetchOverview(r.Context())
	if err != nil {
		s.logger.Warn("overview fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, "reports backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleSocialHighlights(w http.ResponseWriter, r *http.Request) {
	posts, err := s.reports.FetchSocialPosts(r.Context())
	if err != nil {
		s.logger.Warn("social posts fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, "reports backend unavailable")
		return
	}
	if posts == nil {
		posts = []reportsapi.SocialPost{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (s *Server) lookupView(w http.ResponseWriter, r *http.Request) (View, bool) {
	name := chi.URLParam(r, "view")
	view, ok := s.views[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown view")
		return View{}, false
	}
	return view, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
