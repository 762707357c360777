package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Monocled004/HarborNet/internal/adapter/httpapi"
	"github.com/Monocled004/HarborNet/internal/adapter/leaflet"
	"github.com/Monocled004/HarborNet/internal/adapter/reportsapi"
	"github.com/Monocled004/HarborNet/internal/domain"
	"github.com/Monocled004/HarborNet/internal/livefeed"
	"github.com/Monocled004/HarborNet/internal/mapview"
	"github.com/Monocled004/HarborNet/internal/observability"
	"github.com/Monocled004/HarborNet/internal/render"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFetcher struct {
	records []domain.RawRecord
}

func (f *staticFetcher) FetchReports(_ context.Context, q livefeed.Query) ([]domain.RawRecord, error) {
	if q.UploaderID == 0 {
		return f.records, nil
	}
	var scoped []domain.RawRecord
	for _, rec := range f.records {
		if rec.UploaderID == q.UploaderID {
			scoped = append(scoped, rec)
		}
	}
	return scoped, nil
}

type mockReports struct {
	overview    reportsapi.Overview
	posts       []reportsapi.SocialPost
	overviewErr error
	postsErr    error
}

func (m *mockReports) FetchOverview(context.Context) (reportsapi.Overview, error) {
	return m.overview, m.overviewErr
}

func (m *mockReports) FetchSocialPosts(context.Context) ([]reportsapi.SocialPost, error) {
	return m.posts, m.postsErr
}

func coord(v float64) domain.Coord { return domain.Coord{Value: v, Valid: true} }

func newTestServer(t *testing.T, reports httpapi.ReportsBackend, readyErr error) *httpapi.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	fetcher := &staticFetcher{records: []domain.RawRecord{
		{ID: 1, UploaderID: 7, Category: "Flooding", Status: "verified", Latitude: coord(13.08), Longitude: coord(80.27)},
		{ID: 2, UploaderID: 7, Category: "Flooding", Status: "unverified", Latitude: coord(13.10), Longitude: coord(80.30)},
		{ID: 3, UploaderID: 9, Category: "High Waves", Status: "verified", Latitude: coord(8.50), Longitude: coord(76.95)},
	}}

	source := livefeed.New(fetcher, nil, 10*time.Second, clockwork.NewFakeClock(), logger, metrics)
	surface := leaflet.NewSurface(leaflet.Options{
		Center: leaflet.LatLng{Lat: 15.235, Lng: 78.44},
		Zoom:   5,
		Width:  1280,
		Height: 720,
	})
	manager := render.NewManager(surface, logger, metrics)
	binding := mapview.New(mapview.Config{
		Name:           "public",
		Mode:           render.ModeAggregateHeat,
		MarkersVisible: true,
	}, source, manager, logger)
	binding.Start()
	t.Cleanup(binding.Close)

	require.Eventually(t, func() bool {
		return binding.Snapshot().Status == domain.FeedReady
	}, time.Second, 5*time.Millisecond)

	views := map[string]httpapi.View{
		"public": {Binding: binding, Surface: surface},
	}
	nearby := httpapi.NearbyFactory(func(uploaderID int) httpapi.View {
		nearbySource := livefeed.New(fetcher, nil, 10*time.Second, clockwork.NewFakeClock(), logger, metrics)
		nearbySurface := leaflet.NewSurface(leaflet.Options{
			Center: leaflet.LatLng{Lat: 15.235, Lng: 78.44},
			Zoom:   5,
			Width:  1280,
			Height: 720,
		})
		nearbyBinding := mapview.New(mapview.Config{
			Name:           fmt.Sprintf("nearby-%d", uploaderID),
			Mode:           render.ModeMarkersOnly,
			MarkersVisible: true,
			Query:          livefeed.Query{UploaderID: uploaderID},
		}, nearbySource, render.NewManager(nearbySurface, logger, metrics), logger)
		return httpapi.View{Binding: nearbyBinding, Surface: nearbySurface}
	})
	ready := httpapi.ReadinessFunc(func(context.Context) error { return readyErr })
	srv := httpapi.NewServer(":0", views, reports, nearby, ready, logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func doRequest(srv *httpapi.Server, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)
	rec := doRequest(srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)
	rec := doRequest(srv, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, fmt.Errorf("feed never fetched"))
	rec := doRequest(srv, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "feed never fetched", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)
	rec := doRequest(srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestListViews(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)
	rec := doRequest(srv, http.MethodGet, "/api/views", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"public"}, body["views"])
}

func TestMapState(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)
	rec := doRequest(srv, http.MethodGet, "/api/map/public", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		View   string `json:"view"`
		Status string `json:"status"`
		Stale  bool   `json:"stale"`
		Points int    `json:"points"`
		Map    struct {
			TileURL string `json:"tile_url"`
			Layers  []struct {
				Kind    string           `json:"kind"`
				Markers []render.Marker  `json:"markers"`
				Heat    []render.HeatSample `json:"heat"`
			} `json:"layers"`
		} `json:"map"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "public", body.View)
	assert.Equal(t, "ready", body.Status)
	assert.False(t, body.Stale)
	assert.Equal(t, 3, body.Points)
	assert.NotEmpty(t, body.Map.TileURL)
	require.Len(t, body.Map.Layers, 2)
	assert.Equal(t, "markers", body.Map.Layers[0].Kind)
	assert.Len(t, body.Map.Layers[0].Markers, 3)
	assert.Equal(t, "heat", body.Map.Layers[1].Kind)
	assert.Len(t, body.Map.Layers[1].Heat, 3)
}

func TestMapState_UnknownView(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)
	rec := doRequest(srv, http.MethodGet, "/api/map/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetFilters(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)

	rec := doRequest(srv, http.MethodPut, "/api/map/public/filters", `{"category":"flooding"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/api/map/public", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Map struct {
			Layers []struct {
				Markers []render.Marker `json:"markers"`
			} `json:"layers"`
		} `json:"map"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Map.Layers)
	assert.Len(t, body.Map.Layers[0].Markers, 2)
}

func TestSetFilters_InvalidBody(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)

	rec := doRequest(srv, http.MethodPut, "/api/map/public/filters", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(srv, http.MethodPut, "/api/map/public/filters", `{"date_from":"26-05-2026"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "date_from")
}

func TestSetMarkers(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)

	rec := doRequest(srv, http.MethodPut, "/api/map/public/markers", `{"visible":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/api/map/public", "")
	var body struct {
		Map struct {
			Layers []struct {
				Kind string `json:"kind"`
			} `json:"layers"`
		} `json:"map"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Map.Layers, 1)
	assert.Equal(t, "heat", body.Map.Layers[0].Kind)
}

func TestSetMarkers_MissingField(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)

	rec := doRequest(srv, http.MethodPut, "/api/map/public/markers", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefresh(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)

	rec := doRequest(srv, http.MethodPost, "/api/map/public/refresh", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

type nearbyResponse struct {
	View   string `json:"view"`
	Status string `json:"status"`
	Points int    `json:"points"`
	Map    struct {
		Layers []struct {
			Kind    string          `json:"kind"`
			Markers []render.Marker `json:"markers"`
		} `json:"layers"`
	} `json:"map"`
}

func getNearby(t *testing.T, srv *httpapi.Server, target string) nearbyResponse {
	t.Helper()

	var body nearbyResponse
	require.Eventually(t, func() bool {
		rec := doRequest(srv, http.MethodGet, target, "")
		if rec.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			return false
		}
		return body.Status == "ready"
	}, time.Second, 5*time.Millisecond)
	return body
}

func TestNearbyMapShowsOnlyUploaderReports(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)

	body := getNearby(t, srv, "/api/map/nearby/7")

	assert.Equal(t, "nearby-7", body.View)
	assert.Equal(t, 2, body.Points)
	require.Len(t, body.Map.Layers, 1)
	assert.Equal(t, "markers", body.Map.Layers[0].Kind)
	assert.Len(t, body.Map.Layers[0].Markers, 2)
}

func TestNearbyMapReusesViewAcrossRequests(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)

	first := getNearby(t, srv, "/api/map/nearby/9")
	second := getNearby(t, srv, "/api/map/nearby/9")

	assert.Equal(t, first.View, second.View)
	require.Len(t, second.Map.Layers, 1)
	assert.Len(t, second.Map.Layers[0].Markers, 1)
}

func TestNearbyMap_InvalidUploader(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)

	rec := doRequest(srv, http.MethodGet, "/api/map/nearby/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/api/map/nearby/0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNearbyRefresh(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)

	rec := doRequest(srv, http.MethodPost, "/api/map/nearby/7/refresh", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestNearbyMap_NotConfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ready := httpapi.ReadinessFunc(func(context.Context) error { return nil })
	srv := httpapi.NewServer(":0", nil, &mockReports{}, nil, ready, logger)

	rec := doRequest(srv, http.MethodGet, "/api/map/nearby/7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOverview(t *testing.T) {
	srv := newTestServer(t, &mockReports{
		overview: reportsapi.Overview{Flooding: 4, Tsunami: 1, Verified: 3, Unverified: 2},
	}, nil)

	rec := doRequest(srv, http.MethodGet, "/api/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body reportsapi.Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Flooding)
	assert.Equal(t, 3, body.Verified)
}

func TestOverview_BackendDown(t *testing.T) {
	srv := newTestServer(t, &mockReports{overviewErr: errors.New("connection refused")}, nil)

	rec := doRequest(srv, http.MethodGet, "/api/overview", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSocialHighlights(t *testing.T) {
	srv := newTestServer(t, &mockReports{
		posts: []reportsapi.SocialPost{
			{ID: 1, Platform: "twitter", Content: "High waves near the harbor", Username: "coastwatch"},
		},
	}, nil)

	rec := doRequest(srv, http.MethodGet, "/api/social/highlights", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Posts []reportsapi.SocialPost `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Posts, 1)
	assert.Equal(t, "coastwatch", body.Posts[0].Username)
}

func TestSocialHighlights_EmptyIsArray(t *testing.T) {
	srv := newTestServer(t, &mockReports{}, nil)

	rec := doRequest(srv, http.MethodGet, "/api/social/highlights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"posts":[]`)
}
