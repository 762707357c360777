package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Monocled004/HarborNet/internal/adapter/httpapi"
	"github.com/Monocled004/HarborNet/internal/adapter/kafkafeed"
	"github.com/Monocled004/HarborNet/internal/adapter/leaflet"
	"github.com/Monocled004/HarborNet/internal/adapter/mapbox"
	"github.com/Monocled004/HarborNet/internal/adapter/reportsapi"
	"github.com/Monocled004/HarborNet/internal/config"
	"github.com/Monocled004/HarborNet/internal/domain"
	"github.com/Monocled004/HarborNet/internal/livefeed"
	"github.com/Monocled004/HarborNet/internal/mapview"
	"github.com/Monocled004/HarborNet/internal/observability"
	"github.com/Monocled004/HarborNet/internal/render"
	"github.com/jonboulle/clockwork"
)

// Server-side surfaces render to a fixed virtual canvas; clients scale the
// layer specs to their own container.
const (
	surfaceWidth  = 1280
	surfaceHeight = 720
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	reports := reportsapi.NewClient(cfg.ReportsAPIURL, cfg.ReportsTimeout, logger)

	newSurface := func() *leaflet.Surface {
		return leaflet.NewSurface(leaflet.Options{
			Center:  leaflet.LatLng{Lat: cfg.MapCenterLat, Lng: cfg.MapCenterLng},
			Zoom:    cfg.MapZoom,
			TileURL: cfg.TileURL,
			Width:   surfaceWidth,
			Height:  surfaceHeight,
		})
	}

	// The public map shows every report as one aggregate heat field; the
	// admin map splits heat by category for triage. Each view owns its own
	// feed so filter scope changes stay independent. The per-uploader
	// "nearby" maps are created on demand by the HTTP layer.
	viewConfigs := []mapview.Config{
		{Name: "public", Mode: render.ModeAggregateHeat, MarkersVisible: true},
		{Name: "admin", Mode: render.ModeCategoryHeat, MarkersVisible: true},
	}

	views := make(map[string]httpapi.View, len(viewConfigs))
	bindings := make([]*mapview.View, 0, len(viewConfigs))
	var publicSource *livefeed.Source
	for _, vc := range viewConfigs {
		source := livefeed.New(reports, geocoder, cfg.PollInterval, clock, logger, metrics)
		surface := newSurface()
		manager := render.NewManager(surface, logger, metrics)
		binding := mapview.New(vc, source, manager, logger)

		views[vc.Name] = httpapi.View{Binding: binding, Surface: surface}
		bindings = append(bindings, binding)
		if vc.Name == "public" {
			publicSource = source
		}
	}

	// A nearby view shows one uploader their own reports as plain markers,
	// scoped at fetch time via the uploader_id query parameter.
	nearbyFactory := httpapi.NearbyFactory(func(uploaderID int) httpapi.View {
		source := livefeed.New(reports, geocoder, cfg.PollInterval, clock, logger, metrics)
		surface := newSurface()
		manager := render.NewManager(surface, logger, metrics)
		binding := mapview.New(mapview.Config{
			Name:           fmt.Sprintf("nearby-%d", uploaderID),
			Mode:           render.ModeMarkersOnly,
			MarkersVisible: true,
			Query:          livefeed.Query{UploaderID: uploaderID},
		}, source, manager, logger)
		return httpapi.View{Binding: binding, Surface: surface}
	})

	ready := httpapi.ReadinessFunc(func(_ context.Context) error {
		for _, binding := range bindings {
			snap := binding.Snapshot()
			if snap.Status != domain.FeedReady && !snap.Stale() {
				return fmt.Errorf("view %s has no data yet", binding.Name())
			}
		}
		return nil
	})

	srv := httpapi.NewServer(cfg.HTTPAddr, views, reports, nearbyFactory, ready, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional alert feed for partner early-warning systems.
	var publisher *kafkafeed.Publisher
	var unsubAlerts func()
	if cfg.AlertFeedEnabled {
		publisher = kafkafeed.NewPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger, metrics)
		feed := kafkafeed.NewFeed(publisher, logger)
		go feed.Run(ctx)
		unsubAlerts = publicSource.Subscribe(feed.Notify)
		logger.Info("alert feed enabled", "topic", cfg.KafkaAlertTopic, "brokers", cfg.KafkaBrokers)
	}

	for _, binding := range bindings {
		binding.Start()
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if unsubAlerts != nil {
		unsubAlerts()
	}
	for _, binding := range bindings {
		binding.Close()
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("alert publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
