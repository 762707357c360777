package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	ReportsAPIURL  string
	ReportsTimeout time.Duration
	PollInterval   time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Default map viewport served to clients.
	MapCenterLat float64
	MapCenterLng float64
	MapZoom      int
	TileURL      string

	// Early-warning alert feed configuration.
	AlertFeedEnabled bool
	KafkaBrokers     []string
	KafkaAlertTopic  string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is loaded first when present;
// real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", 10*time.Second)
	if err != nil {
		return nil, err
	}

	reportsTimeout, err := parsePositiveDuration("REPORTS_TIMEOUT", 8*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	centerLat, err := parseFloat("MAP_CENTER_LAT", 15.235)
	if err != nil {
		return nil, err
	}
	centerLng, err := parseFloat("MAP_CENTER_LNG", 78.44)
	if err != nil {
		return nil, err
	}
	zoom, err := parseInt("MAP_ZOOM", 5)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		ReportsAPIURL:  envOrDefault("REPORTS_API_URL", "http://localhost:5000"),
		ReportsTimeout: reportsTimeout,
		PollInterval:   pollInterval,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MapCenterLat: centerLat,
		MapCenterLng: centerLng,
		MapZoom:      zoom,
		TileURL:      os.Getenv("TILE_URL"),

		AlertFeedEnabled: os.Getenv("ALERT_FEED_ENABLED") == "true",
		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic:  envOrDefault("KAFKA_ALERT_TOPIC", "hazard-alerts"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.ReportsAPIURL == "" {
		return nil, errors.New("REPORTS_API_URL is required")
	}
	if cfg.AlertFeedEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("ALERT_FEED_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseBrokers splits a comma-separated broker list, dropping empty entries.
func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parsePositiveDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
