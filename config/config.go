package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zerotwo/sensor-gateway/apierr"
)

const (
	defaultClickHouseURL  = "http://localhost:8123/"
	defaultHumidityBucket = "humidity-laundry-room"
	defaultPort           = 3000
	defaultQueryTimeout   = 15 * time.Second
)

// Config holds environment-driven settings for the gateway. Values are
// read once at startup and never mutated afterwards.
type Config struct {
	// EmbeddedToken authorizes generic measurement pushes (emitter header).
	EmbeddedToken string
	// GPSToken authorizes GPS batch pushes (path segment).
	GPSToken string

	ClickHouseURL      string
	ClickHouseUser     string
	ClickHousePassword string
	HumidityBucket     string

	Port         int
	QueryTimeout time.Duration
}

// Load reads configuration from environment variables (optionally .env).
// Missing required values are reported as ConfigurationMissing errors and
// are fatal to startup.
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		ClickHouseURL:  defaultClickHouseURL,
		HumidityBucket: defaultHumidityBucket,
		Port:           defaultPort,
		QueryTimeout:   defaultQueryTimeout,
	}

	cfg.EmbeddedToken = os.Getenv("EMBEDDED_TOKEN")
	if cfg.EmbeddedToken == "" {
		return cfg, apierr.Missing("EMBEDDED_TOKEN")
	}

	cfg.GPSToken = os.Getenv("GPS_PUSH_TOKEN")
	if cfg.GPSToken == "" {
		return cfg, apierr.Missing("GPS_PUSH_TOKEN")
	}

	cfg.ClickHouseUser = os.Getenv("CLICKHOUSE_USER")
	if cfg.ClickHouseUser == "" {
		return cfg, apierr.Missing("CLICKHOUSE_USER")
	}

	cfg.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")
	if cfg.ClickHousePassword == "" {
		return cfg, apierr.Missing("CLICKHOUSE_PASSWORD")
	}

	if url := strings.TrimSpace(os.Getenv("CLICKHOUSE_URL")); url != "" {
		cfg.ClickHouseURL = url
	}

	if bucket := strings.TrimSpace(os.Getenv("HUMIDITY_BUCKET")); bucket != "" {
		cfg.HumidityBucket = bucket
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	}

	if timeoutStr := os.Getenv("QUERY_TIMEOUT"); timeoutStr != "" {
		d, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid QUERY_TIMEOUT: %w", err)
		}
		cfg.QueryTimeout = d
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
