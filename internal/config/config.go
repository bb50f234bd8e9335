// Package config loads service settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// GRPCDisabled as GRPC_PORT turns the gRPC listener off.
const GRPCDisabled = "off"

// Config holds the service settings.
type Config struct {
	Port           string
	GRPCPort       string
	CityDBPath     string
	ASNDBPath      string
	LogLevel       string
	LogFormat      string
	DNSServer      string
	DNSTimeout     time.Duration
	WatchDatabases bool
	RateLimitRPS   float64
	RateLimitBurst int
	TrustedProxies string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:           "8080",
		GRPCPort:       "9090",
		CityDBPath:     "GeoLite2-City.mmdb",
		ASNDBPath:      "GeoLite2-ASN.mmdb",
		LogLevel:       "info",
		LogFormat:      "json",
		DNSTimeout:     5 * time.Second,
		RateLimitBurst: 10,
	}
}

// Load reads .env from the working directory when present, then overlays the
// environment on the defaults. Variables already set in the environment take
// precedence over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := Default()
	str(&cfg.Port, "PORT")
	str(&cfg.GRPCPort, "GRPC_PORT")
	str(&cfg.CityDBPath, "CITY_DB_PATH")
	str(&cfg.ASNDBPath, "ASN_DB_PATH")
	str(&cfg.LogLevel, "LOG_LEVEL")
	str(&cfg.LogFormat, "LOG_FORMAT")
	str(&cfg.DNSServer, "DNS_SERVER")
	str(&cfg.TrustedProxies, "TRUSTED_PROXIES")

	var errs []error
	if v, ok := lookup("DNS_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DNS_TIMEOUT: %w", err))
		}
		cfg.DNSTimeout = d
	}
	if v, ok := lookup("WATCH_DATABASES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("WATCH_DATABASES: %w", err))
		}
		cfg.WatchDatabases = b
	}
	if v, ok := lookup("RATE_LIMIT_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS: %w", err))
		}
		cfg.RateLimitRPS = f
	}
	if v, ok := lookup("RATE_LIMIT_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST: %w", err))
		}
		cfg.RateLimitBurst = n
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GRPCEnabled reports whether the gRPC listener should run.
func (c Config) GRPCEnabled() bool {
	return c.GRPCPort != "" && !strings.EqualFold(c.GRPCPort, GRPCDisabled)
}

// ParseLogLevel converts string log level to slog.Level
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func str(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}
