// Package config loads the client configuration from
// ~/.config/courts/config.json. Every setting resolves with the priority
// environment variable > config file > default.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/marcus/courts/internal/models"
)

const (
	DefaultServerURL   = "http://localhost:8080"
	DefaultTimeout     = 30 * time.Second
	DefaultGeocoderURL = "https://nominatim.openstreetmap.org"
	DefaultInterval    = 3 * time.Second

	configFile = "config.json"
)

// Config is the persisted client configuration.
type Config struct {
	Server          ServerConfig   `json:"server"`
	Location        LocationConfig `json:"location"`
	Geocoder        GeocoderConfig `json:"geocoder"`
	DataDirSetting  string         `json:"data_dir,omitempty"`
	LogLevelSetting string         `json:"log_level,omitempty"`
}

// ServerConfig locates the courts service.
type ServerConfig struct {
	URL     string `json:"url,omitempty"`
	Timeout string `json:"timeout,omitempty"` // duration string, default "30s"
}

// LocationConfig describes the position feed. Lat/Lon give a fixed position
// for machines without a location source.
type LocationConfig struct {
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Interval    string   `json:"interval,omitempty"`     // duration string, default "3s"
	MinDistance *float64 `json:"min_distance,omitempty"` // metres, default 0
}

// GeocoderConfig selects the reverse geocoder. URL "off" disables lookups.
type GeocoderConfig struct {
	URL      string `json:"url,omitempty"`
	Language string `json:"language,omitempty"`
}

// Dir returns ~/.config/courts, creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "courts")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads the config file. A missing file yields an empty Config.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configFile, err)
	}
	return &cfg, nil
}

// Save writes cfg using an atomic temp-file rename.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, configFile))
}

// ServerURL: COURTS_URL > server.url > DefaultServerURL
func (c *Config) ServerURL() string {
	if v := os.Getenv("COURTS_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	if c.Server.URL != "" {
		return strings.TrimRight(c.Server.URL, "/")
	}
	return DefaultServerURL
}

// Timeout: COURTS_TIMEOUT > server.timeout > DefaultTimeout
func (c *Config) Timeout() time.Duration {
	return durationSetting("COURTS_TIMEOUT", c.Server.Timeout, DefaultTimeout)
}

// DataDir: COURTS_DATA_DIR > data_dir > ~/.local/share/courts
func (c *Config) DataDir() (string, error) {
	if v := os.Getenv("COURTS_DATA_DIR"); v != "" {
		return v, nil
	}
	if c.DataDirSetting != "" {
		return expandHome(c.DataDirSetting)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "courts"), nil
}

// FixedPosition returns the configured position, if any.
// COURTS_LAT/COURTS_LON > location.lat/lon.
func (c *Config) FixedPosition() (models.Coordinate, bool) {
	lat, latOK := floatEnv("COURTS_LAT")
	lon, lonOK := floatEnv("COURTS_LON")
	if latOK && lonOK {
		return models.Coordinate{Lat: lat, Lon: lon}, true
	}
	if c.Location.Lat != nil && c.Location.Lon != nil {
		return models.Coordinate{Lat: *c.Location.Lat, Lon: *c.Location.Lon}, true
	}
	return models.Coordinate{}, false
}

// LocationInterval: COURTS_LOCATION_INTERVAL > location.interval > 3s
func (c *Config) LocationInterval() time.Duration {
	return durationSetting("COURTS_LOCATION_INTERVAL", c.Location.Interval, DefaultInterval)
}

// LocationMinDistance: COURTS_LOCATION_MIN_DISTANCE > location.min_distance > 0
func (c *Config) LocationMinDistance() float64 {
	if v, ok := floatEnv("COURTS_LOCATION_MIN_DISTANCE"); ok && v >= 0 {
		return v
	}
	if c.Location.MinDistance != nil && *c.Location.MinDistance >= 0 {
		return *c.Location.MinDistance
	}
	return 0
}

// GeocoderURL: COURTS_GEOCODER_URL > geocoder.url > DefaultGeocoderURL.
// Returns "" when geocoding is switched off.
func (c *Config) GeocoderURL() string {
	v := os.Getenv("COURTS_GEOCODER_URL")
	if v == "" {
		v = c.Geocoder.URL
	}
	if v == "" {
		return DefaultGeocoderURL
	}
	if strings.EqualFold(v, "off") {
		return ""
	}
	return v
}

// LogLevel: COURTS_LOG_LEVEL > log_level > warn
func (c *Config) LogLevel() slog.Level {
	v := os.Getenv("COURTS_LOG_LEVEL")
	if v == "" {
		v = c.LogLevelSetting
	}
	return ParseLevel(v, slog.LevelWarn)
}

// ParseLevel maps debug/info/warn/error to a slog level
func ParseLevel(s string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return fallback
}

var keys = []string{
	"data_dir",
	"geocoder.language",
	"geocoder.url",
	"location.interval",
	"location.lat",
	"location.lon",
	"location.min_distance",
	"log_level",
	"server.timeout",
	"server.url",
}

// Keys lists the settable keys in sorted order
func Keys() []string {
	return append([]string(nil), keys...)
}

// Set assigns a value by dotted key. An empty value clears optional numbers.
func (c *Config) Set(key, value string) error {
	v := strings.TrimSpace(value)
	var err error
	switch key {
	case "server.url":
		c.Server.URL = v
	case "server.timeout":
		err = setDuration(&c.Server.Timeout, v)
	case "location.lat":
		err = setFloat(&c.Location.Lat, v)
	case "location.lon":
		err = setFloat(&c.Location.Lon, v)
	case "location.interval":
		err = setDuration(&c.Location.Interval, v)
	case "location.min_distance":
		err = setFloat(&c.Location.MinDistance, v)
	case "geocoder.url":
		c.Geocoder.URL = v
	case "geocoder.language":
		c.Geocoder.Language = v
	case "data_dir":
		c.DataDirSetting = v
	case "log_level":
		c.LogLevelSetting = v
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(keys, ", "))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Get returns the file value for a dotted key. Unset values are "".
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "server.url":
		return c.Server.URL, nil
	case "server.timeout":
		return c.Server.Timeout, nil
	case "location.lat":
		return formatFloat(c.Location.Lat), nil
	case "location.lon":
		return formatFloat(c.Location.Lon), nil
	case "location.interval":
		return c.Location.Interval, nil
	case "location.min_distance":
		return formatFloat(c.Location.MinDistance), nil
	case "geocoder.url":
		return c.Geocoder.URL, nil
	case "geocoder.language":
		return c.Geocoder.Language, nil
	case "data_dir":
		return c.DataDirSetting, nil
	case "log_level":
		return c.LogLevelSetting, nil
	}
	return "", fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(keys, ", "))
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func setDuration(dst *string, v string) error {
	if v != "" {
		if _, err := time.ParseDuration(v); err != nil {
			return err
		}
	}
	*dst = v
	return nil
}

func setFloat(dst **float64, v string) error {
	if v == "" {
		*dst = nil
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", v)
	}
	*dst = &f
	return nil
}

func durationSetting(env, fileValue string, fallback time.Duration) time.Duration {
	if v := os.Getenv(env); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	if fileValue != "" {
		if d, err := time.ParseDuration(fileValue); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func floatEnv(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
