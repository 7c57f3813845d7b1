// Package config loads uipstackd daemon configuration using koanf/v2.
//
// Supports a YAML file, environment variable overrides, and defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the complete uipstackd configuration.
type Config struct {
	Iface   IfaceConfig   `koanf:"iface"`
	ARP     ARPConfig     `koanf:"arp"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// IfaceConfig identifies the network interface the stack drives packets
// through and the address it answers to.
type IfaceConfig struct {
	// Name is the TAP device name (e.g. "tap0").
	Name string `koanf:"name"`
	// Addr is the CIDR address assigned to the TAP device on creation
	// (e.g. "192.168.10.2/24").
	Addr string `koanf:"addr"`
	// MAC is the local hardware address, "aa:bb:cc:dd:ee:ff" form. Empty
	// queries the interface for its address instead.
	MAC string `koanf:"mac"`
}

// ARPConfig tunes the ARP resolver's cache lifetime and request pacing.
type ARPConfig struct {
	Timeout     time.Duration `koanf:"timeout"`
	MinInterval time.Duration `koanf:"min_interval"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g. ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g. "/metrics").
	Path string `koanf:"path"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Iface: IfaceConfig{
			Name: "tap0",
		},
		ARP: ARPConfig{
			Timeout:     5 * time.Minute,
			MinInterval: time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
	}
}

// envPrefix is the environment variable prefix for uipstackd configuration.
// Variables are named UIPSTACKD_<section>_<key>, e.g. UIPSTACKD_IFACE_NAME.
const envPrefix = "UIPSTACKD_"

// Load reads configuration from a YAML file at path (if non-empty), overlays
// environment variable overrides, and merges on top of DefaultConfig().
// Missing fields inherit defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms UIPSTACKD_IFACE_NAME -> iface.name. Only the
// first underscore separates section from key, so
// UIPSTACKD_ARP_MIN_INTERVAL -> arp.min_interval.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"iface.name":       defaults.Iface.Name,
		"iface.addr":       defaults.Iface.Addr,
		"iface.mac":        defaults.Iface.MAC,
		"arp.timeout":      defaults.ARP.Timeout.String(),
		"arp.min_interval": defaults.ARP.MinInterval.String(),
		"log.level":        defaults.Log.Level,
		"log.format":       defaults.Log.Format,
		"metrics.addr":     defaults.Metrics.Addr,
		"metrics.path":     defaults.Metrics.Path,
	}
	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}
	return nil
}

// Validation errors.
var (
	ErrEmptyIfaceName        = errors.New("iface.name must not be empty")
	ErrInvalidARPTimeout     = errors.New("arp.timeout must be > 0")
	ErrInvalidARPMinInterval = errors.New("arp.min_interval must be > 0")
)

// Validate checks cfg for internally-inconsistent or missing values.
func Validate(cfg *Config) error {
	if cfg.Iface.Name == "" {
		return ErrEmptyIfaceName
	}
	if cfg.ARP.Timeout <= 0 {
		return ErrInvalidARPTimeout
	}
	if cfg.ARP.MinInterval <= 0 {
		return ErrInvalidARPMinInterval
	}
	return nil
}

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
