// Package config loads counterx settings from COUNTERX_* environment variables
// and an optional YAML file, and builds the process logger.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/comalice/counterx/internal/core"
)

// Config holds every tunable of the CLI and demo.
// Precedence: YAML file, then environment, then defaults.
type Config struct {
	LogLevel  string `env:"COUNTERX_LOG_LEVEL" envDefault:"info" yaml:"log_level"`
	LogFormat string `env:"COUNTERX_LOG_FORMAT" envDefault:"text" yaml:"log_format"`

	// Overflow is the increment overflow policy: wrap, saturate or reject.
	Overflow string `env:"COUNTERX_OVERFLOW" envDefault:"wrap" yaml:"overflow"`

	StoreDir string `env:"COUNTERX_STORE_DIR" envDefault:".counterx/store" yaml:"store_dir"`
	SlotSize int    `env:"COUNTERX_SLOT_SIZE" envDefault:"4" yaml:"slot_size"`

	SnapshotDir    string `env:"COUNTERX_SNAPSHOT_DIR" yaml:"snapshot_dir"`
	SnapshotFormat string `env:"COUNTERX_SNAPSHOT_FORMAT" envDefault:"yaml" yaml:"snapshot_format"`

	MetricsAddr  string        `env:"COUNTERX_METRICS_ADDR" envDefault:":9464" yaml:"metrics_addr"`
	TickInterval time.Duration `env:"COUNTERX_TICK_INTERVAL" envDefault:"1s" yaml:"tick_interval"`
}

// Load reads the environment and, when path is non-empty, overlays the YAML
// file at path.
func Load(path string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated fields and sizes.
func (c Config) Validate() error {
	if _, err := c.OverflowPolicy(); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	switch c.SnapshotFormat {
	case "json", "yaml":
	default:
		return fmt.Errorf("unknown snapshot format %q", c.SnapshotFormat)
	}
	if c.SlotSize < 0 {
		return fmt.Errorf("slot size must not be negative, got %d", c.SlotSize)
	}
	return nil
}

// OverflowPolicy returns the parsed overflow policy.
func (c Config) OverflowPolicy() (core.OverflowPolicy, error) {
	return core.ParseOverflowPolicy(c.Overflow)
}

// NewLogger builds a slog.Logger writing to w at the configured level and format.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
