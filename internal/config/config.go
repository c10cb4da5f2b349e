// Package config loads the server configuration.
//
// Values come from three layers, later layers winning: built-in defaults,
// an optional YAML file, and TURNSTILE_* environment variables. The result
// is validated before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TURNSTILE_"

// Config is the complete server configuration.
type Config struct {
	Server ServerConfig `yaml:"server" envPrefix:"SERVER_"`
	Store  StoreConfig  `yaml:"store" envPrefix:"STORE_"`
	Engine EngineConfig `yaml:"engine" envPrefix:"ENGINE_"`
	Tables TablesConfig `yaml:"tables" envPrefix:"TABLES_"`
	Log    LogConfig    `yaml:"log" envPrefix:"LOG_"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr" env:"ADDR"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
}

// StoreConfig configures the match database. An empty path keeps matches
// in memory.
type StoreConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// EngineConfig configures command processing and sessions.
type EngineConfig struct {
	MaxDepth      int   `yaml:"max_depth" env:"MAX_DEPTH"`
	MaxSteps      int   `yaml:"max_steps" env:"MAX_STEPS"`
	StreamWindow  int   `yaml:"stream_window" env:"STREAM_WINDOW"`
	SnapshotEvery int64 `yaml:"snapshot_every" env:"SNAPSHOT_EVERY"`
	RevealSeed    bool  `yaml:"reveal_seed" env:"REVEAL_SEED"`
}

// TablesConfig points at a CUE file replacing the rule-set's built-in
// command and window tables.
type TablesConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Engine: EngineConfig{
			MaxDepth:      16,
			MaxSteps:      1000,
			StreamWindow:  64,
			SnapshotEvery: 50,
			RevealSeed:    true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (if non-empty), applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// decodeYAML decodes strictly: unknown keys are errors.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// An empty file decodes to io.EOF and leaves the defaults.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if c.Engine.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("engine.max_depth must be positive, got %d", c.Engine.MaxDepth))
	}
	if c.Engine.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("engine.max_steps must be positive, got %d", c.Engine.MaxSteps))
	}
	if c.Engine.StreamWindow <= 0 {
		errs = append(errs, fmt.Errorf("engine.stream_window must be positive, got %d", c.Engine.StreamWindow))
	}
	if c.Engine.SnapshotEvery < 0 {
		errs = append(errs, fmt.Errorf("engine.snapshot_every must not be negative, got %d", c.Engine.SnapshotEvery))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ParseLevel maps a log level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: unknown level %q", s)
	}
	return l, nil
}
