package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	defaultFPS      = 60
	defaultDuration = 6
)

// Config is the TOML configuration of the viewer
type Config struct {
	// Scene is the YAML scene file to animate
	Scene string `toml:"scene"`
	// FPS is the number of frames per simulated second
	FPS float64 `toml:"fps"`
	// Duration of the run in seconds
	Duration float64 `toml:"duration"`
	// Workers used by the skinning phase
	Workers  int    `toml:"workers"`
	LogLevel string `toml:"log_level"`
	// Export writes the final frame as .gltf or .glb when set
	Export string `toml:"export"`
	// Dump prints the final pose
	Dump bool `toml:"dump"`
	// Pick lists the skins whose final bounds contain this point
	Pick []float64 `toml:"pick"`
}

// DefaultConfig returns the configuration used for missing fields
func DefaultConfig() Config {
	return Config{
		FPS:      defaultFPS,
		Duration: defaultDuration,
		Workers:  1,
		LogLevel: "info",
	}
}

// LoadConfig reads the configuration file at path. An empty path yields the
// defaults. A relative scene is resolved against the directory of the file.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	if cfg.Scene != "" && !filepath.IsAbs(cfg.Scene) {
		cfg.Scene = filepath.Join(filepath.Dir(path), cfg.Scene)
	}

	return cfg, nil
}

// ParseConfig decodes a TOML document on top of the defaults and validates it
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode toml")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first invalid field
func (c Config) Validate() error {
	if c.FPS <= 0 {
		return errors.Errorf("fps must be positive, got %g", c.FPS)
	}
	if c.Duration < 0 {
		return errors.Errorf("duration must not be negative, got %g", c.Duration)
	}
	if len(c.Pick) != 0 && len(c.Pick) != 3 {
		return errors.Errorf("pick needs 3 coordinates, got %d", len(c.Pick))
	}
	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

// Level converts log_level to a slog level
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Errorf("unknown log_level %q", c.LogLevel)
	}
}
