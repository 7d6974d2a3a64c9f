package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const fileName = "config.yaml"

// Load builds the effective configuration: defaults, then the first config
// file found, then explicitly set flags. The result is validated.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the viewer cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Terrain.RebuildInterval < 0 {
		errs = append(errs, fmt.Errorf("terrain.rebuild_interval must not be negative, got %v", c.Terrain.RebuildInterval))
	}
	if c.Terrain.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("terrain.fetch_timeout must be positive, got %v", c.Terrain.FetchTimeout))
	}
	if c.Terrain.OutputScale < 1 {
		errs = append(errs, fmt.Errorf("terrain.output_scale must be at least 1, got %d", c.Terrain.OutputScale))
	}
	if c.Textures.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("textures.requests_per_second must not be negative, got %v", c.Textures.RequestsPerSecond))
	}
	if c.Simulator.Ticks < 0 {
		errs = append(errs, fmt.Errorf("simulator.ticks must not be negative, got %d", c.Simulator.Ticks))
	}
	if c.Simulator.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("simulator.tick_interval must be positive, got %v", c.Simulator.TickInterval))
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// findConfigFile returns ./config.yaml or the one in ConfigDir, whichever
// exists first.
func findConfigFile() string {
	for _, path := range []string{fileName, filepath.Join(ConfigDir(), fileName)} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory.
func ConfigDir() string {
	name := "midgard-terrain"
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		name = "MidgardTerrain"
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, name)
}

// loadFromFile merges a YAML file over cfg. Unknown keys are an error so a
// misspelt setting does not silently keep its default.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
