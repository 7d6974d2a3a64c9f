package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test terrain defaults
	if cfg.Terrain.RebuildInterval != 10*time.Second {
		t.Errorf("expected rebuild interval 10s, got %v", cfg.Terrain.RebuildInterval)
	}
	if cfg.Terrain.FetchTimeout != 60*time.Second {
		t.Errorf("expected fetch timeout 60s, got %v", cfg.Terrain.FetchTimeout)
	}
	if cfg.Terrain.NoiseSeed != 42 {
		t.Errorf("expected noise seed 42, got %d", cfg.Terrain.NoiseSeed)
	}
	if cfg.Terrain.OutputScale != 8 {
		t.Errorf("expected output scale 8, got %d", cfg.Terrain.OutputScale)
	}
	if !cfg.Terrain.Preview {
		t.Error("expected preview to be enabled by default")
	}

	// Test texture source defaults
	if cfg.Textures.BaseURL != "" {
		t.Errorf("expected no asset server by default, got %s", cfg.Textures.BaseURL)
	}
	if cfg.Textures.RequestsPerSecond != 8 {
		t.Errorf("expected 8 requests per second, got %v", cfg.Textures.RequestsPerSecond)
	}

	// Test simulator defaults
	if cfg.Simulator.Ticks <= 0 || cfg.Simulator.TickInterval <= 0 {
		t.Errorf("expected a positive run length, got %d x %v", cfg.Simulator.Ticks, cfg.Simulator.TickInterval)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
terrain:
  rebuild_interval: 2s
  fetch_timeout: 15s
  noise_seed: 7
  output_scale: 4
  preview: false

textures:
  dir: "/srv/textures"
  base_url: "http://assets.local/textures"
  requests_per_second: 2.5
  http_timeout: 5s

simulator:
  handle: 256000
  texture_ids:
    - "0bc58228-74a0-7e83-89bc-5c23464bcec5"
    - ""
  start_heights: [1, 2, 3, 4]
  height_ranges: [5, 6, 7, 8]
  ticks: 10
  tick_interval: 1s

output:
  dir: "/tmp/out"

logging:
  level: "debug"
  log_file: "terrain.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Terrain.RebuildInterval != 2*time.Second {
		t.Errorf("expected rebuild interval 2s, got %v", cfg.Terrain.RebuildInterval)
	}
	if cfg.Terrain.FetchTimeout != 15*time.Second {
		t.Errorf("expected fetch timeout 15s, got %v", cfg.Terrain.FetchTimeout)
	}
	if cfg.Terrain.NoiseSeed != 7 {
		t.Errorf("expected noise seed 7, got %d", cfg.Terrain.NoiseSeed)
	}
	if cfg.Terrain.OutputScale != 4 {
		t.Errorf("expected output scale 4, got %d", cfg.Terrain.OutputScale)
	}
	if cfg.Terrain.Preview {
		t.Error("expected preview to be false")
	}

	if cfg.Textures.Dir != "/srv/textures" {
		t.Errorf("expected textures dir /srv/textures, got %s", cfg.Textures.Dir)
	}
	if cfg.Textures.BaseURL != "http://assets.local/textures" {
		t.Errorf("expected base url, got %s", cfg.Textures.BaseURL)
	}
	if cfg.Textures.RequestsPerSecond != 2.5 {
		t.Errorf("expected 2.5 requests per second, got %v", cfg.Textures.RequestsPerSecond)
	}
	if cfg.Textures.HTTPTimeout != 5*time.Second {
		t.Errorf("expected http timeout 5s, got %v", cfg.Textures.HTTPTimeout)
	}

	if cfg.Simulator.Handle != 256000 {
		t.Errorf("expected handle 256000, got %d", cfg.Simulator.Handle)
	}
	if len(cfg.Simulator.TextureIDs) != 2 || cfg.Simulator.TextureIDs[1] != "" {
		t.Errorf("unexpected texture ids %v", cfg.Simulator.TextureIDs)
	}
	if cfg.Simulator.StartHeights != [4]float32{1, 2, 3, 4} {
		t.Errorf("unexpected start heights %v", cfg.Simulator.StartHeights)
	}
	if cfg.Simulator.HeightRanges != [4]float32{5, 6, 7, 8} {
		t.Errorf("unexpected height ranges %v", cfg.Simulator.HeightRanges)
	}
	if cfg.Simulator.Ticks != 10 || cfg.Simulator.TickInterval != time.Second {
		t.Errorf("unexpected run length %d x %v", cfg.Simulator.Ticks, cfg.Simulator.TickInterval)
	}

	if cfg.Output.Dir != "/tmp/out" {
		t.Errorf("expected output dir /tmp/out, got %s", cfg.Output.Dir)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "terrain.log" {
		t.Errorf("expected log file 'terrain.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
terrain:
  output_scale: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	// Create temp directory and change to it
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	// Keep the user's real config out of the search
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("HOME", tmpDir)

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create config.yaml in current directory
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("terrain:\n  output_scale: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "seed flag",
			setup: func() {
				*flagSeed = 1234
				explicitFlags["seed"] = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.NoiseSeed != 1234 {
					t.Errorf("expected seed 1234, got %d", cfg.Terrain.NoiseSeed)
				}
			},
			teardown: func() {
				*flagSeed = 0
				delete(explicitFlags, "seed")
			},
		},
		{
			name: "explicit zero seed",
			setup: func() {
				*flagSeed = 0
				explicitFlags["seed"] = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.NoiseSeed != 0 {
					t.Errorf("expected seed 0, got %d", cfg.Terrain.NoiseSeed)
				}
			},
			teardown: func() {
				delete(explicitFlags, "seed")
			},
		},
		{
			name: "texture source flags",
			setup: func() {
				*flagTextures = "/data/tex"
				*flagTextureURL = "http://cdn.local"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Textures.Dir != "/data/tex" {
					t.Errorf("expected textures dir /data/tex, got %s", cfg.Textures.Dir)
				}
				if cfg.Textures.BaseURL != "http://cdn.local" {
					t.Errorf("expected base url http://cdn.local, got %s", cfg.Textures.BaseURL)
				}
			},
			teardown: func() {
				*flagTextures = ""
				*flagTextureURL = ""
			},
		},
		{
			name: "output flag",
			setup: func() {
				*flagOut = "/tmp/splat"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Output.Dir != "/tmp/splat" {
					t.Errorf("expected output dir /tmp/splat, got %s", cfg.Output.Dir)
				}
			},
			teardown: func() {
				*flagOut = ""
			},
		},
		{
			name:  "no flags keeps defaults",
			setup: func() {},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.NoiseSeed != 42 {
					t.Errorf("expected default seed 42, got %d", cfg.Terrain.NoiseSeed)
				}
			},
			teardown: func() {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			tt.setup()
			defer tt.teardown()

			// Apply flags to default config
			cfg := Default()
			applyFlags(cfg)

			// Verify
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
terrain:
  noise_seed: 99
  output_scale: 2
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagSeed = 5
	explicitFlags["seed"] = true
	defer func() {
		*flagConfig = ""
		*flagSeed = 0
		delete(explicitFlags, "seed")
	}()

	// Load config
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Seed should be from flag (5), not file (99)
	if cfg.Terrain.NoiseSeed != 5 {
		t.Errorf("expected seed 5 from flag, got %d", cfg.Terrain.NoiseSeed)
	}

	// Scale should be from file (2) since no flag override
	if cfg.Terrain.OutputScale != 2 {
		t.Errorf("expected output scale 2 from file, got %d", cfg.Terrain.OutputScale)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Terrain.NoiseSeed = 77
	cfg.Terrain.FetchTimeout = 3 * time.Second
	cfg.Simulator.TextureIDs = []string{"", "63338ede-0037-c4fd-855b-015d77112fc8"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if loaded.Terrain.NoiseSeed != 77 || loaded.Terrain.FetchTimeout != 3*time.Second {
		t.Errorf("terrain section not preserved: %+v", loaded.Terrain)
	}
	if len(loaded.Simulator.TextureIDs) != 2 || loaded.Simulator.TextureIDs[1] != "63338ede-0037-c4fd-855b-015d77112fc8" {
		t.Errorf("texture ids not preserved: %v", loaded.Simulator.TextureIDs)
	}
}

func TestRecordExplicitFlags(t *testing.T) {
	if err := flag.Set("seed", "0"); err != nil {
		t.Fatal(err)
	}
	defer func() {
		*flagSeed = 0
		delete(explicitFlags, "seed")
	}()
	recordExplicitFlags()

	cfg := Default()
	applyFlags(cfg)
	if cfg.Terrain.NoiseSeed != 0 {
		t.Errorf("expected -seed 0 to select seed 0, got %d", cfg.Terrain.NoiseSeed)
	}
}

func TestLoadFromFileUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("terrain:\n  outptu_scale: 2\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if err := loadFromFile(Default(), path); err == nil {
		t.Error("expected error for misspelt key")
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("empty file should keep defaults: %v", err)
	}
	if cfg.Terrain.NoiseSeed != 42 {
		t.Errorf("expected default seed, got %d", cfg.Terrain.NoiseSeed)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero rebuild interval", func(c *Config) { c.Terrain.RebuildInterval = 0 }, false},
		{"negative rebuild interval", func(c *Config) { c.Terrain.RebuildInterval = -time.Second }, true},
		{"zero fetch timeout", func(c *Config) { c.Terrain.FetchTimeout = 0 }, true},
		{"zero output scale", func(c *Config) { c.Terrain.OutputScale = 0 }, true},
		{"negative rate", func(c *Config) { c.Textures.RequestsPerSecond = -1 }, true},
		{"zero tick interval", func(c *Config) { c.Simulator.TickInterval = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("simulator:\n  tick_interval: 0s\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	*flagConfig = path
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected Load to reject a zero tick interval")
	}
}
