// Package config handles terrain viewer configuration loading and management.
package config

import "time"

// Config holds all settings.
type Config struct {
	Terrain   TerrainConfig   `yaml:"terrain"`
	Textures  TexturesConfig  `yaml:"textures"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TerrainConfig holds mesh rebuild and texture compositing settings.
type TerrainConfig struct {
	RebuildInterval time.Duration `yaml:"rebuild_interval"` // Quiet time before a rebuild
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`    // Per detail texture
	NoiseSeed       int64         `yaml:"noise_seed"`
	OutputScale     int           `yaml:"output_scale"` // Composite size relative to the region
	Preview         bool          `yaml:"preview"`      // HSV tint until the composite is ready
}

// TexturesConfig holds where detail textures are fetched from.
type TexturesConfig struct {
	Dir               string        `yaml:"dir"`      // Local <uuid>.<ext> files, tried first
	BaseURL           string        `yaml:"base_url"` // Asset server, <base_url>/<uuid>
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
}

// SimulatorConfig describes the synthetic region fed to the viewer.
type SimulatorConfig struct {
	Handle       uint64        `yaml:"handle"`
	TextureIDs   []string      `yaml:"texture_ids"` // Empty entries use the default layers
	StartHeights [4]float32    `yaml:"start_heights"`
	HeightRanges [4]float32    `yaml:"height_ranges"`
	Ticks        int           `yaml:"ticks"`         // Simulated ticks to run
	TickInterval time.Duration `yaml:"tick_interval"` // Wall-clock time between ticks
}

// OutputConfig holds where exported textures go.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			RebuildInterval: 10 * time.Second,
			FetchTimeout:    60 * time.Second,
			NoiseSeed:       42,
			OutputScale:     8,
			Preview:         true,
		},
		Textures: TexturesConfig{
			Dir:               "textures",
			BaseURL:           "",
			RequestsPerSecond: 8,
			HTTPTimeout:       30 * time.Second,
		},
		Simulator: SimulatorConfig{
			Handle:       1000,
			StartHeights: [4]float32{10, 10, 10, 10},
			HeightRanges: [4]float32{60, 60, 60, 60},
			Ticks:        600,
			TickInterval: 50 * time.Millisecond,
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
