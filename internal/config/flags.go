package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagWriteConfig = flag.String("write-config", "", "Write the effective config to this path and exit")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagSeed        = flag.Int64("seed", 0, "Noise seed, overrides the configured seed when given")
	flagTextures    = flag.String("textures", "", "Directory of detail textures")
	flagTextureURL  = flag.String("texture-url", "", "Asset server base URL")
	flagOut         = flag.String("out", "", "Output directory for exported textures")
)

// explicitFlags holds the names of flags given on the command line.
var explicitFlags = map[string]bool{}

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
	recordExplicitFlags()
}

func recordExplicitFlags() {
	flag.Visit(func(f *flag.Flag) {
		explicitFlags[f.Name] = true
	})
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the --write-config destination, if any.
func WriteConfigPath() string {
	return *flagWriteConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if explicitFlags["seed"] {
		cfg.Terrain.NoiseSeed = *flagSeed
	}
	if *flagTextures != "" {
		cfg.Textures.Dir = *flagTextures
	}
	if *flagTextureURL != "" {
		cfg.Textures.BaseURL = *flagTextureURL
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
}
