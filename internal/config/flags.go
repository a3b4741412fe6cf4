package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagScene    = flag.String("scene", "", "Path to scene description file")
	flagSteps    = flag.Int("steps", 0, "Number of frames to capture")
	flagOut      = flag.String("out", "", "Output directory root")
	flagFormat   = flag.String("format", "", "Output format (usd, usda, usdc)")
	flagRealtime = flag.Bool("realtime", false, "Pace the loop to the model timestep")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagScene != "" {
		cfg.Simulation.Scene = *flagScene
	}
	if *flagSteps > 0 {
		cfg.Simulation.Steps = *flagSteps
	}
	if *flagOut != "" {
		cfg.Export.DirectoryRoot = *flagOut
	}
	if *flagFormat != "" {
		cfg.Export.Format = *flagFormat
	}
	if *flagRealtime {
		cfg.Simulation.Realtime = true
	}
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Export.Verbose = true
	}
}
