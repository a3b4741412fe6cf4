// Package config handles export tool configuration loading and management.
package config

// Config holds all export tool settings.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Export     ExportConfig     `yaml:"export"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SimulationConfig holds scene and stepping settings.
type SimulationConfig struct {
	Scene    string `yaml:"scene"`    // Path to the scene description file
	Steps    int    `yaml:"steps"`    // Number of frames to capture
	Realtime bool   `yaml:"realtime"` // Pace the loop to the model timestep
}

// ExportConfig holds USD output settings.
type ExportConfig struct {
	Width          int      `yaml:"width"`
	Height         int      `yaml:"height"`
	MaxGeom        int      `yaml:"max_geom"`
	DirectoryName  string   `yaml:"directory_name"`
	DirectoryRoot  string   `yaml:"directory_root"`
	LightIntensity float64  `yaml:"light_intensity"`
	Cameras        []string `yaml:"cameras"`
	Format         string   `yaml:"format"`
	Verbose        bool     `yaml:"verbose"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Scene:    "",
			Steps:    100,
			Realtime: false,
		},
		Export: ExportConfig{
			Width:          480,
			Height:         480,
			MaxGeom:        10000,
			DirectoryName:  "usdpkg",
			DirectoryRoot:  ".",
			LightIntensity: 10000,
			Format:         "usda",
			Verbose:        false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
