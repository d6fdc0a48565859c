// Package config handles viewer configuration loading and management.
package config

// MaxShaderBones is the size of the BoneMat array in the embedded
// skinning shader. render.max_bones may not exceed it.
const MaxShaderBones = 128

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Render  RenderConfig  `yaml:"render"`
	Model   ModelConfig   `yaml:"model"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// RenderConfig bounds the per-geometry registries.
type RenderConfig struct {
	MaxAttributes int `yaml:"max_attributes"`
	MaxTextures   int `yaml:"max_textures"`
	MaxBones      int `yaml:"max_bones"`
	// StrictCapacity exits the process on registry overflow instead of
	// returning an error.
	StrictCapacity bool `yaml:"strict_capacity"`
	DebugGL        bool `yaml:"debug_gl"`
	// MaxTextureSize downscales textures whose larger side exceeds it.
	// Zero keeps the original size.
	MaxTextureSize int `yaml:"max_texture_size"`
	// Sun position in degrees, used for the directional light.
	LightAzimuth   float32 `yaml:"light_azimuth"`
	LightElevation float32 `yaml:"light_elevation"`
	ScreenshotDir  string  `yaml:"screenshot_dir"`
}

// ModelConfig selects the scene to load and how to present it.
type ModelConfig struct {
	Path        string   `yaml:"path"`
	TextureDir  string   `yaml:"texture_dir"`
	SearchPaths []string `yaml:"search_paths"`
	Animation   int      `yaml:"animation"`
	TimeScale   float64  `yaml:"time_scale"`
	Fit         bool     `yaml:"fit"`
	SitOnXZ     bool     `yaml:"sit_on_xz"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "rigview",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Render: RenderConfig{
			MaxAttributes:  16,
			MaxTextures:    32,
			MaxBones:       MaxShaderBones,
			MaxTextureSize: 4096,
			LightAzimuth:   35,
			LightElevation: 55,
			ScreenshotDir:  "screenshots",
		},
		Model: ModelConfig{
			SearchPaths: []string{".", "models", "assets"},
			TimeScale:   1,
			Fit:         true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}
