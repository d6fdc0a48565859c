package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging and GL error checks")
	flagModel      = flag.String("model", "", "Scene document to load")
	flagTextures   = flag.String("textures", "", "Directory to load textures from (default: next to the model)")
	flagAnimation  = flag.Int("animation", -1, "Animation index to play")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Render.DebugGL = true
	}
	if *flagModel != "" {
		cfg.Model.Path = *flagModel
	} else if flag.NArg() > 0 {
		cfg.Model.Path = flag.Arg(0)
	}
	if *flagTextures != "" {
		cfg.Model.TextureDir = *flagTextures
	}
	if *flagAnimation >= 0 {
		cfg.Model.Animation = *flagAnimation
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
}
