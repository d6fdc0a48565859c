package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, errors.Wrapf(err, "loading config from %s", configPath)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the renderer cannot work with.
func (c *Config) Validate() error {
	if c.Render.MaxAttributes < 1 {
		return errors.Errorf("render.max_attributes must be positive, got %d", c.Render.MaxAttributes)
	}
	if c.Render.MaxTextures < 1 {
		return errors.Errorf("render.max_textures must be positive, got %d", c.Render.MaxTextures)
	}
	if c.Render.MaxBones < 1 || c.Render.MaxBones > MaxShaderBones {
		return errors.Errorf("render.max_bones must be within [1, %d], got %d", MaxShaderBones, c.Render.MaxBones)
	}
	if c.Render.MaxTextureSize < 0 {
		return errors.Errorf("render.max_texture_size must not be negative, got %d", c.Render.MaxTextureSize)
	}
	if c.Render.LightElevation < -90 || c.Render.LightElevation > 90 {
		return errors.Errorf("render.light_elevation must be within [-90, 90], got %g", c.Render.LightElevation)
	}
	if c.Model.Animation < 0 {
		return errors.Errorf("model.animation must not be negative, got %d", c.Model.Animation)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./rigview.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Rigview")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Rigview")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "rigview")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "rigview")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
