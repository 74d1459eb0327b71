// Package config loads the reel-director TOML configuration. Every setting
// has a working default, so running with no config file at all is supported.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultPort                = 8080
	defaultModel               = "gemini-2.0-flash"
	defaultPollIntervalSeconds = 2
	defaultOutputDir           = "."
	defaultDataDir             = "~/.reel-director"
	defaultFilter              = "none"
	defaultTransition          = "none"
	defaultMaxUploadMB         = 512
	defaultMaxVideos           = 4
)

// Server contains the web UI listen settings and local data directory.
type Server struct {
	Port    int    `toml:"port"`
	DataDir string `toml:"data_dir"`
}

// Gemini contains settings for the AI analysis stage.
type Gemini struct {
	Model               string `toml:"model"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

// Render contains defaults for the video assembly stage.
type Render struct {
	OutputDir         string `toml:"output_dir"`
	DefaultFilter     string `toml:"default_filter"`
	DefaultTransition string `toml:"default_transition"`
	MaxUploadMB       int    `toml:"max_upload_mb"`
	MaxVideos         int    `toml:"max_videos"`
}

// Config is the full application configuration.
type Config struct {
	Server Server `toml:"server"`
	Gemini Gemini `toml:"gemini"`
	Render Render `toml:"render"`
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Port:    defaultPort,
			DataDir: defaultDataDir,
		},
		Gemini: Gemini{
			Model:               defaultModel,
			PollIntervalSeconds: defaultPollIntervalSeconds,
		},
		Render: Render{
			OutputDir:         defaultOutputDir,
			DefaultFilter:     defaultFilter,
			DefaultTransition: defaultTransition,
			MaxUploadMB:       defaultMaxUploadMB,
			MaxVideos:         defaultMaxVideos,
		},
	}
}

// Load reads a TOML config file layered over the defaults. A missing file is
// not an error: the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that loaded values are usable.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Gemini.Model == "" {
		return errors.New("gemini.model must not be empty")
	}
	if c.Gemini.PollIntervalSeconds < 1 {
		return fmt.Errorf("gemini.poll_interval_seconds must be at least 1, got %d", c.Gemini.PollIntervalSeconds)
	}
	if c.Render.MaxVideos < 1 {
		return fmt.Errorf("render.max_videos must be at least 1, got %d", c.Render.MaxVideos)
	}
	if c.Render.MaxUploadMB < 1 {
		return fmt.Errorf("render.max_upload_mb must be at least 1, got %d", c.Render.MaxUploadMB)
	}
	return nil
}
