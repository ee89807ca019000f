// Package config loads engine settings from mheg.yaml and MHEG_ environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kkyr/fig"

	"github.com/roach88/mheg/internal/engine"
	"github.com/roach88/mheg/internal/ir"
)

const (
	EnvPrefix = "MHEG"
	FileName  = "mheg.yaml"
)

// Config holds the settings shared by the run, play and test commands.
// Command-line flags override whatever is loaded here.
type Config struct {
	Carousel       string   `fig:"carousel"`
	DB             string   `fig:"db"`
	ContentTimeout int      `fig:"content_timeout"`
	BootTimeout    int      `fig:"boot_timeout"`
	BootObjects    []string `fig:"boot_objects"`
	LogLevel       string   `fig:"log_level"`
	MetricsAddr    string   `fig:"metrics_addr"`
	Watch          bool     `fig:"watch"`
}

// Default returns the settings used for anything not configured.
func Default() *Config {
	return &Config{
		ContentTimeout: engine.DefaultContentTimeout,
		BootTimeout:    engine.DefaultBootTimeout,
		LogLevel:       "info",
	}
}

// Load reads the configuration. An explicit path names the file to use;
// otherwise mheg.yaml is searched in ., configs and $HOME/.mheg, and a
// missing file leaves the defaults plus environment overrides.
//
// Defaults are filled in before fig runs rather than through default tags:
// fig treats a zero value as unset, and a timeout of 0 is meaningful.
func Load(path string) (*Config, error) {
	cfg := Default()

	opts := []fig.Option{fig.UseEnv(EnvPrefix)}
	if path != "" {
		opts = append(opts, fig.File(filepath.Base(path)), fig.Dirs(filepath.Dir(path)))
	} else if dir, ok := findFile(searchDirs()); ok {
		opts = append(opts, fig.File(FileName), fig.Dirs(dir))
	} else {
		opts = append(opts, fig.IgnoreFile())
	}

	if err := fig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func searchDirs() []string {
	dirs := []string{".", "configs"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".mheg"))
	}
	return dirs
}

func findFile(dirs []string) (string, bool) {
	for _, dir := range dirs {
		if info, err := os.Stat(filepath.Join(dir, FileName)); err == nil && info.Mode().IsRegular() {
			return dir, true
		}
	}
	return "", false
}

// Validate checks value ranges fig cannot express.
func (c *Config) Validate() error {
	if c.ContentTimeout < 0 {
		return fmt.Errorf("content_timeout must be >= 0, got %d", c.ContentTimeout)
	}
	if c.BootTimeout < 0 {
		return fmt.Errorf("boot_timeout must be >= 0, got %d", c.BootTimeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	for _, obj := range c.BootObjects {
		if obj == "" {
			return fmt.Errorf("boot_objects: empty entry")
		}
	}
	return nil
}

// Level parses LogLevel (debug, info, warn, error).
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// EngineOptions translates the engine-facing settings.
func (c *Config) EngineOptions() []engine.EngineOption {
	opts := []engine.EngineOption{
		engine.WithContentTimeout(c.ContentTimeout),
		engine.WithBootTimeout(c.BootTimeout),
	}
	if len(c.BootObjects) > 0 {
		ids := make([]ir.GroupID, len(c.BootObjects))
		for i, obj := range c.BootObjects {
			ids[i] = ir.GroupID(obj)
		}
		opts = append(opts, engine.WithBootObjects(ids...))
	}
	return opts
}
