// Package config loads the contribgraph settings from a YAML file,
// overlaid with CONTRIBGRAPH_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/benoitkugler/contribgraph/graphapi"
	"github.com/benoitkugler/contribgraph/svgraster"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read by the command line.
const DefaultPath = ".contribgraph.yml"

const envPrefix = "CONTRIBGRAPH_"

// Config corresponds to .contribgraph.yml.
type Config struct {
	Username        string        `yaml:"username" koanf:"username"`
	BaseURL         string        `yaml:"base_url" koanf:"base_url"`
	Background      string        `yaml:"background" koanf:"background"`
	Scale           int           `yaml:"scale" koanf:"scale"`
	Timeout         time.Duration `yaml:"timeout" koanf:"timeout"`
	PreserveTooltip bool          `yaml:"preserve_tooltip" koanf:"preserve_tooltip"`
	CleanSVG        bool          `yaml:"clean_svg" koanf:"clean_svg"`
	OutputDir       string        `yaml:"output_dir" koanf:"output_dir"`
	Listen          string        `yaml:"listen" koanf:"listen"`
	LogLevel        string        `yaml:"log_level" koanf:"log_level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    graphapi.DefaultBaseURL,
		Background: "#0d1117",
		Scale:      svgraster.DefaultScale,
		Timeout:    30 * time.Second,
		OutputDir:  ".",
		Listen:     ":8080",
		LogLevel:   "info",
	}
}

// Load reads configuration from the given YAML file, if it exists,
// then overlays environment variable overrides (CONTRIBGRAPH_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// CONTRIBGRAPH_BASE_URL -> base_url
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
// The user name is checked by the commands which need it.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if _, err := svgraster.ParseColor(c.Background); err != nil {
		return fmt.Errorf("invalid background: %w", err)
	}
	if c.Scale < 1 {
		return fmt.Errorf("scale must be at least 1, got %d", c.Scale)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return l, nil
}

// RasterOptions returns the rasterization settings. It must only
// be called on a valid configuration.
func (c *Config) RasterOptions() svgraster.Options {
	bg, _ := svgraster.ParseColor(c.Background)
	return svgraster.Options{Background: bg, Scale: c.Scale, Timeout: c.Timeout}
}
