package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/gubarz/semtex/internal/executor"
)

// Config holds the application configuration
type Config struct {
	Verbose   bool   `mapstructure:"verbose"`
	Strict    bool   `mapstructure:"strict"`
	Workers   int    `mapstructure:"workers"`
	Extension string `mapstructure:"extension"`
	BaseDir   string `mapstructure:"base_dir"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Progress  string `mapstructure:"progress"`
	Report    string `mapstructure:"report"`
	Watch     bool   `mapstructure:"watch"`
}

// Progress display modes
const (
	ProgressAuto   = "auto"
	ProgressAlways = "always"
	ProgressNever  = "never"
)

// New creates a viper instance with defaults, config file search paths and
// environment binding applied
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("verbose", false)
	v.SetDefault("strict", false)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("extension", ".tex")
	v.SetDefault("base_dir", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("progress", ProgressAuto)
	v.SetDefault("report", "")
	v.SetDefault("watch", false)

	v.SetConfigName("semtex")
	v.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "semtex"))
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("SEMTEX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and unmarshals the merged settings
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	c.BaseDir = expandTilde(c.BaseDir)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the run cannot honor
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Extension != "" && !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("extension must start with '.', got %q", c.Extension)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be debug, info, warn or error", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: must be text or json", c.LogFormat)
	}
	switch c.Progress {
	case ProgressAuto, ProgressAlways, ProgressNever:
	default:
		return fmt.Errorf("invalid progress %q: must be auto, always or never", c.Progress)
	}
	switch c.Report {
	case "", "yaml", "json":
	default:
		return fmt.Errorf("invalid report format %q: must be yaml or json", c.Report)
	}
	return nil
}

// Options converts the configuration into executor run options
func (c *Config) Options() executor.Options {
	return executor.Options{
		Verbose:   c.Verbose,
		Strict:    c.Strict,
		Workers:   c.Workers,
		Extension: c.Extension,
		BaseDir:   c.BaseDir,
	}
}

// expandTilde expands ~ to the user's home directory
func expandTilde(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
