package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Frame   FrameConfig   `mapstructure:"frame"`
	Input   InputConfig   `mapstructure:"input"`
	UI      UIConfig      `mapstructure:"ui"`
	Log     LogConfig     `mapstructure:"log"`
	Journal JournalConfig `mapstructure:"journal"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// ServerConfig locates the device service.
type ServerConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FrameConfig holds the starting refresh interval. It is clamped when applied.
type FrameConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// InputConfig holds gesture settings.
type InputConfig struct {
	LongPress time.Duration `mapstructure:"long_press"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	ClickThreshold time.Duration `mapstructure:"click_threshold"`
	EdgePadding    int           `mapstructure:"edge_padding"`
	Fit            string        `mapstructure:"fit"`
	ButtonCooldown time.Duration `mapstructure:"button_cooldown"`
	KeyCooldown    time.Duration `mapstructure:"key_cooldown"`
}

// LogConfig holds the log file location and verbosity.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Debug bool   `mapstructure:"debug"`
}

// JournalConfig holds the action journal settings.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Fit modes for the frame surface.
const (
	FitWidth   = "width"
	FitContain = "contain"
)

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"server":   "server.url",
	"timeout":  "server.timeout",
	"interval": "frame.interval",
	"fit":      "ui.fit",
	"debug":    "log.debug",
	"log":      "log.path",
	"journal":  "journal.enabled",
}

// Load reads configuration from defaults, file, env and flags, in increasing
// order of precedence. Env var overrides use prefix DROIDVIEW_. flags may be
// nil; flags that are not defined on it are skipped.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	home := os.Getenv("HOME")

	// default values
	v.SetDefault("server.url", "http://127.0.0.1:3000")
	v.SetDefault("server.timeout", "5s")
	v.SetDefault("frame.interval", "1s")
	v.SetDefault("input.long_press", "300ms")
	v.SetDefault("ui.click_threshold", "250ms")
	v.SetDefault("ui.edge_padding", 1)
	v.SetDefault("ui.fit", FitWidth)
	v.SetDefault("ui.button_cooldown", "2s")
	v.SetDefault("ui.key_cooldown", "500ms")
	v.SetDefault("log.path", filepath.Join(home, ".local", "state", "droidview", "droidview.log"))
	v.SetDefault("log.debug", false)
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", filepath.Join(home, ".local", "share", "droidview", "journal.db"))

	v.SetConfigType("toml")

	cfgPath := os.Getenv("DROIDVIEW_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "droidview"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("DROIDVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	// a missing file is fine; a broken one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.File = v.ConfigFileUsed()
	c.Log.Path = expandHome(c.Log.Path, home)
	c.Journal.Path = expandHome(c.Journal.Path, home)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings no component can work with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.URL) == "" {
		return fmt.Errorf("config: server.url is empty")
	}
	switch c.UI.Fit {
	case FitWidth, FitContain:
	default:
		return fmt.Errorf("config: ui.fit must be %q or %q, got %q", FitWidth, FitContain, c.UI.Fit)
	}
	if c.UI.EdgePadding < 0 {
		return fmt.Errorf("config: ui.edge_padding must not be negative")
	}
	return nil
}

// Settings returns the configuration as nested tables keyed like the config
// file, with durations as strings.
func (c Config) Settings() map[string]any {
	return map[string]any{
		"server": map[string]any{
			"url":     c.Server.URL,
			"timeout": c.Server.Timeout.String(),
		},
		"frame": map[string]any{
			"interval": c.Frame.Interval.String(),
		},
		"input": map[string]any{
			"long_press": c.Input.LongPress.String(),
		},
		"ui": map[string]any{
			"click_threshold": c.UI.ClickThreshold.String(),
			"edge_padding":    c.UI.EdgePadding,
			"fit":             c.UI.Fit,
			"button_cooldown": c.UI.ButtonCooldown.String(),
			"key_cooldown":    c.UI.KeyCooldown.String(),
		},
		"log": map[string]any{
			"path":  c.Log.Path,
			"debug": c.Log.Debug,
		},
		"journal": map[string]any{
			"enabled": c.Journal.Enabled,
			"path":    c.Journal.Path,
		},
	}
}

func expandHome(p, home string) string {
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}
