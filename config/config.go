// Package config loads the overlay's runtime configuration from a YAML file
// with CHATOVERLAY_* environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"chatoverlay/prefs"
)

// EnvPrefix is the prefix of environment overrides. Nested keys use a double
// underscore: CHATOVERLAY_CHAT__BASE_URL sets chat.base_url.
const EnvPrefix = "CHATOVERLAY_"

// FileName is the config file looked up in the data directory when no
// explicit path is given.
const FileName = "config.yml"

// Config is the top-level configuration.
type Config struct {
	DataDir  string         `yaml:"data_dir" koanf:"data_dir"`
	Chat     ChatConfig     `yaml:"chat" koanf:"chat"`
	Fonts    FontsConfig    `yaml:"fonts" koanf:"fonts"`
	Window   WindowConfig   `yaml:"window" koanf:"window"`
	Settings SettingsConfig `yaml:"settings" koanf:"settings"`
	Log      LogConfig      `yaml:"log" koanf:"log"`
	History  HistoryConfig  `yaml:"history" koanf:"history"`
	Preview  PreviewConfig  `yaml:"preview" koanf:"preview"`
}

// ChatConfig describes the embedded chat page.
type ChatConfig struct {
	BaseURL       string `yaml:"base_url" koanf:"base_url"`
	TargetPattern string `yaml:"target_pattern" koanf:"target_pattern"`
}

// FontsConfig describes where web fonts are imported from.
type FontsConfig struct {
	ImportBaseURL string `yaml:"import_base_url" koanf:"import_base_url"`
}

// WindowConfig sizes the overlay window.
type WindowConfig struct {
	Title  string `yaml:"title" koanf:"title"`
	Width  int    `yaml:"width" koanf:"width"`
	Height int    `yaml:"height" koanf:"height"`
}

// SettingsConfig configures the local settings server and window.
type SettingsConfig struct {
	ListenAddr string `yaml:"listen_addr" koanf:"listen_addr"`
	Title      string `yaml:"title" koanf:"title"`
	Width      int    `yaml:"width" koanf:"width"`
	Height     int    `yaml:"height" koanf:"height"`
}

// LogConfig configures the session log.
type LogConfig struct {
	Dir   string `yaml:"dir" koanf:"dir"`
	Debug bool   `yaml:"debug" koanf:"debug"`
}

// HistoryConfig configures the recent chats list.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled" koanf:"enabled"`
	Limit   int  `yaml:"limit" koanf:"limit"`
}

// PreviewConfig configures the browser-driven preview command.
type PreviewConfig struct {
	Headless bool          `yaml:"headless" koanf:"headless"`
	Timeout  time.Duration `yaml:"timeout" koanf:"timeout"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		DataDir: prefs.DefaultDir(),
		Chat: ChatConfig{
			BaseURL:       "https://www.youtube.com/live_chat?is_popout=1&hl=en&persist_hl=1",
			TargetPattern: "youtube.com/live_chat",
		},
		Fonts: FontsConfig{
			ImportBaseURL: "https://fonts.googleapis.com/css2?family=",
		},
		Window: WindowConfig{
			Title:  "YouTube Chat Overlay",
			Width:  400,
			Height: 600,
		},
		Settings: SettingsConfig{
			ListenAddr: "127.0.0.1:0",
			Title:      "YouTube Chat Overlay Settings",
			Width:      500,
			Height:     800,
		},
		History: HistoryConfig{
			Enabled: true,
			Limit:   20,
		},
		Preview: PreviewConfig{
			Headless: true,
			Timeout:  30 * time.Second,
		},
	}
}

// DefaultPath returns the config file path inside the default data directory.
func DefaultPath() string {
	return filepath.Join(prefs.DefaultDir(), FileName)
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps CHATOVERLAY_SETTINGS__LISTEN_ADDR to settings.listen_addr.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if _, err := url.ParseRequestURI(c.Chat.BaseURL); err != nil {
		return fmt.Errorf("invalid chat.base_url %q: %w", c.Chat.BaseURL, err)
	}
	if c.Chat.TargetPattern == "" {
		return fmt.Errorf("chat.target_pattern is required")
	}
	if c.Fonts.ImportBaseURL == "" {
		return fmt.Errorf("fonts.import_base_url is required")
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Settings.Width <= 0 || c.Settings.Height <= 0 {
		return fmt.Errorf("settings size must be positive, got %dx%d", c.Settings.Width, c.Settings.Height)
	}
	if c.Settings.ListenAddr == "" {
		return fmt.Errorf("settings.listen_addr is required")
	}

	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must be non-negative")
	}
	if c.Preview.Timeout < 0 {
		return fmt.Errorf("preview.timeout must be non-negative")
	}

	return nil
}

// PrefsPath returns the preferences file inside the data directory.
func (c *Config) PrefsPath() string {
	return filepath.Join(c.DataDir, prefs.FileName)
}

// HistoryPath returns the recent chats database inside the data directory.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// SocketPath returns the control socket inside the data directory.
func (c *Config) SocketPath() string {
	return filepath.Join(c.DataDir, "chatoverlay.sock")
}

// LogDir returns the configured log directory, defaulting to
// <data_dir>/logs.
func (c *Config) LogDir() string {
	if c.Log.Dir != "" {
		return c.Log.Dir
	}
	return filepath.Join(c.DataDir, "logs")
}
