// Package config provides configuration loading for intermission.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gigurra/intermission/cmd/countdown"
)

const (
	DefaultAssetsDir = "public"
	DefaultTitle     = countdown.DefaultTitle
	DefaultSceneName = countdown.DefaultSceneName
	DefaultAddr      = "127.0.0.1:3000"
)

// Config represents the intermission configuration file structure.
type Config struct {
	AssetsDir     string              `json:"assets_dir,omitempty"`
	Addr          string              `json:"addr,omitempty"`
	Title         string              `json:"title,omitempty"`
	SceneName     string              `json:"scene_name,omitempty"`
	Notifications *NotificationConfig `json:"notifications,omitempty"`
}

// NotificationConfig holds settings for OS notifications.
type NotificationConfig struct {
	Enabled bool `json:"enabled"`
	// OnSceneSwitch notifies when a waiting room hands over to the main scene.
	OnSceneSwitch bool `json:"on_scene_switch"`
	// OnPromotion notifies when a promotion video starts.
	OnPromotion bool `json:"on_promotion,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		AssetsDir: DefaultAssetsDir,
		Addr:      DefaultAddr,
		Title:     DefaultTitle,
		SceneName: DefaultSceneName,
		Notifications: &NotificationConfig{
			Enabled:       false,
			OnSceneSwitch: true,
		},
	}
}

// ConfigDir returns the intermission config directory (~/.intermission).
// INTERMISSION_HOME overrides it.
func ConfigDir() string {
	if dir := os.Getenv("INTERMISSION_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".intermission")
}

// ConfigPath returns the path to the config file (~/.intermission/config.json).
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// Load loads the config from ~/.intermission/config.json.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the config at path, filling in defaults for missing fields.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if config.AssetsDir == "" {
		config.AssetsDir = defaults.AssetsDir
	}
	if config.Addr == "" {
		config.Addr = defaults.Addr
	}
	if config.Title == "" {
		config.Title = defaults.Title
	}
	if config.SceneName == "" {
		config.SceneName = defaults.SceneName
	}
	if config.Notifications == nil {
		config.Notifications = defaults.Notifications
	}

	return &config, nil
}

// Save saves the config to ~/.intermission/config.json.
func Save(config *Config) error {
	return SaveTo(ConfigPath(), config)
}

// SaveTo writes config to path, creating the parent directory.
func SaveTo(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// NotifySceneSwitch reports whether scene switches should raise a notification.
func (c *NotificationConfig) NotifySceneSwitch() bool {
	return c != nil && c.Enabled && c.OnSceneSwitch
}

// NotifyPromotion reports whether promotion starts should raise a notification.
func (c *NotificationConfig) NotifyPromotion() bool {
	return c != nil && c.Enabled && c.OnPromotion
}
