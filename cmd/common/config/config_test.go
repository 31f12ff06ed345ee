package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.AssetsDir != DefaultAssetsDir || cfg.SceneName != DefaultSceneName || cfg.Title != DefaultTitle {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Notifications.NotifySceneSwitch() {
		t.Error("notifications should be disabled by default")
	}
}

func TestLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"assets_dir": "/srv/overlay"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.AssetsDir != "/srv/overlay" {
		t.Errorf("AssetsDir = %q", cfg.AssetsDir)
	}
	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, DefaultAddr)
	}
	if cfg.Notifications == nil {
		t.Error("Notifications not defaulted")
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.SceneName = "Just Chatting"
	cfg.Notifications.Enabled = true

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.SceneName != "Just Chatting" {
		t.Errorf("SceneName = %q", loaded.SceneName)
	}
	if !loaded.Notifications.NotifySceneSwitch() {
		t.Error("scene switch notifications lost")
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("INTERMISSION_HOME", dir)
	if got := ConfigPath(); got != filepath.Join(dir, "config.json") {
		t.Errorf("ConfigPath = %q", got)
	}
}

func TestNilNotificationConfig(t *testing.T) {
	var n *NotificationConfig
	if n.NotifySceneSwitch() || n.NotifyPromotion() {
		t.Error("nil config should never notify")
	}
}
