package common

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLoggingLevels(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := SetupLoggingTo(&buf, tt.verbose)
			log.Debug("debug line")
			log.Info("info line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v:\n%s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "info line") {
				t.Errorf("info line missing:\n%s", out)
			}
		})
	}
}

func TestCacheDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	if got := CacheDir(); got != "/tmp/xdg/intermission" {
		t.Errorf("CacheDir = %q", got)
	}
}

func TestCachePathCreatesParent(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", root)

	p, err := CachePath("notify-state", "scene")
	if err != nil {
		t.Fatalf("CachePath: %v", err)
	}
	if want := filepath.Join(root, "intermission", "notify-state", "scene"); p != want {
		t.Errorf("CachePath = %q, want %q", p, want)
	}
	if info, err := os.Stat(filepath.Dir(p)); err != nil || !info.IsDir() {
		t.Errorf("parent not created: %v", err)
	}
}
