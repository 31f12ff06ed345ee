package common

import (
	"os"
	"path/filepath"
)

const appName = "intermission"

func CacheDir() string {
	return filepath.Join(cacheHome(), appName)
}

// CachePath returns a path under the cache directory, creating its parent.
func CachePath(elem ...string) (string, error) {
	p := filepath.Join(append([]string{CacheDir()}, elem...)...)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", err
	}
	return p, nil
}

// https://specifications.freedesktop.org/basedir/latest/#variables
func cacheHome() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".cache")
	}
	return dir
}
