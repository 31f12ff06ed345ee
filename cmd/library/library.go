// Package library gathers the media a waiting room page needs from the
// assets directory.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gigurra/intermission/cmd/countdown"
	"github.com/gigurra/intermission/cmd/playlist"
	"github.com/samber/lo"
)

// Directory layout under the assets root.
const (
	AudioDir       = "waiting_audios"
	CopyrightedDir = "copyrighted_audios"
	PromotionDir   = "promotion_videos"
	StylesheetDir  = "unstabilized_css"
)

// Query parameters.
const (
	ParamWait        = "timewait"
	ParamCopyrighted = "copyrightSongs"
)

const DefaultWaitMinutes = 2

var ErrNoAudioDir = errors.New("audio directory not found")

// WaitConfig is the per-request configuration taken from the query string.
type WaitConfig struct {
	WaitMinutes        int
	IncludeCopyrighted bool
}

// Wait returns the configured countdown length.
func (w WaitConfig) Wait() time.Duration {
	return time.Duration(w.WaitMinutes) * time.Minute
}

// WantsPromotion reports whether the wait is long enough for a promotion.
func (w WaitConfig) WantsPromotion() bool {
	return w.Wait() >= countdown.PromotionThreshold
}

// ParseWaitConfig reads timewait and copyrightSongs. Malformed input never
// fails: the wait falls back to DefaultWaitMinutes and copyrighted audio is
// only included for the literal value "1".
func ParseWaitConfig(q url.Values) WaitConfig {
	return WaitConfig{
		WaitMinutes:        parseWaitMinutes(q.Get(ParamWait)),
		IncludeCopyrighted: q.Get(ParamCopyrighted) == "1",
	}
}

func parseWaitMinutes(raw string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultWaitMinutes
	}
	minutes := int(v)
	if minutes <= 0 {
		return DefaultWaitMinutes
	}
	return minutes
}

// PageData is everything one waiting room page is built from.
type PageData struct {
	Audios      []string `json:"audios"`
	Promotions  []string `json:"promotions"`
	WaitMinutes int      `json:"wait_minutes"`
	WaitMillis  int64    `json:"wait_ms"`
	Title       string   `json:"title,omitempty"`
	SceneName   string   `json:"scene_name,omitempty"`
}

// Wait returns the countdown length of the page.
func (p PageData) Wait() time.Duration {
	return time.Duration(p.WaitMillis) * time.Millisecond
}

// PromotionURL returns the escaped URL a promotion video is served at.
func PromotionURL(video string) string {
	u := url.URL{Path: "/" + PromotionDir + "/" + video}
	return u.EscapedPath()
}

// OverlayURL builds the browser source URL of a server listening on addr.
// Wildcard hosts are replaced with localhost.
func OverlayURL(addr string, timeWait int, copyright bool) string {
	host, port, err := net.SplitHostPort(addr)
	if err == nil && (host == "" || host == "0.0.0.0" || host == "::") {
		addr = net.JoinHostPort("localhost", port)
	}
	q := url.Values{}
	if timeWait > 0 {
		q.Set(ParamWait, strconv.Itoa(timeWait))
	}
	if copyright {
		q.Set(ParamCopyrighted, "1")
	}
	u := url.URL{Scheme: "http", Host: addr, Path: "/", RawQuery: q.Encode()}
	return u.String()
}

// Lister returns the entry names of a directory. Directories are included
// with a trailing slash so callers can tell them apart.
type Lister interface {
	List(dir string) ([]string, error)
}

// DirLister reads directories straight from disk.
type DirLister struct{}

func (DirLister) List(dir string) ([]string, error) {
	return readNames(dir)
}

func readNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(e fs.DirEntry, _ int) string {
		if e.IsDir() {
			return e.Name() + "/"
		}
		return e.Name()
	}), nil
}

// Gather lists the media under root for the request query q.
func Gather(root string, q url.Values) (PageData, error) {
	return GatherWith(DirLister{}, root, ParseWaitConfig(q))
}

// GatherWith lists the media under root for cfg using l.
func GatherWith(l Lister, root string, cfg WaitConfig) (PageData, error) {
	audioDir := filepath.Join(root, AudioDir)
	names, err := l.List(audioDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return PageData{}, fmt.Errorf("%w: %s", ErrNoAudioDir, audioDir)
		}
		return PageData{}, fmt.Errorf("failed to list audio: %w", err)
	}

	if cfg.IncludeCopyrighted {
		extra, err := l.List(filepath.Join(audioDir, CopyrightedDir))
		switch {
		case err == nil:
			names = append(names, lo.Map(extra, func(name string, _ int) string {
				return path.Join(CopyrightedDir, name)
			})...)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return PageData{}, fmt.Errorf("failed to list copyrighted audio: %w", err)
		}
	}

	audios := lo.Filter(names, func(name string, _ int) bool {
		return strings.HasSuffix(name, playlist.AudioExt)
	})

	promotions := []string{}
	if cfg.WantsPromotion() {
		videos, err := l.List(filepath.Join(root, PromotionDir))
		if err != nil {
			return PageData{}, fmt.Errorf("failed to list promotion videos: %w", err)
		}
		promotions = lo.Filter(videos, func(name string, _ int) bool {
			return !strings.HasSuffix(name, "/") && !strings.HasPrefix(name, ".")
		})
	}

	return PageData{
		Audios:      audios,
		Promotions:  promotions,
		WaitMinutes: cfg.WaitMinutes,
		WaitMillis:  cfg.Wait().Milliseconds(),
	}, nil
}
