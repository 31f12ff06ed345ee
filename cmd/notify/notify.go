// Package notify raises desktop notifications for waiting room milestones.
package notify

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/gigurra/intermission/cmd/common"
	"github.com/gigurra/intermission/cmd/common/config"
	"github.com/gigurra/intermission/cmd/countdown"
)

// DefaultCooldown collapses the same notification from several open
// overlays into one.
const DefaultCooldown = 5 * time.Second

var platformSend = func(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Notifier turns session effects into notifications.
type Notifier struct {
	cfg      *config.NotificationConfig
	stateDir string
	cooldown time.Duration
	log      *slog.Logger
}

func New(cfg *config.NotificationConfig, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		cfg:      cfg,
		stateDir: filepath.Join(common.CacheDir(), "notify-state"),
		cooldown: DefaultCooldown,
		log:      log,
	}
}

// Observe is meant for session.Options.OnEffect.
func (n *Notifier) Observe(e countdown.Effect) {
	switch e.Type {
	case countdown.EffectSwitchScene:
		if n.cfg.NotifySceneSwitch() {
			n.send("scene", "Intermission over", fmt.Sprintf("Switched to %s", e.Scene))
		}
	case countdown.EffectShowPromotion:
		if n.cfg.NotifyPromotion() {
			n.send("promotion", "Promotion started", e.Video)
		}
	}
}

// send checks the cooldown via the state file's modification time.
func (n *Notifier) send(kind, title, body string) {
	statePath := filepath.Join(n.stateDir, kind)
	if info, err := os.Stat(statePath); err == nil {
		if time.Since(info.ModTime()) < n.cooldown {
			n.log.Debug("notification suppressed", "kind", kind)
			return
		}
	}

	if err := platformSend(title, body); err != nil {
		// Final fallback to stderr
		fmt.Fprintf(os.Stderr, "[notify] %s: %s\n", title, body)
	}

	if err := os.MkdirAll(n.stateDir, 0755); err == nil {
		if f, err := os.Create(statePath); err == nil {
			f.Close()
		}
	}
}
