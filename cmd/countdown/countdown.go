package countdown

import (
	"fmt"
	"time"
)

const (
	// DefaultTitle is shown above the countdown.
	DefaultTitle = "A special cross-platform broadcast, presented by ray"
	// DefaultSceneName is the scene the broadcast host switches to at the end.
	DefaultSceneName = "🎮 VALORANT MAIN"
)

// Thresholds and delays of the waiting room timeline.
const (
	TickInterval = time.Second

	// PromotionThreshold is the start of the promotion window. Waits shorter
	// than this never show a promotion.
	PromotionThreshold = 3 * time.Minute
	// PromotionCutoff forces a running promotion to end.
	PromotionCutoff = 10 * time.Second
	// EndingThreshold starts the final fade out.
	EndingThreshold = 4 * time.Second

	FirstTrackDelay     = 1500 * time.Millisecond
	FinishDelay         = 5 * time.Second
	PromotionPauseDelay = time.Second
	AudioPauseDelay     = PromotionThreshold
	ResumeDelay         = 1000 * time.Millisecond
	FadeInDelay         = 1010 * time.Millisecond
	SongChangedDelay    = 2500 * time.Millisecond
	SongChangedHold     = 5 * time.Second

	// NowPlayingHideAt hides the now-playing label near the end.
	NowPlayingHideAt = 3 * time.Second
	// SongChangedMinLeft suppresses the song-changed flash near the end.
	SongChangedMinLeft = 10 * time.Second
)

// Phase is the single tagged state of a waiting room.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseTicking   Phase = "ticking"
	PhasePromotion Phase = "promotion"
	PhaseEnding    Phase = "ending"
	PhaseFinished  Phase = "finished"
)

// PromotionStage tracks the one-shot promotion interstitial.
type PromotionStage string

const (
	PromotionPending  PromotionStage = "pending"
	PromotionPlaying  PromotionStage = "playing"
	PromotionFinished PromotionStage = "finished"
)

// CanTransition enforces the allowed phase graph.
func CanTransition(from, to Phase) bool {
	switch from {
	case PhaseIdle:
		return to == PhaseTicking || to == PhaseEnding
	case PhaseTicking:
		return to == PhasePromotion || to == PhaseEnding
	case PhasePromotion:
		return to == PhaseTicking || to == PhaseEnding
	case PhaseEnding:
		return to == PhaseFinished
	default:
		return false
	}
}

// State is a snapshot of the machine.
type State struct {
	Phase     Phase
	Remaining time.Duration

	Promotion      PromotionStage
	PromotionVideo string

	NowPlaying  string
	HasTrack    bool
	SongChanged bool
}

// FormatRemaining renders d as zero padded HH:MM:SS on a 24 hour dial.
// Negative durations render as 00:00:00 and sub-second remainders are
// truncated.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h%24, m, s)
}
