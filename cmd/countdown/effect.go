package countdown

import (
	"time"

	"github.com/gigurra/intermission/cmd/fader"
	"github.com/gigurra/intermission/cmd/playlist"
)

// EventType identifies an input to the machine.
type EventType string

const (
	EventStart      EventType = "start"
	EventTick       EventType = "tick"
	EventTrackEnded EventType = "track_ended"
	EventVideoEnded EventType = "video_ended"
	EventDeadline   EventType = "deadline"
)

// DeadlineKind names a delayed decision the machine asked to be woken for.
type DeadlineKind string

const (
	DeadlineFirstTrack     DeadlineKind = "first_track"
	DeadlineFinish         DeadlineKind = "finish"
	DeadlineAudioPause     DeadlineKind = "audio_pause"
	DeadlineSongChanged    DeadlineKind = "song_changed"
	DeadlineSongChangedEnd DeadlineKind = "song_changed_end"
)

// Event is an input to Machine.Handle.
type Event struct {
	Type     EventType
	Deadline DeadlineKind // set for EventDeadline
	Gen      uint64       // track generation for song-changed deadlines
}

// EffectType identifies a command for the effect runner.
type EffectType string

const (
	EffectPlayTrack      EffectType = "play_track"
	EffectPauseAudio     EffectType = "pause_audio"
	EffectResumeAudio    EffectType = "resume_audio"
	EffectReleaseAudio   EffectType = "release_audio"
	EffectFade           EffectType = "fade"
	EffectShowPromotion  EffectType = "show_promotion"
	EffectPausePromotion EffectType = "pause_promotion"
	EffectSwitchScene    EffectType = "switch_scene"
	EffectStopClock      EffectType = "stop_clock"
	EffectStartClock     EffectType = "start_clock"
	EffectWake           EffectType = "wake"
	EffectRender         EffectType = "render"
)

// Effect is a command produced by the machine. The machine never performs
// side effects itself; a runner applies these in order. After delays the
// effect relative to the moment it was produced.
type Effect struct {
	Type  EffectType
	After time.Duration

	Track playlist.Track // EffectPlayTrack
	Fade  fader.Spec     // EffectFade
	Video string         // EffectShowPromotion
	Scene string         // EffectSwitchScene
	Event Event          // EffectWake: event to feed back once After elapses
	View  View           // EffectRender
}

func wake(after time.Duration, kind DeadlineKind, gen uint64) Effect {
	return Effect{
		Type:  EffectWake,
		After: after,
		Event: Event{Type: EventDeadline, Deadline: kind, Gen: gen},
	}
}
