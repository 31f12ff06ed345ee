package countdown

import (
	"math/rand/v2"
	"time"

	"github.com/gigurra/intermission/cmd/fader"
	"github.com/gigurra/intermission/cmd/playlist"
)

// Config is fixed for the lifetime of one waiting room.
type Config struct {
	Wait       time.Duration
	Promotions []string
	Title      string
	SceneName  string

	// Pick returns a value in [0, n) and chooses the promotion video.
	// nil uses math/rand/v2.
	Pick func(n int) int
}

// Machine decides what the waiting room does next. It owns no timers and
// performs no I/O: every call to Handle returns the effects to apply.
type Machine struct {
	cfg   Config
	songs *playlist.Scheduler
	state State
	gen   uint64 // bumped on every track change
}

func New(cfg Config, songs *playlist.Scheduler) *Machine {
	if cfg.Pick == nil {
		cfg.Pick = rand.IntN
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.SceneName == "" {
		cfg.SceneName = DefaultSceneName
	}
	if songs == nil {
		songs = playlist.New(nil, nil)
	}

	remaining := cfg.Wait
	if remaining < 0 {
		remaining = 0
	}

	return &Machine{
		cfg:   cfg,
		songs: songs,
		state: State{
			Phase:     PhaseIdle,
			Remaining: remaining,
			Promotion: PromotionPending,
		},
	}
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) View() View {
	return NewView(m.state, m.cfg.Title)
}

func (m *Machine) Finished() bool {
	return m.state.Phase == PhaseFinished
}

// Handle applies ev and returns the effects to run, in order.
// A finished machine ignores everything.
func (m *Machine) Handle(ev Event) []Effect {
	if m.Finished() {
		return nil
	}

	switch ev.Type {
	case EventStart:
		return m.start()
	case EventTick:
		return m.tick()
	case EventTrackEnded:
		return m.withRender(m.playNext())
	case EventVideoEnded:
		return m.withRender(m.finishPromotion())
	case EventDeadline:
		return m.deadline(ev)
	default:
		return nil
	}
}

func (m *Machine) enter(to Phase) bool {
	if !CanTransition(m.state.Phase, to) {
		return false
	}
	m.state.Phase = to
	return true
}

func (m *Machine) withRender(effects []Effect) []Effect {
	return append(effects, Effect{Type: EffectRender, View: m.View()})
}

func (m *Machine) start() []Effect {
	if m.state.Phase != PhaseIdle {
		return nil
	}

	effects := []Effect{wake(FirstTrackDelay, DeadlineFirstTrack, 0)}

	if m.state.Remaining <= 0 {
		effects = append(effects, m.beginEnding()...)
		return m.withRender(effects)
	}

	m.enter(PhaseTicking)
	effects = append(effects, Effect{Type: EffectStartClock})
	effects = append(effects, m.maybePromote()...)
	return m.withRender(effects)
}

func (m *Machine) tick() []Effect {
	if m.state.Phase == PhaseIdle {
		return nil
	}

	// The stop check runs before the decrement, so the clock stops one
	// tick after reaching zero.
	if m.state.Remaining <= 0 {
		return []Effect{{Type: EffectStopClock}}
	}

	m.state.Remaining -= TickInterval
	if m.state.Remaining < 0 {
		m.state.Remaining = 0
	}

	var effects []Effect
	switch {
	case m.state.Phase == PhaseEnding:
	case m.state.Remaining <= EndingThreshold:
		effects = m.beginEnding()
	case m.state.Phase == PhasePromotion && m.state.Remaining <= PromotionCutoff:
		effects = m.finishPromotion()
	default:
		effects = m.maybePromote()
	}
	return m.withRender(effects)
}

func (m *Machine) beginEnding() []Effect {
	var effects []Effect
	if m.state.Promotion == PromotionPlaying {
		effects = append(effects, m.finishPromotion()...)
	}
	if !m.enter(PhaseEnding) {
		return effects
	}
	return append(effects,
		Effect{Type: EffectFade, Fade: fader.Spec{Direction: fader.Out, Interval: fader.DefaultInterval}},
		wake(FinishDelay, DeadlineFinish, 0),
	)
}

func (m *Machine) maybePromote() []Effect {
	if m.state.Phase != PhaseTicking ||
		m.state.Promotion != PromotionPending ||
		m.state.Remaining > PromotionThreshold ||
		len(m.cfg.Promotions) == 0 {
		return nil
	}

	video := m.cfg.Promotions[m.cfg.Pick(len(m.cfg.Promotions))]
	m.enter(PhasePromotion)
	m.state.Promotion = PromotionPlaying
	m.state.PromotionVideo = video

	return []Effect{
		{Type: EffectShowPromotion, Video: video},
		{Type: EffectFade, Fade: fader.Spec{Direction: fader.Out, Interval: fader.HandoffInterval}},
		wake(AudioPauseDelay, DeadlineAudioPause, 0),
	}
}

func (m *Machine) finishPromotion() []Effect {
	if m.state.Promotion != PromotionPlaying {
		return nil
	}
	m.state.Promotion = PromotionFinished
	if m.state.Phase == PhasePromotion {
		m.enter(PhaseTicking)
	}

	return []Effect{
		{Type: EffectPausePromotion, After: PromotionPauseDelay},
		{Type: EffectResumeAudio, After: ResumeDelay},
		{
			Type:  EffectFade,
			After: FadeInDelay,
			Fade:  fader.Spec{Direction: fader.In, Interval: fader.DefaultInterval, From: 0, HasFrom: true},
		},
	}
}

func (m *Machine) playNext() []Effect {
	track, ok := m.songs.Next()
	if !ok {
		return nil
	}

	m.gen++
	m.state.NowPlaying = track.Name
	m.state.HasTrack = true
	m.state.SongChanged = false

	return []Effect{
		{Type: EffectPlayTrack, Track: track},
		wake(SongChangedDelay, DeadlineSongChanged, m.gen),
	}
}

func (m *Machine) deadline(ev Event) []Effect {
	switch ev.Deadline {
	case DeadlineFirstTrack:
		return m.withRender(m.playNext())

	case DeadlineFinish:
		if !m.enter(PhaseFinished) {
			return nil
		}
		return m.withRender([]Effect{
			{Type: EffectReleaseAudio},
			{Type: EffectSwitchScene, Scene: m.cfg.SceneName},
			{Type: EffectStopClock},
		})

	case DeadlineAudioPause:
		// Audio was already handed back by a finished promotion.
		if m.state.Promotion != PromotionPlaying {
			return nil
		}
		return []Effect{{Type: EffectPauseAudio}}

	case DeadlineSongChanged:
		if ev.Gen != m.gen {
			return nil
		}
		m.state.SongChanged = true
		return m.withRender([]Effect{wake(SongChangedHold, DeadlineSongChangedEnd, m.gen)})

	case DeadlineSongChangedEnd:
		if ev.Gen != m.gen {
			return nil
		}
		m.state.SongChanged = false
		return m.withRender(nil)

	default:
		return nil
	}
}
