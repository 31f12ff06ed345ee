// Package session runs one waiting room: it owns a countdown machine, feeds
// it clock ticks and media events, and applies the effects it returns to an
// Output.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gigurra/intermission/cmd/countdown"
	"github.com/gigurra/intermission/cmd/fader"
	"github.com/gigurra/intermission/cmd/playlist"
	"github.com/google/uuid"
)

// Output is where a session's effects land: a browser page, a local
// speaker, or a test recorder. Volume and SetVolume are called from fade
// goroutines and must be safe for concurrent use; everything else is called
// from the session loop only.
type Output interface {
	fader.Volumer

	Play(track playlist.Track) error
	Pause()
	Resume()
	Release() error

	ShowPromotion(video string)
	PausePromotion()
	SwitchScene(name string)
	Render(view countdown.View)
}

type Options struct {
	// Scale speeds every delay up by this factor. Zero means real time.
	Scale float64
	Logger *slog.Logger
	// OnEffect observes every effect as it is applied.
	OnEffect func(countdown.Effect)
}

// envelope is one unit of work for the session loop.
type envelope struct {
	event  *countdown.Event
	effect *countdown.Effect
}

// Runtime is a single waiting room session.
type Runtime struct {
	id      string
	machine *countdown.Machine
	out     Output
	opts    Options
	log     *slog.Logger

	inbox chan envelope
	done  chan struct{}

	// Owned by the loop goroutine.
	ticker *time.Ticker
	tickC  <-chan time.Time

	timersMu sync.Mutex
	timers   []*time.Timer
	fades    sync.WaitGroup
}

func New(machine *countdown.Machine, out Output, opts Options) *Runtime {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	id := uuid.NewString()
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Runtime{
		id:      id,
		machine: machine,
		out:     out,
		opts:    opts,
		log:     log.With("session", id),
		inbox:   make(chan envelope, 16),
		done:    make(chan struct{}),
	}
}

func (r *Runtime) ID() string {
	return r.id
}

// Done is closed once Run has returned.
func (r *Runtime) Done() <-chan struct{} {
	return r.done
}

// Send delivers a media event (track or video ended) to the session. It
// never blocks after the session has stopped.
func (r *Runtime) Send(ev countdown.Event) {
	select {
	case r.inbox <- envelope{event: &ev}:
	case <-r.done:
	}
}

// Run drives the session until the countdown finishes or ctx is cancelled.
// Cancelling ctx stops the clock, every pending delayed effect and every
// running fade.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		r.stopClock()
		r.stopTimers()
		r.fades.Wait()
		close(r.done)
	}()

	// A handle left over from a previous page may or may not exist.
	_ = r.out.Release()

	r.log.Debug("session started")
	r.apply(ctx, r.machine.Handle(countdown.Event{Type: countdown.EventStart}))

	for !r.machine.Finished() {
		select {
		case <-ctx.Done():
			r.log.Debug("session cancelled", "remaining", r.machine.State().Remaining)
			return ctx.Err()
		case <-r.tickC:
			r.apply(ctx, r.machine.Handle(countdown.Event{Type: countdown.EventTick}))
		case env := <-r.inbox:
			switch {
			case env.event != nil:
				r.apply(ctx, r.machine.Handle(*env.event))
			case env.effect != nil:
				r.apply(ctx, []countdown.Effect{*env.effect})
			}
		}
	}

	r.log.Debug("session finished")
	return nil
}

func (r *Runtime) scaled(d time.Duration) time.Duration {
	s := time.Duration(float64(d) / r.opts.Scale)
	if s <= 0 {
		s = time.Nanosecond
	}
	return s
}

func (r *Runtime) apply(ctx context.Context, effects []countdown.Effect) {
	for _, e := range effects {
		if e.After > 0 {
			r.later(ctx, e)
			continue
		}

		switch e.Type {
		case countdown.EffectPlayTrack:
			if err := r.out.Play(e.Track); err != nil {
				r.log.Warn("failed to play track", "track", e.Track.Name, "error", err)
			}
		case countdown.EffectPauseAudio:
			r.out.Pause()
		case countdown.EffectResumeAudio:
			r.out.Resume()
		case countdown.EffectReleaseAudio:
			if err := r.out.Release(); err != nil {
				r.log.Warn("failed to release audio", "error", err)
			}
		case countdown.EffectFade:
			r.fades.Add(1)
			go func(spec fader.Spec) {
				defer r.fades.Done()
				fader.Run(ctx, spec, r.out, r.opts.Scale)
			}(e.Fade)
		case countdown.EffectShowPromotion:
			r.out.ShowPromotion(e.Video)
		case countdown.EffectPausePromotion:
			r.out.PausePromotion()
		case countdown.EffectSwitchScene:
			r.log.Info("switching scene", "scene", e.Scene)
			r.out.SwitchScene(e.Scene)
		case countdown.EffectStartClock:
			r.startClock()
		case countdown.EffectStopClock:
			r.stopClock()
		case countdown.EffectWake:
			r.apply(ctx, r.machine.Handle(e.Event))
		case countdown.EffectRender:
			r.out.Render(e.View)
		default:
			r.log.Warn("unknown effect", "type", e.Type)
		}

		if r.opts.OnEffect != nil {
			r.opts.OnEffect(e)
		}
	}
}

// later runs e on the loop once its delay has elapsed. Wakes come back as
// the event they carry; everything else comes back as the effect itself.
func (r *Runtime) later(ctx context.Context, e countdown.Effect) {
	var env envelope
	if e.Type == countdown.EffectWake {
		ev := e.Event
		env.event = &ev
	} else {
		now := e
		now.After = 0
		env.effect = &now
	}

	t := time.AfterFunc(r.scaled(e.After), func() {
		select {
		case r.inbox <- env:
		case <-ctx.Done():
		}
	})

	r.timersMu.Lock()
	r.timers = append(r.timers, t)
	r.timersMu.Unlock()
}

func (r *Runtime) stopTimers() {
	r.timersMu.Lock()
	defer r.timersMu.Unlock()
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = nil
}

func (r *Runtime) startClock() {
	if r.ticker != nil {
		return
	}
	r.ticker = time.NewTicker(r.scaled(countdown.TickInterval))
	r.tickC = r.ticker.C
}

func (r *Runtime) stopClock() {
	if r.ticker == nil {
		return
	}
	r.ticker.Stop()
	r.ticker = nil
	r.tickC = nil
}
