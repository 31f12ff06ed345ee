package fader

import (
	"context"
	"math"
	"time"
)

type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

const (
	// DefaultInterval is the tick used for ordinary fades.
	DefaultInterval = 50 * time.Millisecond
	// HandoffInterval is the faster tick used when a promotion takes over.
	HandoffInterval = 25 * time.Millisecond

	// Step is the volume change applied per tick.
	Step = 0.01

	// steps are counted in hundredths so a full ramp is exactly 100 ticks
	fullScale = 100
)

// Spec describes one fade.
type Spec struct {
	Direction Direction
	Interval  time.Duration // zero means DefaultInterval
	From      float64       // starting volume, used when HasFrom is set
	HasFrom   bool
}

// Volumer is a playback handle whose volume can be ramped.
type Volumer interface {
	Volume() float64
	SetVolume(v float64)
}

// Fade is a linear volume ramp. It is not safe for concurrent use; the
// runner owns it for its whole lifetime.
type Fade struct {
	dir   Direction
	level int
	done  bool
}

// Start begins a fade from the spec's From volume, or from current when the
// spec has none.
func Start(spec Spec, current float64) *Fade {
	from := current
	if spec.HasFrom {
		from = spec.From
	}
	return &Fade{
		dir:   spec.Direction,
		level: int(math.Round(from * fullScale)),
	}
}

// Step advances the fade by one tick and returns the volume to apply.
// Once the ramp saturates the volume is forced to exactly 0 or 1 and done
// is reported.
func (f *Fade) Step() (volume float64, done bool) {
	if f.done {
		return f.volume(), true
	}

	switch f.dir {
	case In:
		f.level++
		if f.level >= fullScale {
			f.level = fullScale
			f.done = true
		}
	case Out:
		f.level--
		if f.level <= 0 {
			f.level = 0
			f.done = true
		}
	default:
		f.done = true
	}
	return f.volume(), f.done
}

// Done reports whether the fade has reached its bound.
func (f *Fade) Done() bool {
	return f.done
}

func (f *Fade) volume() float64 {
	return float64(f.level) / fullScale
}

// TickInterval returns Interval, or DefaultInterval when unset.
func (s Spec) TickInterval() time.Duration {
	if s.Interval <= 0 {
		return DefaultInterval
	}
	return s.Interval
}

// Run drives a fade on v until it saturates or ctx is cancelled. Fades are
// independent: starting a new one does not stop one already running, and
// the last write to v wins. scale divides the tick interval (1 = real time).
func Run(ctx context.Context, spec Spec, v Volumer, scale float64) {
	f := Start(spec, v.Volume())

	interval := spec.TickInterval()
	if scale > 0 {
		interval = time.Duration(float64(interval) / scale)
	}
	if interval <= 0 {
		interval = time.Nanosecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			vol, done := f.Step()
			v.SetVolume(vol)
			if done {
				return
			}
		}
	}
}
