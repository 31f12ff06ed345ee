//go:build (linux && cgo) || windows || darwin

package preview

import (
	"math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

// player plays one track at a time on the local speaker.
type player struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate
	streamer    beep.StreamSeekCloser
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	level       float64
	playbackID  uint64 // bumped per track so stale end callbacks are ignored
}

func newPlayer() *player {
	return &player{
		sampleRate: beep.SampleRate(44100),
		level:      1,
	}
}

func (p *player) initSpeaker() error {
	if p.initialized {
		return nil
	}
	if err := speaker.Init(p.sampleRate, p.sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	p.initialized = true
	return nil
}

// play decodes the mp3 at path and starts it, replacing whatever was
// playing. onDone runs on its own goroutine when the track ends by itself.
func (p *player) play(path string, onDone func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return err
	}
	if err := p.initSpeaker(); err != nil {
		streamer.Close()
		return err
	}

	p.playbackID++
	id := p.playbackID

	p.streamer = streamer
	p.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, format.SampleRate, p.sampleRate, streamer)}
	p.volume = &effects.Volume{Streamer: p.ctrl, Base: 2}
	applyLevel(p.volume, p.level)

	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		// Run callback in separate goroutine to avoid deadlock
		// when the callback plays the next track.
		go p.finished(id, onDone)
	})))
	return nil
}

func (p *player) finished(id uint64, onDone func()) {
	p.mu.Lock()
	current := id == p.playbackID && p.streamer != nil
	p.mu.Unlock()
	if current && onDone != nil {
		onDone()
	}
}

func (p *player) setPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = paused
		speaker.Unlock()
	}
}

func (p *player) pause()  { p.setPaused(true) }
func (p *player) resume() { p.setPaused(false) }

func (p *player) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *player) stopLocked() {
	if p.streamer == nil {
		return
	}
	p.playbackID++
	speaker.Clear()
	p.streamer.Close()
	p.streamer = nil
	p.ctrl = nil
	p.volume = nil
}

// setVolume sets the linear output level, 0 to 1.
func (p *player) setVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.level = v
	if p.volume != nil {
		speaker.Lock()
		applyLevel(p.volume, v)
		speaker.Unlock()
	}
}

// applyLevel maps a linear level onto beep's exponential volume.
func applyLevel(vol *effects.Volume, v float64) {
	vol.Silent = v <= 0
	if v > 0 {
		vol.Volume = math.Log2(v)
	}
}
