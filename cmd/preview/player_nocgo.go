//go:build !(linux && cgo) && !windows && !darwin

package preview

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio requires CGO for native sound libraries.
const AudioAvailable = false

// player is a no-op audio player for builds without cgo. The countdown
// still runs, tracks just make no sound and never end by themselves.
type player struct{}

func newPlayer() *player {
	return &player{}
}

func (p *player) play(path string, onDone func()) error {
	return nil
}

func (p *player) pause() {}

func (p *player) resume() {}

func (p *player) stop() {}

func (p *player) setVolume(v float64) {}
