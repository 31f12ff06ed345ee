package preview

import (
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/intermission/cmd/countdown"
	"github.com/gigurra/intermission/cmd/library"
	"github.com/gigurra/intermission/cmd/playlist"
)

// audio is the speaker side of the preview. player implements it.
type audio interface {
	play(path string, onDone func()) error
	pause()
	resume()
	stop()
	setVolume(v float64)
}

// Messages from the session to the terminal UI.
type (
	viewMsg      countdown.View
	trackMsg     string
	promotionMsg string // empty when the promotion is paused
	sceneMsg     string
	volumeMsg    float64
	doneMsg      struct{ err error }
)

// output plays tracks on the local speaker and mirrors everything else into
// the terminal UI.
type output struct {
	audio audio
	root  string
	send  func(tea.Msg)

	// onTrackEnd is called when a track plays to its end.
	onTrackEnd func()

	mu  sync.Mutex
	vol float64
}

func newOutput(a audio, root string, send func(tea.Msg)) *output {
	return &output{audio: a, root: root, send: send, vol: 1}
}

func (o *output) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vol
}

func (o *output) SetVolume(v float64) {
	o.mu.Lock()
	o.vol = v
	o.mu.Unlock()

	o.audio.setVolume(v)
	o.send(volumeMsg(v))
}

func (o *output) Play(track playlist.Track) error {
	path := filepath.Join(o.root, library.AudioDir, filepath.FromSlash(track.File))
	o.send(trackMsg(track.Name))
	return o.audio.play(path, func() {
		if o.onTrackEnd != nil {
			o.onTrackEnd()
		}
	})
}

func (o *output) Pause() {
	o.audio.pause()
}

func (o *output) Resume() {
	o.audio.resume()
}

func (o *output) Release() error {
	o.audio.stop()
	return nil
}

func (o *output) ShowPromotion(video string) {
	o.send(promotionMsg(video))
}

func (o *output) PausePromotion() {
	o.send(promotionMsg(""))
}

func (o *output) SwitchScene(name string) {
	o.send(sceneMsg(name))
}

func (o *output) Render(view countdown.View) {
	o.send(viewMsg(view))
}
