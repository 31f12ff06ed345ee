package overlay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gigurra/intermission/cmd/countdown"
	"github.com/gigurra/intermission/cmd/library"
	"github.com/gigurra/intermission/cmd/playlist"
	"github.com/gorilla/websocket"
)

// Page commands, server to browser.
const (
	opPlay           = "play"
	opPause          = "pause"
	opResume         = "resume"
	opVolume         = "volume"
	opRelease        = "release"
	opPromotion      = "promotion"
	opPromotionPause = "promotion_pause"
	opScene          = "scene"
	opRender         = "render"
)

// Page messages, browser to server.
const (
	msgTrackEnded = "track_ended"
	msgVideoEnded = "video_ended"
)

const writeTimeout = 5 * time.Second

type command struct {
	Op    string          `json:"op"`
	URL   string          `json:"url,omitempty"`
	Name  string          `json:"name,omitempty"`
	Value *float64        `json:"value,omitempty"`
	View  *countdown.View `json:"view,omitempty"`
}

type pageMessage struct {
	Type string `json:"type"`
}

// pageOutput drives a browser page over its websocket. The page owns the
// real media elements; the volume is mirrored here so fades can read it.
type pageOutput struct {
	conn *websocket.Conn
	log  *slog.Logger

	writeMu sync.Mutex

	volMu sync.Mutex
	vol   float64
}

func newPageOutput(conn *websocket.Conn, log *slog.Logger) *pageOutput {
	return &pageOutput{conn: conn, log: log, vol: 1}
}

func (p *pageOutput) send(cmd command) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := p.conn.WriteJSON(cmd); err != nil {
		p.log.Debug("page write failed", "op", cmd.Op, "error", err)
	}
}

func (p *pageOutput) Volume() float64 {
	p.volMu.Lock()
	defer p.volMu.Unlock()
	return p.vol
}

func (p *pageOutput) SetVolume(v float64) {
	p.volMu.Lock()
	p.vol = v
	p.volMu.Unlock()
	p.send(command{Op: opVolume, Value: &v})
}

func (p *pageOutput) Play(track playlist.Track) error {
	v := p.Volume()
	p.send(command{Op: opPlay, URL: track.URL, Name: track.Name, Value: &v})
	return nil
}

func (p *pageOutput) Pause()  { p.send(command{Op: opPause}) }
func (p *pageOutput) Resume() { p.send(command{Op: opResume}) }

func (p *pageOutput) Release() error {
	p.send(command{Op: opRelease})
	return nil
}

func (p *pageOutput) ShowPromotion(video string) {
	p.send(command{Op: opPromotion, URL: library.PromotionURL(video), Name: video})
}

func (p *pageOutput) PausePromotion() { p.send(command{Op: opPromotionPause}) }

func (p *pageOutput) SwitchScene(name string) {
	p.send(command{Op: opScene, Name: name})
}

func (p *pageOutput) Render(view countdown.View) {
	p.send(command{Op: opRender, View: &view})
}
