package overlay

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gigurra/intermission/cmd/countdown"
	"github.com/gorilla/websocket"
)

func writeAssets(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range names {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func defaultAssets(t *testing.T) string {
	return writeAssets(t,
		"waiting_audios/a.mp3",
		"waiting_audios/b.mp3",
		"promotion_videos/sponsor one.mp4",
		"unstabilized_css/index.css",
	)
}

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(opts)
	ts := httptest.NewServer(logRequests(srv.Handler()))
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestIndexRendersPage(t *testing.T) {
	_, ts := newTestServer(t, Options{Root: defaultAssets(t), Title: "Back soon"})

	resp, body := get(t, ts.URL+"/?timewait=10")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	for _, want := range []string{"00:10:00", "Back soon", "Now playing", "/unstabilized_css/index.css", "/overlay.js", "timewait=10"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestIndexDefaultsWait(t *testing.T) {
	_, ts := newTestServer(t, Options{Root: defaultAssets(t)})
	_, body := get(t, ts.URL+"/?timewait=nope")
	if !strings.Contains(body, "00:02:00") {
		t.Errorf("page should count down from two minutes")
	}
}

func TestIndexMissingAudioDir(t *testing.T) {
	_, ts := newTestServer(t, Options{Root: t.TempDir()})
	resp, _ := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestStaticAssets(t *testing.T) {
	_, ts := newTestServer(t, Options{Root: defaultAssets(t)})

	for _, path := range []string{
		"/waiting_audios/a.mp3",
		"/promotion_videos/sponsor%20one.mp4",
		"/unstabilized_css/index.css",
	} {
		resp, body := get(t, ts.URL+path)
		if resp.StatusCode != http.StatusOK || body != "x" {
			t.Errorf("GET %s = %d %q", path, resp.StatusCode, body)
		}
	}

	resp, _ := get(t, ts.URL+"/waiting_audios/missing.mp3")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing file status = %d", resp.StatusCode)
	}
}

func TestOverlayScript(t *testing.T) {
	_, ts := newTestServer(t, Options{Root: defaultAssets(t)})
	resp, body := get(t, ts.URL+"/overlay.js")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/javascript") {
		t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
	}
	if len(body) == 0 || len(body) > len(overlayJS) {
		t.Errorf("script is %d bytes, source is %d", len(body), len(overlayJS))
	}
	if !strings.Contains(body, "setCurrentScene") {
		t.Error("script lost the scene switch")
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, Options{Root: defaultAssets(t)})
	_, body := get(t, ts.URL+"/healthz")

	var health struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatalf("decode: %v (%s)", err, body)
	}
	if health.Status != "ok" || health.Sessions != 0 {
		t.Errorf("health = %+v", health)
	}
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads commands until one with op arrives.
func readUntil(t *testing.T, conn *websocket.Conn, op string) command {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			t.Fatalf("waiting for %q: %v", op, err)
		}
		if cmd.Op == op {
			return cmd
		}
	}
}

func TestWebsocketSessionRunsToSceneSwitch(t *testing.T) {
	_, ts := newTestServer(t, Options{Root: defaultAssets(t), Speed: 100, SceneName: "Main"})
	conn := dial(t, ts, "timewait=1")

	first := readUntil(t, conn, opRender)
	if first.View == nil || first.View.Remaining != "00:01:00" {
		t.Fatalf("first render = %+v", first.View)
	}

	play := readUntil(t, conn, opPlay)
	if !strings.HasPrefix(play.URL, "/waiting_audios/") || play.Name == "" {
		t.Errorf("play = %+v", play)
	}

	// The page reports the end of the track; another one follows.
	if err := conn.WriteJSON(pageMessage{Type: msgTrackEnded}); err != nil {
		t.Fatal(err)
	}
	next := readUntil(t, conn, opPlay)
	if next.Name == play.Name {
		t.Errorf("same track twice in a row: %q", next.Name)
	}

	scene := readUntil(t, conn, opScene)
	if scene.Name != "Main" {
		t.Errorf("scene = %q, want Main", scene.Name)
	}
	final := readUntil(t, conn, opRender)
	if !final.View.Finished {
		t.Errorf("final view not finished: %+v", final.View)
	}
}

func TestWebsocketPromotion(t *testing.T) {
	_, ts := newTestServer(t, Options{Root: defaultAssets(t), Speed: 100})
	conn := dial(t, ts, "timewait=3")

	promo := readUntil(t, conn, opPromotion)
	if promo.URL != "/promotion_videos/sponsor%20one.mp4" {
		t.Errorf("promotion url = %q", promo.URL)
	}

	// Malformed and unknown messages are ignored.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(pageMessage{Type: "dance"}); err != nil {
		t.Fatal(err)
	}

	if err := conn.WriteJSON(pageMessage{Type: msgVideoEnded}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, opPromotionPause)
	readUntil(t, conn, opResume)
}

func TestWebsocketMissingAudioDir(t *testing.T) {
	_, ts := newTestServer(t, Options{Root: t.TempDir()})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("response = %+v", resp)
	}
}

func TestCloseEndsSessions(t *testing.T) {
	var mu sync.Mutex
	var effects []countdown.EffectType
	srv, ts := newTestServer(t, Options{Root: defaultAssets(t), OnEffect: func(e countdown.Effect) {
		mu.Lock()
		defer mu.Unlock()
		effects = append(effects, e.Type)
	}})
	conn := dial(t, ts, "timewait=30")
	readUntil(t, conn, opRender)

	deadline := time.Now().Add(5 * time.Second)
	for srv.Sessions() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("sessions = %d, want 1", srv.Sessions())
		}
		time.Sleep(5 * time.Millisecond)
	}

	srv.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	if srv.Sessions() != 0 {
		t.Errorf("sessions after close = %d", srv.Sessions())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(effects) == 0 {
		t.Error("OnEffect never called")
	}
}
