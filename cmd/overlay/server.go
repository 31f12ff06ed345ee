package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gigurra/intermission/cmd/countdown"
	"github.com/gigurra/intermission/cmd/library"
	"github.com/gigurra/intermission/cmd/playlist"
	"github.com/gigurra/intermission/cmd/session"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Options configure a Server.
type Options struct {
	Root      string
	Title     string
	SceneName string
	// Speed runs every countdown faster, for rehearsals. Zero means real time.
	Speed  float64
	Lister library.Lister
	Logger *slog.Logger
	// OnEffect observes the effects of every session.
	OnEffect func(countdown.Effect)
}

// Server serves the waiting room page and runs one session per connected
// page.
type Server struct {
	opts Options
	log  *slog.Logger

	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session.Runtime
	wg       sync.WaitGroup
}

func NewServer(opts Options) *Server {
	if opts.Lister == nil {
		opts.Lister = library.DirLister{}
	}
	if opts.Title == "" {
		opts.Title = countdown.DefaultTitle
	}
	if opts.SceneName == "" {
		opts.SceneName = countdown.DefaultSceneName
	}
	if opts.Speed <= 0 {
		opts.Speed = 1
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	base, cancel := context.WithCancel(context.Background())
	return &Server{
		opts:     opts,
		log:      log,
		base:     base,
		cancel:   cancel,
		sessions: make(map[string]*session.Runtime),
	}
}

// Handler returns the routes of the overlay.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /overlay.js", handleScript)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	for _, dir := range []string{library.AudioDir, library.PromotionDir, library.StylesheetDir} {
		prefix := "/" + dir + "/"
		fs := http.FileServer(http.Dir(filepath.Join(s.opts.Root, dir)))
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, fs))
	}

	return mux
}

// Close ends every running session and waits for them.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// Sessions returns the number of connected pages.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) gather(r *http.Request) (library.PageData, error) {
	data, err := library.GatherWith(s.opts.Lister, s.opts.Root, library.ParseWaitConfig(r.URL.Query()))
	if err != nil {
		return data, err
	}
	data.Title = s.opts.Title
	data.SceneName = s.opts.SceneName
	return data, nil
}

func (s *Server) newMachine(data library.PageData) *countdown.Machine {
	return countdown.New(countdown.Config{
		Wait:       data.Wait(),
		Promotions: data.Promotions,
		Title:      data.Title,
		SceneName:  data.SceneName,
	}, playlist.New(data.Audios, nil))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := s.gather(r)
	if err != nil {
		s.log.Error("failed to gather page data", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	renderPage(w, pageData{
		Page:  data,
		View:  s.newMachine(data).View(),
		Query: r.URL.RawQuery,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.Sessions(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	data, err := s.gather(r)
	if err != nil {
		s.log.Error("failed to gather page data", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	out := newPageOutput(conn, s.log)
	rt := session.New(s.newMachine(data), out, session.Options{
		Scale:    s.opts.Speed,
		Logger:   s.log,
		OnEffect: s.opts.OnEffect,
	})

	s.wg.Add(1)
	defer s.wg.Done()
	s.track(rt)
	defer s.untrack(rt)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.base, cancel)
	defer stop()

	s.log.Info("page connected", "session", rt.ID(), "wait", data.Wait(), "audios", len(data.Audios), "promotions", len(data.Promotions))

	go s.readPage(conn, rt, cancel)

	err = rt.Run(ctx)
	if err == nil {
		// Keep the finished page connected until it goes away.
		<-ctx.Done()
	}
	s.log.Info("page disconnected", "session", rt.ID())
}

// readPage forwards media events from the page until the connection drops.
func (s *Server) readPage(conn *websocket.Conn, rt *session.Runtime, cancel context.CancelFunc) {
	defer cancel()
	for {
		var msg pageMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				s.log.Warn("ignoring malformed page message", "session", rt.ID(), "error", err)
				continue
			}
			return
		}

		switch msg.Type {
		case msgTrackEnded:
			rt.Send(countdown.Event{Type: countdown.EventTrackEnded})
		case msgVideoEnded:
			rt.Send(countdown.Event{Type: countdown.EventVideoEnded})
		default:
			s.log.Warn("ignoring unknown page message", "session", rt.ID(), "type", msg.Type)
		}
	}
}

func (s *Server) track(rt *session.Runtime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rt.ID()] = rt
}

func (s *Server) untrack(rt *session.Runtime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, rt.ID())
}

// logRequests wraps h with the one-line request log.
func logRequests(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rw, r)
		fmt.Printf("[%d] %s %s (%v)\n", rw.status, r.Method, r.URL.Path, time.Since(start))
	})
}
