// Package overlay serves the waiting room page used as a browser source.
package overlay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/atotto/clipboard"
	"github.com/gigurra/intermission/cmd/common"
	"github.com/gigurra/intermission/cmd/common/config"
	"github.com/gigurra/intermission/cmd/library"
	"github.com/gigurra/intermission/cmd/notify"
	"github.com/gigurra/intermission/cmd/qr"
	"github.com/spf13/cobra"
)

type Params struct {
	Assets    string  `short:"a" optional:"true" help:"Assets root containing waiting_audios/, promotion_videos/ and unstabilized_css/ (default from config)"`
	Addr      string  `optional:"true" help:"Address to listen on (default from config)"`
	Title     string  `short:"t" optional:"true" help:"Title shown above the countdown (default from config)"`
	Scene     string  `short:"s" optional:"true" help:"Scene to switch to when the countdown ends (default from config)"`
	Speed     float64 `optional:"true" help:"Run countdowns this many times faster, for rehearsals." default:"1"`
	NoCache   bool    `help:"Re-read the assets directory on every request instead of watching it." default:"false"`
	CopyURL   bool    `long:"copy-url" help:"Copy the overlay URL to the clipboard." default:"false"`
	QR        bool    `help:"Print the overlay URL as a QR code." default:"false"`
	TimeWait  int     `short:"w" long:"timewait" optional:"true" help:"timewait used in the printed URL, in minutes." default:"2"`
	Copyright bool    `short:"c" long:"copyright" help:"Add copyrightSongs=1 to the printed URL." default:"false"`
	Verbose   bool    `short:"v" help:"Enable debug logging." default:"false"`

	ReadTimeoutMillis int64 `help:"Maximum duration for reading the entire request, including the body (ms)." default:"5000"`
	IdleTimeoutMillis int64 `help:"Maximum amount of time to wait for the next request when keep-alives are enabled (ms)." default:"120000"`
}

var clipboardWriteAll = clipboard.WriteAll

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "serve",
		Short:       "Serve the waiting room overlay",
		Long:        "Serve the waiting room overlay page. Add it as a browser source, e.g. http://127.0.0.1:3000/?timewait=10",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(cmd.Context(), params); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "serve: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

// resolve fills unset params from the config file.
func resolve(params *Params) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if params.Assets == "" {
		params.Assets = cfg.AssetsDir
	}
	if params.Addr == "" {
		params.Addr = cfg.Addr
	}
	if params.Title == "" {
		params.Title = cfg.Title
	}
	if params.Scene == "" {
		params.Scene = cfg.SceneName
	}
	return cfg, nil
}

func Run(ctx context.Context, params *Params) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := resolve(params)
	if err != nil {
		return err
	}
	log := common.SetupLogging(params.Verbose)

	absDir, err := filepath.Abs(params.Assets)
	if err != nil {
		return fmt.Errorf("failed to resolve directory %s: %w", params.Assets, err)
	}
	if _, err := os.Stat(filepath.Join(absDir, library.AudioDir)); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", library.ErrNoAudioDir, filepath.Join(absDir, library.AudioDir))
	}

	var lister library.Lister = library.DirLister{}
	if !params.NoCache {
		cache, err := library.NewCache(log)
		if err != nil {
			return err
		}
		defer cache.Close()
		lister = cache
	}

	notifier := notify.New(cfg.Notifications, log)
	srv := NewServer(Options{
		Root:      absDir,
		Title:     params.Title,
		SceneName: params.Scene,
		Speed:     params.Speed,
		Lister:    lister,
		Logger:    log,
		OnEffect:  notifier.Observe,
	})
	defer srv.Close()

	server := &http.Server{
		Addr:        params.Addr,
		Handler:     logRequests(srv.Handler()),
		ReadTimeout: time.Duration(params.ReadTimeoutMillis) * time.Millisecond,
		IdleTimeout: time.Duration(params.IdleTimeoutMillis) * time.Millisecond,
	}

	ln, err := net.Listen("tcp", params.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", params.Addr, err)
	}

	overlayURL := library.OverlayURL(ln.Addr().String(), params.TimeWait, params.Copyright)

	// Handle graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("Serving %s at %s\n", absDir, overlayURL)
		if params.Speed != 1 {
			fmt.Printf("Rehearsal mode: countdowns run %gx faster\n", params.Speed)
		}
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	if params.CopyURL {
		if err := clipboardWriteAll(overlayURL); err != nil {
			log.Warn("failed to copy overlay URL", "error", err)
		} else {
			fmt.Println("Overlay URL copied to clipboard")
		}
	}
	if params.QR {
		w := bufio.NewWriter(os.Stdout)
		if err := qr.Render(w, overlayURL, qr.Medium, false); err != nil {
			log.Warn("failed to render QR code", "error", err)
		}
		w.Flush()
	}

	select {
	case <-ctx.Done():
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-serverErr:
		return err
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades through the wrapper.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	rw.status = http.StatusSwitchingProtocols
	return http.NewResponseController(rw.ResponseWriter).Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
