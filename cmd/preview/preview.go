// Package preview runs a waiting room in the terminal, with the audio on the
// local speaker. Useful to rehearse a break without a broadcast host.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/intermission/cmd/common"
	"github.com/gigurra/intermission/cmd/common/config"
	"github.com/gigurra/intermission/cmd/countdown"
	"github.com/gigurra/intermission/cmd/library"
	"github.com/gigurra/intermission/cmd/playlist"
	"github.com/gigurra/intermission/cmd/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var ErrNotTerminal = errors.New("preview needs an interactive terminal")

type Params struct {
	Assets    string  `short:"a" optional:"true" help:"Assets root containing waiting_audios/ and promotion_videos/ (default from config)"`
	TimeWait  int     `short:"w" long:"timewait" optional:"true" help:"Wait in minutes." default:"2"`
	Copyright bool    `short:"c" long:"copyright" help:"Include the copyrighted tracks." default:"false"`
	Speed     float64 `optional:"true" help:"Run the countdown this many times faster." default:"1"`
	Title     string  `short:"t" optional:"true" help:"Title shown above the countdown (default from config)"`
	Scene     string  `short:"s" optional:"true" help:"Scene named at the end of the countdown (default from config)"`
	Verbose   bool    `short:"v" help:"Write debug logs to the cache directory." default:"false"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "preview",
		Short: "Run a waiting room in the terminal",
		Long: `Run a waiting room in the terminal, playing the waiting audio on the local speaker.

Controls:
  n        - Skip to the next track
  v        - End the promotion video
  q or ESC - Quit`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(cmd.Context(), params); err != nil {
				fmt.Fprintf(os.Stderr, "preview: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func resolve(params *Params) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if params.Assets == "" {
		params.Assets = cfg.AssetsDir
	}
	if params.Title == "" {
		params.Title = cfg.Title
	}
	if params.Scene == "" {
		params.Scene = cfg.SceneName
	}
	return nil
}

// query builds the same request parameters the overlay page would get.
func query(params *Params) url.Values {
	q := url.Values{}
	q.Set(library.ParamWait, strconv.Itoa(params.TimeWait))
	if params.Copyright {
		q.Set(library.ParamCopyrighted, "1")
	}
	return q
}

// openLog sends logs to a file while the terminal belongs to the UI.
func openLog(verbose bool) (*slog.Logger, io.Closer, error) {
	if !verbose {
		return common.SetupLoggingTo(io.Discard, false), io.NopCloser(nil), nil
	}
	path, err := common.CachePath("preview.log")
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return common.SetupLoggingTo(f, true), f, nil
}

func Run(ctx context.Context, params *Params) error {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return ErrNotTerminal
	}
	if err := resolve(params); err != nil {
		return err
	}

	log, logFile, err := openLog(params.Verbose)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	root, err := filepath.Abs(params.Assets)
	if err != nil {
		return fmt.Errorf("failed to resolve directory %s: %w", params.Assets, err)
	}
	data, err := library.Gather(root, query(params))
	if err != nil {
		return err
	}
	if len(data.Audios) == 0 {
		return fmt.Errorf("%w in %s", playlist.ErrEmptyLibrary, filepath.Join(root, library.AudioDir))
	}

	machine := countdown.New(countdown.Config{
		Wait:       data.Wait(),
		Promotions: data.Promotions,
		Title:      params.Title,
		SceneName:  params.Scene,
	}, playlist.New(data.Audios, nil))

	width, _, err := term.GetSize(fd)
	if err != nil {
		width = defaultWidth
	}

	var p *tea.Program
	out := newOutput(newPlayer(), root, func(msg tea.Msg) { p.Send(msg) })
	rt := session.New(machine, out, session.Options{Scale: params.Speed, Logger: log})
	out.onTrackEnd = func() { rt.Send(countdown.Event{Type: countdown.EventTrackEnded}) }

	m := newModel(machine.View(), width, AudioAvailable, rt.Send)
	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		err := rt.Run(sessionCtx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		p.Send(doneMsg{err: err})
	}()

	log.Info("preview started", "session", rt.ID(), "wait", data.Wait(), "audios", len(data.Audios), "promotions", len(data.Promotions))

	_, runErr := p.Run()
	cancel()
	<-rt.Done()
	_ = out.Release()

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return nil
}
