package preview

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/intermission/cmd/countdown"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	timerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).Padding(0, 1)
	endingStyle    = timerStyle.Foreground(lipgloss.Color("196"))
	trackStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	changedStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226")) // Yellow
	promotionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	sceneStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	defaultWidth = 80
	volumeWidth  = 20
	// quitDelay keeps the final screen up after the scene switch.
	quitDelay = 2 * time.Second
)

type model struct {
	view      countdown.View
	track     string
	promotion string
	scene     string
	volume    float64
	audio     bool
	width     int
	done      bool
	err       error

	// send forwards media events to the session.
	send func(countdown.Event)
}

func newModel(initial countdown.View, width int, audio bool, send func(countdown.Event)) model {
	if width <= 0 {
		width = defaultWidth
	}
	return model{
		view:   initial,
		volume: 1,
		audio:  audio,
		width:  width,
		send:   send,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "n":
			// Skip to the next track, as if this one had ended.
			if m.track != "" && !m.done {
				return m, m.forward(countdown.EventTrackEnded)
			}
		case "v":
			if m.promotion != "" && !m.done {
				return m, m.forward(countdown.EventVideoEnded)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case viewMsg:
		m.view = countdown.View(msg)
	case trackMsg:
		m.track = string(msg)
	case promotionMsg:
		m.promotion = string(msg)
	case volumeMsg:
		m.volume = float64(msg)
	case sceneMsg:
		m.scene = string(msg)

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Tick(quitDelay, func(time.Time) tea.Msg { return tea.Quit() })
	}
	return m, nil
}

// forward hands an event to the session off the UI goroutine, since the
// session may itself be waiting on the UI.
func (m model) forward(t countdown.EventType) tea.Cmd {
	send := m.send
	return func() tea.Msg {
		send(countdown.Event{Type: t})
		return nil
	}
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n  ")
	b.WriteString(titleStyle.Render(truncate(m.view.Title, m.width-2)))
	b.WriteString("\n\n  ")

	timer := timerStyle
	if m.view.Phase == countdown.PhaseEnding || m.view.Finished {
		timer = endingStyle
	}
	b.WriteString(timer.Render(m.view.Remaining))
	b.WriteString("\n\n")

	if m.view.PromotionActive || m.promotion != "" {
		line := "▶ Promotion: " + m.promotion
		b.WriteString("  " + promotionStyle.Render(truncate(line, m.width-2)) + "\n")
	}

	if !m.view.NowPlayingHidden {
		switch {
		case !m.view.HasTrack:
			b.WriteString("  " + dimStyle.Render("♪ Waiting for the first track...") + "\n")
		case m.view.SongChanged:
			line := "♪ Song changed: " + m.view.NowPlaying
			b.WriteString("  " + changedStyle.Render(truncate(line, m.width-2)) + "\n")
		default:
			line := "♪ Now playing: " + m.view.NowPlaying
			b.WriteString("  " + trackStyle.Render(truncate(line, m.width-2)) + "\n")
		}
	}
	b.WriteString("  " + dimStyle.Render(volumeBar(m.volume, volumeWidth)) + "\n")

	if m.scene != "" {
		b.WriteString("\n  " + sceneStyle.Render(truncate("Switched to "+m.scene, m.width-2)) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n  " + endingStyle.Render(fmt.Sprintf("Session stopped: %v", m.err)) + "\n")
	}

	b.WriteString("\n  ")
	help := "n: next track • v: end promotion • q: quit"
	if !m.audio {
		help += " • no audio in this build"
	}
	b.WriteString(dimStyle.Render(truncate(help, m.width-2)))
	b.WriteString("\n")

	return b.String()
}

// volumeBar draws v (0 to 1) as a bar of the given width.
func volumeBar(v float64, width int) string {
	v = max(0, min(1, v))
	filled := int(v*float64(width) + 0.5)
	return fmt.Sprintf("vol [%s%s] %3.0f%%", strings.Repeat("█", filled), strings.Repeat("░", width-filled), v*100)
}

// truncate cuts s to fit within maxWidth display cells, adding "…" if
// truncated. Wide characters count double.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return "…"
	}
	return runewidth.Truncate(s, maxWidth, "…")
}
