package qr

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/intermission/cmd/common"
	"github.com/gigurra/intermission/cmd/common/config"
	"github.com/gigurra/intermission/cmd/library"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

const (
	Low     = qrcode.Low
	Medium  = qrcode.Medium
	High    = qrcode.High
	Highest = qrcode.Highest
)

// ANSI blocks, two columns per module.
const (
	blackBlock = "\033[40m  \033[0m"
	whiteBlock = "\033[47m  \033[0m"
)

type Params struct {
	Addr          string `pos:"true" optional:"true" help:"Address the overlay is served on (default from config)."`
	TimeWait      int    `short:"w" long:"timewait" optional:"true" help:"Wait in minutes to put in the URL." default:"2"`
	Copyright     bool   `short:"c" long:"copyright" help:"Add copyrightSongs=1 to the URL." default:"false"`
	RecoveryLevel string `short:"r" optional:"true" help:"Error recovery level (low, medium, high, highest)." default:"medium"`
	Invert        bool   `short:"i" optional:"true" help:"Invert colors (white on black). Default is standard black on white."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "qr",
		Short:       "Render the overlay URL as a QR code in the terminal",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := runQr(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "qr: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runQr(params *Params, w io.Writer) error {
	if params.Addr == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		params.Addr = cfg.Addr
	}

	text := library.OverlayURL(params.Addr, params.TimeWait, params.Copyright)

	bw := bufio.NewWriter(w)
	if err := Render(bw, text, ParseLevel(params.RecoveryLevel), params.Invert); err != nil {
		return err
	}
	fmt.Fprintln(bw, text)
	return bw.Flush()
}

// ParseLevel maps a recovery level name to go-qrcode's levels. Unknown
// names fall back to Medium.
func ParseLevel(name string) qrcode.RecoveryLevel {
	switch strings.ToLower(name) {
	case "low", "l":
		return Low
	case "high", "h", "q":
		// go-qrcode has no Quartile, High is the closest.
		return High
	case "highest":
		return Highest
	default:
		return Medium
	}
}

// Render draws text as a QR code with ANSI background colors. Standard
// codes are black modules on white, invert swaps them.
func Render(w io.Writer, text string, level qrcode.RecoveryLevel, invert bool) error {
	code, err := qrcode.New(text, level)
	if err != nil {
		return fmt.Errorf("generating qr code: %w", err)
	}

	on, off := blackBlock, whiteBlock
	if invert {
		on, off = whiteBlock, blackBlock
	}

	// Bitmap includes the quiet zone.
	for _, row := range code.Bitmap() {
		for _, module := range row {
			if module {
				io.WriteString(w, on)
			} else {
				io.WriteString(w, off)
			}
		}
		io.WriteString(w, "\033[0m\n")
	}
	return nil
}
