package library

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/intermission/cmd/common"
	"github.com/gigurra/intermission/cmd/common/config"
	"github.com/gigurra/intermission/cmd/playlist"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

type Params struct {
	Assets    string `short:"a" optional:"true" help:"Assets root containing waiting_audios/ and promotion_videos/ (default from config)"`
	TimeWait  string `short:"w" long:"timewait" optional:"true" help:"Wait in minutes, as passed in the timewait query parameter" default:"2"`
	Copyright bool   `short:"c" long:"copyright" optional:"true" help:"Include copyrighted audio, as copyrightSongs=1 does"`
	JSON      bool   `long:"json" help:"Output as JSON"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "library",
		Aliases:     []string{"ls"},
		Short:       "Show what a waiting room request would play",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := run(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "library: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func run(params *Params, w io.Writer) error {
	root := params.Assets
	if root == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		root = cfg.AssetsDir
	}

	q := url.Values{}
	q.Set(ParamWait, params.TimeWait)
	if params.Copyright {
		q.Set(ParamCopyrighted, "1")
	}

	data, err := Gather(root, q)
	if err != nil {
		return err
	}

	if params.JSON {
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(out))
		return nil
	}

	renderTable(w, data)
	return nil
}

func renderTable(w io.Writer, data PageData) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"#", "Kind", "Name", "URL"})
	for i, file := range data.Audios {
		track := playlist.NewTrack(i, file)
		t.AppendRow(table.Row{i, "audio", track.Name, track.URL})
	}
	for i, video := range data.Promotions {
		t.AppendRow(table.Row{i, text.FgYellow.Sprint("promotion"), video, PromotionURL(video)})
	}
	t.Render()

	fmt.Fprintf(w, "\nWait: %dm (%d ms), %s\n", data.WaitMinutes, data.WaitMillis, promotionSummary(data))
}

func promotionSummary(data PageData) string {
	if len(data.Promotions) == 0 {
		return "no promotion"
	}
	return fmt.Sprintf("%d promotion videos", len(data.Promotions))
}
