package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/intermission/cmd/library"
	"github.com/gigurra/intermission/cmd/overlay"
	"github.com/gigurra/intermission/cmd/preview"
	"github.com/gigurra/intermission/cmd/qr"
	"github.com/spf13/cobra"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "intermission",
		Short:   "Countdown waiting room for live broadcasts",
		Version: appVersion(),
		SubCmds: []*cobra.Command{
			overlay.Cmd(),
			preview.Cmd(),
			library.Cmd(),
			qr.Cmd(),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
