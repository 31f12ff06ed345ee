// Package common holds the bits every intermission command shares: flag
// enrichment, logging and the cache directory.
package common

import (
	"io"
	"log/slog"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
)

func DefaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// SetupLogging installs a text slog handler on stderr as the default logger.
func SetupLogging(verbose bool) *slog.Logger {
	return SetupLoggingTo(os.Stderr, verbose)
}

func SetupLoggingTo(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
