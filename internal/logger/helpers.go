package logger

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

var (
	FlagVerboseCount int  // -V, -VV
	FlagQuiet        bool // --quiet/-q
	FlagSilent       bool // --silent/-s
	FlagJSON         bool // --log-json
)

func ConfigureLoggerFromFlags() {
	var w io.Writer = os.Stderr
	var level string
	switch {
	case FlagQuiet:
		level = "error"
	case FlagSilent:
		level = "error"
		w = io.Discard
	case FlagVerboseCount > 0:
		level = "debug"
	default:
		level = "info"
	}

	Configure(Options{
		Level: level,
		JSON:  FlagJSON,
		Color: !FlagJSON && isatty.IsTerminal(os.Stdout.Fd()),
		Out:   w,
	})
}
