package printer

import (
	"github.com/fatih/color"
)

// ColorPrinter groups the sprintf funcs used for terminal output.
// Marker and Other are the two slices of the marker split.
type ColorPrinter struct {
	Success func(format string, a ...interface{}) string
	Error   func(format string, a ...interface{}) string
	Warning func(format string, a ...interface{}) string
	Info    func(format string, a ...interface{}) string
	Debug   func(format string, a ...interface{}) string
	Marker  func(format string, a ...interface{}) string
	Other   func(format string, a ...interface{}) string
	Muted   func(format string, a ...interface{}) string
}

func NewColorPrinter() *ColorPrinter {
	return &ColorPrinter{
		Success: color.New(color.FgGreen).SprintfFunc(),
		Error:   color.New(color.FgRed).SprintfFunc(),
		Warning: color.New(color.FgYellow).SprintfFunc(),
		Info:    color.New(color.FgBlue).SprintfFunc(),
		Debug:   color.New(color.FgCyan).SprintfFunc(),
		Marker:  color.New(color.FgHiYellow, color.Bold).SprintfFunc(),
		Other:   color.New(color.FgHiBlue).SprintfFunc(),
		Muted:   color.New(color.Faint).SprintfFunc(),
	}
}

// DisableColors forces plain output (pipes, --json, tests).
func DisableColors() {
	color.NoColor = true
}
