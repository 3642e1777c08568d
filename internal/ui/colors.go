package ui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI color and style codes for CLI output. They are emptied by Disable.
var (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		Disable()
	}
}

// Disable turns every style code into the empty string
func Disable() {
	ColorReset, ColorBold, ColorDim = "", "", ""
	ColorCyan, ColorGreen, ColorYellow, ColorWhite, ColorRed = "", "", "", "", ""
}

func Success(s string) string {
	return ColorGreen + s + ColorReset
}

func Warn(s string) string {
	return ColorYellow + s + ColorReset
}

func Error(s string) string {
	return ColorRed + s + ColorReset
}
