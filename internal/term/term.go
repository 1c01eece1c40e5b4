// Package term holds the ANSI colour state shared by logging and display.
//
// The colour codes are package variables set once by Configure. With colours
// off they are empty strings, so concatenating them is always safe.
package term

import (
	"os"
	"strings"

	"github.com/backmassage/magickbatch/internal/config"
)

// ANSI colour codes. Empty when colours are disabled.
var (
	Red     = ""
	Green   = ""
	Yellow  = ""
	Orange  = ""
	Blue    = ""
	Cyan    = ""
	Magenta = ""
	Bold    = ""
	NC      = "" // Reset.
)

// Configure resolves mode against the environment and sets the colour codes.
func Configure(mode config.ColorMode) {
	if !wantColor(mode) {
		Red, Green, Yellow, Orange, Blue, Cyan, Magenta, Bold, NC = "", "", "", "", "", "", "", "", ""
		return
	}
	Red = "\033[1;91m"
	Green = "\033[1;92m"
	Yellow = "\033[1;93m"
	Orange = "\033[1;38;5;208m"
	Blue = "\033[1;94m"
	Cyan = "\033[1;96m"
	Magenta = "\033[1;95m"
	Bold = "\033[1m"
	NC = "\033[0m"
}

// Enabled reports whether colour codes are active.
func Enabled() bool { return NC != "" }

// Paint wraps s in color and a reset. Returns s unchanged when colours are off.
func Paint(color, s string) string {
	if color == "" || !Enabled() {
		return s
	}
	return color + s + NC
}

// wantColor: explicit modes win; auto requires a TTY on stdout, no NO_COLOR
// (https://no-color.org) and a TERM other than "dumb".
func wantColor(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" || strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return false
	}
	return IsTerminal(os.Stdout)
}

// IsTerminal reports whether f is a character device.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
