package display

import (
	"fmt"
)

// FormatBytes returns a human-readable size (B, KiB, MiB, GiB, TiB, PiB).
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	if exp >= len(suffixes) {
		exp = len(suffixes) - 1
		div = 1
		for i := 0; i <= exp; i++ {
			div *= unit
		}
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}

// FormatBytesWithSign prefixes with + or - for delta display (e.g. "- 1.2 GiB").
func FormatBytesWithSign(bytes int64) string {
	sign := ""
	if bytes > 0 {
		sign = "+ "
	} else if bytes < 0 {
		sign = "- "
		bytes = -bytes
	}
	return sign + FormatBytes(bytes)
}

// FormatSavings describes the size change from in to out bytes, e.g.
// "1.2 MiB saved (40%)" or "300 B larger (12%)".
func FormatSavings(in, out int64) string {
	diff := in - out
	word := "saved"
	if diff < 0 {
		word = "larger"
		diff = -diff
	}
	if in <= 0 {
		return fmt.Sprintf("%s %s", FormatBytes(diff), word)
	}
	return fmt.Sprintf("%s %s (%.0f%%)", FormatBytes(diff), word, float64(diff)*100/float64(in))
}

// FormatDimensions returns "WxH", or "n/a" when the size is unknown.
func FormatDimensions(w, h int) string {
	if w <= 0 || h <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%dx%d", w, h)
}
