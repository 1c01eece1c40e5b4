package magick

import (
	"fmt"
	"regexp"

	"github.com/backmassage/magickbatch/internal/planner"
)

// ConversionFailed is returned when an engine invocation does not exit 0.
type ConversionFailed struct {
	Job      planner.ConversionJob
	ExitCode int    // -1 when the process could not be started.
	Output   string // Combined stdout+stderr of the engine.
	Err      error  // Launch error, if any.
}

func (e *ConversionFailed) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Job.Label(), e.Err)
	}
	return fmt.Sprintf("%s failed (exit %d)", e.Job.Label(), e.ExitCode)
}

func (e *ConversionFailed) Unwrap() error { return e.Err }

// Pre-compiled patterns for ImageMagick diagnostics, checked in order by
// Classify.
var (
	reNoDecoder = regexp.MustCompile(
		`(?i)no decode delegate for this image format|NoDecodeDelegateForThisImageFormat`)

	reNoEncoder = regexp.MustCompile(
		`(?i)no encode delegate for this image format|delegate library support not built-in|` +
			`NoEncodeDelegateForThisImageFormat|DelegateLibrarySupportNotBuiltIn`)

	reCorrupt = regexp.MustCompile(
		`(?i)improper image header|premature end of (jpeg|data)|corrupt image|` +
			`not a JPEG file|insufficient image data|CRC error|IDAT: too much image data`)

	reUnreadable = regexp.MustCompile(
		`(?i)unable to open image|no such file or directory|permission denied`)

	reUnwritable = regexp.MustCompile(
		`(?i)unable to open file|unable to write|no space left on device`)

	reLimits = regexp.MustCompile(
		`(?i)cache resources exhausted|width or height exceeds limit|` +
			`memory allocation failed|resource limit|not authorized`)
)

// Classify maps engine output to a short hint for the failure log entry.
// Returns "" when nothing recognisable is found.
func Classify(output string) string {
	switch {
	case reNoDecoder.MatchString(output):
		return "source format not readable by this ImageMagick build"
	case reNoEncoder.MatchString(output):
		return "target format not supported (missing delegate library)"
	case reCorrupt.MatchString(output):
		return "source image appears corrupt or truncated"
	case reUnreadable.MatchString(output):
		return "source file could not be opened"
	case reUnwritable.MatchString(output):
		return "output file could not be written"
	case reLimits.MatchString(output):
		return "resource limit or security policy hit"
	}
	return ""
}
