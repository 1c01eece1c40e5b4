// Package check resolves the external ImageMagick engine (Locate) and runs
// system diagnostics for --check mode (RunCheck).
package check

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrEngineNotFound is returned by Locate when no candidate binary is on PATH.
var ErrEngineNotFound = errors.New("ImageMagick not found on PATH (install: sudo apt install imagemagick, brew install imagemagick)")

// Candidates are the engine binary names, in priority order: ImageMagick 7
// ships "magick", ImageMagick 6 only "convert". Invocation syntax is the same.
var Candidates = []string{"magick", "convert"}

// Handle is the resolved engine. It is immutable once returned by Locate.
type Handle struct {
	Name string // Invocation name, one of Candidates (or "builtin").
	Path string // Absolute path reported by the lookup, when known.
}

// Builtin is the Handle used when conversion runs in-process.
var Builtin = Handle{Name: "builtin"}

// IsBuiltin reports whether h is the in-process engine.
func (h Handle) IsBuiltin() bool { return h.Name == Builtin.Name }

// Program is what gets executed: the resolved path, or the bare name when
// no lookup recorded one.
func (h Handle) Program() string {
	if h.Path != "" {
		return h.Path
	}
	return h.Name
}

// String returns the invocation name, with the path when it is known.
func (h Handle) String() string {
	if h.Path == "" || h.Path == h.Name {
		return h.Name
	}
	return fmt.Sprintf("%s (%s)", h.Name, h.Path)
}

// LookPathFunc resolves an executable name. exec.LookPath already covers the
// platform difference (PATH on Unix, PATH + PATHEXT on Windows).
type LookPathFunc func(string) (string, error)

// Locate returns the first candidate that resolves via look, or
// ErrEngineNotFound. No process is started. A nil look uses exec.LookPath.
func Locate(look LookPathFunc) (Handle, error) {
	if look == nil {
		look = exec.LookPath
	}
	for _, name := range Candidates {
		if p, err := look(name); err == nil {
			return Handle{Name: name, Path: p}, nil
		}
	}
	return Handle{}, ErrEngineNotFound
}

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// RunCheck runs the --check flow: locates the engine, prints its version and
// reports which target formats it can write. Informational only; returns
// false when no engine was found.
func RunCheck(log Logger, look LookPathFunc) bool {
	log.Info("=== System Check ===")

	h, err := Locate(look)
	if err != nil {
		log.Error("%v", err)
		return false
	}
	log.Success("Engine: %s", h)

	checkVersion(log, h)
	checkFormats(log, h)
	return true
}

// checkVersion logs the first line of "<engine> -version".
func checkVersion(log Logger, h Handle) {
	out, err := exec.Command(h.Program(), "-version").Output()
	if err != nil {
		log.Warn("%s found but -version failed: %v", h.Name, err)
		return
	}
	log.Info("Version: %s", firstLine(string(out)))
}

// checkFormats inspects "<engine> -list format" for write support of every
// format the batch can produce.
func checkFormats(log Logger, h Handle) {
	out, err := exec.Command(h.Program(), "-list", "format").Output()
	if err != nil {
		log.Warn("Could not list formats: %v", err)
		return
	}
	support := ParseFormatList(string(out))
	for _, f := range []string{"JPEG", "WEBP", "AVIF"} {
		switch mode, ok := support[f]; {
		case !ok:
			log.Warn("%s: not available (missing delegate library)", f)
		case strings.Contains(mode, "w"):
			log.Success("%s: %s", f, mode)
		default:
			log.Warn("%s: read-only (%s)", f, mode)
		}
	}
}

// ParseFormatList extracts the mode column ("rw+", "r--", …) per format name
// from "-list format" output. Lines look like:
//
//	     WEBP* WEBP      rw+   WebP Image Format (libwebp 1.3.2 [020E])
func ParseFormatList(out string) map[string]string {
	res := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		name := strings.TrimSuffix(fields[0], "*")
		mode := fields[2]
		if !isModeColumn(mode) {
			continue
		}
		res[strings.ToUpper(name)] = mode
	}
	return res
}

func isModeColumn(s string) bool {
	if len(s) != 3 {
		return false
	}
	return (s[0] == 'r' || s[0] == '-') && (s[1] == 'w' || s[1] == '-') && (s[2] == '+' || s[2] == '-')
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx > 0 {
		return s[:idx]
	}
	return s
}
