// Package config holds runtime configuration: defaults, the optional YAML
// file, MAGICKBATCH_* environment overrides, CLI flag parsing, and
// validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/magickbatch/internal/planner"
)

// --- Enum types for validated string fields ---

// EngineMode selects the conversion backend.
type EngineMode string

const (
	EngineMagick  EngineMode = "magick"  // External ImageMagick (default).
	EngineBuiltin EngineMode = "builtin" // In-process jpg/avif encoder.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by the YAML file and environment ([LoadFile], [ApplyEnv]), and
// finally by [ParseFlags]. Keys use the same names in YAML and, upper-cased
// with a MAGICKBATCH_ prefix, in the environment.
type Config struct {
	// Paths. Positional args override these.
	InputDir  string `yaml:"input"`  // Default: "./input".
	OutputDir string `yaml:"output"` // Default: "./output".

	// Resize.
	Mode       planner.ModeKind `yaml:"mode"`        // Default: "bounded".
	MaxEdge    int              `yaml:"max_edge"`    // Default: 1600. Clamped to [100, 20000].
	CropWidth  int              `yaml:"crop_width"`  // Default: 1200.
	CropHeight int              `yaml:"crop_height"` // Default: 800.
	Gravity    planner.Gravity  `yaml:"gravity"`     // Default: "center".

	// Encoding.
	Quality int               `yaml:"quality"` // Default: 85. Clamped to [1, 100].
	Format  planner.Selection `yaml:"format"`  // Default: "webp".
	Engine  EngineMode        `yaml:"engine"`  // Default: "magick".
	Verify  bool              `yaml:"verify"`  // Check output dimensions after each job.

	// Run history (Pebble).
	HistoryDir  string        `yaml:"history"`      // Empty disables history.
	HistoryKeep time.Duration `yaml:"history_keep"` // Prune older runs; 0 keeps all.
	HistoryList bool          `yaml:"-"`            // Print past runs and exit.

	// Publishing of produced files.
	Publish string `yaml:"publish"` // s3://, gs://, sftp:// or file:// target.

	// Watch mode.
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce"` // Default: 2s.

	// HTTP collaborator.
	ServeAddr   string   `yaml:"serve"`        // Empty disables the server.
	CORSOrigins []string `yaml:"cors_origins"` // Default: all origins.

	// Display and logging.
	Verbose   bool      `yaml:"verbose"`
	ColorMode ColorMode `yaml:"color"`    // Default: "auto".
	LogFile   string    `yaml:"log_file"` // Optional log file path.
	CheckOnly bool      `yaml:"-"`        // Run --check diagnostics and exit.
	ListOnly  bool      `yaml:"-"`        // Print the input/output inventory and exit.

	// Sources of configuration (flags only).
	ConfigFile string `yaml:"-"`
	EnvFile    string `yaml:"-"` // Default: ".env" (missing file is fine).
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// the file, environment and flags apply their overrides.
func DefaultConfig() Config {
	return Config{
		InputDir:      "./input",
		OutputDir:     "./output",
		Mode:          planner.ModeBoundedEdge,
		MaxEdge:       1600,
		CropWidth:     1200,
		CropHeight:    800,
		Gravity:       planner.GravityCenter,
		Quality:       85,
		Format:        planner.SelectWebP,
		Engine:        EngineMagick,
		WatchDebounce: 2 * time.Second,
		ColorMode:     ColorAuto,
		EnvFile:       ".env",
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks that enum fields hold valid values and that the selected
// run modes can be combined. Numeric ranges are not errors; see [Normalize].
func (c *Config) Validate() error {
	switch c.Mode {
	case planner.ModeBoundedEdge, planner.ModeFixedCrop:
		// valid
	default:
		return fmt.Errorf("invalid resize mode %q (use 'bounded' or 'crop')", c.Mode)
	}

	g, err := planner.ParseGravity(string(c.Gravity))
	if err != nil {
		return err
	}
	c.Gravity = g

	sel, err := planner.ParseSelection(string(c.Format))
	if err != nil {
		return err
	}
	c.Format = sel

	switch c.Engine {
	case EngineMagick, EngineBuiltin:
		// valid
	default:
		return fmt.Errorf("invalid engine %q (use 'magick' or 'builtin')", c.Engine)
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}

	if c.Watch && c.ServeAddr != "" {
		return errors.New("--watch and --serve cannot be combined")
	}
	if c.HistoryList && c.HistoryDir == "" {
		return errors.New("--history-list needs --history <dir>")
	}
	if c.HistoryKeep < 0 || c.WatchDebounce < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// Normalize clamps numeric settings into their supported ranges. Out of
// range values are corrected, never rejected.
func (c *Config) Normalize() {
	c.MaxEdge = planner.ClampEdge(c.MaxEdge)
	c.Quality = planner.ClampQuality(c.Quality)
	c.CropWidth = planner.ClampEdge(c.CropWidth)
	c.CropHeight = planner.ClampEdge(c.CropHeight)
	c.InputDir = NormalizeDirArg(c.InputDir)
	c.OutputDir = NormalizeDirArg(c.OutputDir)
}

// ResizeMode returns the planner mode selected by the configuration.
func (c *Config) ResizeMode() planner.ResizeMode {
	if c.Mode == planner.ModeFixedCrop {
		return planner.FixedCrop(c.CropWidth, c.CropHeight, c.Gravity)
	}
	return planner.BoundedEdge(c.MaxEdge)
}

// SameDir reports whether the resolved input and output directories are the
// same place. Outputs written there become sources on the next run, so the
// CLI warns about it. Both arguments must be absolute, symlink-resolved paths.
func SameDir(inputAbs, outputAbs string) bool {
	return filepath.Clean(inputAbs) == filepath.Clean(outputAbs)
}
