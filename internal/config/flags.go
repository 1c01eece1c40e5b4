package config

// This file implements CLI flag parsing, help text, and the layered Load.
// Flags are grouped into resize, encoding, integrations, display, and utility.
// Negated flags (e.g. --no-color) are applied after Parse so earlier layers
// hold unless the flag is given.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/backmassage/magickbatch/internal/planner"
)

// ErrExit is returned after --help or --version have been printed. The
// caller should exit 0.
var ErrExit = errors.New("exit requested")

// Load builds the effective configuration for args (without the program
// name). Precedence, lowest first: defaults, YAML file (--config or
// MAGICKBATCH_CONFIG), environment (.env file then process env), flags.
func Load(args []string, version string, getenv func(string) string) (Config, error) {
	// First pass on a scratch copy only to learn --config / --env-file.
	scratch := DefaultConfig()
	if err := ParseFlags(&scratch, args, version, io.Discard); err != nil {
		if errors.Is(err, ErrExit) {
			// Print help/version for real.
			return scratch, ParseFlags(&scratch, args, version, os.Stderr)
		}
		return scratch, err
	}

	cfg := DefaultConfig()
	cfg.EnvFile = scratch.EnvFile
	if err := LoadEnvFile(cfg.EnvFile, cfg.EnvFile != ".env"); err != nil {
		return cfg, err
	}

	cfgFile := scratch.ConfigFile
	if cfgFile == "" {
		cfgFile = getenv(EnvPrefix + "CONFIG")
	}
	if cfgFile != "" {
		if err := LoadFile(&cfg, cfgFile); err != nil {
			return cfg, err
		}
		cfg.ConfigFile = cfgFile
	}

	if err := ApplyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}
	if err := ParseFlags(&cfg, args, version, os.Stderr); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseFlags parses args into cfg. Flag defaults are cfg's current values,
// so unset flags keep whatever earlier layers configured. On --help or
// --version it prints to usageOut and returns ErrExit.
func ParseFlags(cfg *Config, args []string, version string, usageOut io.Writer) error {
	fs := flag.NewFlagSet("magickbatch", flag.ContinueOnError)
	fs.SetOutput(usageOut)
	fs.Usage = func() { printUsage(usageOut, version) }

	var negated negatedFlags

	defineResizeFlags(fs, cfg)
	defineEncodingFlags(fs, cfg)
	defineIntegrationFlags(fs, cfg, &negated)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, cfg, &negated)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ErrExit
		}
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(usageOut, version)
		return ErrExit
	}
	if negated.showVersion {
		fmt.Fprintln(usageOut, "magickbatch v"+version)
		return ErrExit
	}

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	forceColor  bool
	noColor     bool
	noVerify    bool
	showVersion bool
	showHelp    bool
}

// defineResizeFlags registers --mode, -e/--max-edge, --crop, -g/--gravity.
func defineResizeFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&modeValue{&cfg.Mode}, "mode", "Resize mode: bounded | crop")
	fs.IntVar(&cfg.MaxEdge, "max-edge", cfg.MaxEdge, "Longest edge in px (shrink only)")
	fs.IntVar(&cfg.MaxEdge, "e", cfg.MaxEdge, "Same as --max-edge")
	fs.Var(&cropValue{cfg}, "crop", "Fixed output size WxH; implies --mode crop")
	fs.Var(&gravityValue{&cfg.Gravity}, "gravity", "Crop anchor (default: center)")
	fs.Var(&gravityValue{&cfg.Gravity}, "g", "Same as --gravity")
}

// defineEncodingFlags registers -q/--quality, -F/--format, --engine, --verify.
func defineEncodingFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Quality, "quality", cfg.Quality, "Encoder quality 1-100")
	fs.IntVar(&cfg.Quality, "q", cfg.Quality, "Same as --quality")
	fs.Var(&selectionValue{&cfg.Format}, "format", "Target format: jpg | webp | both | avif")
	fs.Var(&selectionValue{&cfg.Format}, "F", "Same as --format")
	fs.Var(&engineValue{&cfg.Engine}, "engine", "Conversion engine: magick | builtin")
	fs.BoolVar(&cfg.Verify, "verify", cfg.Verify, "Check output dimensions after each job")
}

// defineIntegrationFlags registers history, publish, watch and serve flags.
func defineIntegrationFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.noVerify, "no-verify", false, "Skip output verification")
	fs.StringVar(&cfg.HistoryDir, "history", cfg.HistoryDir, "Record runs in a Pebble store at dir")
	fs.DurationVar(&cfg.HistoryKeep, "history-keep", cfg.HistoryKeep, "Prune recorded runs older than this")
	fs.BoolVar(&cfg.HistoryList, "history-list", false, "Print recorded runs and exit")
	fs.StringVar(&cfg.Publish, "publish", cfg.Publish, "Copy produced files to s3://, gs://, sftp:// or file://")
	fs.BoolVar(&cfg.Watch, "watch", cfg.Watch, "Re-run when the input directory changes")
	fs.BoolVar(&cfg.Watch, "w", cfg.Watch, "Same as --watch")
	fs.DurationVar(&cfg.WatchDebounce, "watch-debounce", cfg.WatchDebounce, "Quiet period before a watch re-run")
	fs.StringVar(&cfg.ServeAddr, "serve", cfg.ServeAddr, "Serve the JSON API on addr")
	fs.Var(&listValue{p: &cfg.CORSOrigins}, "cors-origin", "Allowed CORS origin (repeatable or comma separated)")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --list, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.BoolVar(&cfg.ListOnly, "list", false, "List input and output images and exit")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --config, --env-file, --version and --help.
func defineUtilityFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML configuration file")
	fs.StringVar(&cfg.EnvFile, "env-file", cfg.EnvFile, "dotenv file with MAGICKBATCH_* variables")
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noVerify {
		cfg.Verify = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs accepts either no positional args (configured
// directories) or exactly <input_dir> <output_dir>.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	switch len(args) {
	case 0:
		return nil
	case 2:
		cfg.InputDir = NormalizeDirArg(args[0])
		cfg.OutputDir = NormalizeDirArg(args[1])
		return nil
	}
	return fmt.Errorf("need no directories or exactly input_dir and output_dir (got %d args)", len(args))
}

// printUsage writes the help text. Column-aligned for readability.
func printUsage(w io.Writer, version string) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "magickbatch v" + version + ": batch image conversion with ImageMagick"},
		{"", ""},
		{"  magickbatch [OPTIONS] [<input_dir> <output_dir>]", ""},
		{"", ""},
		{"Resize", ""},
		{"  --mode <bounded|crop>", "Resize mode (default: bounded)"},
		{"  -e, --max-edge <px>", "Longest edge, never enlarges (default: 1600)"},
		{"  --crop <WxH>", "Cover-scale and crop to exactly WxH"},
		{"  -g, --gravity <anchor>", "Crop anchor: northwest..southeast (default: center)"},
		{"", ""},
		{"Encoding", ""},
		{"  -q, --quality <1-100>", "Encoder quality (default: 85)"},
		{"  -F, --format <fmt>", "jpg | webp | both | avif (default: webp)"},
		{"  --engine <magick|builtin>", "Conversion engine (default: magick)"},
		{"  --verify", "Check output dimensions after each job"},
		{"  --no-verify", "Skip output verification"},
		{"", ""},
		{"Integrations", ""},
		{"  --history <dir>", "Record runs in a Pebble store"},
		{"  --history-keep <dur>", "Prune runs older than dur (e.g. 720h)"},
		{"  --history-list", "Print recorded runs and exit"},
		{"  --publish <target>", "s3://b/p, gs://b/p, sftp://u@h/dir, file:///dir"},
		{"  -w, --watch", "Re-run on input changes"},
		{"  --watch-debounce <dur>", "Quiet period before re-run (default: 2s)"},
		{"  --serve <addr>", "Serve the JSON API (e.g. :8080)"},
		{"  --cors-origin <origin>", "Allowed CORS origin (default: any)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  --config <path>", "YAML configuration file"},
		{"  --env-file <path>", "dotenv file (default: .env)"},
		{"  -l, --log <path>", "Append logs to file"},
		{"  --list", "List input and output images"},
		{"  -c, --check", "System diagnostics (engine, version, formats)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		switch {
		case l.flags == "" && l.desc == "":
			fmt.Fprintln(w)
		case l.desc == "":
			fmt.Fprintln(w, l.flags)
		case l.flags == "":
			fmt.Fprintln(w, l.desc)
		default:
			padding := max(col1-len(l.flags), 1)
			fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
		}
	}
}

// flag.Value adapters so enum types can be used with flag.Var.

type modeValue struct{ p *planner.ModeKind }

func (m *modeValue) String() string {
	if m.p == nil {
		return ""
	}
	return string(*m.p)
}
func (m *modeValue) Set(s string) error {
	switch planner.ModeKind(strings.ToLower(s)) {
	case planner.ModeBoundedEdge:
		*m.p = planner.ModeBoundedEdge
	case planner.ModeFixedCrop:
		*m.p = planner.ModeFixedCrop
	default:
		return fmt.Errorf("invalid mode %q (use 'bounded' or 'crop')", s)
	}
	return nil
}

type gravityValue struct{ p *planner.Gravity }

func (g *gravityValue) String() string {
	if g.p == nil {
		return ""
	}
	return string(*g.p)
}
func (g *gravityValue) Set(s string) error {
	v, err := planner.ParseGravity(s)
	if err != nil {
		return err
	}
	*g.p = v
	return nil
}

type selectionValue struct{ p *planner.Selection }

func (v *selectionValue) String() string {
	if v.p == nil {
		return ""
	}
	return string(*v.p)
}
func (v *selectionValue) Set(s string) error {
	sel, err := planner.ParseSelection(s)
	if err != nil {
		return err
	}
	*v.p = sel
	return nil
}

type engineValue struct{ p *EngineMode }

func (e *engineValue) String() string {
	if e.p == nil {
		return ""
	}
	return string(*e.p)
}
func (e *engineValue) Set(s string) error {
	switch EngineMode(strings.ToLower(s)) {
	case EngineMagick:
		*e.p = EngineMagick
	case EngineBuiltin:
		*e.p = EngineBuiltin
	default:
		return fmt.Errorf("invalid engine %q (use 'magick' or 'builtin')", s)
	}
	return nil
}

// cropValue parses "WxH" and switches the mode to crop.
type cropValue struct{ cfg *Config }

func (c *cropValue) String() string {
	if c.cfg == nil {
		return ""
	}
	return fmt.Sprintf("%dx%d", c.cfg.CropWidth, c.cfg.CropHeight)
}
func (c *cropValue) Set(s string) error {
	w, h, err := ParseSize(s)
	if err != nil {
		return err
	}
	c.cfg.CropWidth, c.cfg.CropHeight = w, h
	c.cfg.Mode = planner.ModeFixedCrop
	return nil
}

// listValue replaces the configured list on first Set and appends after.
type listValue struct {
	p   *[]string
	set bool
}

func (l *listValue) String() string {
	if l.p == nil {
		return ""
	}
	return strings.Join(*l.p, ",")
}
func (l *listValue) Set(s string) error {
	if !l.set {
		*l.p = nil
		l.set = true
	}
	*l.p = append(*l.p, splitList(s)...)
	return nil
}

// ParseSize parses "WxH" (also "W×H" and "W*H") into positive integers.
func ParseSize(s string) (int, int, error) {
	norm := strings.NewReplacer("×", "x", "X", "x", "*", "x").Replace(strings.TrimSpace(s))
	ws, hs, ok := strings.Cut(norm, "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q (use WxH, e.g. 1200x800)", s)
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q (use WxH, e.g. 1200x800)", s)
	}
	return w, h, nil
}
