package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/backmassage/magickbatch/internal/planner"
)

// EnvPrefix is prepended to every environment override key.
const EnvPrefix = "MAGICKBATCH_"

// LoadFile merges the YAML file at path into cfg. Keys absent from the file
// keep their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// LoadEnvFile exports the variables of a dotenv file into the process
// environment. Variables that are already set win. A missing file is not an
// error unless required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !required && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

// ApplyEnv applies MAGICKBATCH_* overrides read through getenv (os.Getenv
// in production). Malformed numbers and durations are reported, not ignored.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := getenv(EnvPrefix + key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s must be a whole number (got %q)", EnvPrefix, key, v)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v := getenv(EnvPrefix + key)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s must be a duration like 30s or 72h (got %q)", EnvPrefix, key, v)
		}
		*dst = d
		return nil
	}
	flag := func(key string, dst *bool) error {
		v := getenv(EnvPrefix + key)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s must be true or false (got %q)", EnvPrefix, key, v)
		}
		*dst = b
		return nil
	}

	str("INPUT", &cfg.InputDir)
	str("OUTPUT", &cfg.OutputDir)
	str("HISTORY", &cfg.HistoryDir)
	str("PUBLISH", &cfg.Publish)
	str("SERVE", &cfg.ServeAddr)
	str("LOG_FILE", &cfg.LogFile)

	var mode, gravity, format, engine, color, origins string
	str("MODE", &mode)
	str("GRAVITY", &gravity)
	str("FORMAT", &format)
	str("ENGINE", &engine)
	str("COLOR", &color)
	str("CORS_ORIGINS", &origins)
	if mode != "" {
		cfg.Mode = planner.ModeKind(strings.ToLower(mode))
	}
	if gravity != "" {
		cfg.Gravity = planner.Gravity(gravity)
	}
	if format != "" {
		cfg.Format = planner.Selection(format)
	}
	if engine != "" {
		cfg.Engine = EngineMode(strings.ToLower(engine))
	}
	if color != "" {
		cfg.ColorMode = ColorMode(strings.ToLower(color))
	}
	if origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	for _, err := range []error{
		num("MAX_EDGE", &cfg.MaxEdge),
		num("QUALITY", &cfg.Quality),
		num("CROP_WIDTH", &cfg.CropWidth),
		num("CROP_HEIGHT", &cfg.CropHeight),
		dur("HISTORY_KEEP", &cfg.HistoryKeep),
		dur("WATCH_DEBOUNCE", &cfg.WatchDebounce),
		flag("VERIFY", &cfg.Verify),
		flag("VERBOSE", &cfg.Verbose),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
