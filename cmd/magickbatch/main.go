// Command magickbatch converts every jpg/png in an input directory to
// resized, metadata-stripped jpg/webp/avif files in an output directory.
//
// It loads configuration (defaults, YAML, environment, flags), then either
// runs diagnostics (--check), prints listings (--list, --history-list), or
// runs batches once, on file changes (--watch) or over HTTP (--serve).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/backmassage/magickbatch/internal/check"
	"github.com/backmassage/magickbatch/internal/config"
	"github.com/backmassage/magickbatch/internal/display"
	"github.com/backmassage/magickbatch/internal/history"
	"github.com/backmassage/magickbatch/internal/logging"
	"github.com/backmassage/magickbatch/internal/native"
	"github.com/backmassage/magickbatch/internal/pipeline"
	"github.com/backmassage/magickbatch/internal/publish"
	"github.com/backmassage/magickbatch/internal/server"
	"github.com/backmassage/magickbatch/internal/watch"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. No logger yet, errors go straight to stderr.
	cfg, err := config.Load(os.Args[1:], version, os.Getenv)
	if errors.Is(err, config.ErrExit) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "magickbatch: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "magickbatch: %v\n", err)
		return 1
	}
	cfg.Normalize()

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "magickbatch: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: One-shot modes.
	display.PrintBanner(os.Stdout, version)

	if cfg.CheckOnly {
		if !check.RunCheck(log, nil) {
			return 1
		}
		return 0
	}
	if cfg.ListOnly {
		pipeline.PrintInventory(os.Stdout, "Input "+cfg.InputDir, pipeline.Inventory(cfg.InputDir, native.Dimensions))
		pipeline.PrintInventory(os.Stdout, "Output "+cfg.OutputDir, pipeline.Inventory(cfg.OutputDir, native.Dimensions))
		return 0
	}

	var store *history.Store
	if cfg.HistoryDir != "" {
		store, err = history.Open(cfg.HistoryDir)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		defer store.Close()
	}
	if cfg.HistoryList {
		records, err := store.List(0)
		if err != nil {
			log.Error("Cannot read run history: %v", err)
			return 1
		}
		history.PrintRuns(os.Stdout, records)
		return 0
	}

	var target *publish.Target
	if cfg.Publish != "" {
		t, err := publish.Parse(cfg.Publish)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		target = &t
	}

	// Phase 3: Collaborators.
	backend := pipeline.MagickBackend()
	if cfg.Engine == config.EngineBuiltin {
		backend = pipeline.BuiltinBackend()
	}
	warnSameDir(log, &cfg)

	log.Info("=== magickbatch v%s (%s) ===", version, commit)
	log.Info("In:  %s", cfg.InputDir)
	log.Info("Out: %s", cfg.OutputDir)

	runs := &pipeline.Exclusive{
		After: func(ctx context.Context, rl *pipeline.RunLog) {
			afterRun(ctx, log, &cfg, store, target, rl)
		},
	}
	newRun := func() *pipeline.RunContext {
		rc := pipeline.NewRunContext(pipeline.Params{
			InputDir:  cfg.InputDir,
			OutputDir: cfg.OutputDir,
			Mode:      cfg.ResizeMode(),
			Quality:   cfg.Quality,
			Selection: cfg.Format,
		})
		rc.Backend = backend
		rc.Verify = cfg.Verify
		rc.Sink = log
		return rc
	}

	// Phase 4: Signal handling. A started batch always finishes; the first
	// interrupt stops the watcher or server, a second one kills the process.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, finishing current batch…")
		signal.Stop(sigCh)
		cancel()
	}()

	// Phase 5: Run.
	switch {
	case cfg.ServeAddr != "":
		srv := &server.Server{
			Defaults: cfg,
			Runs:     runs,
			Backend:  backend,
			History:  store,
			Dims:     native.Dimensions,
			Sink:     log,
		}
		log.Info("Serving API on %s", cfg.ServeAddr)
		if err := srv.ListenAndServe(ctx, cfg.ServeAddr); err != nil {
			log.Error("Server: %v", err)
			return 1
		}
		return 0

	case cfg.Watch:
		w, err := watch.New(cfg.InputDir, cfg.WatchDebounce, func(ctx context.Context) []string {
			return runs.Run(ctx, newRun()).Produced()
		}, log, cfg.Verbose)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		defer w.Close()
		if err := w.Run(ctx); err != nil {
			log.Error("Watcher: %v", err)
			return 1
		}
		return 0

	default:
		rl := runs.Run(ctx, newRun())
		if len(rl.Errors()) > 0 {
			return 1
		}
		return 0
	}
}

// afterRun records the finished run and publishes its outputs. Failures
// here are warnings; they never change the run's outcome.
func afterRun(ctx context.Context, log *logging.Logger, cfg *config.Config, store *history.Store, target *publish.Target, rl *pipeline.RunLog) {
	if store != nil {
		if err := store.Save(history.FromLog(rl)); err != nil {
			log.Warn("Cannot record run %s: %v", rl.ID(), err)
		}
		if n, err := store.Prune(cfg.HistoryKeep); err != nil {
			log.Warn("Cannot prune run history: %v", err)
		} else if n > 0 {
			log.Debug(cfg.Verbose, "Pruned %d old run(s) from history", n)
		}
	}

	files := rl.Produced()
	if target == nil || len(files) == 0 {
		return
	}
	p, err := publish.New(ctx, *target, os.Getenv)
	if err != nil {
		log.Warn("Publish to %s skipped: %v", target, err)
		return
	}
	defer p.Close()
	publish.Publish(ctx, p, *target, files, log)
}

// warnSameDir warns when input and output resolve to the same directory:
// jpg outputs there become sources of the next run.
func warnSameDir(log *logging.Logger, cfg *config.Config) {
	in, err1 := absPath(cfg.InputDir)
	out, err2 := absPath(cfg.OutputDir)
	if err1 != nil || err2 != nil {
		return
	}
	if config.SameDir(in, out) {
		log.Warn("Input and output are the same directory: %s", in)
	}
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output directories.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
