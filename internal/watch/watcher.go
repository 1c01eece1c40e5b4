// Package watch re-runs the batch whenever new source images land in the
// input directory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/backmassage/magickbatch/internal/pipeline"
)

// Trigger runs one batch and returns the paths it produced. Produced paths
// are ignored when their own events arrive, so a batch writing jpg outputs
// into its input directory does not retrigger itself.
type Trigger func(ctx context.Context) []string

// Logger is the subset of *logging.Logger used here.
type Logger interface {
	Info(string, ...interface{})
	Warn(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// Watcher debounces source-file events in one directory into batch runs.
type Watcher struct {
	dir      string
	debounce time.Duration
	trigger  Trigger
	log      Logger
	verbose  bool
	fs       *fsnotify.Watcher
	ignore   map[string]bool
}

// New starts watching dir. Call Run to process events and Close when done.
func New(dir string, debounce time.Duration, trigger Trigger, log Logger, verbose bool) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch folder %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		trigger:  trigger,
		log:      log,
		verbose:  verbose,
		fs:       fsw,
		ignore:   map[string]bool{},
	}, nil
}

// Run converts what is already in the directory, then runs a batch each
// time events settle for the debounce interval. It returns when ctx is
// cancelled; a batch in progress is allowed to finish first.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("Watching %s (debounce %s)", w.dir, w.debounce)
	w.fire(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug(w.verbose, "Change: %s %s", event.Op, filepath.Base(event.Name))
			timer.Reset(w.debounce)
			pending = timer.C

		case <-pending:
			pending = nil
			w.fire(ctx)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error: %v", err)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) fire(ctx context.Context) {
	produced := w.trigger(ctx)
	w.ignore = make(map[string]bool, len(produced))
	for _, p := range produced {
		w.ignore[filepath.Clean(p)] = true
	}
}

// relevant reports whether event is a new or rewritten source image.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if !pipeline.ConvertibleExtensions[strings.ToLower(filepath.Ext(base))] {
		return false
	}
	return !w.ignore[filepath.Clean(event.Name)]
}
