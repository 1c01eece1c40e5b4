package pipeline

import (
	"context"
	"errors"
	"sync"
)

// ErrRunInProgress is returned by TryRun while another run holds the lock.
var ErrRunInProgress = errors.New("a batch run is already in progress")

// Exclusive serialises runs started by concurrent collaborators (CLI,
// watcher, HTTP server) so two batches never write the same output
// directory at once. The zero value is ready to use.
type Exclusive struct {
	mu sync.Mutex

	// After, if set, runs with the lock still held once a run has finished.
	// Used for history recording and publishing.
	After func(ctx context.Context, log *RunLog)

	stateMu sync.Mutex
	current *RunLog
}

// TryRun starts rc immediately or returns ErrRunInProgress.
func (x *Exclusive) TryRun(ctx context.Context, rc *RunContext) (*RunLog, error) {
	if !x.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer x.mu.Unlock()
	return x.run(ctx, rc), nil
}

// Run waits for any in-flight run, then runs rc.
func (x *Exclusive) Run(ctx context.Context, rc *RunContext) *RunLog {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.run(ctx, rc)
}

// Current returns the log of the run in flight, or nil when idle.
func (x *Exclusive) Current() *RunLog {
	x.stateMu.Lock()
	defer x.stateMu.Unlock()
	return x.current
}

func (x *Exclusive) run(ctx context.Context, rc *RunContext) *RunLog {
	log := NewRunLog(rc.ID, rc.Sink)
	x.setCurrent(log)
	runInto(ctx, rc, log)
	x.setCurrent(nil)

	if x.After != nil {
		x.After(context.WithoutCancel(ctx), log)
	}
	return log
}

func (x *Exclusive) setCurrent(log *RunLog) {
	x.stateMu.Lock()
	defer x.stateMu.Unlock()
	x.current = log
}
