package magick

import (
	"context"
	"errors"
	"os/exec"

	"github.com/backmassage/magickbatch/internal/check"
	"github.com/backmassage/magickbatch/internal/planner"
)

// Runner executes argv and returns combined stdout+stderr together with the
// process exit code. A non-nil error means the process could not be started
// or did not exit normally.
type Runner func(ctx context.Context, argv []string) (output []byte, exitCode int, err error)

// Engine converts jobs with an external ImageMagick binary.
type Engine struct {
	handle check.Handle
	run    Runner
}

// New returns an Engine bound to h.
func New(h check.Handle) *Engine {
	return &Engine{handle: h, run: execRunner}
}

// WithRunner replaces the process runner. Used by tests.
func (e *Engine) WithRunner(r Runner) *Engine {
	e.run = r
	return e
}

// Handle returns the engine the commands are issued against.
func (e *Engine) Handle() check.Handle { return e.handle }

// Convert runs one job synchronously and returns the captured output.
// Exit status 0 is success; anything else yields a *ConversionFailed
// carrying the exit code and output. No timeout is applied and partial
// output files are left as the engine wrote them.
func (e *Engine) Convert(ctx context.Context, job planner.ConversionJob) (string, error) {
	argv := Args(e.handle, job)
	out, code, err := e.run(ctx, argv)
	if err != nil {
		text := string(out)
		if text == "" {
			text = err.Error()
		}
		return text, &ConversionFailed{Job: job, ExitCode: code, Output: text, Err: err}
	}
	if code != 0 {
		return string(out), &ConversionFailed{Job: job, ExitCode: code, Output: string(out)}
	}
	return string(out), nil
}

func execRunner(ctx context.Context, argv []string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return out, 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return out, exitErr.ExitCode(), nil
	}
	return out, -1, err
}
