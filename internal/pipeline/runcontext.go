package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/backmassage/magickbatch/internal/check"
	"github.com/backmassage/magickbatch/internal/magick"
	"github.com/backmassage/magickbatch/internal/native"
	"github.com/backmassage/magickbatch/internal/planner"
	"github.com/backmassage/magickbatch/internal/probe"
)

// Params are the validated inputs of one run, as supplied by the CLI or
// the HTTP collaborator. Mode and Quality are expected to be clamped.
type Params struct {
	InputDir  string             `json:"input_dir"`
	OutputDir string             `json:"output_dir"`
	Mode      planner.ResizeMode `json:"mode"`
	Quality   int                `json:"quality"`
	Selection planner.Selection  `json:"format"`
}

// Converter executes one conversion job and returns any captured output.
type Converter interface {
	Convert(ctx context.Context, job planner.ConversionJob) (string, error)
}

// Verifier reads back the pixel size of a produced file.
type Verifier interface {
	Dimensions(ctx context.Context, path string) (int, int, error)
}

// Backend bundles how an engine is located and driven.
type Backend struct {
	Name     string
	Locate   func() (check.Handle, error)
	Engine   func(check.Handle) Converter
	Verifier func(check.Handle) Verifier
}

// MagickBackend drives the ImageMagick binary found on PATH.
func MagickBackend() Backend {
	return Backend{
		Name:     "magick",
		Locate:   func() (check.Handle, error) { return check.Locate(nil) },
		Engine:   func(h check.Handle) Converter { return magick.New(h) },
		Verifier: func(h check.Handle) Verifier { return probe.Prober{Handle: h} },
	}
}

// BuiltinBackend converts in-process; it needs nothing on PATH.
func BuiltinBackend() Backend {
	return Backend{
		Name:     "builtin",
		Locate:   func() (check.Handle, error) { return check.Builtin, nil },
		Engine:   func(check.Handle) Converter { return native.New() },
		Verifier: func(check.Handle) Verifier { return native.Verifier{} },
	}
}

// RunContext carries everything one run needs. There is no package state:
// concurrent collaborators each build their own RunContext and serialise
// runs through an Exclusive.
type RunContext struct {
	ID      string
	Params  Params
	Backend Backend
	Verify  bool // Read back output dimensions after each successful job.
	Sink    Sink // Optional console mirror of the run log.
}

// NewRunContext returns a RunContext with a fresh ID and the ImageMagick
// backend.
func NewRunContext(p Params) *RunContext {
	return &RunContext{
		ID:      uuid.NewString(),
		Params:  p,
		Backend: MagickBackend(),
	}
}
