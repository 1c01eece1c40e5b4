package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/backmassage/magickbatch/internal/display"
	"github.com/backmassage/magickbatch/internal/magick"
	"github.com/backmassage/magickbatch/internal/naming"
	"github.com/backmassage/magickbatch/internal/planner"
)

// ProgressEvery is the file interval between progress entries.
const ProgressEvery = 25

// Run is the top-level batch entry point. It checks the fatal
// preconditions, discovers source files, converts each one to every
// selected format sequentially, and returns the run log.
//
// Run never returns an error: fatal preconditions end the log early with a
// single error entry, per-job failures are logged and the batch continues.
// Once started a run is not cancellable and no invocation has a timeout;
// ctx only carries values.
func Run(ctx context.Context, rc *RunContext) *RunLog {
	log := NewRunLog(rc.ID, rc.Sink)
	runInto(ctx, rc, log)
	return log
}

func runInto(ctx context.Context, rc *RunContext, log *RunLog) {
	ctx = context.WithoutCancel(ctx)
	p := rc.Params
	defer log.finish()
	log.setDirs(p.InputDir, p.OutputDir)

	// --- Fatal preconditions ---
	if strings.TrimSpace(p.InputDir) == "" || strings.TrimSpace(p.OutputDir) == "" {
		log.fail("", "Input and output directory must both be set")
		return
	}
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		log.fail("", "Cannot create output directory %s: %v", p.OutputDir, err)
		return
	}
	handle, err := rc.Backend.Locate()
	if err != nil {
		log.fail("", "%v", err)
		return
	}

	// --- Discover ---
	files := List(p.InputDir, ConvertibleExtensions)
	if len(files) == 0 {
		log.warn("No files found in %s (jpg, jpeg, png)", p.InputDir)
		return
	}

	formats := p.Selection.Formats()
	log.updateStats(func(s *RunStats) { s.Files = len(files) })
	logBatchHeader(log, rc, handle.String(), len(files), formats)

	engine := rc.Backend.Engine(handle)
	var verifier Verifier
	if rc.Verify && rc.Backend.Verifier != nil {
		verifier = rc.Backend.Verifier(handle)
	}
	plan := planner.BuildPlan(p.Mode, p.Quality)
	claims := naming.NewCollisionTracker()
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	sources := naming.NewSourceSet(paths)

	for i, src := range files {
		if fi, err := os.Stat(src.Path); err == nil {
			log.updateStats(func(s *RunStats) { s.InputBytes += fi.Size() })
		}

		for _, f := range formats {
			job := planner.ConversionJob{
				Source:      src,
				Format:      f,
				Plan:        plan,
				Destination: naming.GetOutputPath(p.OutputDir, src.Base, string(f)),
			}
			processJob(ctx, log, engine, verifier, sources, claims, job)
		}

		if n := i + 1; n%ProgressEvery == 0 {
			log.progress("Progress: %d/%d", n, len(files))
		}
	}

	logSummary(log)
}

// processJob runs one (file, format) job: guard → convert → record → verify.
func processJob(
	ctx context.Context,
	log *RunLog,
	engine Converter,
	verifier Verifier,
	sources *naming.SourceSet,
	claims *naming.CollisionTracker,
	job planner.ConversionJob,
) {
	log.updateStats(func(s *RunStats) { s.Jobs++ })

	// Sources are read-only, including the other files of this batch.
	if src, hit := sources.Match(job.Destination); hit {
		if naming.SamePath(src, job.Source.Path) {
			log.fail("", "%s refused: output would overwrite the source", job.Label())
		} else {
			log.fail("", "%s refused: output would overwrite the source %s", job.Label(), naming.Display(src))
		}
		log.updateStats(func(s *RunStats) { s.Failed++ })
		return
	}
	if prev, clash := claims.Claim(job.Source.Path, job.Destination); clash {
		log.warn("%s overwrites the output of %s (%s)", job.Label(), naming.Display(prev), naming.Display(job.Destination))
		log.updateStats(func(s *RunStats) { s.Collisions++ })
	}

	output, err := engine.Convert(ctx, job)
	if err != nil {
		logFailure(log, job, output, err)
		log.updateStats(func(s *RunStats) { s.Failed++ })
		return
	}

	log.produced(job.Destination)
	var outSize int64
	if fi, err := os.Stat(job.Destination); err == nil {
		outSize = fi.Size()
	}
	log.updateStats(func(s *RunStats) {
		s.Converted++
		s.OutputBytes += outSize
	})

	if verifier != nil {
		verifyOutput(ctx, log, verifier, job)
	}
}

// logFailure appends the per-job error entry: format, file name, exit code
// and a hint, with the engine output kept as detail.
func logFailure(log *RunLog, job planner.ConversionJob, output string, err error) {
	var cf *magick.ConversionFailed
	if errors.As(err, &cf) {
		text := fmt.Sprintf("%s failed: %s (exit %d)", upperFormat(job.Format), job.Source.Name, cf.ExitCode)
		if hint := magick.Classify(cf.Output); hint != "" {
			text += ": " + hint
		}
		log.fail(cf.Output, "%s", text)
		return
	}
	log.fail(output, "%s failed: %s: %v", upperFormat(job.Format), job.Source.Name, err)
}

// verifyOutput checks the produced file against the geometry law: shrink
// jobs never exceed the edge, crop jobs are exact.
func verifyOutput(ctx context.Context, log *RunLog, v Verifier, job planner.ConversionJob) {
	w, h, err := v.Dimensions(ctx, job.Destination)
	if err != nil {
		log.warn("Cannot verify %s: %v", naming.Display(job.Destination), err)
		return
	}
	g := job.Plan.Geometry
	var ok bool
	var want string
	switch g.Kind {
	case planner.CoverThenCrop:
		ok = w == g.Width && h == g.Height
		want = fmt.Sprintf("exactly %dx%d", g.Width, g.Height)
	default:
		ok = max(w, h) <= g.Edge
		want = fmt.Sprintf("at most %dpx", g.Edge)
	}
	if !ok {
		log.warn("%s is %dx%d, expected %s", naming.Display(job.Destination), w, h, want)
		log.updateStats(func(s *RunStats) { s.Mismatched++ })
	}
}

// --- Logging helpers ---

func logBatchHeader(log *RunLog, rc *RunContext, engine string, files int, formats []planner.Format) {
	p := rc.Params
	log.info("Found %d file(s)", files)

	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = upperFormat(f)
	}
	log.info("Engine: %s | %s | quality %d | formats: %s", engine, p.Mode, p.Quality, strings.Join(names, ", "))
}

func logSummary(log *RunLog) {
	s := log.Stats()
	if s.Converted > 0 {
		log.info("Wrote %s from %s of sources (%s)",
			display.FormatBytes(s.OutputBytes), display.FormatBytes(s.InputBytes),
			display.FormatSavings(s.InputBytes, s.OutputBytes))
	}
	log.done("Done: %d job(s), %d converted, %d failed", s.Jobs, s.Converted, s.Failed)
}

func upperFormat(f planner.Format) string { return strings.ToUpper(string(f)) }
