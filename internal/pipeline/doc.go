// Package pipeline runs one batch through a pluggable engine and records
// the outcome in an ordered run log read by the CLI, watcher, HTTP server
// and history.
//
// Files:
//   - discover.go: non-recursive source listing with extension allow-lists.
//   - runner.go: Run and the per-job guard → convert → record → verify loop.
//   - runlog.go: RunLog entries, console mirroring, JSON report.
//   - exclusive.go: one-run-at-a-time gate shared by collaborators.
//   - inventory.go: input/output listings for --list and /api/files.
package pipeline
