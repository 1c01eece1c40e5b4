// Package magick builds and executes ImageMagick conversion commands.
//
// One invocation per job:
//
//	<engine> <src> <geometry...> -strip -quality <q> <fmt>:<dst>
//
// Commands are executed directly (no shell), so paths with spaces, quotes or
// unicode reach the engine unchanged. Combined stdout+stderr is captured and
// attached to a *ConversionFailed when the engine exits non-zero.
//
// Files: builder.go (argv), executor.go (Engine.Convert), errors.go
// (ConversionFailed and diagnostic classification).
package magick
