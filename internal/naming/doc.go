// Package naming derives output file names from source files and tracks
// in-run output collisions.
package naming
