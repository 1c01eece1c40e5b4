package naming

import (
	"os"
	"path/filepath"
	"strings"
)

// BaseName returns the file name of path without its final extension.
// Dots before the extension, spaces and non-ASCII characters are kept
// verbatim, so "my.holiday pic.JPG" yields "my.holiday pic".
func BaseName(path string) string {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	if ext == name {
		// Dotfile such as ".png": keep the whole name.
		return name
	}
	return strings.TrimSuffix(name, ext)
}

// GetOutputPath builds the destination path for a base name and format.
// ext is the file extension without dot (e.g. "jpg", "webp").
//
//	<outputDir>/<base>.<ext>
func GetOutputPath(outputDir, base, ext string) string {
	return filepath.Join(outputDir, base+"."+ext)
}

// SamePath reports whether a and b name the same file: equal absolute
// paths, or two existing paths that os.SameFile matches (symlinks,
// case-insensitive filesystems). Used to refuse jobs that would overwrite
// their own source.
func SamePath(a, b string) bool {
	aa, errA := filepath.Abs(a)
	bb, errB := filepath.Abs(b)
	if errA == nil && errB == nil && aa == bb {
		return true
	}
	fa, errA := os.Stat(a)
	fb, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(fa, fb)
}

// Display shortens a path to its file name for log lines.
func Display(path string) string {
	return filepath.Base(path)
}
