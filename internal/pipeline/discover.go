package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/magickbatch/internal/naming"
	"github.com/backmassage/magickbatch/internal/planner"
)

// ConvertibleExtensions are the batch source types (lowercase, leading dot).
var ConvertibleExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ListingExtensions are shown in directory listings. webp is listed but
// never used as a batch source, so outputs are not converted again.
var ListingExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// List returns the regular files directly inside dir whose extension is in
// exts (case-insensitive). It does not descend into subdirectories. A
// missing or unreadable dir yields an empty result, never an error. Order
// follows os.ReadDir.
func List(dir string, exts map[string]bool) []planner.SourceFile {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var files []planner.SourceFile
	for _, e := range entries {
		name := e.Name()
		if !exts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		path := filepath.Join(dir, name)
		if !isRegular(e, path) {
			continue
		}
		files = append(files, planner.SourceFile{
			Path: path,
			Name: name,
			Base: naming.BaseName(name),
		})
	}
	return files
}

// isRegular accepts regular files and symlinks that resolve to one.
func isRegular(e os.DirEntry, path string) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
