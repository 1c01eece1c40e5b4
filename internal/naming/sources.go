package naming

import (
	"os"
	"path/filepath"
)

// SourceSet answers whether a path names one of a run's source files.
// Lookups match equal absolute paths first, then fall back to
// os.SameFile for existing paths (symlinks, case-insensitive
// filesystems).
type SourceSet struct {
	abs   map[string]string // absolute path → source path
	infos []sourceInfo
}

type sourceInfo struct {
	path string
	fi   os.FileInfo
}

// NewSourceSet snapshots paths. Sources that cannot be stat'ed are still
// matched by absolute path.
func NewSourceSet(paths []string) *SourceSet {
	s := &SourceSet{abs: make(map[string]string, len(paths))}
	for _, p := range paths {
		if a, err := filepath.Abs(p); err == nil {
			s.abs[a] = p
		}
		if fi, err := os.Stat(p); err == nil {
			s.infos = append(s.infos, sourceInfo{path: p, fi: fi})
		}
	}
	return s
}

// Match returns the source that path would overwrite, if any.
func (s *SourceSet) Match(path string) (string, bool) {
	if a, err := filepath.Abs(path); err == nil {
		if src, ok := s.abs[a]; ok {
			return src, true
		}
	}
	fi, err := os.Stat(path)
	if err != nil {
		// Sources exist, so a missing path cannot be one of them.
		return "", false
	}
	for _, si := range s.infos {
		if os.SameFile(fi, si.fi) {
			return si.path, true
		}
	}
	return "", false
}
