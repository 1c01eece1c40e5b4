package naming

import (
	"sync"
)

// CollisionTracker records which source claimed each output path during a
// run. Sources sharing a base name (photo.jpg and photo.png) map to the same
// output; the tracker reports the clash so the caller can warn, but never
// renames, so output names always equal the source base name. All methods
// are goroutine-safe.
type CollisionTracker struct {
	mu     sync.Mutex
	owners map[string]string // output path → source path that last claimed it
}

// NewCollisionTracker creates a ready-to-use tracker.
func NewCollisionTracker() *CollisionTracker {
	return &CollisionTracker{owners: make(map[string]string)}
}

// Claim registers source as the writer of output. When a different source
// already claimed output, that source is returned with clash=true.
func (ct *CollisionTracker) Claim(source, output string) (previous string, clash bool) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	owner, exists := ct.owners[output]
	ct.owners[output] = source
	if !exists || owner == source {
		return "", false
	}
	return owner, true
}
