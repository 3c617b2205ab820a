package preview

import (
	"sync"
	"time"
)

// BuildStatus tracks the outcome of the most recent watch-mode build.
type BuildStatus struct {
	mu           sync.RWMutex
	builds       int
	lastError    error
	lastBuild    time.Time
	hasGoodBuild bool // true if at least one successful build exists
}

// StatusSnapshot is a point-in-time copy of BuildStatus.
type StatusSnapshot struct {
	Builds       int       `json:"builds"`
	LastError    string    `json:"last_error,omitempty"`
	LastBuild    time.Time `json:"last_build"`
	HasGoodBuild bool      `json:"has_good_build"`
}

func (bs *BuildStatus) record(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.builds++
	bs.lastBuild = time.Now()
	bs.lastError = err
	if err == nil {
		bs.hasGoodBuild = true
	}
}

// Snapshot returns the current status.
func (bs *BuildStatus) Snapshot() StatusSnapshot {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	s := StatusSnapshot{
		Builds:       bs.builds,
		LastBuild:    bs.lastBuild,
		HasGoodBuild: bs.hasGoodBuild,
	}
	if bs.lastError != nil {
		s.LastError = bs.lastError.Error()
	}
	return s
}
