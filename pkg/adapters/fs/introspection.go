package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path          string     `json:"path" yaml:"path"`
	LockPath      string     `json:"lock_path" yaml:"lock_path"`
	LockMode      LockMode   `json:"lock_mode" yaml:"lock_mode"`
	PollInterval  string     `json:"poll_interval" yaml:"poll_interval"`
	LockTimeout   string     `json:"lock_timeout" yaml:"lock_timeout"`
	Format        string     `json:"format" yaml:"format"`
	LockHeld      bool       `json:"lock_held" yaml:"lock_held"`
	WatcherActive bool       `json:"watcher_active" yaml:"watcher_active"`
	Operations    uint64     `json:"operations" yaml:"operations"`
	Writes        uint64     `json:"writes" yaml:"writes"`
	LockTimeouts  uint64     `json:"lock_timeouts" yaml:"lock_timeouts"`
	LastWrite     *time.Time `json:"last_write,omitempty" yaml:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	return s.Snapshot()
}

// Snapshot is State with a concrete type, for callers such as metrics
// collectors.
func (s *Store) Snapshot() StoreState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Path:          s.Path,
		LockPath:      s.lock.Path(),
		LockMode:      s.config.LockMode,
		PollInterval:  s.config.PollInterval.String(),
		LockTimeout:   s.config.LockTimeout.String(),
		Format:        s.serializer.Name(),
		LockHeld:      s.lock.Held(),
		WatcherActive: s.watchers > 0,
		Operations:    s.ops.Load(),
		Writes:        s.writes.Load(),
		LockTimeouts:  s.lock.Timeouts(),
		LastWrite:     s.lastWrite,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active {
		s.watchers++
	} else if s.watchers > 0 {
		s.watchers--
	}
}
