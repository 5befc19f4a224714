package merge

import (
	"errors"
	"sync"
)

// ErrMergeInProgress is returned when the project is already being merged
var ErrMergeInProgress = errors.New("a synchronization of this project is already in progress")

// ProjectLocks allows at most one merge per project at a time
type ProjectLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewProjectLocks creates an empty lock set
func NewProjectLocks() *ProjectLocks {
	return &ProjectLocks{held: make(map[string]struct{})}
}

// defaultLocks guards merges that don't supply their own lock set
var defaultLocks = NewProjectLocks()

// DefaultLocks returns the process-wide lock set used when none is given
func DefaultLocks() *ProjectLocks {
	return defaultLocks
}

// TryLock acquires the project without waiting. On success the returned
// function releases it; calling it more than once is harmless.
func (l *ProjectLocks) TryLock(project string) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[project]; busy {
		return nil, false
	}
	l.held[project] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, project)
			l.mu.Unlock()
		})
	}, true
}

// Held reports whether project is currently locked
func (l *ProjectLocks) Held(project string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[project]
	return ok
}
