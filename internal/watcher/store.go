package watcher

import (
	"sync"

	"github.com/chmouel/wtstatus/internal/models"
)

// Store is the in-memory status sink. An optional callback observes every
// committed snapshot, which is how the CLI streams updates.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]models.StatusSnapshot
	onUpdate  func(path string, snapshot models.StatusSnapshot)
}

// NewStore creates a Store. onUpdate may be nil; it runs synchronously on
// the controller's commit path while the controller holds its internal lock,
// so it must not call back into the Controller. Hand off to a goroutine for
// anything that does.
func NewStore(onUpdate func(path string, snapshot models.StatusSnapshot)) *Store {
	return &Store{
		snapshots: make(map[string]models.StatusSnapshot),
		onUpdate:  onUpdate,
	}
}

// Status returns the current snapshot for path.
func (s *Store) Status(path string) (models.StatusSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[path]
	return snapshot, ok
}

// Apply merges the update into the stored snapshot for path.
func (s *Store) Apply(path string, update models.StatusUpdate) {
	s.mu.Lock()
	merged := models.Merge(s.snapshots[path], update)
	s.snapshots[path] = merged
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(path, merged)
	}
}

// Remove drops the snapshot for path. The controller calls it when the
// worktree is deregistered.
func (s *Store) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, path)
}

// Paths returns all paths with a stored snapshot.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.snapshots))
	for path := range s.snapshots {
		paths = append(paths, path)
	}
	return paths
}
