// Package registry tracks the set of worktrees attached to a repository and
// notifies subscribers when it changes.
package registry

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/chmouel/wtstatus/internal/models"
)

// Lister enumerates worktrees and resolves the repository layout.
type Lister interface {
	ListWorktrees(ctx context.Context, path string) ([]models.Worktree, error)
	CommonDir(ctx context.Context, path string) (string, error)
}

// Registry exposes the current worktree set of one repository. Change
// notification comes from watching `<common-dir>/worktrees`, which git
// touches on every worktree add, move and remove.
type Registry struct {
	lister   Lister
	repoPath string
	logf     func(string, ...any)

	mu      sync.Mutex
	subs    map[int]func()
	nextID  int
	started bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New creates a Registry rooted at repoPath.
func New(lister Lister, repoPath string, logf func(string, ...any)) *Registry {
	return &Registry{
		lister:   lister,
		repoPath: repoPath,
		logf:     logf,
		subs:     make(map[int]func()),
	}
}

// Resources returns the paths of all current worktrees.
func (r *Registry) Resources(ctx context.Context) ([]string, error) {
	wts, err := r.lister.ListWorktrees(ctx, r.repoPath)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(wts))
	for _, wt := range wts {
		paths = append(paths, wt.Path)
	}
	return paths, nil
}

// Worktrees returns the full worktree records, for display purposes.
func (r *Registry) Worktrees(ctx context.Context) ([]models.Worktree, error) {
	return r.lister.ListWorktrees(ctx, r.repoPath)
}

// Subscribe registers fn to be called when the worktree set may have
// changed. The returned cancel function releases the subscription.
func (r *Registry) Subscribe(fn func()) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.subs[id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

// Start begins watching the repository for worktree set changes. Without a
// running watcher the Registry still serves snapshots; subscribers just see
// no notifications.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}

	commonDir, err := r.lister.CommonDir(ctx, r.repoPath)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// The worktrees dir may not exist yet; watching the common dir catches
	// its creation.
	worktreesDir := filepath.Join(commonDir, "worktrees")
	_ = watcher.Add(commonDir)
	_ = watcher.Add(worktreesDir)

	r.watcher = watcher
	r.done = make(chan struct{})
	r.started = true

	go r.run(worktreesDir)
	return nil
}

// Stop stops the watcher. Snapshot reads keep working.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	close(r.done)
	r.started = false
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
}

func (r *Registry) run(worktreesDir string) {
	for {
		select {
		case <-r.done:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Name == worktreesDir && event.Op&fsnotify.Create != 0 {
				_ = r.watcher.Add(worktreesDir)
			}
			if filepath.Dir(event.Name) != worktreesDir && event.Name != worktreesDir {
				continue
			}
			r.notify()
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.debugf("registry watcher error: %v", err)
		}
	}
}

func (r *Registry) notify() {
	r.mu.Lock()
	fns := make([]func(), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (r *Registry) debugf(format string, args ...any) {
	if r.logf == nil {
		return
	}
	r.logf(format, args...)
}
