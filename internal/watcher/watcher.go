// Package watcher keeps a dynamic set of worktrees synchronized with their
// git status. Filesystem events trigger throttled status polls, a periodic
// timer catches changes the watcher cannot see, and results for worktrees
// removed mid-flight are discarded.
package watcher

import (
	"context"

	"github.com/chmouel/wtstatus/internal/models"
)

// ResourceRegistry exposes the current worktree set and change
// notifications. Resources is read synchronously during reconciliation.
type ResourceRegistry interface {
	Resources(ctx context.Context) ([]string, error)
	Subscribe(fn func()) (cancel func())
}

// StatusProvider performs the status queries for one worktree path. Each
// query is independent; the controller sequences them.
type StatusProvider interface {
	// LocalStatus returns files, own ahead/behind counts and the conflict flag.
	LocalStatus(ctx context.Context, path string) (models.LocalStatus, error)

	// UpstreamBranch returns the configured upstream branch, "" when none.
	UpstreamBranch(ctx context.Context, path string) (string, error)

	// RemoteDefaultBranch returns the remote HEAD branch, "" when unset.
	RemoteDefaultBranch(ctx context.Context, path string) (string, error)

	// LocalDefaultBranch returns the local default branch, "" when none found.
	LocalDefaultBranch(ctx context.Context, path string) (string, error)

	// AheadBehind counts commits unique to HEAD and unique to base.
	AheadBehind(ctx context.Context, path, base string) (ahead, behind int, err error)

	// ConflictOperation reports the multi-step operation in progress, if any.
	ConflictOperation(ctx context.Context, path string) (models.ConflictOperation, error)
}

// WatchSource provides best-effort recursive change notifications for a
// directory. A failed Watch degrades the worktree to periodic-only polling.
type WatchSource interface {
	Watch(path string, onEvent func()) (cancel func(), err error)
}

// StatusSink stores the per-worktree status snapshots the controller
// maintains. Status and Apply are called from the controller's commit
// critical section, Remove when a worktree is deregistered; none of them
// may call back into the Controller.
type StatusSink interface {
	Status(path string) (models.StatusSnapshot, bool)
	Apply(path string, update models.StatusUpdate)
	Remove(path string)
}
