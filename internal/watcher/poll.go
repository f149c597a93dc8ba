package watcher

import (
	"context"

	"github.com/chmouel/wtstatus/internal/models"
)

// refresh runs the status query pipeline for one worktree and commits the
// merged result. Steps, in dependency order:
//
//  1. local status (files, own ahead/behind, conflict flag)
//  2. upstream branch name
//  3. upstream present: remote default branch as preferred base
//  4. upstream absent: local default branch as fallback base
//  5. base resolved and different from the own branch: ahead/behind vs base
//  6. conflict-operation kind, only when the conflict flag is set or the
//     previous snapshot recorded an operation in progress
//
// Any query error aborts the refresh and leaves the prior status untouched.
// Entry presence is re-checked before step 6 and again at commit; the
// check-then-write at commit is a single critical section so a worktree
// removed mid-flight never gets a stale write-back.
func (c *Controller) refresh(ctx context.Context, e *watchEntry) error {
	path := e.path

	local, err := c.provider.LocalStatus(ctx, path)
	if err != nil {
		return err
	}

	upstream, err := c.provider.UpstreamBranch(ctx, path)
	if err != nil {
		return err
	}

	var baseRef string
	var remoteBase bool
	if upstream != "" {
		baseRef, err = c.provider.RemoteDefaultBranch(ctx, path)
		if err != nil {
			return err
		}
		remoteBase = baseRef != ""
	} else {
		baseRef, err = c.provider.LocalDefaultBranch(ctx, path)
		if err != nil {
			return err
		}
	}

	var baseAhead, baseBehind int
	if baseRef != "" && baseRef != local.Branch {
		baseAhead, baseBehind, err = c.provider.AheadBehind(ctx, path, baseRef)
		if err != nil {
			return err
		}
	}

	// First checkpoint: the conflict-operation query depends on the previous
	// snapshot, which is only meaningful while the worktree is still watched.
	c.mu.Lock()
	if c.entries[path] != e {
		c.mu.Unlock()
		return nil
	}
	prev, _ := c.sink.Status(path)
	c.mu.Unlock()

	var operation models.Field[models.ConflictOperation]
	if local.HasConflicts || prev.Operation != models.OpNone {
		// Re-querying when an operation was recorded catches "conflicts
		// resolved but the operation not yet concluded".
		op, err := c.provider.ConflictOperation(ctx, path)
		if err != nil {
			return err
		}
		if op != models.OpNone {
			operation = models.Set(op)
		} else {
			operation = models.Clear[models.ConflictOperation]()
		}
	}

	update := models.StatusUpdate{
		Files:        local.Files,
		StagedFiles:  local.StagedFiles,
		Ahead:        local.Ahead,
		Behind:       local.Behind,
		HasConflicts: local.HasConflicts,
		Operation:    operation,
		Upstream:     setOrClear(upstream),
		BaseRef:      setOrClear(baseRef),
		BaseAhead:    baseAhead,
		BaseBehind:   baseBehind,
		RemoteBase:   remoteBase,
	}

	// Second checkpoint and commit, atomically.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[path] != e {
		return nil
	}
	c.sink.Apply(path, update)
	return nil
}

func setOrClear(value string) models.Field[string] {
	if value == "" {
		return models.Clear[string]()
	}
	return models.Set(value)
}
