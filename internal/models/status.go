// Package models defines the data objects shared across wtstatus packages.
package models

// StatusFile represents a file entry from git status.
type StatusFile struct {
	Filename    string
	Status      string // XY status code (e.g., ".M", "M.", "UU")
	IsUntracked bool
}

// ConflictOperation identifies the multi-step git operation producing
// conflicting files, when one is in progress.
type ConflictOperation string

const (
	// OpNone means no multi-step operation is in progress.
	OpNone ConflictOperation = ""
	// OpMerge is an in-progress merge.
	OpMerge ConflictOperation = "merge"
	// OpRebase is an in-progress rebase (interactive or not).
	OpRebase ConflictOperation = "rebase"
	// OpCherryPick is an in-progress cherry-pick.
	OpCherryPick ConflictOperation = "cherry-pick"
	// OpRevert is an in-progress revert.
	OpRevert ConflictOperation = "revert"
)

// StatusSnapshot summarizes the tracked state of one worktree.
//
// Upstream, BaseRef and Operation are optional: the empty string / OpNone
// means "not present". They are only ever replaced through StatusUpdate so a
// refresh that could not resolve them clears them explicitly rather than
// leaving a stale value behind.
type StatusSnapshot struct {
	Files        []StatusFile // working tree changes, including untracked
	StagedFiles  []StatusFile // index changes
	Ahead        int          // own branch vs upstream
	Behind       int
	HasConflicts bool
	Operation    ConflictOperation
	Upstream     string // e.g. "origin/feature", "" when no upstream
	BaseRef      string // comparison base, "" when unresolved
	BaseAhead    int    // own branch vs BaseRef
	BaseBehind   int
	RemoteBase   bool // BaseRef is a remote-tracking ref
}

// LocalStatus holds the result of the local status query: changed files plus
// branch identity and its divergence from the upstream.
type LocalStatus struct {
	Branch       string
	Files        []StatusFile
	StagedFiles  []StatusFile
	Ahead        int
	Behind       int
	HasConflicts bool
}

// Dirty reports whether the worktree has any local changes.
func (s StatusSnapshot) Dirty() bool {
	return len(s.Files) > 0 || len(s.StagedFiles) > 0
}
