package models

// Worktree identifies a git worktree known to the repository.
type Worktree struct {
	Path   string
	Branch string // "" for a detached HEAD
	IsMain bool
}
