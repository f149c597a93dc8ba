// Package git wraps the git commands wtstatus uses to query worktree status.
package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/chmouel/wtstatus/internal/log"
	"github.com/chmouel/wtstatus/internal/models"
)

// execCommand builds the command to run. It's exposed as a package variable
// so tests can mock it and avoid depending on a real git checkout.
var execCommand = exec.CommandContext

// Service runs git queries with a bounded level of concurrency.
type Service struct {
	semaphore chan struct{}
}

// NewService constructs a Service and sets up concurrency limits.
func NewService() *Service {
	limit := runtime.NumCPU() * 2
	if limit < 4 {
		limit = 4
	}
	if limit > 32 {
		limit = 32
	}

	// Counting semaphore: the channel starts full with 'limit' tokens.
	semaphore := make(chan struct{}, limit)
	for i := 0; i < limit; i++ {
		semaphore <- struct{}{}
	}

	return &Service{semaphore: semaphore}
}

func (s *Service) acquireSemaphore() {
	<-s.semaphore
}

func (s *Service) releaseSemaphore() {
	s.semaphore <- struct{}{}
}

// RunGit executes a git command and returns its trimmed stdout. Exit codes
// listed in okReturncodes are treated as success with empty output.
func (s *Service) RunGit(ctx context.Context, args []string, cwd string, okReturncodes []int) (string, error) {
	if len(args) == 0 || args[0] != "git" {
		return "", fmt.Errorf("unsupported command %q", strings.Join(args, " "))
	}
	command := strings.Join(args, " ")
	log.Printf("run: %s (cwd=%s)", command, cwd)

	s.acquireSemaphore()
	defer s.releaseSemaphore()

	// #nosec G204 -- arguments come from internal logic and are not shell interpolated
	cmd := execCommand(ctx, "git", args[1:]...)
	if cwd != "" {
		cmd.Dir = cwd
	}

	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			returnCode := exitError.ExitCode()
			if slices.Contains(okReturncodes, returnCode) {
				return "", nil
			}
			stderr := strings.TrimSpace(string(exitError.Stderr))
			log.Printf("error: %s (exit %d): %s", command, returnCode, stderr)
			if stderr != "" {
				return "", fmt.Errorf("%s: %s", command, stderr)
			}
			return "", fmt.Errorf("%s: exit %d", command, returnCode)
		}
		log.Printf("error: %s: %v", command, err)
		return "", fmt.Errorf("%s: %w", command, err)
	}

	return strings.TrimSpace(string(output)), nil
}

// LocalStatus runs `git status --porcelain=v2 --branch` for the worktree at
// path and parses files, own ahead/behind counts and the conflict flag.
func (s *Service) LocalStatus(ctx context.Context, path string) (models.LocalStatus, error) {
	raw, err := s.RunGit(ctx, []string{"git", "status", "--porcelain=v2", "--branch"}, path, []int{0})
	if err != nil {
		return models.LocalStatus{}, err
	}

	var st models.LocalStatus
	for _, line := range strings.Split(raw, "\n") {
		switch {
		case strings.HasPrefix(line, "# branch.head "):
			st.Branch = strings.TrimPrefix(line, "# branch.head ")
		case strings.HasPrefix(line, "# branch.ab "):
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				st.Ahead, _ = strconv.Atoi(strings.TrimPrefix(parts[2], "+"))
				st.Behind, _ = strconv.Atoi(strings.TrimPrefix(parts[3], "-"))
			}
		case strings.HasPrefix(line, "? "):
			st.Files = append(st.Files, models.StatusFile{
				Filename:    strings.TrimPrefix(line, "? "),
				Status:      "??",
				IsUntracked: true,
			})
		case strings.HasPrefix(line, "u "):
			// Unmerged entry: <u> <XY> <sub> <m1..m3> <mW> <h1..h3> <path>
			st.HasConflicts = true
			parts := strings.SplitN(line, " ", 11)
			if len(parts) == 11 {
				st.Files = append(st.Files, models.StatusFile{
					Filename: parts[10],
					Status:   parts[1],
				})
			}
		case strings.HasPrefix(line, "1 "), strings.HasPrefix(line, "2 "):
			// "1 XY sub mH mI mW hH hI <path>", or for renames and copies
			// "2 XY sub mH mI mW hH hI Xscore <path>\t<origPath>". The path
			// starts after a fixed number of space-separated fields and may
			// itself contain spaces.
			fields := 9
			if strings.HasPrefix(line, "2 ") {
				fields = 10
			}
			parts := strings.SplitN(line, " ", fields)
			if len(parts) != fields {
				continue
			}
			xy := parts[1]
			if len(xy) < 2 {
				continue
			}
			filename, _, _ := strings.Cut(parts[fields-1], "\t")
			if xy[0] != '.' {
				st.StagedFiles = append(st.StagedFiles, models.StatusFile{Filename: filename, Status: xy})
			}
			if xy[1] != '.' {
				st.Files = append(st.Files, models.StatusFile{Filename: filename, Status: xy})
			}
		}
	}

	return st, nil
}

// UpstreamBranch returns the upstream tracking branch of the worktree's
// current branch, or "" when none is configured.
func (s *Service) UpstreamBranch(ctx context.Context, path string) (string, error) {
	// Exit 128 means no upstream configured (or detached HEAD).
	out, err := s.RunGit(ctx, []string{
		"git", "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{upstream}",
	}, path, []int{0, 128})
	if err != nil {
		return "", err
	}
	return out, nil
}

// RemoteDefaultBranch returns the remote HEAD branch (e.g. "origin/main"),
// or "" when origin/HEAD is not set.
func (s *Service) RemoteDefaultBranch(ctx context.Context, path string) (string, error) {
	out, err := s.RunGit(ctx, []string{
		"git", "symbolic-ref", "--short", "refs/remotes/origin/HEAD",
	}, path, []int{0, 1, 128})
	if err != nil {
		return "", err
	}
	return out, nil
}

// LocalDefaultBranch probes for a conventional default branch ("main", then
// "master"), returning "" when neither exists.
func (s *Service) LocalDefaultBranch(ctx context.Context, path string) (string, error) {
	for _, candidate := range []string{"main", "master"} {
		out, err := s.RunGit(ctx, []string{
			"git", "rev-parse", "--verify", "--quiet", "refs/heads/" + candidate,
		}, path, []int{0, 1})
		if err != nil {
			return "", err
		}
		if out != "" {
			return candidate, nil
		}
	}
	return "", nil
}

// AheadBehind counts commits unique to HEAD (ahead) and unique to base
// (behind) for the worktree at path.
func (s *Service) AheadBehind(ctx context.Context, path, base string) (ahead, behind int, err error) {
	out, err := s.RunGit(ctx, []string{
		"git", "rev-list", "--left-right", "--count", base + "...HEAD",
	}, path, []int{0})
	if err != nil {
		return 0, 0, err
	}

	parts := strings.Fields(out)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", out)
	}
	behind, _ = strconv.Atoi(parts[0])
	ahead, _ = strconv.Atoi(parts[1])
	return ahead, behind, nil
}

// ConflictOperation reports the multi-step operation in progress for the
// worktree at path, determined from the git-dir state files.
func (s *Service) ConflictOperation(ctx context.Context, path string) (models.ConflictOperation, error) {
	gitDir, err := s.RunGit(ctx, []string{"git", "rev-parse", "--absolute-git-dir"}, path, []int{0})
	if err != nil {
		return models.OpNone, err
	}

	exists := func(name string) bool {
		_, statErr := os.Stat(filepath.Join(gitDir, name))
		return statErr == nil
	}

	switch {
	case exists("rebase-merge"), exists("rebase-apply"):
		return models.OpRebase, nil
	case exists("MERGE_HEAD"):
		return models.OpMerge, nil
	case exists("CHERRY_PICK_HEAD"):
		return models.OpCherryPick, nil
	case exists("REVERT_HEAD"):
		return models.OpRevert, nil
	}
	return models.OpNone, nil
}

// CommonDir resolves the git common directory for the repository containing
// path (the shared .git directory for all worktrees).
func (s *Service) CommonDir(ctx context.Context, path string) (string, error) {
	commonDir, err := s.RunGit(ctx, []string{"git", "rev-parse", "--git-common-dir"}, path, []int{0})
	if err != nil {
		return "", err
	}
	if commonDir == "" {
		return "", fmt.Errorf("unable to resolve git common dir for %s", path)
	}
	if filepath.IsAbs(commonDir) {
		return commonDir, nil
	}

	root, err := s.RunGit(ctx, []string{"git", "rev-parse", "--show-toplevel"}, path, []int{0})
	if err == nil && root != "" {
		return filepath.Join(root, commonDir), nil
	}
	if abs, err := filepath.Abs(commonDir); err == nil {
		return abs, nil
	}
	return commonDir, nil
}

// ListWorktrees parses `git worktree list --porcelain` into path/branch
// pairs. The first entry is the main worktree.
func (s *Service) ListWorktrees(ctx context.Context, path string) ([]models.Worktree, error) {
	raw, err := s.RunGit(ctx, []string{"git", "worktree", "list", "--porcelain"}, path, []int{0})
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return []models.Worktree{}, nil
	}

	var wts []models.Worktree
	var current *models.Worktree

	for line := range strings.SplitSeq(raw, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			if current != nil {
				wts = append(wts, *current)
			}
			current = &models.Worktree{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "branch "):
			if current != nil {
				branch := strings.TrimPrefix(line, "branch ")
				current.Branch = strings.TrimPrefix(branch, "refs/heads/")
			}
		}
	}
	if current != nil {
		wts = append(wts, *current)
	}

	for i := range wts {
		wts[i].IsMain = i == 0
	}
	return wts, nil
}
