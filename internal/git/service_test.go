package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chmouel/wtstatus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withFakeGit replaces execCommand so each git invocation runs fn over the
// git arguments (without the leading "git") and prints fn's output.
func withFakeGit(t *testing.T, fn func(args []string) (string, int)) {
	t.Helper()
	orig := execCommand
	execCommand = func(ctx context.Context, _ string, args ...string) *exec.Cmd {
		out, code := fn(args)
		if code != 0 {
			return exec.CommandContext(ctx, "sh", "-c", fmt.Sprintf("exit %d", code))
		}
		return exec.CommandContext(ctx, "printf", "%s", out)
	}
	t.Cleanup(func() { execCommand = orig })
}

func TestRunGitRejectsNonGitCommands(t *testing.T) {
	service := NewService()
	_, err := service.RunGit(context.Background(), []string{"rm", "-rf", "/"}, "", []int{0})
	require.Error(t, err)
}

func TestRunGitAllowsListedExitCodes(t *testing.T) {
	service := NewService()
	withFakeGit(t, func(_ []string) (string, int) { return "", 128 })

	out, err := service.RunGit(context.Background(), []string{"git", "rev-parse", "@{upstream}"}, "", []int{0, 128})
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = service.RunGit(context.Background(), []string{"git", "rev-parse", "@{upstream}"}, "", []int{0})
	require.Error(t, err)
}

func TestLocalStatusParsesPorcelainV2(t *testing.T) {
	fixture := strings.Join([]string{
		"# branch.oid deadbeef",
		"# branch.head feature",
		"# branch.upstream origin/feature",
		"# branch.ab +3 -1",
		"1 M. N... 100644 100644 100644 aaaa bbbb staged.txt",
		"1 .M N... 100644 100644 100644 aaaa bbbb modified.txt",
		"1 .M N... 100644 100644 100644 aaaa bbbb my file.txt",
		"1 MM N... 100644 100644 100644 aaaa bbbb both.txt",
		"2 R. N... 100644 100644 100644 aaaa bbbb R100 newname.txt\toldname.txt",
		"u UU N... 100644 100644 100644 100644 aaaa bbbb cccc conflicted.txt",
		"? untracked.txt",
	}, "\n")

	service := NewService()
	withFakeGit(t, func(args []string) (string, int) {
		require.Equal(t, []string{"status", "--porcelain=v2", "--branch"}, args)
		return fixture, 0
	})

	st, err := service.LocalStatus(context.Background(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "feature", st.Branch)
	assert.Equal(t, 3, st.Ahead)
	assert.Equal(t, 1, st.Behind)
	assert.True(t, st.HasConflicts)

	var stagedNames, changedNames []string
	for _, f := range st.StagedFiles {
		stagedNames = append(stagedNames, f.Filename)
	}
	for _, f := range st.Files {
		changedNames = append(changedNames, f.Filename)
	}
	// The rename entry reports the new path, spaced paths stay whole.
	assert.Equal(t, []string{"staged.txt", "both.txt", "newname.txt"}, stagedNames)
	assert.Equal(t, []string{"modified.txt", "my file.txt", "both.txt", "conflicted.txt", "untracked.txt"}, changedNames)
}

func TestLocalStatusQueryFailure(t *testing.T) {
	service := NewService()
	withFakeGit(t, func(_ []string) (string, int) { return "", 2 })

	_, err := service.LocalStatus(context.Background(), "/wt/feature")
	require.Error(t, err)
}

func TestUpstreamBranch(t *testing.T) {
	service := NewService()
	wt := t.TempDir()

	withFakeGit(t, func(_ []string) (string, int) { return "origin/feature\n", 0 })
	upstream, err := service.UpstreamBranch(context.Background(), wt)
	require.NoError(t, err)
	assert.Equal(t, "origin/feature", upstream)

	// Exit 128 means no upstream configured.
	withFakeGit(t, func(_ []string) (string, int) { return "", 128 })
	upstream, err = service.UpstreamBranch(context.Background(), wt)
	require.NoError(t, err)
	assert.Empty(t, upstream)
}

func TestRemoteDefaultBranch(t *testing.T) {
	service := NewService()
	wt := t.TempDir()

	withFakeGit(t, func(args []string) (string, int) {
		require.Equal(t, []string{"symbolic-ref", "--short", "refs/remotes/origin/HEAD"}, args)
		return "origin/main\n", 0
	})
	base, err := service.RemoteDefaultBranch(context.Background(), wt)
	require.NoError(t, err)
	assert.Equal(t, "origin/main", base)

	withFakeGit(t, func(_ []string) (string, int) { return "", 128 })
	base, err = service.RemoteDefaultBranch(context.Background(), wt)
	require.NoError(t, err)
	assert.Empty(t, base)
}

func TestLocalDefaultBranch(t *testing.T) {
	service := NewService()
	wt := t.TempDir()

	withFakeGit(t, func(args []string) (string, int) {
		if args[len(args)-1] == "refs/heads/main" {
			return "", 1
		}
		return "deadbeef\n", 0
	})
	branch, err := service.LocalDefaultBranch(context.Background(), wt)
	require.NoError(t, err)
	assert.Equal(t, "master", branch)

	withFakeGit(t, func(_ []string) (string, int) { return "", 1 })
	branch, err = service.LocalDefaultBranch(context.Background(), wt)
	require.NoError(t, err)
	assert.Empty(t, branch)
}

func TestAheadBehind(t *testing.T) {
	service := NewService()
	withFakeGit(t, func(args []string) (string, int) {
		require.Equal(t, []string{"rev-list", "--left-right", "--count", "origin/main...HEAD"}, args)
		return "2\t5\n", 0
	})

	ahead, behind, err := service.AheadBehind(context.Background(), t.TempDir(), "origin/main")
	require.NoError(t, err)
	assert.Equal(t, 5, ahead)
	assert.Equal(t, 2, behind)
}

func TestConflictOperation(t *testing.T) {
	gitDir := t.TempDir()
	wt := t.TempDir()
	service := NewService()
	withFakeGit(t, func(args []string) (string, int) {
		require.Equal(t, []string{"rev-parse", "--absolute-git-dir"}, args)
		return gitDir + "\n", 0
	})

	op, err := service.ConflictOperation(context.Background(), wt)
	require.NoError(t, err)
	assert.Equal(t, models.OpNone, op)

	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "MERGE_HEAD"), []byte("deadbeef\n"), 0o600))
	op, err = service.ConflictOperation(context.Background(), wt)
	require.NoError(t, err)
	assert.Equal(t, models.OpMerge, op)

	// An in-progress rebase takes precedence over a leftover MERGE_HEAD.
	require.NoError(t, os.Mkdir(filepath.Join(gitDir, "rebase-merge"), 0o700))
	op, err = service.ConflictOperation(context.Background(), wt)
	require.NoError(t, err)
	assert.Equal(t, models.OpRebase, op)
}

func TestListWorktrees(t *testing.T) {
	fixture := strings.Join([]string{
		"worktree /repo",
		"HEAD deadbeef",
		"branch refs/heads/main",
		"",
		"worktree /repo-wt/feature",
		"HEAD cafecafe",
		"branch refs/heads/feature",
		"",
		"worktree /repo-wt/detached",
		"HEAD beefbeef",
		"detached",
	}, "\n")

	service := NewService()
	withFakeGit(t, func(args []string) (string, int) {
		require.Equal(t, []string{"worktree", "list", "--porcelain"}, args)
		return fixture, 0
	})

	wts, err := service.ListWorktrees(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.Len(t, wts, 3)

	assert.Equal(t, models.Worktree{Path: "/repo", Branch: "main", IsMain: true}, wts[0])
	assert.Equal(t, models.Worktree{Path: "/repo-wt/feature", Branch: "feature"}, wts[1])
	assert.Equal(t, models.Worktree{Path: "/repo-wt/detached"}, wts[2])
}

func TestCommonDirResolvesRelativePaths(t *testing.T) {
	service := NewService()
	withFakeGit(t, func(args []string) (string, int) {
		if args[len(args)-1] == "--git-common-dir" {
			return ".git\n", 0
		}
		return "/repo\n", 0
	})

	dir, err := service.CommonDir(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/repo/.git", dir)
}
