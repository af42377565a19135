package core

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mark1russell7/ecosys/internal/types"
)

// GitClient handles git command operations. Every method takes the repository
// directory explicitly; two nodes never share a working directory, so the
// executor may call these concurrently across nodes without synchronization.
type GitClient interface {
	Status(ctx context.Context, dir string) (types.GitStatus, error)
	Add(ctx context.Context, dir string, all bool) error
	Commit(ctx context.Context, dir, message string) (string, error)
	Push(ctx context.Context, dir string) error
	Pull(ctx context.Context, dir, remote string, rebase bool) (types.PullInfo, error)
	Clone(ctx context.Context, url, dest, branch string) error
	Checkout(ctx context.Context, dir, ref string) error
	Branches(ctx context.Context, dir string) ([]string, error)
	CurrentBranch(ctx context.Context, dir string) (string, error)
	RemoteURL(ctx context.Context, dir, name string) (string, error)
	Init(ctx context.Context, dir string) error
}

// SystemGitClient implements GitClient by invoking the system git binary
// directly with explicit args (no shell) for cross-platform safety.
type SystemGitClient struct {
	verbose bool
}

// NewSystemGitClient creates a new SystemGitClient.
func NewSystemGitClient(verbose bool) *SystemGitClient {
	return &SystemGitClient{verbose: verbose}
}

// IsGitInstalled reports whether git is on PATH.
func IsGitInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// runGit executes a git command in dir and returns combined stdout+stderr.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return string(out), &TimeoutError{Phase: "git " + args[0], Limit: "configured"}
		}
		return string(out), fmt.Errorf("git %s: %s", args[0], strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Status parses git status --porcelain plus ahead/behind counters.
func (g *SystemGitClient) Status(ctx context.Context, dir string) (types.GitStatus, error) {
	branch, err := g.CurrentBranch(ctx, dir)
	if err != nil {
		return types.GitStatus{}, err
	}

	status := types.GitStatus{Branch: branch}

	// Ahead/behind against upstream; absence of an upstream is not an error.
	if out, err := runGit(ctx, dir, "rev-list", "--left-right", "--count", "@{upstream}...HEAD"); err == nil {
		fields := strings.Fields(strings.TrimSpace(out))
		if len(fields) == 2 {
			status.Behind, _ = strconv.Atoi(fields[0])
			status.Ahead, _ = strconv.Atoi(fields[1])
		}
	}

	out, err := runGit(ctx, dir, "status", "--porcelain")
	if err != nil {
		return types.GitStatus{}, err
	}
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		staged := line[0] != ' ' && line[0] != '?'
		status.Files = append(status.Files, types.GitStatusFile{
			Path:   strings.TrimSpace(line[3:]),
			Status: strings.TrimSpace(line[:2]),
			Staged: staged,
		})
	}
	status.Clean = len(status.Files) == 0
	return status, nil
}

// Add stages changes; all stages everything.
func (g *SystemGitClient) Add(ctx context.Context, dir string, all bool) error {
	args := []string{"add"}
	if all {
		args = append(args, "-A")
	} else {
		args = append(args, ".")
	}
	_, err := runGit(ctx, dir, args...)
	return err
}

// Commit creates a commit and returns its hash.
func (g *SystemGitClient) Commit(ctx context.Context, dir, message string) (string, error) {
	if _, err := runGit(ctx, dir, "commit", "-m", message); err != nil {
		return "", err
	}
	out, err := runGit(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Push pushes the current branch.
func (g *SystemGitClient) Push(ctx context.Context, dir string) error {
	_, err := runGit(ctx, dir, "push")
	return err
}

// Pull pulls from remote, optionally rebasing, and reports how many commits
// arrived.
func (g *SystemGitClient) Pull(ctx context.Context, dir, remote string, rebase bool) (types.PullInfo, error) {
	before, _ := runGit(ctx, dir, "rev-parse", "HEAD")

	args := []string{"pull"}
	if rebase {
		args = append(args, "--rebase")
	}
	if remote != "" {
		args = append(args, remote)
	}
	out, err := runGit(ctx, dir, args...)
	if err != nil {
		return types.PullInfo{}, err
	}

	info := types.PullInfo{FastForward: strings.Contains(out, "Fast-forward")}
	after, _ := runGit(ctx, dir, "rev-parse", "HEAD")
	if b, a := strings.TrimSpace(before), strings.TrimSpace(after); b != "" && a != "" && b != a {
		if countOut, err := runGit(ctx, dir, "rev-list", "--count", b+".."+a); err == nil {
			info.Commits, _ = strconv.Atoi(strings.TrimSpace(countOut))
		}
	}
	return info, nil
}

// Clone clones url into dest, optionally at branch.
func (g *SystemGitClient) Clone(ctx context.Context, url, dest, branch string) error {
	args := []string{"clone"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, url, dest)
	if _, err := runGit(ctx, "", args...); err != nil {
		return &CloneFailedError{URL: url, Cause: err}
	}
	return nil
}

// Checkout checks out a git ref.
func (g *SystemGitClient) Checkout(ctx context.Context, dir, ref string) error {
	_, err := runGit(ctx, dir, "checkout", ref)
	return err
}

// Branches lists local branch names.
func (g *SystemGitClient) Branches(ctx context.Context, dir string) ([]string, error) {
	out, err := runGit(ctx, dir, "branch", "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		if b := strings.TrimSpace(line); b != "" {
			branches = append(branches, b)
		}
	}
	return branches, nil
}

// CurrentBranch returns the checked-out branch name.
func (g *SystemGitClient) CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := runGit(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RemoteURL returns the URL of the named remote.
func (g *SystemGitClient) RemoteURL(ctx context.Context, dir, name string) (string, error) {
	if name == "" {
		name = "origin"
	}
	out, err := runGit(ctx, dir, "remote", "get-url", name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Init initializes a repository.
func (g *SystemGitClient) Init(ctx context.Context, dir string) error {
	_, err := runGit(ctx, dir, "init")
	return err
}
