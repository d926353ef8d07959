// Package gitops persists regeneration output into the results repository.
// All operations shell out to git against a single working copy.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	// ErrNotARepository indicates the configured directory is not a git working copy
	ErrNotARepository = errors.New("not a git repository")

	// ErrNothingStaged indicates the artifact set had no changes to commit
	ErrNothingStaged = errors.New("nothing staged for commit")
)

// CommitOptions configures artifact persistence
type CommitOptions struct {
	// Actor is the identity of whoever triggered the run. It is embedded in
	// the commit message and used as the author.
	Actor string `json:"actor"`

	// Paths is the exact list of repo-relative paths to stage. Nothing
	// outside this list may end up in the commit.
	Paths []string `json:"paths"`
}

// Repo wraps git operations on the results working copy
type Repo struct {
	dir string
}

// New verifies dir is a git working copy and returns a handle to it.
func New(dir string) (*Repo, error) {
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--git-dir")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, dir)
	}
	return &Repo{dir: dir}, nil
}

// Dir returns the working copy path.
func (r *Repo) Dir() string {
	return r.dir
}

// CurrentCommit returns the HEAD commit hash.
func (r *Repo) CurrentCommit(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HasChanges reports whether any of the given paths differ from HEAD,
// including untracked files.
func (r *Repo) HasChanges(ctx context.Context, paths []string) (bool, error) {
	args := append([]string{"status", "--porcelain", "--"}, r.existing(paths)...)
	out, err := r.git(ctx, args...)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// CommitArtifacts stages exactly opts.Paths and creates one commit attributed
// to the triggering actor. Returns the new commit hash, or ErrNothingStaged
// when the artifact set is unchanged.
func (r *Repo) CommitArtifacts(ctx context.Context, opts *CommitOptions) (string, error) {
	if opts == nil || len(opts.Paths) == 0 {
		return "", fmt.Errorf("commit options require a path list")
	}

	actor := opts.Actor
	if actor == "" {
		actor = "unknown"
	}

	present := r.existing(opts.Paths)
	if len(present) == 0 {
		return "", ErrNothingStaged
	}

	addArgs := append([]string{"add", "--"}, present...)
	if _, err := r.git(ctx, addArgs...); err != nil {
		return "", fmt.Errorf("stage artifacts: %w", err)
	}

	staged, err := r.git(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(staged) == "" {
		return "", ErrNothingStaged
	}

	message := fmt.Sprintf("Benchmarking results (via @%s)", actor)
	author := fmt.Sprintf("%s <%s@users.noreply.github.com>", actor, actor)
	if _, err := r.git(ctx, "commit", "-m", message, "--author", author); err != nil {
		return "", fmt.Errorf("commit artifacts: %w", err)
	}

	return r.CurrentCommit(ctx)
}

// existing filters paths down to those present in the working copy. The
// generation step may legitimately omit optional outputs, and git add fails
// on pathspecs that match nothing.
func (r *Repo) existing(paths []string) []string {
	var present []string
	for _, p := range paths {
		if _, err := os.Stat(filepath.Join(r.dir, p)); err == nil {
			present = append(present, p)
		}
	}
	return present
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", r.dir}, args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w\nOutput: %s", strings.Join(args, " "), err, out)
	}
	return string(out), nil
}
