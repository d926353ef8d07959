package gitops

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func gitOrSkip(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	cmd := exec.Command("git", "init", dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git init: %v\n%s", err, out)
	}
	run("config", "user.name", "Test")
	run("config", "user.email", "test@example.com")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNewRejectsNonRepository(t *testing.T) {
	gitOrSkip(t)

	if _, err := New(t.TempDir()); !errors.Is(err, ErrNotARepository) {
		t.Errorf("expected ErrNotARepository, got %v", err)
	}
}

func TestCommitArtifactsTouchesOnlyListedPaths(t *testing.T) {
	gitOrSkip(t)
	ctx := context.Background()
	dir := initRepo(t)

	writeFile(t, dir, "README.md", "# Results\n")
	writeFile(t, dir, "results/bm-20240101-linux-x86_64-python-main-3.13.0a1-abc1234.json", "{}")
	writeFile(t, dir, "untracked-notes.txt", "not part of the artifact set")

	repo, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	paths := []string{"results", "README.md", "RESULTS.md"}

	changed, err := repo.HasChanges(ctx, paths)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected changes before first commit")
	}

	commit, err := repo.CommitArtifacts(ctx, &CommitOptions{Actor: "octocat", Paths: paths})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if len(commit) != 40 {
		t.Errorf("expected a full commit hash, got %q", commit)
	}

	show, err := exec.Command("git", "-C", dir, "show", "--name-only", "--format=%an%n%s", "HEAD").Output()
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(show)), "\n")
	if lines[0] != "octocat" {
		t.Errorf("author should be the actor, got %q", lines[0])
	}
	if lines[1] != "Benchmarking results (via @octocat)" {
		t.Errorf("unexpected commit message %q", lines[1])
	}

	var files []string
	for _, l := range lines[2:] {
		if strings.TrimSpace(l) != "" {
			files = append(files, l)
		}
	}
	for _, f := range files {
		if f == "untracked-notes.txt" {
			t.Errorf("commit must not touch files outside the artifact set: %v", files)
		}
	}
	if len(files) != 2 {
		t.Errorf("expected the 2 existing artifact paths in the commit, got %v", files)
	}
}

func TestCommitArtifactsNothingStaged(t *testing.T) {
	gitOrSkip(t)
	ctx := context.Background()
	dir := initRepo(t)

	writeFile(t, dir, "README.md", "# Results\n")
	repo, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.CommitArtifacts(ctx, &CommitOptions{Actor: "octocat", Paths: []string{"README.md"}}); err != nil {
		t.Fatal(err)
	}

	// Second run with no changes must not create a commit
	_, err = repo.CommitArtifacts(ctx, &CommitOptions{Actor: "octocat", Paths: []string{"README.md"}})
	if !errors.Is(err, ErrNothingStaged) {
		t.Errorf("expected ErrNothingStaged, got %v", err)
	}
}

func TestCommitArtifactsMissingPathsTolerated(t *testing.T) {
	gitOrSkip(t)
	ctx := context.Background()
	dir := initRepo(t)

	writeFile(t, dir, "README.md", "# Results\n")
	repo, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	// profiling outputs may legitimately be absent
	paths := []string{"README.md", "profiling.png", "profiling.md"}
	if _, err := repo.CommitArtifacts(ctx, &CommitOptions{Actor: "octocat", Paths: paths}); err != nil {
		t.Fatalf("missing optional paths should not fail the commit: %v", err)
	}
}

func TestHasChangesCleanAfterCommit(t *testing.T) {
	gitOrSkip(t)
	ctx := context.Background()
	dir := initRepo(t)

	writeFile(t, dir, "README.md", "# Results\n")
	repo, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.CommitArtifacts(ctx, &CommitOptions{Actor: "octocat", Paths: []string{"README.md"}}); err != nil {
		t.Fatal(err)
	}

	changed, err := repo.HasChanges(ctx, []string{"README.md"})
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("tree should be clean after committing")
	}
}
