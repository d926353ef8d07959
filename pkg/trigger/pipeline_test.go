package trigger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/JeffersGlass/benchmarking/pkg/config"
	"github.com/JeffersGlass/benchmarking/pkg/gitops"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func testPipeline() *Pipeline {
	return &Pipeline{
		cfg:    config.Default(),
		logger: testLogger(),
	}
}

func stepNames(steps []step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.name
	}
	return names
}

func TestGenerateCommandForceFlag(t *testing.T) {
	withForce := GenerateCommand(true)
	if withForce[len(withForce)-1] != "--force" {
		t.Errorf("force=true should append --force, got %v", withForce)
	}

	withoutForce := GenerateCommand(false)
	for _, arg := range withoutForce {
		if arg == "--force" {
			t.Errorf("force=false must not pass --force, got %v", withoutForce)
		}
	}
}

func TestStepPlanOrdering(t *testing.T) {
	p := testPipeline()
	names := stepNames(p.steps(&RunOptions{}, &runState{}))

	expected := []string{
		"checkout-sources",
		"provision-runtime",
		"install-dependencies",
		"generate-results",
		"export-artifacts",
		"commit-results",
	}
	if len(names) != len(expected) {
		t.Fatalf("expected %d steps, got %d: %v", len(expected), len(names), names)
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("step %d: expected %s, got %s", i, name, names[i])
		}
	}
}

func TestDryRunPlansNoCommitStep(t *testing.T) {
	p := testPipeline()

	for _, force := range []bool{false, true} {
		names := stepNames(p.steps(&RunOptions{DryRun: true, Force: force}, &runState{}))
		for _, name := range names {
			if name == "commit-results" {
				t.Errorf("dry run (force=%v) must not plan a commit step", force)
			}
		}
		if names[len(names)-1] != "export-artifacts" {
			t.Errorf("dry run should end at export, got %v", names)
		}
	}
}

func TestRunStepsAbortsOnFirstFailure(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	steps := []step{
		{name: "one", fn: func(ctx context.Context) error {
			order = append(order, "one")
			return nil
		}},
		{name: "two", fn: func(ctx context.Context) error {
			order = append(order, "two")
			return boom
		}},
		{name: "three", fn: func(ctx context.Context) error {
			order = append(order, "three")
			return nil
		}},
	}

	rec := &RunRecord{ID: "test"}
	err := runSteps(context.Background(), testLogger(), rec, steps)
	if !errors.Is(err, boom) {
		t.Fatalf("expected step error, got %v", err)
	}

	if strings.Join(order, ",") != "one,two" {
		t.Errorf("steps after a failure must not run, executed: %v", order)
	}

	if len(rec.Steps) != 2 {
		t.Fatalf("expected 2 recorded steps, got %d", len(rec.Steps))
	}
	if rec.Steps[0].Status != StatusSucceeded {
		t.Errorf("first step should be recorded as succeeded")
	}
	if rec.Steps[1].Status != StatusFailed {
		t.Errorf("failing step should be recorded as failed")
	}
}

type recordingCommitter struct {
	changes bool
	commits []*gitops.CommitOptions
}

func (c *recordingCommitter) HasChanges(ctx context.Context, paths []string) (bool, error) {
	return c.changes, nil
}

func (c *recordingCommitter) CommitArtifacts(ctx context.Context, opts *gitops.CommitOptions) (string, error) {
	c.commits = append(c.commits, opts)
	return "abc1234", nil
}

func TestCommitStagesExactArtifactSet(t *testing.T) {
	committer := &recordingCommitter{changes: true}
	p := testPipeline()
	p.repo = committer

	state := &runState{}
	if err := p.commit(context.Background(), state, "octocat"); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if len(committer.commits) != 1 {
		t.Fatalf("expected exactly one commit, got %d", len(committer.commits))
	}
	opts := committer.commits[0]
	if opts.Actor != "octocat" {
		t.Errorf("commit should be attributed to the actor, got %q", opts.Actor)
	}

	want := map[string]bool{
		"results":           true,
		"README.md":         true,
		"RESULTS.md":        true,
		"longitudinal.png":  true,
		"longitudinal.json": true,
		"profiling.png":     true,
		"profiling.md":      true,
	}
	if len(opts.Paths) != len(want) {
		t.Fatalf("expected %d staged paths, got %v", len(want), opts.Paths)
	}
	for _, path := range opts.Paths {
		if !want[path] {
			t.Errorf("unexpected staged path %q", path)
		}
	}

	if state.commit != "abc1234" {
		t.Errorf("commit hash not recorded, got %q", state.commit)
	}
}

func TestCommitSkipsCleanTree(t *testing.T) {
	committer := &recordingCommitter{changes: false}
	p := testPipeline()
	p.repo = committer

	state := &runState{}
	if err := p.commit(context.Background(), state, "octocat"); err != nil {
		t.Fatalf("clean tree should not error: %v", err)
	}
	if len(committer.commits) != 0 {
		t.Errorf("clean tree must not produce a commit")
	}
	if !state.skipped {
		t.Errorf("skip should be recorded")
	}
}

func TestNewPipelineRequiresDaggerClient(t *testing.T) {
	_, err := NewPipeline(nil, config.Default(), nil, testLogger())
	if !errors.Is(err, ErrNoDaggerClient) {
		t.Errorf("expected ErrNoDaggerClient, got %v", err)
	}
}
