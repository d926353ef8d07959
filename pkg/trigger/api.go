// Package trigger implements the result-regeneration pipeline: check out the
// benchmark sources, provision a pinned Python runtime, install the
// generation tool, run it, and persist the produced artifact set.
package trigger

import (
	"context"
	"time"

	"github.com/JeffersGlass/benchmarking/pkg/gitops"
)

// Trigger runs regeneration pipelines
type Trigger interface {
	Run(ctx context.Context, opts *RunOptions) (*RunRecord, error)
}

// Committer persists the artifact set into the results repository. Satisfied
// by *gitops.Repo.
type Committer interface {
	HasChanges(ctx context.Context, paths []string) (bool, error)
	CommitArtifacts(ctx context.Context, opts *gitops.CommitOptions) (string, error)
}

// RunOptions are the caller-supplied parameters of one run. Both flags
// default to false and are independent of each other.
type RunOptions struct {
	// Force makes the generation tool recompute outputs even when they
	// already exist.
	Force bool `json:"force"`

	// DryRun performs generation but suppresses persistence entirely.
	DryRun bool `json:"dry_run"`

	// Actor is the identity the resulting commit is attributed to.
	Actor string `json:"actor,omitempty"`
}

// Status of a run or a step
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// StepResult records the outcome of one pipeline step
type StepResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	ExitCode  int           `json:"exit_code,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// RunRecord is the full account of one regeneration run
type RunRecord struct {
	ID         string       `json:"id"`
	Options    RunOptions   `json:"options"`
	Status     Status       `json:"status"`
	Steps      []StepResult `json:"steps"`
	Commit     string       `json:"commit,omitempty"`
	// CommitSkipped is set when persistence ran but the artifact set was
	// already up to date.
	CommitSkipped bool `json:"commit_skipped,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}
