package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/JeffersGlass/benchmarking/pkg/gitops"
	"github.com/JeffersGlass/benchmarking/pkg/trigger"
)

// MockTrigger is a test implementation of the regeneration trigger
type MockTrigger struct {
	mu     sync.Mutex
	RunErr error
	Runs   []*trigger.RunRecord
	// LastOptions captures what the most recent run was asked to do
	LastOptions *trigger.RunOptions
}

// NewMockTrigger creates a new mock trigger
func NewMockTrigger() *MockTrigger {
	return &MockTrigger{}
}

// Run mock implementation
func (m *MockTrigger) Run(ctx context.Context, opts *trigger.RunOptions) (*trigger.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastOptions = opts
	if m.RunErr != nil {
		return nil, m.RunErr
	}

	rec := &trigger.RunRecord{
		ID:         "test-run",
		Options:    *opts,
		Status:     trigger.StatusSucceeded,
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}
	if !opts.DryRun {
		rec.Commit = "0123456789abcdef0123456789abcdef01234567"
	}
	m.Runs = append(m.Runs, rec)
	return rec, nil
}

// MockCommitter records persistence calls without touching git
type MockCommitter struct {
	mu         sync.Mutex
	Changes    bool
	ChangesErr error
	CommitErr  error
	Commits    []*gitops.CommitOptions
}

// HasChanges mock implementation
func (m *MockCommitter) HasChanges(ctx context.Context, paths []string) (bool, error) {
	if m.ChangesErr != nil {
		return false, m.ChangesErr
	}
	return m.Changes, nil
}

// CommitArtifacts mock implementation
func (m *MockCommitter) CommitArtifacts(ctx context.Context, opts *gitops.CommitOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CommitErr != nil {
		return "", m.CommitErr
	}
	m.Commits = append(m.Commits, opts)
	return "0123456789abcdef0123456789abcdef01234567", nil
}
