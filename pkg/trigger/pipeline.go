package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"dagger.io/dagger"
	"github.com/google/uuid"

	"github.com/JeffersGlass/benchmarking/pkg/artifact"
	"github.com/JeffersGlass/benchmarking/pkg/config"
	"github.com/JeffersGlass/benchmarking/pkg/gitops"
)

const (
	repoMount  = "/repo"
	toolMount  = "/opt/bench_runner"
	suiteMount = "/opt/suites"
)

// hostExcludes keeps repository noise out of the container mount.
var hostExcludes = []string{
	".git/",
	"venv/",
	".venv/",
	"__pycache__/",
	"*.pyc",
}

// Pipeline is the Dagger-backed implementation of Trigger
type Pipeline struct {
	dag    *dagger.Client
	cfg    *config.Config
	repo   Committer
	mirror *artifact.Mirror
	logger *slog.Logger
}

var _ Trigger = (*Pipeline)(nil)

// NewPipeline creates a pipeline bound to one results repository working copy.
func NewPipeline(dag *dagger.Client, cfg *config.Config, repo Committer, logger *slog.Logger) (*Pipeline, error) {
	if dag == nil {
		return nil, ErrNoDaggerClient
	}
	if cfg == nil {
		return nil, config.ErrInvalidConfig
	}
	mirror, err := artifact.NewMirror(cfg.Mirror, logger)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		dag:    dag,
		cfg:    cfg,
		repo:   repo,
		mirror: mirror,
		logger: logger,
	}, nil
}

// GenerateCommand builds the generation invocation. The force flag is
// appended only when requested.
func GenerateCommand(force bool) []string {
	cmd := []string{"python", "-m", "bench_runner", "generate_results"}
	if force {
		cmd = append(cmd, "--force")
	}
	return cmd
}

// step is one sequential stage of the pipeline. Each stage depends on the
// completion of the previous one.
type step struct {
	name string
	fn   func(ctx context.Context) error
}

// runState carries the container under construction between steps
type runState struct {
	sources *dagger.Directory
	tool    *dagger.Directory
	suites  map[string]*dagger.Directory
	ctr     *dagger.Container
	commit  string
	skipped bool
}

// Run executes the regeneration pipeline. Steps run strictly in order and
// the first failure aborts the rest; a commit can only happen as the final
// step, after generation has succeeded.
func (p *Pipeline) Run(ctx context.Context, opts *RunOptions) (*RunRecord, error) {
	if opts == nil {
		opts = &RunOptions{}
	}

	rec := &RunRecord{
		ID:        uuid.NewString(),
		Options:   *opts,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}

	p.logger.Info("starting regeneration run",
		"run", rec.ID,
		"force", opts.Force,
		"dry_run", opts.DryRun,
		"actor", opts.Actor)

	state := &runState{}
	err := runSteps(ctx, p.logger, rec, p.steps(opts, state))

	rec.FinishedAt = time.Now()
	if err != nil {
		rec.Status = StatusFailed
		p.logger.Error("run failed", "run", rec.ID, "error", err)
		return rec, err
	}

	rec.Commit = state.commit
	rec.CommitSkipped = state.skipped
	rec.Status = StatusSucceeded

	// Mirroring sits outside the run contract: a failed upload is reported
	// but never fails a run that has already committed.
	if p.mirror != nil && !opts.DryRun {
		if merr := p.mirror.UploadRun(ctx, rec.ID, p.cfg.RepoDir); merr != nil {
			p.logger.Error("artifact mirror failed", "run", rec.ID, "error", merr)
		}
	}

	p.logger.Info("run succeeded", "run", rec.ID, "commit", rec.Commit)
	return rec, nil
}

// steps assembles the ordered step list for one run. The commit step is only
// planned at all when persistence is wanted.
func (p *Pipeline) steps(opts *RunOptions, state *runState) []step {
	steps := []step{
		{name: "checkout-sources", fn: func(ctx context.Context) error {
			return p.checkout(ctx, state)
		}},
		{name: "provision-runtime", fn: func(ctx context.Context) error {
			return p.provision(ctx, state)
		}},
		{name: "install-dependencies", fn: func(ctx context.Context) error {
			return p.install(ctx, state)
		}},
		{name: "generate-results", fn: func(ctx context.Context) error {
			return p.generate(ctx, state, opts.Force)
		}},
		{name: "export-artifacts", fn: func(ctx context.Context) error {
			return p.export(ctx, state)
		}},
	}
	if !opts.DryRun {
		steps = append(steps, step{name: "commit-results", fn: func(ctx context.Context) error {
			return p.commit(ctx, state, opts.Actor)
		}})
	}
	return steps
}

// runSteps executes steps sequentially, recording each outcome. The first
// failure marks the run failed and skips everything after it.
func runSteps(ctx context.Context, logger *slog.Logger, rec *RunRecord, steps []step) error {
	for _, s := range steps {
		sr := StepResult{Name: s.name, Status: StatusRunning, StartedAt: time.Now()}
		logger.Info("running step", "run", rec.ID, "step", s.name)

		err := s.fn(ctx)
		sr.Duration = time.Since(sr.StartedAt)

		if err != nil {
			sr.Status = StatusFailed
			sr.Error = err.Error()
			var execErr *dagger.ExecError
			if errors.As(err, &execErr) {
				sr.ExitCode = execErr.ExitCode
				sr.Error = summarizeStderr(execErr)
			}
			rec.Steps = append(rec.Steps, sr)
			return err
		}

		sr.Status = StatusSucceeded
		rec.Steps = append(rec.Steps, sr)
		logger.Info("step finished", "run", rec.ID, "step", s.name, "duration", sr.Duration)
	}
	return nil
}

// checkout acquires the working copy plus the three external sources: the
// generation tool at its branch head and the two benchmark suites at their
// pinned commits, passed through from config unchanged.
func (p *Pipeline) checkout(ctx context.Context, state *runState) error {
	state.sources = p.dag.Host().Directory(p.cfg.RepoDir, dagger.HostDirectoryOpts{
		Exclude: hostExcludes,
	})
	if _, err := state.sources.Sync(ctx); err != nil {
		return fmt.Errorf("%w: results repository: %v", ErrCheckoutFailed, err)
	}

	state.tool = p.dag.Git(p.cfg.Tool.URL).Branch(p.cfg.Tool.Branch).Tree()
	if _, err := state.tool.Sync(ctx); err != nil {
		return fmt.Errorf("%w: %s@%s: %v", ErrCheckoutFailed, p.cfg.Tool.URL, p.cfg.Tool.Branch, err)
	}

	state.suites = map[string]*dagger.Directory{}
	for name, ref := range map[string]config.SuiteRef{
		"pyperformance":     p.cfg.Pyperformance,
		"pyston-benchmarks": p.cfg.Pyston,
	} {
		tree := p.dag.Git(ref.URL).Commit(ref.Hash).Tree()
		if _, err := tree.Sync(ctx); err != nil {
			return fmt.Errorf("%w: %s@%s: %v", ErrCheckoutFailed, ref.URL, ref.Hash, err)
		}
		state.suites[name] = tree
	}
	return nil
}

// provision builds the runtime container on the pinned Python minor version
// and mounts every source into place.
func (p *Pipeline) provision(ctx context.Context, state *runState) error {
	ctr := p.dag.Container().
		From("python:"+p.cfg.PythonVersion+"-slim").
		WithWorkdir(repoMount).
		WithDirectory(repoMount, state.sources).
		WithDirectory(toolMount, state.tool).
		WithEnvVariable(config.EnvPyperformanceHash, p.cfg.Pyperformance.Hash).
		WithEnvVariable(config.EnvPystonBenchmarksHash, p.cfg.Pyston.Hash)

	for name, tree := range state.suites {
		ctr = ctr.WithDirectory(suiteMount+"/"+name, tree)
	}

	synced, err := ctr.Sync(ctx)
	if err != nil {
		return fmt.Errorf("%w: python:%s-slim: %v", ErrProvisionFailed, p.cfg.PythonVersion, err)
	}
	state.ctr = synced
	return nil
}

// install pip-installs the generation tool and whatever it declares.
func (p *Pipeline) install(ctx context.Context, state *runState) error {
	ctr := state.ctr.WithExec([]string{"pip", "install", "--quiet", toolMount})
	synced, err := ctr.Sync(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}
	state.ctr = synced
	return nil
}

// generate invokes the external generation command. The command is a black
// box: success is exit 0, anything else aborts the run.
func (p *Pipeline) generate(ctx context.Context, state *runState, force bool) error {
	ctr := state.ctr.WithExec(GenerateCommand(force))
	synced, err := ctr.Sync(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGenerateFailed, err)
	}
	state.ctr = synced
	return nil
}

// export copies the artifact set out of the container back into the working
// copy. The optional profiling pair may be absent when no profiling data
// exists; everything else is required.
func (p *Pipeline) export(ctx context.Context, state *runState) error {
	for _, a := range artifact.Set() {
		src := repoMount + "/" + a.Path
		dst := filepath.Join(p.cfg.RepoDir, a.Path)

		var err error
		if a.Kind == artifact.KindDir {
			_, err = state.ctr.Directory(src).Export(ctx, dst)
		} else {
			_, err = state.ctr.File(src).Export(ctx, dst)
		}
		if err != nil {
			if a.Path == "profiling.png" || a.Path == "profiling.md" {
				continue
			}
			return fmt.Errorf("%w: %s: %v", ErrExportFailed, a.Path, err)
		}
	}

	missing, err := artifact.Verify(p.cfg.RepoDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	for _, m := range missing {
		p.logger.Warn("optional artifact not produced", "path", m)
	}
	return nil
}

// commit stages the fixed artifact set and creates a single commit attributed
// to the actor. A clean tree is recorded as a skip, not a failure.
func (p *Pipeline) commit(ctx context.Context, state *runState, actor string) error {
	paths := artifact.Paths()

	changed, err := p.repo.HasChanges(ctx, paths)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	if !changed {
		p.logger.Info("artifact set unchanged, skipping commit")
		state.skipped = true
		return nil
	}

	commit, err := p.repo.CommitArtifacts(ctx, &gitops.CommitOptions{Actor: actor, Paths: paths})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	state.commit = commit
	return nil
}

func summarizeStderr(execErr *dagger.ExecError) string {
	stderr := strings.TrimSpace(execErr.Stderr)
	if stderr == "" {
		return execErr.Error()
	}
	lines := strings.Split(stderr, "\n")
	if len(lines) > 10 {
		lines = lines[len(lines)-10:]
	}
	return strings.Join(lines, "\n")
}
