// Package app implements the application layer for rig.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/themperek/rig/internal/core/domain"
	"github.com/themperek/rig/internal/core/ports"
	"github.com/themperek/rig/internal/engine/runner"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	locker       ports.Locker
	store        ports.StateStore
	runner       *runner.Runner
	logger       ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	locker ports.Locker,
	store ports.StateStore,
	run *runner.Runner,
	logger ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		locker:       locker,
		store:        store,
		runner:       run,
		logger:       logger,
	}
}

// RunOptions carries the CLI-level parameters of a provisioning run.
type RunOptions struct {
	ConfigPath string
	StatePath  string
	Targets    []string
	Policy     string
	DryRun     bool
	Timeout    time.Duration
}

// Run executes the provisioning plan. Without targets the whole manifest
// runs; with targets, each target plus its transitive dependencies.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	plan, manifest, err := a.load(opts.ConfigPath, opts.Targets)
	if err != nil {
		return err
	}

	policy, err := parsePolicy(opts.Policy)
	if err != nil {
		return err
	}

	statePath := opts.StatePath
	if statePath == "" {
		statePath = domain.DefaultStatePath()
	}

	runOpts := runner.Options{
		StatePath:      statePath,
		Policy:         policy,
		DryRun:         opts.DryRun,
		DefaultTimeout: opts.Timeout,
		Env:            manifest.Env,
	}

	// Dry runs neither execute actions nor write state, so they run
	// freely alongside a live run.
	if opts.DryRun {
		return a.runner.Run(ctx, plan, runOpts)
	}

	if err := os.MkdirAll(filepath.Dir(statePath), domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create state directory")
	}

	release, err := a.locker.Acquire(statePath)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); rerr != nil {
			a.logger.Error(zerr.Wrap(rerr, "failed to release run lock"))
		}
	}()

	if err := a.runner.Run(ctx, plan, runOpts); err != nil {
		return zerr.Wrap(err, "provisioning run failed")
	}
	return nil
}

// Plan prints the execution order together with each step's recorded
// status, without running anything.
func (a *App) Plan(_ context.Context, configPath, statePath string, targets []string) error {
	plan, _, err := a.load(configPath, targets)
	if err != nil {
		return err
	}

	if statePath == "" {
		statePath = domain.DefaultStatePath()
	}
	state, err := a.store.Load(statePath)
	if err != nil {
		return err
	}

	pos := 0
	for step := range plan.Order() {
		pos++
		status := domain.StatusPending
		if rec, ok := state.Record(step.ID); ok {
			status = rec.Status
		}
		a.logger.Info(fmt.Sprintf("%3d. %-30s %-12s %s", pos, step.ID, step.Action.Kind, status))
	}
	return nil
}

// Clean removes the persisted provisioning state and its lock, so the next
// run starts from scratch. The manifest and any provisioned artifacts are
// untouched.
func (a *App) Clean(statePath string) error {
	if statePath == "" {
		statePath = domain.DefaultStatePath()
	}
	for _, path := range []string{statePath, domain.LockPath(statePath)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return zerr.Wrap(err, "failed to remove state")
		}
	}
	a.logger.Info("provisioning state removed")
	return nil
}

// load reads the manifest, validates the dependency relation, and narrows
// the plan to the requested targets.
func (a *App) load(configPath string, targets []string) (*domain.Plan, *domain.Manifest, error) {
	if configPath == "" {
		configPath = domain.ManifestFileName
	}
	manifest, err := a.configLoader.Load(configPath)
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to load configuration")
	}

	plan, err := domain.NewPlan(manifest.Registry)
	if err != nil {
		return nil, nil, err
	}

	if len(targets) > 0 {
		plan, err = plan.Restrict(targets)
		if err != nil {
			return nil, nil, err
		}
	}
	return plan, manifest, nil
}

func parsePolicy(s string) (runner.Policy, error) {
	switch s {
	case "", string(runner.PolicyStop):
		return runner.PolicyStop, nil
	case string(runner.PolicyContinue):
		return runner.PolicyContinue, nil
	}
	return "", zerr.With(zerr.New("unknown failure policy, expected stop or continue"), "policy", s)
}
