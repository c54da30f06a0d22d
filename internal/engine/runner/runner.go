// Package runner implements the provisioning execution engine.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/themperek/rig/internal/core/domain"
	"github.com/themperek/rig/internal/core/ports"
	"go.trai.ch/zerr"
)

// Policy decides how the engine reacts to a failed step.
type Policy string

const (
	// PolicyStop halts the whole run on the first failed step.
	PolicyStop Policy = "stop"
	// PolicyContinue blocks only the steps that transitively depend on the
	// failed one and continues with the remainder.
	PolicyContinue Policy = "continue"
)

// Options configures one run.
type Options struct {
	// StatePath is the provisioning state file.
	StatePath string
	// Policy is the failure policy; PolicyStop when empty.
	Policy Policy
	// DryRun reports each step's disposition without executing actions or
	// writing state.
	DryRun bool
	// DefaultTimeout applies to steps that declare no timeout of their own.
	// Zero means no limit.
	DefaultTimeout time.Duration
	// Env holds manifest-level environment defaults for executed commands.
	Env map[string]string
}

// Runner walks a plan in dependency order, executing each step's action at
// most once. Execution is strictly sequential: steps share machine-wide
// state (PATH, installation directories) and the order must stay auditable.
type Runner struct {
	executor  ports.Executor
	fetcher   ports.Fetcher
	env       ports.EnvStore
	store     ports.StateStore
	telemetry ports.Telemetry
	logger    ports.Logger
}

// NewRunner creates a new Runner.
func NewRunner(
	executor ports.Executor,
	fetcher ports.Fetcher,
	env ports.EnvStore,
	store ports.StateStore,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Runner {
	return &Runner{
		executor:  executor,
		fetcher:   fetcher,
		env:       env,
		store:     store,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Run executes the plan. All state transitions go through the state store
// before the run proceeds, so an interrupted run resumes from the first
// step without a satisfied record. Cancellation is observed between steps
// only; a step in flight finishes (or times out) first.
func (r *Runner) Run(ctx context.Context, plan *domain.Plan, opts Options) error {
	if opts.Policy == "" {
		opts.Policy = PolicyStop
	}

	state, err := r.store.Load(opts.StatePath)
	if err != nil {
		return err
	}

	if opts.DryRun {
		return r.dryRun(ctx, plan, state, opts)
	}

	extraEnv := buildEnv(opts.Env)
	blocked := make(map[string]struct{})
	var runErrs error
	failed := 0

	for step := range plan.Order() {
		if ctx.Err() != nil {
			return zerr.Wrap(ctx.Err(), "run halted between steps")
		}

		if rec, ok := state.Record(step.ID); ok && rec.Status.Satisfied() {
			r.logger.Info(fmt.Sprintf("step %s already %s, skipping", step.ID, rec.Status))
			continue
		}

		if _, isBlocked := blocked[step.ID]; isBlocked {
			rec := domain.ExecutionRecord{
				StepID:     step.ID,
				Status:     domain.StatusBlocked,
				FinishedAt: time.Now(),
				Error:      "a dependency failed",
			}
			if err := r.persist(opts.StatePath, state, rec); err != nil {
				return err
			}
			r.logger.Warn(fmt.Sprintf("step %s blocked by failed dependency", step.ID))
			continue
		}

		stepCtx, vx := r.telemetry.Record(ctx, step.ID)
		// Cancellation is honored at the top of the loop only. A step in
		// flight must finish: killing an installer halfway leaves the machine
		// in an unknown state. The per-step timeout still applies.
		stepCtx = context.WithoutCancel(stepCtx)

		if r.satisfied(stepCtx, step, extraEnv) {
			rec := domain.ExecutionRecord{
				StepID:     step.ID,
				Status:     domain.StatusSkipped,
				FinishedAt: time.Now(),
			}
			if err := r.persist(opts.StatePath, state, rec); err != nil {
				vx.Complete(err)
				return err
			}
			vx.Cached()
			vx.Complete(nil)
			r.logger.Info(fmt.Sprintf("step %s already satisfied, skipping", step.ID))
			continue
		}

		rec := domain.ExecutionRecord{
			StepID:    step.ID,
			Status:    domain.StatusRunning,
			StartedAt: time.Now(),
		}
		if err := r.persist(opts.StatePath, state, rec); err != nil {
			vx.Complete(err)
			return err
		}

		res, execErr := r.execute(stepCtx, step, opts, extraEnv)
		rec.FinishedAt = time.Now()
		rec.ExitCode = res.ExitCode
		rec.OutputTail = res.OutputTail
		if res.OutputTail != "" {
			_, _ = io.WriteString(vx.Stdout(), res.OutputTail)
		}

		if execErr != nil {
			rec.Status = domain.StatusFailed
			rec.Error = execErr.Error()
			if err := r.persist(opts.StatePath, state, rec); err != nil {
				vx.Complete(err)
				return err
			}
			vx.Complete(execErr)

			stepErr := zerr.With(zerr.Wrap(execErr, "step failed"), "step", step.ID)
			if opts.Policy == PolicyStop {
				return errors.Join(domain.ErrRunFailed, stepErr)
			}

			failed++
			runErrs = errors.Join(runErrs, stepErr)
			for id := range plan.Descendants(step.ID) {
				blocked[id] = struct{}{}
			}
			continue
		}

		rec.Status = domain.StatusSucceeded
		if err := r.persist(opts.StatePath, state, rec); err != nil {
			vx.Complete(err)
			return err
		}
		vx.Complete(nil)
		r.logger.Info(fmt.Sprintf("step %s succeeded", step.ID))
	}

	if failed > 0 {
		return errors.Join(domain.ErrPartialFailure, runErrs)
	}
	return nil
}

// persist routes a transition through the state store and mirrors it into
// the in-memory view. A store failure is fatal: losing provisioning history
// silently is worse than halting.
func (r *Runner) persist(path string, state *domain.State, rec domain.ExecutionRecord) error {
	if err := r.store.RecordTransition(path, rec); err != nil {
		return err
	}
	state.Set(rec)
	return nil
}

// satisfied evaluates the step's idempotency predicate. A probe that
// itself errors counts as unsatisfied: the step then runs, which is safe
// because actions are required to be re-applicable when their predicate is
// inconclusive.
func (r *Runner) satisfied(ctx context.Context, step domain.Step, extraEnv []string) bool {
	check := step.EffectiveCheck()
	switch {
	case check.Path != "":
		_, err := os.Stat(check.Path)
		return err == nil
	case check.Env != nil:
		current, err := r.env.Get(check.Env.Scope, check.Env.Name)
		if err != nil {
			r.logger.Warn(fmt.Sprintf("step %s: env probe failed: %v", step.ID, err))
			return false
		}
		op := check.Env.Op
		if op == "" {
			op = domain.OpAppend
		}
		probe := domain.EnvVarMutation{Op: op, Value: check.Env.Fragment}
		return probe.Contains(current)
	case len(check.Command) > 0:
		res, err := r.executor.Execute(ctx, check.Command, extraEnv, "")
		if err != nil && res.ExitCode <= 0 {
			r.logger.Warn(fmt.Sprintf("step %s: check command failed to run: %v", step.ID, err))
		}
		return err == nil
	}
	return false
}

// execute performs the step's action, applying its timeout.
func (r *Runner) execute(ctx context.Context, step domain.Step, opts Options, extraEnv []string) (domain.CommandResult, error) {
	timeout := step.Timeout
	if timeout == 0 {
		timeout = opts.DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := r.executeAction(ctx, step, extraEnv)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
		err = zerr.With(domain.ErrTimeout, "step", step.ID)
	}
	return res, err
}

func (r *Runner) executeAction(ctx context.Context, step domain.Step, extraEnv []string) (domain.CommandResult, error) {
	switch step.Action.Kind {
	case domain.ActionDownload:
		d := step.Action.Download
		return domain.CommandResult{}, r.fetcher.Fetch(ctx, d.URL, d.Dest, d.Checksum)
	case domain.ActionInstaller:
		inst := step.Action.Installer
		argv := append([]string{inst.Path}, inst.Args...)
		return r.executor.Execute(ctx, argv, extraEnv, "")
	case domain.ActionCommand:
		return r.executor.Execute(ctx, step.Action.Command, extraEnv, "")
	case domain.ActionEnv:
		return domain.CommandResult{}, r.mutateEnv(*step.Action.Env)
	}
	return domain.CommandResult{ExitCode: -1},
		zerr.With(zerr.New("unknown action kind"), "kind", string(step.Action.Kind))
}

// mutateEnv computes the desired new value and delegates the write. The
// computation is pure; the store owns the actual read and write, including
// the privilege check for machine scope.
func (r *Runner) mutateEnv(m domain.EnvVarMutation) error {
	current, err := r.env.Get(m.Scope, m.Name)
	if err != nil {
		return err
	}
	next := m.Apply(current)
	if next == current {
		return nil
	}
	return r.env.Set(m.Scope, m.Name, next, m.Op)
}

// dryRun reports what a run would do without executing anything or
// touching the state file.
func (r *Runner) dryRun(ctx context.Context, plan *domain.Plan, state *domain.State, opts Options) error {
	extraEnv := buildEnv(opts.Env)
	for step := range plan.Order() {
		switch {
		case hasSatisfiedRecord(state, step.ID):
			r.logger.Info(fmt.Sprintf("%s: skip (recorded)", step.ID))
		case r.satisfied(ctx, step, extraEnv):
			r.logger.Info(fmt.Sprintf("%s: skip (already satisfied)", step.ID))
		default:
			r.logger.Info(fmt.Sprintf("%s: run (%s)", step.ID, step.Action.Kind))
		}
	}
	return nil
}

func hasSatisfiedRecord(state *domain.State, id string) bool {
	rec, ok := state.Record(id)
	return ok && rec.Status.Satisfied()
}

// buildEnv flattens the manifest-level env map into "KEY=VALUE" entries in
// a deterministic order.
func buildEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
