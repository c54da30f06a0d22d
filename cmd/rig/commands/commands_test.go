package commands_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/themperek/rig/cmd/rig/commands"
	"github.com/themperek/rig/internal/adapters/state"
	"github.com/themperek/rig/internal/adapters/telemetry"
	"github.com/themperek/rig/internal/app"
	"github.com/themperek/rig/internal/core/domain"
	"github.com/themperek/rig/internal/core/ports/mocks"
	"github.com/themperek/rig/internal/engine/runner"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	loader   *mocks.MockConfigLoader
	executor *mocks.MockExecutor
	cli      *commands.CLI
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	f := &fixture{
		loader:   mocks.NewMockConfigLoader(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		dir:      t.TempDir(),
	}
	store := state.NewStore()
	run := runner.NewRunner(
		f.executor,
		mocks.NewMockFetcher(ctrl),
		mocks.NewMockEnvStore(ctrl),
		store,
		telemetry.NewNoop(),
		logger,
	)
	logger.EXPECT().SetJSON(gomock.Any()).AnyTimes()
	f.cli = commands.New(app.New(f.loader, state.NewFileLocker(), store, run, logger), logger)
	return f
}

func (f *fixture) statePath() string {
	return filepath.Join(f.dir, domain.StateFileName)
}

func manifestOf(t *testing.T, steps ...domain.Step) *domain.Manifest {
	t.Helper()
	reg := domain.NewRegistry()
	for _, s := range steps {
		require.NoError(t, reg.Register(s))
	}
	return &domain.Manifest{Version: "1", Registry: reg}
}

func TestRun_Success(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("rig.yaml").Return(manifestOf(t, domain.Step{
		ID:     "hello",
		Action: domain.Action{Kind: domain.ActionCommand, Command: []string{"say-hello"}},
	}), nil)
	f.executor.EXPECT().Execute(gomock.Any(), []string{"say-hello"}, gomock.Any(), "").
		Return(domain.CommandResult{}, nil)

	f.cli.SetArgs([]string{"run", "--state-file", f.statePath()})
	err := f.cli.Execute(context.Background())
	assert.NoError(t, err)
}

func TestRun_ConfigFlag(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("custom.yaml").Return(manifestOf(t, domain.Step{
		ID:     "noop",
		Action: domain.Action{Kind: domain.ActionCommand, Command: []string{"true"}},
	}), nil)
	f.executor.EXPECT().Execute(gomock.Any(), []string{"true"}, gomock.Any(), "").
		Return(domain.CommandResult{}, nil)

	f.cli.SetArgs([]string{"run", "--config", "custom.yaml", "--state-file", f.statePath()})
	err := f.cli.Execute(context.Background())
	assert.NoError(t, err)
}

func TestRun_InvalidPolicy(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("rig.yaml").Return(manifestOf(t, domain.Step{
		ID:     "noop",
		Action: domain.Action{Kind: domain.ActionCommand, Command: []string{"true"}},
	}), nil)

	f.cli.SetArgs([]string{"run", "--policy", "panic", "--state-file", f.statePath()})
	err := f.cli.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown failure policy")
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("rig.yaml").Return(manifestOf(t, domain.Step{
		ID:     "hello",
		Action: domain.Action{Kind: domain.ActionCommand, Command: []string{"say-hello"}},
	}), nil)
	// No executor expectations: nothing runs in a dry run.

	f.cli.SetArgs([]string{"run", "--dry-run", "--state-file", f.statePath()})
	err := f.cli.Execute(context.Background())
	assert.NoError(t, err)
}

func TestPlan(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("rig.yaml").Return(manifestOf(t, domain.Step{
		ID:     "hello",
		Action: domain.Action{Kind: domain.ActionCommand, Command: []string{"say-hello"}},
	}), nil)

	f.cli.SetArgs([]string{"plan", "--state-file", f.statePath()})
	err := f.cli.Execute(context.Background())
	assert.NoError(t, err)
}

func TestClean(t *testing.T) {
	f := newFixture(t)

	f.cli.SetArgs([]string{"clean", "--state-file", f.statePath()})
	err := f.cli.Execute(context.Background())
	assert.NoError(t, err)
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)

	f.cli.SetArgs([]string{"frobnicate"})
	err := f.cli.Execute(context.Background())
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	f := newFixture(t)

	f.cli.SetArgs([]string{"version"})
	require.NoError(t, f.cli.Execute(context.Background()))
}
