package shell_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/themperek/rig/internal/adapters/shell"
	"github.com/themperek/rig/internal/core/domain"
	"github.com/themperek/rig/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newExecutor(t *testing.T) *shell.Executor {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return shell.NewExecutor(logger)
}

func TestExecutor_Execute_Success(t *testing.T) {
	e := newExecutor(t)

	res, err := e.Execute(context.Background(), []string{"sh", "-c", "echo hello"}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.OutputTail, "hello")
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	e := newExecutor(t)

	res, err := e.Execute(context.Background(), []string{"sh", "-c", "echo boom >&2; exit 3"}, nil, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrActionExecution), "expected ErrActionExecution, got %v", err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.OutputTail, "boom")
}

func TestExecutor_Execute_Timeout(t *testing.T) {
	e := newExecutor(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.Execute(ctx, []string{"sleep", "30"}, nil, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTimeout), "expected ErrTimeout, got %v", err)
	assert.Less(t, time.Since(start), 10*time.Second, "child must be killed promptly")
}

func TestExecutor_Execute_MissingBinary(t *testing.T) {
	e := newExecutor(t)

	res, err := e.Execute(context.Background(), []string{"rig-no-such-binary-xyzzy"}, nil, "")
	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
}

func TestExecutor_Execute_EmptyCommand(t *testing.T) {
	e := newExecutor(t)

	_, err := e.Execute(context.Background(), nil, nil, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrActionExecution))
}

func TestExecutor_Execute_ExtraEnv(t *testing.T) {
	e := newExecutor(t)

	res, err := e.Execute(context.Background(),
		[]string{"sh", "-c", "echo $RIG_PROBE"},
		[]string{"RIG_PROBE=42"}, "")
	require.NoError(t, err)
	assert.Contains(t, res.OutputTail, "42")
}

func TestExecutor_Execute_PathPrepend(t *testing.T) {
	// A binary placed in a PATH extension must be found, and the system
	// PATH must still resolve standard tools.
	dir := t.TempDir()
	script := filepath.Join(dir, "rig-probe-tool")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho probed\n"), 0o755))

	e := newExecutor(t)
	res, err := e.Execute(context.Background(),
		[]string{"rig-probe-tool"},
		[]string{"PATH=" + dir}, "")
	require.NoError(t, err)
	assert.Contains(t, res.OutputTail, "probed")

	res, err = e.Execute(context.Background(),
		[]string{"sh", "-c", "echo $PATH"},
		[]string{"PATH=" + dir}, "")
	require.NoError(t, err)
	assert.Contains(t, res.OutputTail, dir+string(os.PathListSeparator),
		"system PATH must be preserved after the extension")
}

func TestExecutor_Execute_WorkingDir(t *testing.T) {
	dir := t.TempDir()
	e := newExecutor(t)

	res, err := e.Execute(context.Background(), []string{"pwd"}, nil, dir)
	require.NoError(t, err)
	assert.Contains(t, res.OutputTail, filepath.Base(dir))
}
