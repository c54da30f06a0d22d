package envvar_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/themperek/rig/internal/adapters/envvar"
	"github.com/themperek/rig/internal/core/domain"
)

func TestStore_ProcessScope(t *testing.T) {
	store := envvar.NewStore()
	t.Setenv("RIG_TEST_VAR", "before")

	require.NoError(t, store.Set(domain.ScopeProcess, "RIG_TEST_VAR", "after", domain.OpReplace))

	got, err := store.Get(domain.ScopeProcess, "RIG_TEST_VAR")
	require.NoError(t, err)
	assert.Equal(t, "after", got)
}

func TestStore_ProcessScope_Unset(t *testing.T) {
	store := envvar.NewStore()

	got, err := store.Get(domain.ScopeProcess, "RIG_SURELY_UNSET_XYZZY")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_MachineScope_RoundTrip(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "rig.sh")
	store := envvar.NewStoreWithProfile(profile)

	require.NoError(t, store.Set(domain.ScopeMachine, "TOOL_HOME", "/opt/tool", domain.OpReplace))
	require.NoError(t, store.Set(domain.ScopeMachine, "PATH", "/opt/tool/bin", domain.OpPrepend))

	got, err := store.Get(domain.ScopeMachine, "TOOL_HOME")
	require.NoError(t, err)
	assert.Equal(t, "/opt/tool", got)

	// Get returns only the managed value, not the login environment.
	got, err = store.Get(domain.ScopeMachine, "PATH")
	require.NoError(t, err)
	assert.Equal(t, "/opt/tool/bin", got)

	// The fragment is a sourceable shell file. List ops reference the
	// existing value so sourcing extends PATH instead of replacing it.
	data, err := os.ReadFile(profile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `export PATH="/opt/tool/bin:$PATH"`)
	assert.Contains(t, string(data), `export TOOL_HOME="/opt/tool"`)
}

func TestStore_MachineScope_AppendReferencesExisting(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "rig.sh")
	store := envvar.NewStoreWithProfile(profile)

	require.NoError(t, store.Set(domain.ScopeMachine, "PATH", "/opt/iverilog/bin", domain.OpAppend))

	data, err := os.ReadFile(profile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `export PATH="$PATH:/opt/iverilog/bin"`)
}

func TestStore_MachineScope_ManagedValueGrows(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "rig.sh")
	store := envvar.NewStoreWithProfile(profile)

	m := domain.EnvVarMutation{Name: "PATH", Op: domain.OpPrepend, Scope: domain.ScopeMachine}

	// Two runs prepending different fragments accumulate in the managed
	// value; the $PATH reference survives the rewrite.
	for _, frag := range []string{"/opt/a/bin", "/opt/b/bin"} {
		current, err := store.Get(domain.ScopeMachine, "PATH")
		require.NoError(t, err)
		m.Value = frag
		require.NoError(t, store.Set(domain.ScopeMachine, "PATH", m.Apply(current), domain.OpPrepend))
	}

	got, err := store.Get(domain.ScopeMachine, "PATH")
	require.NoError(t, err)
	assert.Equal(t, "/opt/b/bin:/opt/a/bin", got)

	data, err := os.ReadFile(profile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `export PATH="/opt/b/bin:/opt/a/bin:$PATH"`)
}

func TestStore_MachineScope_UnsetReadsEmpty(t *testing.T) {
	store := envvar.NewStoreWithProfile(filepath.Join(t.TempDir(), "rig.sh"))

	got, err := store.Get(domain.ScopeMachine, "NOT_THERE")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_MachineScope_Overwrite(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "rig.sh")
	store := envvar.NewStoreWithProfile(profile)

	require.NoError(t, store.Set(domain.ScopeMachine, "JAVA_HOME", "/opt/jdk17", domain.OpReplace))
	require.NoError(t, store.Set(domain.ScopeMachine, "JAVA_HOME", "/opt/jdk21", domain.OpReplace))

	got, err := store.Get(domain.ScopeMachine, "JAVA_HOME")
	require.NoError(t, err)
	assert.Equal(t, "/opt/jdk21", got)
}

func TestStore_MachineScope_Unprivileged(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("access checks do not constrain root")
	}

	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	store := envvar.NewStoreWithProfile(filepath.Join(dir, "rig.sh"))

	err := store.Set(domain.ScopeMachine, "PATH", "/opt/tool/bin", domain.OpPrepend)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPrivilege), "expected ErrPrivilege, got %v", err)

	_, statErr := os.Stat(filepath.Join(dir, "rig.sh"))
	assert.True(t, os.IsNotExist(statErr), "failed Set must not write anything")
}

func TestStore_UnknownScope(t *testing.T) {
	store := envvar.NewStore()

	_, err := store.Get(domain.EnvScope("user"), "PATH")
	assert.Error(t, err)

	err = store.Set(domain.EnvScope("user"), "PATH", "/x", domain.OpReplace)
	assert.Error(t, err)
}
