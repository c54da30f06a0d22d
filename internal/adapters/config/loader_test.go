package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/themperek/rig/internal/adapters/config"
	"github.com/themperek/rig/internal/core/domain"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), domain.ManifestFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	return path
}

func TestLoader_Load(t *testing.T) {
	path := writeManifest(t, `
version: "1"
env:
  TOOL_HOME: /opt/tool
steps:
  fetch-go:
    download:
      url: https://example.com/go.tgz
      dest: /tmp/go.tgz
      checksum: "xxh64:0011223344556677"
  install-go:
    needs: [fetch-go]
    installer:
      path: /tmp/go.tgz
      args: ["-q"]
    check:
      path: /usr/local/go/bin/go
    timeout: 5m
  path-env:
    needs: [install-go]
    env:
      name: PATH
      op: append
      value: /usr/local/go/bin
      scope: machine
  verify:
    needs: [path-env]
    command: ["go", "version"]
`)

	loader := config.NewLoader()
	manifest, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "1", manifest.Version)
	assert.Equal(t, map[string]string{"TOOL_HOME": "/opt/tool"}, manifest.Env)
	require.Equal(t, 4, manifest.Registry.Len())

	// Document order is registration order.
	var order []string
	for step := range manifest.Registry.Steps() {
		order = append(order, step.ID)
	}
	assert.Equal(t, []string{"fetch-go", "install-go", "path-env", "verify"}, order)

	fetch, err := manifest.Registry.Get("fetch-go")
	require.NoError(t, err)
	require.Equal(t, domain.ActionDownload, fetch.Action.Kind)
	assert.Equal(t, "https://example.com/go.tgz", fetch.Action.Download.URL)
	assert.Equal(t, "xxh64:0011223344556677", fetch.Action.Download.Checksum)

	install, err := manifest.Registry.Get("install-go")
	require.NoError(t, err)
	require.Equal(t, domain.ActionInstaller, install.Action.Kind)
	assert.Equal(t, []string{"-q"}, install.Action.Installer.Args)
	assert.Equal(t, []string{"fetch-go"}, install.Needs)
	assert.Equal(t, "/usr/local/go/bin/go", install.Check.Path)
	assert.Equal(t, 5*time.Minute, install.Timeout)

	env, err := manifest.Registry.Get("path-env")
	require.NoError(t, err)
	require.Equal(t, domain.ActionEnv, env.Action.Kind)
	assert.Equal(t, domain.OpAppend, env.Action.Env.Op)
	assert.Equal(t, domain.ScopeMachine, env.Action.Env.Scope)
}

func TestLoader_Load_DuplicateStep(t *testing.T) {
	path := writeManifest(t, `
version: "1"
steps:
  fetch:
    command: ["true"]
  fetch:
    command: ["false"]
`)

	_, err := config.NewLoader().Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateStep), "expected ErrDuplicateStep, got %v", err)
}

func TestLoader_Load_UnknownDependency(t *testing.T) {
	path := writeManifest(t, `
version: "1"
steps:
  install:
    needs: [ghost]
    command: ["true"]
`)

	_, err := config.NewLoader().Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownStep), "expected ErrUnknownStep, got %v", err)
}

func TestLoader_Load_ExactlyOneAction(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no action", `
steps:
  idle:
    needs: []
`},
		{"two actions", `
steps:
  both:
    command: ["true"]
    download:
      url: https://example.com/x
      dest: /tmp/x
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.body)
			_, err := config.NewLoader().Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoader_Load_UnknownEnvOp(t *testing.T) {
	path := writeManifest(t, `
steps:
  bad-env:
    env:
      name: PATH
      op: concat
      value: /x
`)

	_, err := config.NewLoader().Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown env op")
}

func TestLoader_Load_ReservedName(t *testing.T) {
	path := writeManifest(t, `
steps:
  all:
    command: ["true"]
`)

	_, err := config.NewLoader().Load(path)
	assert.Error(t, err)
}

func TestLoader_Load_InvalidTimeout(t *testing.T) {
	path := writeManifest(t, `
steps:
  slow:
    command: ["true"]
    timeout: fast
`)

	_, err := config.NewLoader().Load(path)
	assert.Error(t, err)
}

func TestLoader_Load_EnvScopeDefaultsToProcess(t *testing.T) {
	path := writeManifest(t, `
steps:
  path-env:
    env:
      name: PATH
      op: prepend
      value: /opt/bin
`)

	manifest, err := config.NewLoader().Load(path)
	require.NoError(t, err)

	step, err := manifest.Registry.Get("path-env")
	require.NoError(t, err)
	assert.Equal(t, domain.ScopeProcess, step.Action.Env.Scope)
}

func TestLoader_Load_MissingFile(t *testing.T) {
	_, err := config.NewLoader().Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoader_Load_NoSteps(t *testing.T) {
	path := writeManifest(t, `version: "1"`)
	_, err := config.NewLoader().Load(path)
	assert.Error(t, err)
}
