package domain

import "path/filepath"

const (
	// RigDirName is the name of the internal metadata directory.
	RigDirName = ".rig"

	// StateFileName is the name of the persisted provisioning state file.
	StateFileName = "state.json"

	// LockFileName is the name of the advisory run lock file.
	LockFileName = "lock"

	// ManifestFileName is the name of the provisioning manifest.
	ManifestFileName = "rig.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStatePath returns the default path of the provisioning state file.
func DefaultStatePath() string {
	return filepath.Join(RigDirName, StateFileName)
}

// LockPath returns the lock file path guarding the given state file.
// The lock lives next to the state so concurrent runs against the same
// state file always contend on the same lock.
func LockPath(statePath string) string {
	return filepath.Join(filepath.Dir(statePath), LockFileName)
}

// Manifest is a loaded provisioning manifest: the step registry plus
// manifest-level environment defaults applied to executed commands.
type Manifest struct {
	Version  string
	Env      map[string]string
	Registry *Registry
}
