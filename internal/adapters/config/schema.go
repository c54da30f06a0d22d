package config

import "gopkg.in/yaml.v3"

// Rigfile represents the structure of the rig.yaml manifest.
// Steps stays a yaml.Node so the loader can walk the mapping in document
// order; registration order is what makes plans deterministic.
type Rigfile struct {
	Version string            `yaml:"version"`
	Env     map[string]string `yaml:"env"`
	Steps   yaml.Node         `yaml:"steps"`
}

// StepDTO represents a step definition in the manifest. Exactly one of the
// action fields (download, installer, env, command) must be set.
type StepDTO struct {
	Download  *DownloadDTO `yaml:"download"`
	Installer *InstallDTO  `yaml:"installer"`
	Env       *EnvDTO      `yaml:"env"`
	Command   []string     `yaml:"command"`
	Needs     []string     `yaml:"needs"`
	Check     *CheckDTO    `yaml:"check"`
	Timeout   string       `yaml:"timeout"`
}

// DownloadDTO describes a download action.
type DownloadDTO struct {
	URL      string `yaml:"url"`
	Dest     string `yaml:"dest"`
	Checksum string `yaml:"checksum"`
}

// InstallDTO describes an installer action.
type InstallDTO struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args"`
}

// EnvDTO describes an environment mutation action.
type EnvDTO struct {
	Name  string `yaml:"name"`
	Op    string `yaml:"op"`
	Value string `yaml:"value"`
	Scope string `yaml:"scope"`
}

// CheckDTO describes a step's idempotency check.
type CheckDTO struct {
	Path    string       `yaml:"path"`
	Env     *EnvProbeDTO `yaml:"env"`
	Command []string     `yaml:"command"`
}

// EnvProbeDTO describes an environment-contains check.
type EnvProbeDTO struct {
	Name     string `yaml:"name"`
	Scope    string `yaml:"scope"`
	Fragment string `yaml:"fragment"`
}
