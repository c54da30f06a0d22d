// Package config provides the manifest loader for rig.
package config

import (
	"os"
	"time"

	"github.com/themperek/rig/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML manifest.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the manifest at path and builds the step registry. Steps are
// registered in document order so the plan's tie-breaking is the order the
// author wrote.
func (l *Loader) Load(path string) (*domain.Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read manifest")
	}

	var rigfile Rigfile
	if err := yaml.Unmarshal(data, &rigfile); err != nil {
		return nil, zerr.Wrap(err, "failed to parse manifest")
	}

	names, dtos, err := decodeSteps(&rigfile.Steps)
	if err != nil {
		return nil, err
	}

	// First pass: collect names so dependency references can be verified
	// before anything is registered.
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}

	reg := domain.NewRegistry()
	for i, name := range names {
		if name == "all" {
			return nil, zerr.With(zerr.New("step name 'all' is reserved"), "step", name)
		}
		for _, dep := range dtos[i].Needs {
			if !known[dep] {
				return nil, zerr.With(zerr.With(domain.ErrUnknownStep, "step", dep), "needed_by", name)
			}
		}
		step, err := buildStep(name, dtos[i])
		if err != nil {
			return nil, err
		}
		if err := reg.Register(step); err != nil {
			return nil, err
		}
	}

	return &domain.Manifest{
		Version:  rigfile.Version,
		Env:      rigfile.Env,
		Registry: reg,
	}, nil
}

// decodeSteps walks the steps mapping node pair by pair, preserving
// document order and rejecting duplicate keys (yaml.v3 would otherwise
// silently keep the last one).
func decodeSteps(node *yaml.Node) ([]string, []StepDTO, error) {
	if node.Kind == 0 || node.IsZero() {
		return nil, nil, zerr.New("manifest declares no steps")
	}
	if node.Kind != yaml.MappingNode {
		return nil, nil, zerr.New("steps must be a mapping of step name to definition")
	}

	seen := make(map[string]bool)
	var names []string
	var dtos []StepDTO
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		name := keyNode.Value
		if seen[name] {
			return nil, nil, zerr.With(domain.ErrDuplicateStep, "step", name)
		}
		seen[name] = true

		var dto StepDTO
		if err := valNode.Decode(&dto); err != nil {
			return nil, nil, zerr.With(zerr.Wrap(err, "invalid step definition"), "step", name)
		}
		names = append(names, name)
		dtos = append(dtos, dto)
	}
	return names, dtos, nil
}

func buildStep(name string, dto StepDTO) (domain.Step, error) {
	action, err := buildAction(name, dto)
	if err != nil {
		return domain.Step{}, err
	}

	step := domain.Step{
		ID:     name,
		Action: action,
		Needs:  dto.Needs,
	}

	if dto.Check != nil {
		step.Check = domain.Check{
			Path:    dto.Check.Path,
			Command: dto.Check.Command,
		}
		if dto.Check.Env != nil {
			step.Check.Env = &domain.EnvProbe{
				Name:     dto.Check.Env.Name,
				Scope:    scopeOrDefault(dto.Check.Env.Scope),
				Fragment: dto.Check.Env.Fragment,
			}
		}
	}

	if dto.Timeout != "" {
		d, err := time.ParseDuration(dto.Timeout)
		if err != nil {
			return domain.Step{}, zerr.With(zerr.Wrap(err, "invalid timeout"), "step", name)
		}
		step.Timeout = d
	}

	return step, nil
}

func buildAction(name string, dto StepDTO) (domain.Action, error) {
	var actions []domain.Action
	if dto.Download != nil {
		actions = append(actions, domain.Action{
			Kind: domain.ActionDownload,
			Download: &domain.Download{
				URL:      dto.Download.URL,
				Dest:     dto.Download.Dest,
				Checksum: dto.Download.Checksum,
			},
		})
	}
	if dto.Installer != nil {
		actions = append(actions, domain.Action{
			Kind: domain.ActionInstaller,
			Installer: &domain.Installer{
				Path: dto.Installer.Path,
				Args: dto.Installer.Args,
			},
		})
	}
	if dto.Env != nil {
		switch domain.EnvOp(dto.Env.Op) {
		case domain.OpAppend, domain.OpPrepend, domain.OpReplace:
		default:
			return domain.Action{}, zerr.With(
				zerr.With(zerr.New("unknown env op, expected append, prepend, or replace"), "op", dto.Env.Op),
				"step", name,
			)
		}
		actions = append(actions, domain.Action{
			Kind: domain.ActionEnv,
			Env: &domain.EnvVarMutation{
				Name:  dto.Env.Name,
				Op:    domain.EnvOp(dto.Env.Op),
				Value: dto.Env.Value,
				Scope: scopeOrDefault(dto.Env.Scope),
			},
		})
	}
	if len(dto.Command) > 0 {
		actions = append(actions, domain.Action{
			Kind:    domain.ActionCommand,
			Command: dto.Command,
		})
	}

	if len(actions) != 1 {
		return domain.Action{}, zerr.With(
			zerr.New("step must declare exactly one action (download, installer, env, or command)"),
			"step", name,
		)
	}
	return actions[0], nil
}

func scopeOrDefault(s string) domain.EnvScope {
	if s == "" {
		return domain.ScopeProcess
	}
	return domain.EnvScope(s)
}
