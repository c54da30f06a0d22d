// Package domain contains the core domain model for the provisioning step
// graph: steps, actions, execution records, and the dependency plan.
package domain

import "time"

// ActionKind discriminates the action variants a step can carry.
type ActionKind string

const (
	// ActionDownload fetches a resource to a local path.
	ActionDownload ActionKind = "download"
	// ActionInstaller runs an installer executable.
	ActionInstaller ActionKind = "installer"
	// ActionEnv mutates an environment variable.
	ActionEnv ActionKind = "env"
	// ActionCommand runs an arbitrary command.
	ActionCommand ActionKind = "command"
)

// Download describes a resource fetch. Checksum is optional; when set it
// must be of the form "xxh64:<hex>" and the fetch fails on mismatch.
type Download struct {
	URL      string
	Dest     string
	Checksum string
}

// Installer describes an installer invocation: the executable path plus its
// silent-install arguments.
type Installer struct {
	Path string
	Args []string
}

// Action is a tagged union of the provisioning action variants. Exactly one
// of the variant fields is set, matching Kind.
type Action struct {
	Kind      ActionKind
	Download  *Download
	Installer *Installer
	Env       *EnvVarMutation
	Command   []string
}

// Check is a step's idempotency predicate. The zero value means "no check":
// the step always runs unless the state store already shows it terminal.
// At most one probe is set.
type Check struct {
	// Path is satisfied when the path exists.
	Path string
	// Env is satisfied when the probed variable already contains the fragment.
	Env *EnvProbe
	// Command is satisfied when the command exits zero.
	Command []string
}

// Empty reports whether no probe is configured.
func (c Check) Empty() bool {
	return c.Path == "" && c.Env == nil && len(c.Command) == 0
}

// EnvProbe checks an environment variable for a value fragment. Op decides
// what "present" means: OpReplace requires the whole value to match the
// fragment exactly, the list ops require it as a list element. An empty Op
// is treated as OpAppend.
type EnvProbe struct {
	Name     string
	Scope    EnvScope
	Fragment string
	Op       EnvOp
}

// Step is one unit of provisioning work.
type Step struct {
	ID      string
	Action  Action
	Needs   []string
	Check   Check
	Timeout time.Duration
}

// EffectiveCheck returns the step's idempotency predicate, deriving an
// implicit one where the action itself implies it: an env mutation is
// satisfied when its effect is already present under its own op, and a
// download is satisfied when the destination exists.
func (s Step) EffectiveCheck() Check {
	if !s.Check.Empty() {
		return s.Check
	}
	switch s.Action.Kind {
	case ActionEnv:
		m := s.Action.Env
		return Check{Env: &EnvProbe{Name: m.Name, Scope: m.Scope, Fragment: m.Value, Op: m.Op}}
	case ActionDownload:
		return Check{Path: s.Action.Download.Dest}
	default:
		return Check{}
	}
}

// CommandResult captures what the engine observes about an executed process.
type CommandResult struct {
	ExitCode   int
	OutputTail string
}
