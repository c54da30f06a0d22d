package domain

import (
	"os"
	"strings"
)

// EnvScope declares the visibility of an environment mutation.
type EnvScope string

const (
	// ScopeProcess mutates the current process environment only.
	ScopeProcess EnvScope = "process"
	// ScopeMachine persists the mutation machine-wide. Requires elevated
	// privilege; without it the mutation fails, it is never downgraded.
	ScopeMachine EnvScope = "machine"
)

// EnvOp is the mutation operation.
type EnvOp string

const (
	// OpAppend adds the fragment at the end of the list value.
	OpAppend EnvOp = "append"
	// OpPrepend adds the fragment at the front of the list value.
	OpPrepend EnvOp = "prepend"
	// OpReplace replaces the whole value.
	OpReplace EnvOp = "replace"
)

// EnvVarMutation is a desired change to one environment variable. Applying
// it is a pure computation; reading and writing the variable is delegated to
// the environment store.
type EnvVarMutation struct {
	Name  string
	Op    EnvOp
	Value string
	Scope EnvScope
}

// Apply computes the new value from the current one. Append and prepend
// treat the value as an os.PathListSeparator-joined list and are idempotent:
// a fragment already present is not added again.
func (m EnvVarMutation) Apply(current string) string {
	switch m.Op {
	case OpReplace:
		return m.Value
	case OpPrepend:
		if m.Contains(current) {
			return current
		}
		if current == "" {
			return m.Value
		}
		return m.Value + string(os.PathListSeparator) + current
	case OpAppend:
		if m.Contains(current) {
			return current
		}
		if current == "" {
			return m.Value
		}
		return current + string(os.PathListSeparator) + m.Value
	}
	return current
}

// Contains reports whether the mutation's effect is already present in the
// current value. For replace that means the value matches exactly; for
// append and prepend it means the fragment is a list element.
func (m EnvVarMutation) Contains(current string) bool {
	if m.Op == OpReplace {
		return current == m.Value
	}
	for _, elem := range strings.Split(current, string(os.PathListSeparator)) {
		if elem == m.Value {
			return true
		}
	}
	return false
}
