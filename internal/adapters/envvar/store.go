// Package envvar provides the environment mutation boundary adapter.
package envvar

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/themperek/rig/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultProfilePath is where machine-scoped mutations are persisted: a
// managed shell profile fragment sourced by login shells.
const DefaultProfilePath = "/etc/profile.d/rig.sh"

const profileHeader = "# Managed by rig. Do not edit; changes are overwritten.\n"

// Store implements ports.EnvStore. Process scope reads and writes the
// current process environment; machine scope reads and writes the managed
// profile fragment.
type Store struct {
	profilePath string
}

// NewStore creates a Store persisting machine-scoped variables at the
// default profile path.
func NewStore() *Store {
	return NewStoreWithProfile(DefaultProfilePath)
}

// NewStoreWithProfile creates a Store with an explicit profile fragment
// path. Used by tests and by deployments with a non-standard profile dir.
func NewStoreWithProfile(path string) *Store {
	return &Store{profilePath: path}
}

// Get returns the variable's current value in the given scope. For machine
// scope that is the managed value only, never the surrounding login
// environment: reads and writes must agree on what rig owns.
func (s *Store) Get(scope domain.EnvScope, name string) (string, error) {
	switch scope {
	case domain.ScopeProcess:
		return os.Getenv(name), nil
	case domain.ScopeMachine:
		vars, err := s.readProfile()
		if err != nil {
			return "", err
		}
		return vars[name].value, nil
	}
	return "", zerr.With(zerr.New("unknown environment scope"), "scope", string(scope))
}

// Set writes the variable in the given scope. For machine scope the op
// decides how the persisted export line relates to the login value: append
// and prepend emit a line that extends $NAME, replace emits the value
// verbatim. The privilege check happens before anything is touched; an
// unprivileged call fails with domain.ErrPrivilege and leaves the profile
// unchanged.
func (s *Store) Set(scope domain.EnvScope, name, value string, op domain.EnvOp) error {
	switch scope {
	case domain.ScopeProcess:
		if err := os.Setenv(name, value); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to set process environment"), "name", name)
		}
		return nil
	case domain.ScopeMachine:
		if err := s.checkPrivilege(); err != nil {
			return err
		}
		return s.writeProfile(name, value, op)
	}
	return zerr.With(zerr.New("unknown environment scope"), "scope", string(scope))
}

// checkPrivilege verifies the profile fragment is writable by this process.
func (s *Store) checkPrivilege() error {
	target := s.profilePath
	if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
		target = filepath.Dir(target)
	}
	if err := syscall.Access(target, 0x2 /* W_OK */); err != nil {
		return zerr.With(zerr.With(domain.ErrPrivilege, "path", s.profilePath), "uid", os.Getuid())
	}
	return nil
}

// profileEntry is one managed variable: the value rig contributed plus the
// op that decides how the emitted export line composes with the login value.
type profileEntry struct {
	value string
	op    domain.EnvOp
}

func (s *Store) readProfile() (map[string]profileEntry, error) {
	vars := make(map[string]profileEntry)
	//nolint:gosec // Path is fixed at construction
	data, err := os.ReadFile(s.profilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return vars, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read profile fragment"), "path", s.profilePath)
	}

	sep := string(os.PathListSeparator)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "export ") {
			continue
		}
		kv := strings.TrimPrefix(line, "export ")
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		raw := strings.Trim(v, `"`)
		ref := "$" + k
		switch {
		case strings.HasSuffix(raw, sep+ref):
			vars[k] = profileEntry{value: strings.TrimSuffix(raw, sep+ref), op: domain.OpPrepend}
		case strings.HasPrefix(raw, ref+sep):
			vars[k] = profileEntry{value: strings.TrimPrefix(raw, ref+sep), op: domain.OpAppend}
		default:
			vars[k] = profileEntry{value: raw, op: domain.OpReplace}
		}
	}
	return vars, nil
}

// exportLine renders one managed variable. List ops keep the login value
// alive by referencing $name; sourcing the fragment must extend PATH, never
// discard what the system already set.
func exportLine(name string, e profileEntry) string {
	sep := string(os.PathListSeparator)
	switch e.op {
	case domain.OpPrepend:
		return fmt.Sprintf("export %s=\"%s%s$%s\"", name, e.value, sep, name)
	case domain.OpAppend:
		return fmt.Sprintf("export %s=\"$%s%s%s\"", name, name, sep, e.value)
	default:
		return fmt.Sprintf("export %s=%q", name, e.value)
	}
}

// writeProfile rewrites the whole managed fragment atomically with the
// updated variable. Keys are emitted sorted so the file is stable across
// runs.
func (s *Store) writeProfile(name, value string, op domain.EnvOp) error {
	vars, err := s.readProfile()
	if err != nil {
		return err
	}
	vars[name] = profileEntry{value: value, op: op}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(profileHeader)
	for _, k := range keys {
		b.WriteString(exportLine(k, vars[k]))
		b.WriteByte('\n')
	}

	dir := filepath.Dir(s.profilePath)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.profilePath)+".tmp-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write profile fragment"), "path", s.profilePath)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(b.String()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, "failed to write profile fragment"), "path", s.profilePath)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, "failed to write profile fragment"), "path", s.profilePath)
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, "failed to write profile fragment"), "path", s.profilePath)
	}
	if err := os.Rename(tmpName, s.profilePath); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, "failed to write profile fragment"), "path", s.profilePath)
	}
	return nil
}
