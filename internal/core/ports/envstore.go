package ports

import "github.com/themperek/rig/internal/core/domain"

// EnvStore is the environment mutation boundary. The engine computes the
// desired new value; reading and writing the variable is delegated here.
//
//go:generate go run go.uber.org/mock/mockgen -source=envstore.go -destination=mocks/mock_envstore.go -package=mocks
type EnvStore interface {
	// Get returns the variable's current value in the given scope, or ""
	// when unset.
	Get(scope domain.EnvScope, name string) (string, error)

	// Set writes the variable in the given scope. Op tells the store whether
	// value is a whole value or a list extension: for machine scope the
	// persisted profile line must compose with the login value on append and
	// prepend, not overwrite it. Machine scope requires elevated privilege;
	// without it Set returns domain.ErrPrivilege before anything is written.
	Set(scope domain.EnvScope, name, value string, op domain.EnvOp) error
}
