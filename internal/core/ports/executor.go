// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"github.com/themperek/rig/internal/core/domain"
)

// Executor spawns external processes for installer and command actions.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs argv with the given extra environment entries merged over
	// the process environment ("KEY=VALUE" format, PATH entries prepended).
	//
	// The returned result always carries the exit code and the tail of the
	// combined output, even when err is non-nil. A non-zero exit, a spawn
	// failure, or a context deadline all yield an error; deadline expiry is
	// reported as domain.ErrTimeout and the child process is killed.
	Execute(ctx context.Context, argv []string, env []string, dir string) (domain.CommandResult, error)
}
