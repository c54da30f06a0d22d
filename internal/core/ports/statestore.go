package ports

import "github.com/themperek/rig/internal/core/domain"

// StateStore persists provisioning state so re-runs are idempotent and an
// interrupted run can resume. All methods take the state file path
// explicitly; the store itself is stateless.
//
//go:generate go run go.uber.org/mock/mockgen -source=statestore.go -destination=mocks/mock_statestore.go -package=mocks
type StateStore interface {
	// Load returns the persisted state, or an empty state on first run.
	Load(path string) (*domain.State, error)

	// Save writes the whole state atomically (temp file, then rename).
	Save(path string, state *domain.State) error

	// RecordTransition updates one step's record and persists immediately.
	// Durability over throughput: provisioning runs are long and rare, and
	// resumability is the point of this component.
	RecordTransition(path string, rec domain.ExecutionRecord) error
}
