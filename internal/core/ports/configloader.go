package ports

import "github.com/themperek/rig/internal/core/domain"

// ConfigLoader loads a provisioning manifest into the domain model.
//
//go:generate go run go.uber.org/mock/mockgen -source=configloader.go -destination=mocks/mock_configloader.go -package=mocks
type ConfigLoader interface {
	// Load reads the manifest at path and returns the step registry with
	// manifest-level defaults. Steps are registered in document order.
	Load(path string) (*domain.Manifest, error)
}
