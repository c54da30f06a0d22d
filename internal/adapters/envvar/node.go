package envvar

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/themperek/rig/internal/core/ports"
)

// NodeID is the unique identifier for the environment store Graft node.
const NodeID graft.ID = "adapter.env_store"

func init() {
	graft.Register(graft.Node[ports.EnvStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.EnvStore, error) {
			return NewStore(), nil
		},
	})
}
