package state

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/themperek/rig/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the state store Graft node.
	NodeID graft.ID = "adapter.state_store"
	// LockerNodeID is the unique identifier for the run locker Graft node.
	LockerNodeID graft.ID = "adapter.locker"
)

func init() {
	graft.Register(graft.Node[ports.StateStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.StateStore, error) {
			return NewStore(), nil
		},
	})

	graft.Register(graft.Node[ports.Locker]{
		ID:        LockerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Locker, error) {
			return NewFileLocker(), nil
		},
	})
}
