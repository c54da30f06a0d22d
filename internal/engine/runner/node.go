package runner

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/themperek/rig/internal/adapters/envvar"
	"github.com/themperek/rig/internal/adapters/fetch"
	"github.com/themperek/rig/internal/adapters/logger"
	"github.com/themperek/rig/internal/adapters/shell"
	"github.com/themperek/rig/internal/adapters/state"
	"github.com/themperek/rig/internal/adapters/telemetry"
	"github.com/themperek/rig/internal/core/ports"
)

// NodeID is the unique identifier for the runner Graft node.
const NodeID graft.ID = "engine.runner"

func init() {
	graft.Register(graft.Node[*Runner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			shell.NodeID,
			fetch.NodeID,
			envvar.NodeID,
			state.NodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Runner, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			fetcher, err := graft.Dep[ports.Fetcher](ctx)
			if err != nil {
				return nil, err
			}
			env, err := graft.Dep[ports.EnvStore](ctx)
			if err != nil {
				return nil, err
			}
			store, err := graft.Dep[ports.StateStore](ctx)
			if err != nil {
				return nil, err
			}
			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewRunner(executor, fetcher, env, store, tel, log), nil
		},
	})
}
