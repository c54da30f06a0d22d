package telemetry

import (
	"context"
	"io"

	"github.com/themperek/rig/internal/core/ports"
)

// Noop is a Telemetry implementation that records nothing. Used for quiet
// runs and tests.
type Noop struct{}

// NewNoop creates a no-op telemetry recorder.
func NewNoop() ports.Telemetry {
	return Noop{}
}

// Record returns a vertex that discards everything.
func (Noop) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	return ctx, noopVertex{}
}

// Close is a no-op.
func (Noop) Close() error { return nil }

type noopVertex struct{}

func (noopVertex) Stdout() io.Writer { return io.Discard }
func (noopVertex) Stderr() io.Writer { return io.Discard }
func (noopVertex) Cached()           {}
func (noopVertex) Complete(error)    {}
