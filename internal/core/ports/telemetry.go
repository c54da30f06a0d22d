package ports

import (
	"context"
	"io"
)

// Telemetry records per-step progress for the run.
//
//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks
type Telemetry interface {
	// Record starts recording a step and returns its vertex.
	Record(ctx context.Context, name string) (context.Context, Vertex)
	// Close flushes and closes the recording session.
	Close() error
}

// Vertex represents one step in the progress display.
type Vertex interface {
	// Stdout returns a writer capturing the step's standard output.
	Stdout() io.Writer
	// Stderr returns a writer capturing the step's error output.
	Stderr() io.Writer
	// Cached marks the step as skipped because its effect was already present.
	Cached()
	// Complete marks the step finished, successfully or with an error.
	Complete(err error)
}
