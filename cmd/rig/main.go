// Package main is the entry point for the rig provisioning tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"github.com/themperek/rig/cmd/rig/commands"
	"github.com/themperek/rig/internal/app"
	"github.com/themperek/rig/internal/core/domain"
	_ "github.com/themperek/rig/internal/wiring"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		// Write directly to stderr
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}

	// 2. Interface - CLI
	cli := commands.New(components.App, components.Logger)
	cli.SetArgs(args)

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		// zerr prints a full error report with metadata when using %+v
		_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps a run error to the process exit code. Manifest defects
// (cycles, unresolved or duplicate step identifiers) yield 3, a partial
// failure under the continue policy yields 2, everything else yields 1.
func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrCycle),
		errors.Is(err, domain.ErrUnknownStep),
		errors.Is(err, domain.ErrDuplicateStep):
		return 3
	case errors.Is(err, domain.ErrPartialFailure):
		return 2
	}
	return 1
}
