// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/themperek/rig/internal/adapters/config"
	_ "github.com/themperek/rig/internal/adapters/envvar"
	_ "github.com/themperek/rig/internal/adapters/fetch"
	_ "github.com/themperek/rig/internal/adapters/logger"
	_ "github.com/themperek/rig/internal/adapters/shell"
	_ "github.com/themperek/rig/internal/adapters/state"
	_ "github.com/themperek/rig/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "github.com/themperek/rig/internal/app"
	_ "github.com/themperek/rig/internal/engine/runner"
)
