// Package dashboard assembles the runnable ridertrack process.
package dashboard

import (
	"context"

	"github.com/autopeer-io/ridertrack/internal/dashboard/server"
	"github.com/autopeer-io/ridertrack/internal/fleet/engine"
)

type Dashboard struct {
	engine  *engine.Engine
	manager *server.Manager
}

// Engine returns the tick engine, e.g. to apply reloaded tuning.
func (d *Dashboard) Engine() *engine.Engine { return d.engine }

// Run blocks until ctx is cancelled or a server fails.
func (d *Dashboard) Run(ctx context.Context) error {
	return d.manager.Start(ctx)
}
