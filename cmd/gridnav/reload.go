package main

import (
	"log/slog"

	"github.com/udisondev/gridnav/internal/config"
	"github.com/udisondev/gridnav/internal/pathing"
	"github.com/udisondev/gridnav/internal/world"
)

// reloader rebuilds the world when the config or scenario changes.
// Failures are logged and the previous world stays in place.
type reloader struct {
	path  string
	world *world.World
	svc   *pathing.Service
}

func (r *reloader) reload(changed string) {
	slog.Info("reloading", "changed", changed)

	cfg, err := config.Load(r.path)
	if err != nil {
		slog.Error("reload: config rejected", "error", err)
		return
	}
	plan, err := loadPlan(cfg)
	if err != nil {
		slog.Error("reload: scenario rejected", "error", err)
		return
	}

	rescan, err := r.world.Reload(cfg, decorators(plan)...)
	if err != nil {
		slog.Error("reload: world", "error", err)
	}
	for _, g := range rescan {
		r.svc.ScanGrid(g)
	}
	if err := submitPlan(plan, r.svc); err != nil {
		slog.Error("reload: scenario requests", "error", err)
	}
}
