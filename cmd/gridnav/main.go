package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/gridnav/internal/config"
	"github.com/udisondev/gridnav/internal/db"
	"github.com/udisondev/gridnav/internal/geo"
	"github.com/udisondev/gridnav/internal/pathing"
	"github.com/udisondev/gridnav/internal/scenario"
	"github.com/udisondev/gridnav/internal/watch"
	"github.com/udisondev/gridnav/internal/world"
)

const ConfigPath = "config/gridnav.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := config.Path(ConfigPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))
	pathing.EnableDebugLogging(level <= slog.LevelDebug)

	slog.Info("gridnav starting", "config", cfgPath, "grids", len(cfg.Grids), "watch", cfg.Watch)

	plan, err := loadPlan(cfg)
	if err != nil {
		return err
	}
	w, err := world.Build(cfg, decorators(plan)...)
	if err != nil {
		return fmt.Errorf("building world: %w", err)
	}

	var store *snapshotStore
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		version, err := db.RunMigrations(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied", "version", version)

		store = newSnapshotStore(database.Grids())
		store.restore(ctx, w.Grids())
	}

	svc, err := pathing.New(w.Grids(), pathing.Options{
		TickInterval:      cfg.Service.TickInterval,
		ExpansionsPerTick: cfg.Service.ExpansionsPerTick,
		RowsPerTick:       cfg.Service.RowsPerTick,
		MaxExpansions:     cfg.Service.MaxExpansions,
	})
	if err != nil {
		return fmt.Errorf("creating path service: %w", err)
	}
	if store != nil {
		svc.OnScanDone(store.enqueue)
	}
	if err := submitPlan(plan, svc); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := svc.Run(gctx); err != nil && gctx.Err() == nil {
			return fmt.Errorf("path service: %w", err)
		}
		return nil
	})

	if store != nil {
		g.Go(func() error {
			store.run(gctx)
			return nil
		})
	}

	if cfg.Watch {
		watcher, err := watch.New(cfgPath, cfg.Scenario.Script)
		if err != nil {
			return fmt.Errorf("watching config: %w", err)
		}
		r := &reloader{path: cfgPath, world: w, svc: svc}
		g.Go(func() error {
			slog.Info("watching for changes", "files", watcher.Files())
			if err := watcher.Run(gctx, r.reload); err != nil && gctx.Err() == nil {
				return fmt.Errorf("watcher: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	st := svc.Stats()
	slog.Info("gridnav stopped", "delivered", st.Delivered, "failed", st.Failed, "dropped", st.Dropped, "scans", st.Scans)
	return nil
}

func loadPlan(cfg config.Config) (*scenario.Plan, error) {
	if cfg.Scenario.Script == "" {
		return nil, nil
	}
	plan, err := scenario.Load(cfg.Scenario.Script)
	if err != nil {
		return nil, fmt.Errorf("loading scenario: %w", err)
	}
	slog.Info("scenario loaded",
		"script", cfg.Scenario.Script,
		"holes", len(plan.Holes),
		"obstacles", len(plan.Boxes)+len(plan.Circles),
		"requests", len(plan.Requests))
	return plan, nil
}

func decorators(plan *scenario.Plan) []world.Decorator {
	if plan == nil {
		return nil
	}
	return []world.Decorator{plan.Apply}
}

func submitPlan(plan *scenario.Plan, svc *pathing.Service) error {
	if plan == nil {
		return nil
	}
	if err := plan.Submit(svc, logPath); err != nil {
		return fmt.Errorf("submitting scenario: %w", err)
	}
	return nil
}

func logPath(r scenario.Request, p geo.Path) {
	dest, _ := p.Destination()
	slog.Info("path delivered",
		"id", r.ID,
		"grid", p.Grid.Name(),
		"success", p.Success,
		"waypoints", len(p.Waypoints),
		"cost", p.Cost,
		"expanded", p.Expanded,
		"destination", dest)
}
