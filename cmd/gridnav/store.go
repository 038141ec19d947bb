package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/udisondev/gridnav/internal/db"
	"github.com/udisondev/gridnav/internal/geo"
)

const saveTimeout = 10 * time.Second

// snapshotStore restores grids at startup and saves them after every scan.
// Saves run on their own goroutine, off the tick path.
type snapshotStore struct {
	repo  *db.GridRepository
	saves chan *geo.Grid
}

func newSnapshotStore(repo *db.GridRepository) *snapshotStore {
	return &snapshotStore{repo: repo, saves: make(chan *geo.Grid, 16)}
}

func (s *snapshotStore) restore(ctx context.Context, grids []*geo.Grid) {
	for _, g := range grids {
		snap, err := s.repo.Load(ctx, g.Name())
		if err != nil {
			slog.Warn("grid snapshot unusable", "grid", g.Name(), "error", err)
			continue
		}
		if snap == nil {
			continue
		}
		if err := g.Restore(snap); err != nil {
			slog.Warn("grid snapshot rejected", "grid", g.Name(), "error", err)
			continue
		}
		slog.Info("grid restored", "grid", g.Name(), "nodes", len(snap.Walkable))
	}
}

// enqueue is the scan-done hook. It never blocks the ticking goroutine.
func (s *snapshotStore) enqueue(g *geo.Grid) {
	select {
	case s.saves <- g:
	default:
		slog.Warn("grid snapshot save skipped, queue full", "grid", g.Name())
	}
}

func (s *snapshotStore) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case g := <-s.saves:
			s.save(ctx, g)
		}
	}
}

func (s *snapshotStore) save(ctx context.Context, g *geo.Grid) {
	snap := g.Snapshot()
	if snap == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := s.repo.Save(ctx, g.Name(), snap); err != nil {
		slog.Error("saving grid snapshot", "grid", g.Name(), "error", err)
		return
	}
	slog.Info("grid snapshot saved", "grid", g.Name(), "nodes", len(snap.Walkable))
}
