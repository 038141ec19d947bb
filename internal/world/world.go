package world

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/udisondev/gridnav/internal/config"
	"github.com/udisondev/gridnav/internal/geo"
	"github.com/udisondev/gridnav/internal/terrain"
)

// Decorator adds geometry to a freshly built field, e.g. a scenario script.
type Decorator func(*terrain.Field) error

// World owns the surfaces and the grids scanned against them.
// Planar grids probe the terrain field, spherical grids the planet.
type World struct {
	field  liveSurface
	planet liveSurface
	grids  []*geo.Grid
}

// liveSurface forwards to a surface that can be swapped on reload while
// grids keep their reference.
type liveSurface struct {
	cur atomic.Pointer[surfaceBox]
}

type surfaceBox struct {
	geo.Surface
}

func (l *liveSurface) store(s geo.Surface) {
	if s == nil {
		l.cur.Store(nil)
		return
	}
	l.cur.Store(&surfaceBox{s})
}

func (l *liveSurface) load() geo.Surface {
	if b := l.cur.Load(); b != nil {
		return b.Surface
	}
	return nil
}

func (l *liveSurface) Raycast(from, to geo.Vec3, mask geo.LayerMask) (geo.Hit, bool) {
	if s := l.load(); s != nil {
		return s.Raycast(from, to, mask)
	}
	return geo.Hit{}, false
}

func (l *liveSurface) CheckSphere(center geo.Vec3, radius float64, mask geo.LayerMask) bool {
	if s := l.load(); s != nil {
		return s.CheckSphere(center, radius, mask)
	}
	return false
}

func (l *liveSurface) Linecast(a, b geo.Vec3, mask geo.LayerMask) bool {
	if s := l.load(); s != nil {
		return s.Linecast(a, b, mask)
	}
	return false
}

// Build creates the surfaces and grids described by cfg. Decorators run on
// the terrain field before any grid is scanned.
func Build(cfg config.Config, decorate ...Decorator) (*World, error) {
	w := &World{}
	if err := w.buildSurfaces(cfg, decorate); err != nil {
		return nil, err
	}

	for _, gc := range cfg.Grids {
		s, err := gc.Settings()
		if err != nil {
			return nil, err
		}
		surface, err := w.surfaceFor(s)
		if err != nil {
			return nil, err
		}
		g, err := geo.NewGrid(s, surface)
		if err != nil {
			return nil, fmt.Errorf("creating grid %q: %w", gc.Name, err)
		}
		w.grids = append(w.grids, g)
	}

	slog.Info("world built", "grids", len(w.grids), "planet", cfg.Terrain.Planet.Enabled)
	return w, nil
}

func (w *World) buildSurfaces(cfg config.Config, decorate []Decorator) error {
	field, err := BuildField(cfg.Terrain)
	if err != nil {
		return err
	}
	for _, d := range decorate {
		if err := d(field); err != nil {
			return fmt.Errorf("decorating terrain: %w", err)
		}
	}

	var planet *terrain.Planet
	if cfg.Terrain.Planet.Enabled {
		if planet, err = BuildPlanet(cfg.Terrain.Planet); err != nil {
			return err
		}
	}

	w.field.store(field)
	if planet != nil {
		w.planet.store(planet)
	} else {
		w.planet.store(nil)
	}
	return nil
}

func (w *World) surfaceFor(s geo.Settings) (geo.Surface, error) {
	if s.Topology == geo.Spherical {
		if w.planet.load() == nil {
			return nil, fmt.Errorf("spherical grid %q needs terrain.planet: %w", s.Name, config.ErrInvalid)
		}
		return &w.planet, nil
	}
	return &w.field, nil
}

// Grids returns the grids in config order.
func (w *World) Grids() []*geo.Grid {
	return append([]*geo.Grid(nil), w.grids...)
}

// Grid returns the grid with the given name.
func (w *World) Grid(name string) (*geo.Grid, bool) {
	for _, g := range w.grids {
		if g.Name() == name {
			return g, true
		}
	}
	return nil, false
}

// Field returns the current terrain field.
func (w *World) Field() *terrain.Field {
	f, _ := w.field.load().(*terrain.Field)
	return f
}

// Planet returns the current planet, or nil.
func (w *World) Planet() *terrain.Planet {
	p, _ := w.planet.load().(*terrain.Planet)
	return p
}

// Reload rebuilds the surfaces from cfg and applies grid settings by name.
// The grid set is fixed for the life of the world, so grids added in cfg are
// ignored. Returns the grids that need a rescan.
func (w *World) Reload(cfg config.Config, decorate ...Decorator) ([]*geo.Grid, error) {
	if err := w.buildSurfaces(cfg, decorate); err != nil {
		return nil, err
	}

	var errs []error
	rescan := make([]*geo.Grid, 0, len(w.grids))
	for _, gc := range cfg.Grids {
		g, ok := w.Grid(gc.Name)
		if !ok {
			slog.Warn("new grid ignored until restart", "grid", gc.Name)
			continue
		}
		s, err := gc.Settings()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		surface, err := w.surfaceFor(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if surface != g.Surface() {
			errs = append(errs, fmt.Errorf("grid %q: topology change needs a restart: %w", gc.Name, config.ErrInvalid))
			continue
		}
		if err := g.Reconfigure(s); err != nil {
			errs = append(errs, fmt.Errorf("reconfiguring grid %q: %w", gc.Name, err))
			continue
		}
		rescan = append(rescan, g)
	}
	return rescan, errors.Join(errs...)
}
