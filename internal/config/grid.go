package config

import (
	"fmt"
	"math"

	"github.com/udisondev/gridnav/internal/geo"
)

// GridConfig describes one grid. Layers are named: ground, obstacle, water, all.
type GridConfig struct {
	Name              string     `yaml:"name" toml:"name"`
	Topology          string     `yaml:"topology" toml:"topology"` // planar | spherical
	Offset            [3]float64 `yaml:"offset" toml:"offset"`
	NodeRadius        float64    `yaml:"node_radius" toml:"node_radius"`
	WorldSize         [2]float64 `yaml:"world_size" toml:"world_size"`
	Radius            float64    `yaml:"radius" toml:"radius"` // spherical probe radius
	SlopeLimit        float64    `yaml:"slope_limit" toml:"slope_limit"`
	UnwalkableLayers  []string   `yaml:"unwalkable_layers" toml:"unwalkable_layers"`
	WalkableLayers    []string   `yaml:"walkable_layers" toml:"walkable_layers"`
	ProbeHeight       float64    `yaml:"probe_height" toml:"probe_height"`
	NearWalkableRange int        `yaml:"near_walkable_range" toml:"near_walkable_range"`
	ScanOnLoad        bool       `yaml:"scan_on_load" toml:"scan_on_load"`
}

// Settings converts the entry to grid settings.
func (g GridConfig) Settings() (geo.Settings, error) {
	topo, err := geo.ParseTopology(g.Topology)
	if err != nil {
		return geo.Settings{}, fmt.Errorf("grid %q: %w: %w", g.Name, err, ErrInvalid)
	}
	unwalkable, err := geo.ParseLayerMask(g.UnwalkableLayers)
	if err != nil {
		return geo.Settings{}, fmt.Errorf("grid %q unwalkable layers: %w: %w", g.Name, err, ErrInvalid)
	}
	walkable, err := geo.ParseLayerMask(g.WalkableLayers)
	if err != nil {
		return geo.Settings{}, fmt.Errorf("grid %q walkable layers: %w: %w", g.Name, err, ErrInvalid)
	}
	for _, v := range []float64{g.NodeRadius, g.Radius, g.WorldSize[0], g.WorldSize[1], g.SlopeLimit, g.ProbeHeight, g.Offset[0], g.Offset[1], g.Offset[2]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return geo.Settings{}, fmt.Errorf("grid %q: non-finite value %v: %w", g.Name, v, ErrInvalid)
		}
	}
	if g.NodeRadius <= 0 {
		return geo.Settings{}, fmt.Errorf("grid %q node radius %v: %w", g.Name, g.NodeRadius, ErrInvalid)
	}
	if topo == geo.Spherical && g.Radius <= 0 {
		return geo.Settings{}, fmt.Errorf("grid %q sphere radius %v: %w", g.Name, g.Radius, ErrInvalid)
	}
	if topo == geo.Planar && (g.WorldSize[0] <= 0 || g.WorldSize[1] <= 0) {
		return geo.Settings{}, fmt.Errorf("grid %q world size %v: %w", g.Name, g.WorldSize, ErrInvalid)
	}
	return geo.Settings{
		Name:              g.Name,
		Topology:          topo,
		Offset:            geo.Vec3(g.Offset),
		NodeRadius:        g.NodeRadius,
		WorldSize:         g.WorldSize,
		Radius:            g.Radius,
		SlopeLimit:        g.SlopeLimit,
		UnwalkableMask:    unwalkable,
		WalkableMask:      walkable,
		ProbeHeight:       g.ProbeHeight,
		NearWalkableRange: g.NearWalkableRange,
		ScanOnLoad:        g.ScanOnLoad,
	}, nil
}
