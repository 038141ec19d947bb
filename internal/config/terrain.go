package config

import (
	"fmt"

	"github.com/udisondev/gridnav/internal/geo"
)

// TerrainConfig describes the world surface: a heightmap image or flat
// ground, plus holes and obstacles. Planet, when enabled, backs spherical grids.
type TerrainConfig struct {
	Heightmap   string     `yaml:"heightmap" toml:"heightmap"`
	Origin      [2]float64 `yaml:"origin" toml:"origin"`
	CellSize    float64    `yaml:"cell_size" toml:"cell_size"`
	HeightScale float64    `yaml:"height_scale" toml:"height_scale"`
	BaseHeight  float64    `yaml:"base_height" toml:"base_height"`

	// Flat ground extent, used without a heightmap.
	Width float64 `yaml:"width" toml:"width"`
	Depth float64 `yaml:"depth" toml:"depth"`

	Holes   []RectConfig   `yaml:"holes" toml:"holes"`
	Boxes   []RectConfig   `yaml:"boxes" toml:"boxes"`
	Circles []CircleConfig `yaml:"circles" toml:"circles"`

	Planet PlanetConfig `yaml:"planet" toml:"planet"`
}

// RectConfig is an x-z rectangle.
type RectConfig struct {
	Min   [2]float64 `yaml:"min" toml:"min"`
	Max   [2]float64 `yaml:"max" toml:"max"`
	Layer string     `yaml:"layer" toml:"layer"`
}

// CircleConfig is an x-z circle.
type CircleConfig struct {
	Center [2]float64 `yaml:"center" toml:"center"`
	Radius float64    `yaml:"radius" toml:"radius"`
	Layer  string     `yaml:"layer" toml:"layer"`
}

// PlanetConfig describes a spherical surface.
type PlanetConfig struct {
	Enabled   bool                   `yaml:"enabled" toml:"enabled"`
	Center    [3]float64             `yaml:"center" toml:"center"`
	Radius    float64                `yaml:"radius" toml:"radius"`
	Obstacles []PlanetObstacleConfig `yaml:"obstacles" toml:"obstacles"`
}

// PlanetObstacleConfig places a round obstacle on the planet surface.
type PlanetObstacleConfig struct {
	Direction [3]float64 `yaml:"direction" toml:"direction"`
	Radius    float64    `yaml:"radius" toml:"radius"`
	Layer     string     `yaml:"layer" toml:"layer"`
}

// LayerOf parses an obstacle layer name. Empty means the obstacle layer.
func LayerOf(name string) (geo.LayerMask, error) {
	if name == "" {
		return geo.LayerObstacle, nil
	}
	return geo.ParseLayer(name)
}

func (t TerrainConfig) validate() error {
	if t.CellSize <= 0 {
		return fmt.Errorf("terrain cell size %v: %w", t.CellSize, ErrInvalid)
	}
	if t.Heightmap == "" && (t.Width <= 0 || t.Depth <= 0) {
		return fmt.Errorf("flat terrain %vx%v: %w", t.Width, t.Depth, ErrInvalid)
	}
	for _, b := range t.Boxes {
		if _, err := LayerOf(b.Layer); err != nil {
			return fmt.Errorf("terrain box: %w: %w", err, ErrInvalid)
		}
	}
	for _, c := range t.Circles {
		if c.Radius <= 0 {
			return fmt.Errorf("terrain circle radius %v: %w", c.Radius, ErrInvalid)
		}
		if _, err := LayerOf(c.Layer); err != nil {
			return fmt.Errorf("terrain circle: %w: %w", err, ErrInvalid)
		}
	}
	if t.Planet.Enabled && t.Planet.Radius <= 0 {
		return fmt.Errorf("planet radius %v: %w", t.Planet.Radius, ErrInvalid)
	}
	for _, o := range t.Planet.Obstacles {
		if _, err := LayerOf(o.Layer); err != nil {
			return fmt.Errorf("planet obstacle: %w: %w", err, ErrInvalid)
		}
	}
	return nil
}
