package world

import (
	"fmt"

	"github.com/udisondev/gridnav/internal/config"
	"github.com/udisondev/gridnav/internal/geo"
	"github.com/udisondev/gridnav/internal/terrain"
)

// BuildField loads or generates the terrain field and adds the configured
// holes and obstacles.
func BuildField(t config.TerrainConfig) (*terrain.Field, error) {
	var (
		field *terrain.Field
		err   error
	)
	if t.Heightmap != "" {
		field, err = terrain.LoadHeightmap(t.Heightmap, terrain.HeightmapOptions{
			OriginX:  t.Origin[0],
			OriginZ:  t.Origin[1],
			CellSize: t.CellSize,
			Scale:    t.HeightScale,
			Base:     t.BaseHeight,
		})
		if err != nil {
			return nil, err
		}
	} else {
		field, err = terrain.NewFlatAt(t.Origin[0], t.Origin[1], t.Width, t.Depth, t.CellSize, t.BaseHeight)
		if err != nil {
			return nil, err
		}
	}

	for _, h := range t.Holes {
		field.AddHole(h.Min[0], h.Min[1], h.Max[0], h.Max[1])
	}
	for _, b := range t.Boxes {
		layer, err := config.LayerOf(b.Layer)
		if err != nil {
			return nil, fmt.Errorf("terrain box: %w", err)
		}
		field.AddBox(b.Min[0], b.Min[1], b.Max[0], b.Max[1], layer)
	}
	for _, c := range t.Circles {
		layer, err := config.LayerOf(c.Layer)
		if err != nil {
			return nil, fmt.Errorf("terrain circle: %w", err)
		}
		field.AddCircle(c.Center[0], c.Center[1], c.Radius, layer)
	}
	return field, nil
}

// BuildPlanet creates the planet and its obstacles.
func BuildPlanet(p config.PlanetConfig) (*terrain.Planet, error) {
	planet := terrain.NewPlanet(geo.Vec3(p.Center), p.Radius)
	for _, o := range p.Obstacles {
		layer, err := config.LayerOf(o.Layer)
		if err != nil {
			return nil, fmt.Errorf("planet obstacle: %w", err)
		}
		planet.AddObstacle(geo.Vec3(o.Direction), o.Radius, layer)
	}
	return planet, nil
}
