package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/gridnav/internal/geo"
)

func TestPlanetRaycast(t *testing.T) {
	p := NewPlanet(geo.Vec3{1, 2, 3}, 5)

	hit, ok := p.Raycast(geo.Vec3{1, 12, 3}, geo.Vec3{1, 2, 3}, geo.LayerAll)
	require.True(t, ok)
	assert.InDelta(t, 7.0, hit.Point.Y(), 1e-9)
	assert.InDelta(t, 0.0, geo.AngleDeg(geo.Up, hit.Normal), 1e-9)

	_, ok = p.Raycast(geo.Vec3{20, 12, 3}, geo.Vec3{20, -12, 3}, geo.LayerAll)
	assert.False(t, ok, "misses the sphere")

	_, ok = p.Raycast(geo.Vec3{1, 12, 3}, geo.Vec3{1, 9, 3}, geo.LayerAll)
	assert.False(t, ok, "segment too short")

	_, ok = p.Raycast(geo.Vec3{1, 12, 3}, geo.Vec3{1, 2, 3}, geo.LayerWater)
	assert.False(t, ok)
}

func TestPlanetObstacles(t *testing.T) {
	p := NewPlanet(geo.Vec3{}, 10)
	p.AddObstacle(geo.Vec3{0, 1, 0}, 2, geo.LayerObstacle)
	p.AddObstacle(geo.Vec3{}, 2, geo.LayerObstacle)
	assert.Equal(t, 1, p.Obstacles(), "zero direction is ignored")

	assert.True(t, p.CheckSphere(geo.Vec3{0, 10, 1}, 1, geo.LayerObstacle))
	assert.False(t, p.CheckSphere(geo.Vec3{0, 10, 4}, 1, geo.LayerObstacle))
	assert.False(t, p.CheckSphere(geo.Vec3{0, 10, 1}, 1, geo.LayerWater))

	assert.True(t, p.Linecast(geo.Vec3{-5, 10, 0}, geo.Vec3{5, 10, 0}, geo.LayerObstacle))
	assert.False(t, p.Linecast(geo.Vec3{-5, 10, 5}, geo.Vec3{5, 10, 5}, geo.LayerObstacle))
}

func TestSphericalGridOverPlanet(t *testing.T) {
	p := NewPlanet(geo.Vec3{}, 8)
	p.AddObstacle(geo.Vec3{0, 1, 0}, 1.5, geo.LayerObstacle)

	g, err := geo.NewGrid(geo.Settings{
		Name:           "planet",
		Topology:       geo.Spherical,
		NodeRadius:     1,
		Radius:         10,
		UnwalkableMask: geo.LayerObstacle,
	}, p)
	require.NoError(t, err)
	require.True(t, g.Scan())

	top := g.NodeFromWorldPos(geo.Vec3{0.1, 10, 0.1})
	require.NotNil(t, top)
	assert.Equal(t, geo.FacePosY, top.Face)
	assert.False(t, top.Walkable, "under the obstacle")

	side := g.NodeFromWorldPos(geo.Vec3{10, 0, 0})
	require.NotNil(t, side)
	assert.True(t, side.Walkable)
	assert.InDelta(t, 8.0, side.World.Len(), 1e-9)

	path := geo.FindPath(g, geo.Vec3{10, 0, 0}, geo.Vec3{-10, 0, 0}, geo.SearchOptions{})
	require.True(t, path.Success)
	for _, n := range path.Nodes {
		assert.True(t, n.Walkable)
	}
}
