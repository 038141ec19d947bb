package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridDimensions(t *testing.T) {
	g, err := NewGrid(Settings{NodeRadius: 1, WorldSize: [2]float64{21, 9.9}}, nil)
	require.NoError(t, err)

	w, h, faces := g.Size()
	assert.Equal(t, 10, w, "floor(21/2)")
	assert.Equal(t, 4, h, "floor(9.9/2)")
	assert.Equal(t, 1, faces)
	assert.Equal(t, 40, g.MaxSize())
}

func TestNewGridRejectsMalformedSettings(t *testing.T) {
	cases := []Settings{
		{NodeRadius: 0, WorldSize: [2]float64{10, 10}},
		{NodeRadius: 1, WorldSize: [2]float64{1, 10}},
		{Topology: Spherical, NodeRadius: 2, Radius: 1},
		{Topology: Topology(9), NodeRadius: 1, WorldSize: [2]float64{10, 10}},
		{NodeRadius: 1, WorldSize: [2]float64{math.Inf(1), math.Inf(1)}},
		{NodeRadius: math.NaN(), WorldSize: [2]float64{10, 10}},
		{NodeRadius: math.Inf(1), WorldSize: [2]float64{10, 10}},
		{Topology: Spherical, NodeRadius: 1, Radius: math.Inf(1)},
		{NodeRadius: 1, WorldSize: [2]float64{10, 10}, Offset: Vec3{math.NaN(), 0, 0}},
		{NodeRadius: 0.5, WorldSize: [2]float64{1e6, 1e6}},
	}
	for _, s := range cases {
		_, err := NewGrid(s, nil)
		assert.True(t, errors.Is(err, ErrInvalidSettings), "settings %+v", s)
	}
}

func TestReconfigureRejectsNonFiniteSize(t *testing.T) {
	g := newScannedGrid(t, 4, 4, newStubSurface(1))

	err := g.Resize([2]float64{math.Inf(1), 8}, 1)
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.True(t, g.Scanned(), "grid keeps its nodes")
	assert.Equal(t, 16, g.MaxSize())
}

func TestParseTopology(t *testing.T) {
	topo, err := ParseTopology("Sphere")
	require.NoError(t, err)
	assert.Equal(t, Spherical, topo)

	topo, err = ParseTopology("")
	require.NoError(t, err)
	assert.Equal(t, Planar, topo)

	_, err = ParseTopology("torus")
	assert.Error(t, err)
}

func TestGetDistance(t *testing.T) {
	assert.Equal(t, 0, OctileDistance(3, 3, 3, 3))
	assert.Equal(t, 10, OctileDistance(0, 0, 1, 0))
	assert.Equal(t, 14, OctileDistance(0, 0, 1, 1))
	assert.Equal(t, 126, OctileDistance(0, 0, 9, 9))
	assert.Equal(t, 14*2+10*3, OctileDistance(0, 0, 5, 2))
}

func TestGetDistanceSymmetric(t *testing.T) {
	g := newScannedGrid(t, 6, 5, newStubSurface(1))
	nodes := g.Nodes()
	for _, a := range nodes {
		assert.Equal(t, 0, g.GetDistance(a, a))
		for _, b := range nodes {
			require.Equal(t, g.GetDistance(a, b), g.GetDistance(b, a), "%d,%d <-> %d,%d", a.X, a.Y, b.X, b.Y)
		}
	}
}

func TestLookupsBeforeScan(t *testing.T) {
	g, err := NewGrid(planarSettings(4, 4, 1), newStubSurface(1))
	require.NoError(t, err)

	assert.False(t, g.Scanned())
	assert.Nil(t, g.NodeFromWorldPos(Vec3{}))
	assert.Nil(t, g.NearWalkable(Vec3{}))
	assert.Nil(t, g.GetNeighbours(&Node{}))
	assert.Nil(t, g.Snapshot())
}

func TestGetNeighbours(t *testing.T) {
	g := newScannedGrid(t, 5, 5, newStubSurface(1))

	assert.Len(t, g.GetNeighbours(g.NodeAt(0, 0)), 3, "corner")
	assert.Len(t, g.GetNeighbours(g.NodeAt(2, 0)), 5, "edge")
	assert.Len(t, g.GetNeighbours(g.NodeAt(2, 2)), 8, "interior")
}

func TestScanClassifiesWalkability(t *testing.T) {
	surface := newStubSurface(1)
	surface.holes[cell{1, 1}] = true
	surface.tilted[cell{2, 2}] = Vec3{2, 1, 0}.Normalize()   // ~63 degrees
	surface.tilted[cell{3, 3}] = Vec3{0.3, 1, 0}.Normalize() // ~17 degrees
	surface.obstacles = []Vec3{{0, 0, 7.5}}                  // next to cell (0,4)

	g := newScannedGrid(t, 6, 6, surface)

	assert.False(t, g.NodeAt(1, 1).Walkable, "no ground")
	assert.False(t, g.NodeAt(2, 2).Walkable, "too steep")
	assert.True(t, g.NodeAt(3, 3).Walkable, "gentle slope")
	assert.False(t, g.NodeAt(0, 4).Walkable, "obstacle on the cell")
	assert.False(t, g.NodeAt(0, 3).Walkable, "obstacle within 2*radius")
	assert.True(t, g.NodeAt(0, 2).Walkable, "obstacle out of reach")
	assert.True(t, g.NodeAt(5, 5).Walkable)
}

func TestScanTaskYields(t *testing.T) {
	surface := newStubSurface(1)
	g, err := NewGrid(planarSettings(60, 4, 1), surface)
	require.NoError(t, err)

	task, ok := g.BeginScan()
	require.True(t, ok)
	assert.True(t, g.Scanning())

	_, again := g.BeginScan()
	assert.False(t, again, "second scan while scanning")

	assert.False(t, task.Advance(DefaultScanRowsPerStep))
	done, total := task.Progress()
	assert.Equal(t, 25, done)
	assert.Equal(t, 60, total)
	assert.Equal(t, 25*4, surface.raycasts)
	assert.Nil(t, g.NodeFromWorldPos(Vec3{}), "lookups rejected mid-scan")

	assert.False(t, task.Advance(DefaultScanRowsPerStep))
	assert.True(t, task.Advance(DefaultScanRowsPerStep))
	assert.False(t, g.Scanning())
	assert.True(t, g.Scanned())
	assert.Equal(t, 60*4, surface.raycasts)
}

func TestScanNodeAllocatesLazily(t *testing.T) {
	g, err := NewGrid(planarSettings(3, 3, 1), newStubSurface(1))
	require.NoError(t, err)

	g.ScanNode(1, 2)
	n := g.NodeAt(1, 2)
	require.NotNil(t, n)
	assert.True(t, n.Walkable)
	assert.Equal(t, 7, n.Index)
	assert.Nil(t, g.NodeAt(0, 0), "unscanned cell")
	assert.Len(t, g.Nodes(), 9)
}

func TestNodeFromWorldPos(t *testing.T) {
	g := newScannedGrid(t, 10, 10, newStubSurface(1))

	n := g.NodeFromWorldPos(Vec3{6.2, 0, 9.1})
	require.NotNil(t, n)
	assert.Equal(t, 3, n.X)
	assert.Equal(t, 5, n.Y)

	n = g.NodeFromWorldPos(Vec3{-50, 0, 500})
	require.NotNil(t, n)
	assert.Equal(t, 0, n.X, "clamped")
	assert.Equal(t, 9, n.Y, "clamped")
}

func TestNearWalkable(t *testing.T) {
	surface := newStubSurface(1)
	// Block a 3x3 square around (5,5); (7,5) is the closest walkable cell to the right.
	for x := 4; x <= 6; x++ {
		surface.wall(x, 4, 6)
	}
	g := newScannedGrid(t, 10, 10, surface)

	n := g.NearWalkable(Vec3{11.6, 0, 10})
	require.NotNil(t, n)
	assert.True(t, n.Walkable)
	assert.Equal(t, 7, n.X)
	assert.Equal(t, 5, n.Y)

	n = g.NearWalkable(worldOf(t, g, 1, 1))
	require.NotNil(t, n)
	assert.Equal(t, 1, n.X, "walkable origin returned as is")
}

func TestNearWalkableOutOfRange(t *testing.T) {
	surface := newStubSurface(1)
	for x := 0; x < 8; x++ {
		surface.wall(x, 0, 7)
	}
	s := planarSettings(8, 8, 1)
	s.NearWalkableRange = 3
	g, err := NewGrid(s, surface)
	require.NoError(t, err)
	require.True(t, g.Scan())

	assert.Nil(t, g.NearWalkable(Vec3{}))
}

func TestHasLineOfSight(t *testing.T) {
	surface := newStubSurface(1)
	surface.wall(5, 0, 8)
	g := newScannedGrid(t, 10, 10, surface)

	assert.True(t, g.HasLineOfSight(g.NodeAt(0, 0), g.NodeAt(4, 8)))
	assert.False(t, g.HasLineOfSight(g.NodeAt(0, 0), g.NodeAt(9, 0)), "through the wall")
	assert.False(t, g.HasLineOfSight(g.NodeAt(0, 0), g.NodeAt(5, 9)), "clips the wall end at (5,8)")
	assert.True(t, g.HasLineOfSight(g.NodeAt(0, 9), g.NodeAt(9, 9)), "through the gap")
	assert.True(t, g.HasLineOfSight(g.NodeAt(4, 0), g.NodeAt(4, 9)), "along the wall")
	assert.False(t, g.HasLineOfSight(nil, g.NodeAt(1, 1)))
}

func TestClamp(t *testing.T) {
	s := planarSettings(10, 10, 1)
	s.Offset = Vec3{100, 0, -20}
	g, err := NewGrid(s, nil)
	require.NoError(t, err)

	assert.Equal(t, Vec3{100, 5, 0}, g.Clamp(Vec3{50, 5, 40}))
	assert.Equal(t, Vec3{110, 5, -10}, g.Clamp(Vec3{110, 5, -10}))
}

func TestOffsetGrid(t *testing.T) {
	s := planarSettings(4, 4, 1)
	s.Offset = Vec3{100, 0, 50}
	g, err := NewGrid(s, newStubSurface(1))
	require.NoError(t, err)
	require.True(t, g.Scan())

	n := g.NodeFromWorldPos(Vec3{102.4, 0, 54})
	require.NotNil(t, n)
	assert.Equal(t, 1, n.X)
	assert.Equal(t, 2, n.Y)
	assert.InDelta(t, 102.0, n.World.X(), 1e-9)
	assert.InDelta(t, 54.0, n.World.Z(), 1e-9)
}

func TestReconfigureInvalidatesNodes(t *testing.T) {
	g := newScannedGrid(t, 4, 4, newStubSurface(1))
	gen := g.Generation()

	s := g.Settings()
	s.NodeRadius = 0.5
	require.NoError(t, g.Reconfigure(s))

	assert.False(t, g.Scanned())
	assert.Greater(t, g.Generation(), gen)
	assert.Equal(t, 64, g.MaxSize())

	task, ok := g.BeginScan()
	require.True(t, ok)
	assert.ErrorIs(t, g.Reconfigure(s), ErrGridBusy)
	task.Advance(1 << 20)
	assert.True(t, g.Scanned())
}

func TestSnapshotRestore(t *testing.T) {
	surface := newStubSurface(1)
	surface.wall(2, 0, 3)
	src := newScannedGrid(t, 5, 4, surface)

	snap := src.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 20, len(snap.Walkable))

	dst, err := NewGrid(planarSettings(5, 4, 1), nil)
	require.NoError(t, err)
	require.NoError(t, dst.Restore(snap))

	assert.True(t, dst.Scanned())
	for i, n := range src.Nodes() {
		restored := dst.Nodes()[i]
		assert.Equal(t, n.Walkable, restored.Walkable)
		assert.Equal(t, n.World, restored.World)
		assert.Equal(t, n.Index, restored.Index)
	}

	other, err := NewGrid(planarSettings(4, 4, 1), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, other.Restore(snap), ErrSnapshotMismatch)
	assert.ErrorIs(t, other.Restore(nil), ErrSnapshotMismatch)
}

func TestParseLayerMask(t *testing.T) {
	m, err := ParseLayerMask([]string{"obstacle", " Water "})
	require.NoError(t, err)
	assert.Equal(t, LayerObstacle|LayerWater, m)

	m, err = ParseLayerMask(nil)
	require.NoError(t, err)
	assert.Equal(t, LayerMask(0), m)

	_, err = ParseLayerMask([]string{"lava"})
	assert.Error(t, err)
}
