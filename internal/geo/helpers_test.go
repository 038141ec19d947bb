package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubSurface is flat ground at height 0 with optional holes (no ground),
// tilted cells and point obstacles.
type stubSurface struct {
	spacing   float64
	holes     map[cell]bool
	tilted    map[cell]Vec3
	obstacles []Vec3
	raycasts  int
}

func newStubSurface(nodeRadius float64) *stubSurface {
	return &stubSurface{
		spacing: 2 * nodeRadius,
		holes:   map[cell]bool{},
		tilted:  map[cell]Vec3{},
	}
}

func (s *stubSurface) cellAt(p Vec3) cell {
	return cell{int(math.Round(p.X() / s.spacing)), int(math.Round(p.Z() / s.spacing))}
}

func (s *stubSurface) Raycast(from, _ Vec3, _ LayerMask) (Hit, bool) {
	s.raycasts++
	c := s.cellAt(from)
	if s.holes[c] {
		return Hit{}, false
	}
	normal := Up
	if n, ok := s.tilted[c]; ok {
		normal = n
	}
	return Hit{Point: Vec3{from.X(), 0, from.Z()}, Normal: normal}, true
}

func (s *stubSurface) CheckSphere(center Vec3, radius float64, _ LayerMask) bool {
	for _, o := range s.obstacles {
		if o.Sub(center).Len() < radius {
			return true
		}
	}
	return false
}

func (s *stubSurface) Linecast(_, _ Vec3, _ LayerMask) bool { return false }

// wall makes cells (x, y0..y1) unwalkable.
func (s *stubSurface) wall(x, y0, y1 int) {
	for y := y0; y <= y1; y++ {
		s.holes[cell{x, y}] = true
	}
}

func planarSettings(w, h int, nodeRadius float64) Settings {
	return Settings{
		Name:       "test",
		Topology:   Planar,
		NodeRadius: nodeRadius,
		WorldSize:  [2]float64{float64(w) * 2 * nodeRadius, float64(h) * 2 * nodeRadius},
	}
}

// newScannedGrid builds and fully scans a w x h planar grid over surface.
func newScannedGrid(t *testing.T, w, h int, surface Surface) *Grid {
	t.Helper()
	g, err := NewGrid(planarSettings(w, h, 1), surface)
	require.NoError(t, err)
	require.True(t, g.Scan())
	return g
}

// worldOf returns the world position of planar cell (x, y).
func worldOf(t *testing.T, g *Grid, x, y int) Vec3 {
	t.Helper()
	n := g.NodeAt(x, y)
	require.NotNil(t, n, "node (%d,%d)", x, y)
	return n.World
}
