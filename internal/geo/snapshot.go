package geo

import "fmt"

// Snapshot is the scanned state of a grid, detached from any surface.
// It lets a grid be restored from storage without rescanning.
type Snapshot struct {
	Topology   Topology
	Width      int
	Height     int
	Faces      int
	NodeRadius float64
	Walkable   []bool
	Positions  []Vec3
}

// Snapshot exports the node array. Returns nil if the grid is not scanned.
func (g *Grid) Snapshot() *Snapshot {
	if g.Scanning() {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.nodes) == 0 {
		return nil
	}

	s := &Snapshot{
		Topology:   g.settings.Topology,
		Width:      g.width,
		Height:     g.height,
		Faces:      g.faces,
		NodeRadius: g.settings.NodeRadius,
		Walkable:   make([]bool, len(g.nodes)),
		Positions:  make([]Vec3, len(g.nodes)),
	}
	for i, n := range g.nodes {
		if n == nil {
			continue
		}
		s.Walkable[i] = n.Walkable
		s.Positions[i] = n.World
	}
	return s
}

// Restore rebuilds the node array from s.
func (g *Grid) Restore(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("restoring grid %q: nil snapshot: %w", g.Name(), ErrSnapshotMismatch)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Scanning() {
		return ErrGridBusy
	}
	n := g.width * g.height * g.faces
	if s.Topology != g.settings.Topology || s.Width != g.width || s.Height != g.height ||
		s.Faces != g.faces || s.NodeRadius != g.settings.NodeRadius ||
		len(s.Walkable) != n || len(s.Positions) != n {
		return fmt.Errorf("restoring grid %q: %dx%dx%d snapshot into %dx%dx%d: %w",
			g.Name(), s.Width, s.Height, s.Faces, g.width, g.height, g.faces, ErrSnapshotMismatch)
	}

	nodes := make([]*Node, n)
	for face := 0; face < g.faces; face++ {
		for y := 0; y < g.height; y++ {
			for x := 0; x < g.width; x++ {
				i := g.indexOf(face, x, y)
				nodes[i] = &Node{
					X: x, Y: y, Face: face, Index: i,
					World:    s.Positions[i],
					Walkable: s.Walkable[i],
				}
			}
		}
	}
	g.nodes = nodes
	g.generation.Add(1)
	return nil
}
