package geo

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrGridBusy is returned when a grid is reconfigured or restored mid-scan.
var ErrGridBusy = errors.New("geo: grid is scanning")

// Topology selects the node layout of a grid.
type Topology uint8

const (
	// Planar is a flat width x height slab in the X-Z plane.
	Planar Topology = iota
	// Spherical is a cube-sphere: six faces projected onto a sphere around Offset.
	Spherical
)

func (t Topology) String() string {
	switch t {
	case Planar:
		return "planar"
	case Spherical:
		return "spherical"
	default:
		return fmt.Sprintf("topology(%d)", uint8(t))
	}
}

// ParseTopology parses "planar"/"plane" or "spherical"/"sphere".
func ParseTopology(s string) (Topology, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "planar", "plane":
		return Planar, nil
	case "spherical", "sphere":
		return Spherical, nil
	default:
		return Planar, fmt.Errorf("unknown topology %q", s)
	}
}

// Settings are the designer-facing parameters of a grid.
type Settings struct {
	Name     string
	Topology Topology

	// Offset is the world position of node (0,0) for planar grids
	// and the sphere centre for spherical grids.
	Offset     Vec3
	NodeRadius float64    // half the node spacing
	WorldSize  [2]float64 // planar extent along X and Z
	Radius     float64    // spherical probe radius

	SlopeLimit     float64 // degrees
	UnwalkableMask LayerMask
	WalkableMask   LayerMask
	ProbeHeight    float64 // planar probe starts this far above Offset.Y

	NearWalkableRange int
	ScanOnLoad        bool
}

func (s Settings) withDefaults() Settings {
	if s.SlopeLimit == 0 {
		s.SlopeLimit = DefaultSlopeLimit
	}
	if s.WalkableMask == 0 {
		s.WalkableMask = LayerAll
	}
	if s.ProbeHeight == 0 {
		s.ProbeHeight = DefaultProbeHeight
	}
	if s.NearWalkableRange == 0 {
		s.NearWalkableRange = DefaultNearWalkableRange
	}
	return s
}

func (s Settings) validate() error {
	for _, v := range []float64{
		s.Offset.X(), s.Offset.Y(), s.Offset.Z(),
		s.NodeRadius, s.WorldSize[0], s.WorldSize[1], s.Radius,
		s.SlopeLimit, s.ProbeHeight,
	} {
		if !isFinite(v) {
			return fmt.Errorf("grid %q: non-finite value %v: %w", s.Name, v, ErrInvalidSettings)
		}
	}
	if s.NodeRadius <= 0 {
		return fmt.Errorf("grid %q: node radius %v: %w", s.Name, s.NodeRadius, ErrInvalidSettings)
	}
	switch s.Topology {
	case Planar:
		if s.WorldSize[0] < 2*s.NodeRadius || s.WorldSize[1] < 2*s.NodeRadius {
			return fmt.Errorf("grid %q: world size %v smaller than one node: %w", s.Name, s.WorldSize, ErrInvalidSettings)
		}
	case Spherical:
		if s.Radius < s.NodeRadius {
			return fmt.Errorf("grid %q: sphere radius %v smaller than one node: %w", s.Name, s.Radius, ErrInvalidSettings)
		}
	default:
		return fmt.Errorf("grid %q: %v: %w", s.Name, s.Topology, ErrInvalidSettings)
	}

	spacing := 2 * s.NodeRadius
	var cells float64
	if s.Topology == Spherical {
		n := math.Floor(2 * s.Radius / spacing)
		cells = n * n * CubeFaces
	} else {
		cells = math.Floor(s.WorldSize[0]/spacing) * math.Floor(s.WorldSize[1]/spacing)
	}
	if cells < 1 || cells > MaxGridNodes {
		return fmt.Errorf("grid %q: %v nodes out of range [1, %d]: %w", s.Name, cells, MaxGridNodes, ErrInvalidSettings)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Grid is a dense array of Nodes over a bounded world region.
//
// The node array is written only while scanning; the Scanning flag rejects
// lookups until the scan completes.
type Grid struct {
	name     string
	settings Settings
	surface  Surface

	mu                   sync.RWMutex
	nodes                []*Node
	width, height, faces int

	scanning   atomic.Bool
	generation atomic.Uint64
}

// NewGrid creates an unscanned grid over surface.
func NewGrid(s Settings, surface Surface) (*Grid, error) {
	s = s.withDefaults()
	if err := s.validate(); err != nil {
		return nil, err
	}
	g := &Grid{name: s.Name, settings: s, surface: surface}
	g.width, g.height, g.faces = dimensions(s)
	return g, nil
}

// dimensions returns floor(size / (2*nodeRadius)) per axis.
func dimensions(s Settings) (w, h, faces int) {
	spacing := 2 * s.NodeRadius
	if s.Topology == Spherical {
		n := int(math.Floor(2 * s.Radius / spacing))
		return n, n, CubeFaces
	}
	return int(math.Floor(s.WorldSize[0] / spacing)), int(math.Floor(s.WorldSize[1] / spacing)), 1
}

// Name returns the grid name.
func (g *Grid) Name() string { return g.name }

// Settings returns the grid settings.
func (g *Grid) Settings() Settings {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.settings
}

// Topology returns the grid topology.
func (g *Grid) Topology() Topology {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.settings.Topology
}

// Surface returns the surface the grid scans against.
func (g *Grid) Surface() Surface { return g.surface }

// Size returns the node counts per axis and the number of faces.
func (g *Grid) Size() (width, height, faces int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.width, g.height, g.faces
}

// MaxSize returns the total node count; the open set is sized to it.
func (g *Grid) MaxSize() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.width * g.height * g.faces
}

// Scanning reports whether a scan is in progress.
func (g *Grid) Scanning() bool { return g.scanning.Load() }

// Generation increases every time the node array is rebuilt.
func (g *Grid) Generation() uint64 { return g.generation.Load() }

// Scanned reports whether the grid has a node array and is not scanning.
func (g *Grid) Scanned() bool {
	if g.Scanning() {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes) > 0
}

// Reconfigure replaces the settings. The node array is discarded and the grid
// must be rescanned before it can serve queries. The name never changes.
func (g *Grid) Reconfigure(s Settings) error {
	s.Name = g.name
	s = s.withDefaults()
	if err := s.validate(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Scanning() {
		return ErrGridBusy
	}
	g.settings = s
	g.width, g.height, g.faces = dimensions(s)
	g.nodes = nil
	g.generation.Add(1)
	return nil
}

// Resize changes the planar extent and node radius, keeping the other settings.
func (g *Grid) Resize(worldSize [2]float64, nodeRadius float64) error {
	s := g.Settings()
	s.WorldSize = worldSize
	s.NodeRadius = nodeRadius
	return g.Reconfigure(s)
}

// Nodes returns a copy of the node array. Entries may be nil for unscanned cells.
func (g *Grid) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Node(nil), g.nodes...)
}

// NodeAt returns the planar node at (x, y), or nil.
func (g *Grid) NodeAt(x, y int) *Node {
	return g.FaceNodeAt(0, x, y)
}

// FaceNodeAt returns the node at (x, y) on face, or nil.
func (g *Grid) FaceNodeAt(face, x, y int) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodeAtLocked(face, x, y)
}

func (g *Grid) nodeAtLocked(face, x, y int) *Node {
	if face < 0 || face >= g.faces || x < 0 || x >= g.width || y < 0 || y >= g.height {
		return nil
	}
	i := g.indexOf(face, x, y)
	if i >= len(g.nodes) {
		return nil
	}
	return g.nodes[i]
}

func (g *Grid) indexOf(face, x, y int) int {
	return (face*g.height+y)*g.width + x
}

// ensureNodesLocked allocates the node array when its size does not match the dimensions.
func (g *Grid) ensureNodesLocked() {
	if n := g.width * g.height * g.faces; len(g.nodes) != n {
		g.nodes = make([]*Node, n)
	}
}

// ScanNode probes the planar cell (x, y) and stores its node.
func (g *Grid) ScanNode(x, y int) {
	if g.settings.Topology != Planar {
		return
	}
	n := g.probePlanar(x, y)
	g.store(n)
}

// ScanFaceNode probes the spherical cell (x, y) on face and stores its node.
func (g *Grid) ScanFaceNode(face, x, y int) {
	if g.settings.Topology != Spherical {
		return
	}
	n := g.probeSphere(face, x, y)
	g.store(n)
}

func (g *Grid) store(n *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n.X < 0 || n.X >= g.width || n.Y < 0 || n.Y >= g.height || n.Face >= g.faces {
		return
	}
	g.ensureNodesLocked()
	n.Index = g.indexOf(n.Face, n.X, n.Y)
	g.nodes[n.Index] = n
}

// planarPosition returns the unprobed world position of cell (x, y).
func (g *Grid) planarPosition(x, y int) Vec3 {
	spacing := 2 * g.settings.NodeRadius
	o := g.settings.Offset
	return Vec3{o.X() + float64(x)*spacing, o.Y(), o.Z() + float64(y)*spacing}
}

func (g *Grid) probePlanar(x, y int) *Node {
	s := g.settings
	pos := g.planarPosition(x, y)
	from := Vec3{pos.X(), s.Offset.Y() + s.ProbeHeight, pos.Z()}
	to := Vec3{pos.X(), s.Offset.Y() - s.ProbeHeight, pos.Z()}

	n := &Node{X: x, Y: y, World: pos}
	if g.surface == nil {
		return n
	}
	hit, ok := g.surface.Raycast(from, to, s.WalkableMask)
	if !ok {
		return n
	}
	n.World = hit.Point
	n.Walkable = AngleDeg(Up, hit.Normal) < s.SlopeLimit &&
		!g.surface.CheckSphere(hit.Point, 2*s.NodeRadius, s.UnwalkableMask)
	return n
}

// GetNeighbours returns the nodes adjacent to node.
// Returns nil while scanning or before the first scan.
func (g *Grid) GetNeighbours(node *Node) []*Node {
	if node == nil || g.Scanning() {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.nodes) == 0 {
		return nil
	}
	return g.neighboursLocked(node, make([]*Node, 0, 8))
}

func (g *Grid) neighboursLocked(node *Node, out []*Node) []*Node {
	if g.settings.Topology == Spherical {
		return g.sphereNeighboursLocked(node, out)
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if n := g.nodeAtLocked(0, node.X+dx, node.Y+dy); n != nil {
				out = append(out, n)
			}
		}
	}
	return out
}

// GetDistance returns the integer movement cost estimate between a and b.
//
// Planar: 14 per diagonal step and 10 per straight step.
// Spherical: straight-line distance in tenths of the node spacing.
func (g *Grid) GetDistance(a, b *Node) int {
	g.mu.RLock()
	topo, radius := g.settings.Topology, g.settings.NodeRadius
	g.mu.RUnlock()
	if topo == Spherical {
		d := a.World.Sub(b.World).Len()
		return int(math.Round(CostStraight * d / (2 * radius)))
	}
	return OctileDistance(a.X, a.Y, b.X, b.Y)
}

// OctileDistance is the diagonal distance between two planar cells.
func OctileDistance(ax, ay, bx, by int) int {
	dx := absInt(ax - bx)
	dy := absInt(ay - by)
	if dx > dy {
		return CostDiagonal*dy + CostStraight*(dx-dy)
	}
	return CostDiagonal*dx + CostStraight*(dy-dx)
}

// Clamp limits p to the planar grid bounds. Spherical grids return p unchanged.
func (g *Grid) Clamp(p Vec3) Vec3 {
	s := g.Settings()
	if s.Topology != Planar {
		return p
	}
	p[0] = clampFloat(p[0], s.Offset.X(), s.Offset.X()+s.WorldSize[0])
	p[2] = clampFloat(p[2], s.Offset.Z(), s.Offset.Z()+s.WorldSize[1])
	return p
}

// NodeFromWorldPos returns the node nearest to p.
// Returns nil while scanning or before the first scan.
func (g *Grid) NodeFromWorldPos(p Vec3) *Node {
	if g.Scanning() {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodeFromWorldPosLocked(p)
}

func (g *Grid) nodeFromWorldPosLocked(p Vec3) *Node {
	if len(g.nodes) == 0 {
		return nil
	}
	face, x, y, ok := g.cellOf(p)
	if !ok {
		return nil
	}
	return g.nodeAtLocked(face, x, y)
}

func (g *Grid) cellOf(p Vec3) (face, x, y int, ok bool) {
	s := g.settings
	if s.Topology == Spherical {
		return cubeCell(p.Sub(s.Offset), g.width)
	}
	spacing := 2 * s.NodeRadius
	local := p.Sub(s.Offset)
	x = clampInt(int(math.Round(local.X()/spacing)), 0, g.width-1)
	y = clampInt(int(math.Round(local.Z()/spacing)), 0, g.height-1)
	return 0, x, y, true
}

// NearWalkable returns the walkable node nearest to p, searching outward in
// square rings up to the configured range. Returns nil if none is found.
func (g *Grid) NearWalkable(p Vec3) *Node {
	if g.Scanning() {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	origin := g.nodeFromWorldPosLocked(p)
	if origin == nil {
		return nil
	}
	if origin.Walkable {
		return origin
	}

	// Breadth-first over the 8-neighbourhood: on a planar grid ring k of the
	// traversal is exactly the Chebyshev ring of radius k.
	visited := map[int]struct{}{origin.Index: {}}
	ring := []*Node{origin}
	buf := make([]*Node, 0, 8)
	for r := 1; r <= g.settings.NearWalkableRange && len(ring) > 0; r++ {
		var next []*Node
		var best *Node
		bestDist := math.Inf(1)
		for _, n := range ring {
			for _, nb := range g.neighboursLocked(n, buf[:0]) {
				if _, seen := visited[nb.Index]; seen {
					continue
				}
				visited[nb.Index] = struct{}{}
				next = append(next, nb)
				if !nb.Walkable {
					continue
				}
				if d := nb.World.Sub(p).Len(); d < bestDist {
					best, bestDist = nb, d
				}
			}
		}
		if best != nil {
			return best
		}
		ring = next
	}
	return nil
}

// HasLineOfSight reports whether a straight walk from a to b crosses only
// walkable cells and no obstacle. Spherical grids have no straight walks.
func (g *Grid) HasLineOfSight(a, b *Node) bool {
	if a == nil || b == nil || g.Scanning() {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.settings.Topology != Planar {
		return false
	}

	it := NewLineIterator(a.X, a.Y, b.X, b.Y)
	for it.Next() {
		n := g.nodeAtLocked(0, it.X(), it.Y())
		if n == nil || !n.Walkable {
			return false
		}
	}
	if g.surface != nil && g.surface.Linecast(a.World, b.World, g.settings.UnwalkableMask) {
		return false
	}
	return true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
