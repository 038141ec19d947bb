package geo

import "fmt"

// SearchState is the lifecycle stage of a Search.
type SearchState uint8

const (
	StateIdle SearchState = iota
	StateValidating
	StateSearching
	StateRetracing
	StateDelivering
	StateDone
)

func (s SearchState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSearching:
		return "searching"
	case StateRetracing:
		return "retracing"
	case StateDelivering:
		return "delivering"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// SearchOptions tune a single search.
type SearchOptions struct {
	// MaxExpansions caps the number of nodes expanded before giving up.
	// Zero means the grid's node count.
	MaxExpansions int
}

// Search is a resumable A* query against one grid.
// It is driven by Advance and is not safe for concurrent use.
type Search struct {
	grid             *Grid
	startPos, endPos Vec3
	opts             SearchOptions
	state            SearchState
	generation       uint64

	start, goal   *searchNode
	records       map[int]*searchNode
	open          *Heap[*searchNode]
	closed        map[int]struct{}
	expansions    int
	maxExpansions int

	success bool
	err     error
	raw     []*Node
	result  Path
}

// NewSearch prepares a search from start to end. Nothing runs until Advance.
func NewSearch(g *Grid, start, end Vec3, opts SearchOptions) *Search {
	return &Search{grid: g, startPos: start, endPos: end, opts: opts}
}

// State returns the current stage.
func (s *Search) State() SearchState { return s.state }

// Done reports whether the result is available.
func (s *Search) Done() bool { return s.state == StateDone }

// Expansions returns the number of nodes expanded so far.
func (s *Search) Expansions() int { return s.expansions }

// Result returns the finished path. Only meaningful once Done.
func (s *Search) Result() Path { return s.result }

// Advance runs the search for at most budget node expansions and reports
// whether it has finished.
func (s *Search) Advance(budget int) bool {
	if budget <= 0 {
		budget = DefaultExpansionsPerStep
	}
	for s.state != StateDone {
		switch s.state {
		case StateIdle:
			s.state = StateValidating
		case StateValidating:
			s.validate()
		case StateSearching:
			if budget <= 0 {
				return false
			}
			budget -= s.expand(budget)
		case StateRetracing:
			s.raw = s.retrace()
			s.state = StateDelivering
		case StateDelivering:
			s.deliver()
		}
	}
	return true
}

// validate resolves both endpoints to walkable nodes and seeds the open set.
func (s *Search) validate() {
	g := s.grid
	if g == nil || !g.Scanned() {
		s.state = StateDelivering
		return
	}
	s.generation = g.Generation()

	startNode := g.NearWalkable(s.startPos)
	goalNode := g.NearWalkable(s.endPos)
	if startNode == nil || goalNode == nil || !startNode.Walkable || !goalNode.Walkable {
		s.state = StateDelivering
		return
	}

	size := g.MaxSize()
	s.maxExpansions = s.opts.MaxExpansions
	if s.maxExpansions <= 0 {
		s.maxExpansions = size
	}
	s.records = make(map[int]*searchNode, 256)
	s.closed = make(map[int]struct{}, 256)
	s.open = NewHeap[*searchNode](size)

	s.start = s.record(startNode)
	s.goal = s.record(goalNode)
	s.start.hCost = g.GetDistance(startNode, goalNode)
	if err := s.open.Add(s.start); err != nil {
		s.fail(err)
		return
	}
	s.state = StateSearching
}

// expand pops and expands up to budget nodes, returning how many it used.
func (s *Search) expand(budget int) int {
	g := s.grid
	used := 0
	for used < budget {
		if g.Scanning() || g.Generation() != s.generation {
			s.state = StateDelivering
			return used
		}
		if s.open.Len() == 0 {
			s.state = StateDelivering
			return used
		}

		current := s.open.RemoveFirst()
		s.closed[current.node.Index] = struct{}{}
		s.expansions++
		used++

		if current == s.goal {
			s.success = true
			s.state = StateRetracing
			return used
		}

		for _, nb := range g.GetNeighbours(current.node) {
			if !nb.Walkable {
				continue
			}
			if _, done := s.closed[nb.Index]; done {
				continue
			}

			rec := s.record(nb)
			cost := current.gCost + g.GetDistance(current.node, nb)
			inOpen := s.open.Contains(rec)
			if cost >= rec.gCost && inOpen {
				continue
			}
			rec.gCost = cost
			rec.hCost = g.GetDistance(nb, s.goal.node)
			rec.parent = current
			if inOpen {
				s.open.UpdateItem(rec)
				continue
			}
			if err := s.open.Add(rec); err != nil {
				s.fail(err)
				return used
			}
		}

		if s.expansions >= s.maxExpansions {
			s.state = StateDelivering
			return used
		}
	}
	return used
}

func (s *Search) record(n *Node) *searchNode {
	if rec, ok := s.records[n.Index]; ok {
		return rec
	}
	rec := &searchNode{node: n, heapIndex: -1}
	s.records[n.Index] = rec
	return rec
}

func (s *Search) fail(err error) {
	s.err = fmt.Errorf("searching grid %q: %w", s.grid.Name(), err)
	s.success = false
	s.state = StateDelivering
}

// retrace follows parent links from the goal back to the start and returns
// the nodes in start-to-goal order, start included.
func (s *Search) retrace() []*Node {
	var path []*Node
	for cur := s.goal; cur != nil; cur = cur.parent {
		path = append(path, cur.node)
		if cur == s.start {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (s *Search) deliver() {
	p := Path{
		Grid:     s.grid,
		Success:  s.success,
		Expanded: s.expansions,
		Err:      s.err,
	}
	if s.success {
		p.Nodes = s.raw
		p.Cost = s.goal.gCost
		p.Waypoints = smoothPath(s.grid, s.raw)
	}
	if len(p.Waypoints) == 0 {
		p.Success = false
	}
	s.result = p

	s.records, s.closed, s.open = nil, nil, nil
	s.state = StateDone
}

// smoothPath keeps the first node, then repeatedly jumps to the farthest later
// node still in line of sight. Spherical paths are returned unsmoothed.
func smoothPath(g *Grid, path []*Node) []Vec3 {
	if len(path) == 0 {
		return nil
	}
	waypoints := make([]Vec3, 0, len(path))
	waypoints = append(waypoints, path[0].World)
	if g.Topology() != Planar {
		for _, n := range path[1:] {
			waypoints = append(waypoints, n.World)
		}
		return waypoints
	}

	for i := 0; i < len(path)-1; {
		next := i + 1
		for c := len(path) - 1; c > i+1; c-- {
			if g.HasLineOfSight(path[i], path[c]) {
				next = c
				break
			}
		}
		waypoints = append(waypoints, path[next].World)
		i = next
	}
	return waypoints
}

// FindPath runs a search to completion.
func FindPath(g *Grid, start, end Vec3, opts SearchOptions) Path {
	s := NewSearch(g, start, end, opts)
	for !s.Advance(DefaultExpansionsPerStep) {
	}
	return s.Result()
}
