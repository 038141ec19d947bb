package geo

// Node is a single walkability cell of a grid.
// Nodes are written only while their grid scans and are read-only afterwards.
type Node struct {
	X, Y  int
	Face  int // cube face for spherical grids, 0 for planar
	Index int // dense index into the owning grid

	World    Vec3
	Walkable bool
}

// searchNode carries the per-search bookkeeping of a Node.
// A search owns its records; nothing outlives the search.
type searchNode struct {
	node      *Node
	gCost     int
	hCost     int
	parent    *searchNode
	heapIndex int
}

func (n *searchNode) fCost() int {
	return n.gCost + n.hCost
}

// CompareTo ranks lower fCost higher; ties go to the node closer to the goal.
func (n *searchNode) CompareTo(other *searchNode) int {
	compare := cmpInt(n.fCost(), other.fCost())
	if compare == 0 {
		compare = cmpInt(n.hCost, other.hCost)
	}
	return -compare
}

func (n *searchNode) HeapIndex() int     { return n.heapIndex }
func (n *searchNode) SetHeapIndex(i int) { n.heapIndex = i }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
