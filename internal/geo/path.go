package geo

// Path is the outcome of a search. A failed search is a normal result:
// Success is false and Waypoints is empty. Err is set only when the search
// aborted on a broken invariant such as heap overflow.
type Path struct {
	Grid      *Grid
	Nodes     []*Node // raw searched nodes, start to goal
	Waypoints []Vec3  // smoothed output
	Success   bool
	Cost      int // gCost at the goal
	Expanded  int
	Err       error
}

// Destination returns the last waypoint.
func (p Path) Destination() (Vec3, bool) {
	if len(p.Waypoints) == 0 {
		return Vec3{}, false
	}
	return p.Waypoints[len(p.Waypoints)-1], true
}

// Len returns the number of waypoints.
func (p Path) Len() int { return len(p.Waypoints) }
