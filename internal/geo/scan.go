package geo

// ScanTask is a resumable scan of a grid. Each Advance scans a bounded number
// of rows so a caller can spread a large scan over many ticks.
type ScanTask struct {
	grid      *Grid
	row, rows int
	done      bool
}

// BeginScan marks the grid as scanning and returns a task that rebuilds its
// node array. Returns false if a scan is already running.
func (g *Grid) BeginScan() (*ScanTask, bool) {
	if !g.scanning.CompareAndSwap(false, true) {
		return nil, false
	}
	g.generation.Add(1)

	g.mu.Lock()
	g.nodes = nil
	g.ensureNodesLocked()
	rows := g.width
	if g.settings.Topology == Spherical {
		rows = g.faces * g.height
	}
	g.mu.Unlock()

	return &ScanTask{grid: g, rows: rows}, true
}

// Grid returns the grid being scanned.
func (t *ScanTask) Grid() *Grid { return t.grid }

// Progress returns the number of rows scanned and the total.
func (t *ScanTask) Progress() (done, total int) { return t.row, t.rows }

// Done reports whether the scan has finished.
func (t *ScanTask) Done() bool { return t.done }

// Advance scans up to rows rows and reports whether the scan is complete.
func (t *ScanTask) Advance(rows int) bool {
	if t.done {
		return true
	}
	for ; rows > 0 && t.row < t.rows; rows-- {
		t.scanRow(t.row)
		t.row++
	}
	if t.row >= t.rows {
		t.done = true
		t.grid.scanning.Store(false)
	}
	return t.done
}

// scanRow probes one row outside the lock and publishes it under the lock.
// Planar rows run along Y for a fixed X; spherical rows are face-major.
func (t *ScanTask) scanRow(row int) {
	g := t.grid
	var nodes []*Node
	if g.settings.Topology == Spherical {
		face, y := row/g.height, row%g.height
		nodes = make([]*Node, 0, g.width)
		for x := 0; x < g.width; x++ {
			nodes = append(nodes, g.probeSphere(face, x, y))
		}
	} else {
		nodes = make([]*Node, 0, g.height)
		for y := 0; y < g.height; y++ {
			nodes = append(nodes, g.probePlanar(row, y))
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range nodes {
		n.Index = g.indexOf(n.Face, n.X, n.Y)
		g.nodes[n.Index] = n
	}
}

// Scan runs a complete scan synchronously. Returns false if a scan was
// already in progress.
func (g *Grid) Scan() bool {
	task, ok := g.BeginScan()
	if !ok {
		return false
	}
	for !task.Advance(DefaultScanRowsPerStep) {
	}
	return true
}
