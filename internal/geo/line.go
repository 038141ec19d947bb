package geo

// LineIterator steps through every grid cell a segment between two cell
// centres passes through, both ends inclusive. Where the segment crosses a
// cell corner exactly, both cells sharing that corner are yielded before the
// diagonal one. Used for line-of-sight checks during path smoothing.
type LineIterator struct {
	currentX, currentY int
	baseX, baseY       int
	stepX, stepY       int
	nx, ny             int
	ix, iy             int
	corner             int
	started            bool
}

// NewLineIterator creates a line iterator from (sx, sy) to (ex, ey).
func NewLineIterator(sx, sy, ex, ey int) *LineIterator {
	it := &LineIterator{
		currentX: sx, currentY: sy,
		baseX: sx, baseY: sy,
		nx:    absInt(ex - sx),
		ny:    absInt(ey - sy),
		stepX: 1,
		stepY: 1,
	}
	if ex < sx {
		it.stepX = -1
	}
	if ey < sy {
		it.stepY = -1
	}
	return it
}

// Next advances to the next cell. The first call yields the start cell;
// returns false once the end cell has been yielded.
func (it *LineIterator) Next() bool {
	if !it.started {
		it.started = true
		return true
	}
	if it.ix >= it.nx && it.iy >= it.ny {
		return false
	}

	// Compares where the segment leaves the current cell: through its x side,
	// its y side, or exactly through the corner.
	decision := (1+2*it.ix)*it.ny - (1+2*it.iy)*it.nx
	switch {
	case decision == 0:
		switch it.corner {
		case 0:
			it.corner = 1
			it.currentX, it.currentY = it.baseX+it.stepX, it.baseY
			return true
		case 1:
			it.corner = 2
			it.currentX, it.currentY = it.baseX, it.baseY+it.stepY
			return true
		}
		it.corner = 0
		it.baseX += it.stepX
		it.baseY += it.stepY
		it.ix++
		it.iy++
	case decision < 0:
		it.baseX += it.stepX
		it.ix++
	default:
		it.baseY += it.stepY
		it.iy++
	}
	it.currentX, it.currentY = it.baseX, it.baseY
	return true
}

// X returns the current cell X.
func (it *LineIterator) X() int { return it.currentX }

// Y returns the current cell Y.
func (it *LineIterator) Y() int { return it.currentY }
