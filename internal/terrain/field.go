package terrain

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/jakecoffman/cp"

	"github.com/udisondev/gridnav/internal/geo"
)

// ErrBadField is returned for heightfields that cannot be sampled.
var ErrBadField = errors.New("terrain: bad heightfield")

// Field is heightfield terrain on the x-z plane with static obstacles.
//
// Heights are sampled at vertices CellSize apart starting at the origin and
// interpolated bilinearly in between; a NaN vertex is a hole with no ground.
// Obstacles are vertical prisms (boxes and circles in x-z) kept in a chipmunk
// space, each tagged with one layer.
// Safe for concurrent use.
type Field struct {
	originX, originZ float64
	cellSize         float64
	cols, rows       int

	mu      sync.Mutex
	heights []float64
	space   *cp.Space
	shapes  []*cp.Shape
}

var _ geo.Surface = (*Field)(nil)

// NewField creates a field of cols x rows height vertices.
func NewField(originX, originZ, cellSize float64, cols, rows int, heights []float64) (*Field, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) {
		return nil, fmt.Errorf("cell size %v: %w", cellSize, ErrBadField)
	}
	if cols < 2 || rows < 2 {
		return nil, fmt.Errorf("%dx%d vertices: %w", cols, rows, ErrBadField)
	}
	if len(heights) != cols*rows {
		return nil, fmt.Errorf("%d heights for %dx%d vertices: %w", len(heights), cols, rows, ErrBadField)
	}
	return &Field{
		originX:  originX,
		originZ:  originZ,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		heights:  heights,
		space:    cp.NewSpace(),
	}, nil
}

// NewFlat creates a flat field covering width x depth from the world origin.
// It panics on a non-positive cell size.
func NewFlat(width, depth, cellSize, height float64) *Field {
	f, err := NewFlatAt(0, 0, width, depth, cellSize, height)
	if err != nil {
		panic(err)
	}
	return f
}

// NewFlatAt creates a flat field covering width x depth from (originX, originZ).
func NewFlatAt(originX, originZ, width, depth, cellSize, height float64) (*Field, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) {
		return nil, fmt.Errorf("cell size %v: %w", cellSize, ErrBadField)
	}
	cols := max(2, int(math.Ceil(width/cellSize))+1)
	rows := max(2, int(math.Ceil(depth/cellSize))+1)
	heights := make([]float64, cols*rows)
	for i := range heights {
		heights[i] = height
	}
	return NewField(originX, originZ, cellSize, cols, rows, heights)
}

// Size returns the number of height vertices along x and z.
func (f *Field) Size() (cols, rows int) {
	return f.cols, f.rows
}

// CellSize returns the vertex spacing.
func (f *Field) CellSize() float64 {
	return f.cellSize
}

// Extent returns the covered width and depth.
func (f *Field) Extent() (width, depth float64) {
	return float64(f.cols-1) * f.cellSize, float64(f.rows-1) * f.cellSize
}

// SetHeight sets the height of vertex (col, row).
func (f *Field) SetHeight(col, row int, h float64) {
	if col < 0 || col >= f.cols || row < 0 || row >= f.rows {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heights[row*f.cols+col] = h
}

// Height returns the ground height at (x, z). Returns false over holes and
// outside the field.
func (f *Field) Height(x, z float64) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heightLocked(x, z)
}

func (f *Field) heightLocked(x, z float64) (float64, bool) {
	u := (x - f.originX) / f.cellSize
	v := (z - f.originZ) / f.cellSize
	if u < 0 || v < 0 || u > float64(f.cols-1) || v > float64(f.rows-1) || math.IsNaN(u) || math.IsNaN(v) {
		return 0, false
	}
	i := min(int(u), f.cols-2)
	j := min(int(v), f.rows-2)
	fu, fv := u-float64(i), v-float64(j)

	corners := [4]struct {
		di, dj int
		w      float64
	}{
		{0, 0, (1 - fu) * (1 - fv)},
		{1, 0, fu * (1 - fv)},
		{0, 1, (1 - fu) * fv},
		{1, 1, fu * fv},
	}
	var h float64
	for _, c := range corners {
		if c.w == 0 {
			continue
		}
		hv := f.heights[(j+c.dj)*f.cols+i+c.di]
		if math.IsNaN(hv) {
			return 0, false
		}
		h += c.w * hv
	}
	return h, true
}

// normalLocked estimates the surface normal at (x, z) from central differences.
func (f *Field) normalLocked(x, z float64) geo.Vec3 {
	d := f.cellSize / 2
	slope := func(h0, h1 float64, ok0, ok1 bool) float64 {
		if !ok0 || !ok1 {
			return 0
		}
		return (h1 - h0) / (2 * d)
	}
	xl, okxl := f.heightLocked(x-d, z)
	xr, okxr := f.heightLocked(x+d, z)
	zb, okzb := f.heightLocked(x, z-d)
	zf, okzf := f.heightLocked(x, z+d)
	n := geo.Vec3{-slope(xl, xr, okxl, okxr), 1, -slope(zb, zf, okzb, okzf)}
	return n.Normalize()
}

// AddHole removes the ground under the rectangle x0..x1, z0..z1.
func (f *Field) AddHole(x0, z0, x1, z1 float64) {
	x0, x1 = min(x0, x1), max(x0, x1)
	z0, z1 = min(z0, z1), max(z0, z1)

	f.mu.Lock()
	defer f.mu.Unlock()
	for row := range f.rows {
		z := f.originZ + float64(row)*f.cellSize
		if z < z0 || z > z1 {
			continue
		}
		for col := range f.cols {
			x := f.originX + float64(col)*f.cellSize
			if x >= x0 && x <= x1 {
				f.heights[row*f.cols+col] = math.NaN()
			}
		}
	}
}

// AddBox adds an axis-aligned box obstacle on layer.
func (f *Field) AddBox(x0, z0, x1, z1 float64, layer geo.LayerMask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bb := cp.BB{L: min(x0, x1), B: min(z0, z1), R: max(x0, x1), T: max(z0, z1)}
	f.addShapeLocked(cp.NewBox2(f.space.StaticBody, bb, 0), layer)
}

// AddCircle adds a round obstacle of radius r centred at (x, z) on layer.
func (f *Field) AddCircle(x, z, r float64, layer geo.LayerMask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addShapeLocked(cp.NewCircle(f.space.StaticBody, r, cp.Vector{X: x, Y: z}), layer)
}

func (f *Field) addShapeLocked(shape *cp.Shape, layer geo.LayerMask) {
	if layer == 0 {
		layer = geo.LayerObstacle
	}
	shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, uint(layer), cp.ALL_CATEGORIES))
	f.space.AddShape(shape)
	f.shapes = append(f.shapes, shape)
}

// Obstacles returns the number of obstacles.
func (f *Field) Obstacles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.shapes)
}

// ClearObstacles removes every obstacle.
func (f *Field) ClearObstacles() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.shapes {
		f.space.RemoveShape(s)
	}
	f.shapes = nil
}

// Raycast finds the first ground crossing on the segment from-to.
// Only the ground layer is hit; obstacles are reported by CheckSphere.
func (f *Field) Raycast(from, to geo.Vec3, mask geo.LayerMask) (geo.Hit, bool) {
	if mask&geo.LayerGround == 0 {
		return geo.Hit{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	// above is the height of p over the ground; holes and off-field points
	// count as open air.
	above := func(p geo.Vec3) float64 {
		h, ok := f.heightLocked(p.X(), p.Z())
		if !ok {
			return math.Inf(1)
		}
		return p.Y() - h
	}

	d := to.Sub(from)
	horizontal := math.Hypot(d.X(), d.Z())
	if horizontal < 1e-9 {
		h, ok := f.heightLocked(from.X(), from.Z())
		if !ok || h > max(from.Y(), to.Y()) || h < min(from.Y(), to.Y()) {
			return geo.Hit{}, false
		}
		p := geo.Vec3{from.X(), h, from.Z()}
		return geo.Hit{Point: p, Normal: f.normalLocked(p.X(), p.Z())}, true
	}

	if above(from) <= 0 {
		return geo.Hit{Point: from, Normal: f.normalLocked(from.X(), from.Z())}, true
	}
	steps := max(1, int(math.Ceil(horizontal/(f.cellSize/4))))
	prev := 0.0
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		if above(from.Add(d.Mul(t))) > 0 {
			prev = t
			continue
		}
		lo, hi := prev, t
		for range 24 {
			mid := (lo + hi) / 2
			if above(from.Add(d.Mul(mid))) > 0 {
				lo = mid
			} else {
				hi = mid
			}
		}
		p := from.Add(d.Mul(hi))
		if h, ok := f.heightLocked(p.X(), p.Z()); ok {
			p[1] = h
		}
		return geo.Hit{Point: p, Normal: f.normalLocked(p.X(), p.Z())}, true
	}
	return geo.Hit{}, false
}

// CheckSphere reports whether an obstacle on mask lies within radius of
// center in the x-z plane.
func (f *Field) CheckSphere(center geo.Vec3, radius float64, mask geo.LayerMask) bool {
	if mask == 0 {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	info := f.space.PointQueryNearest(cp.Vector{X: center.X(), Y: center.Z()}, radius, queryFilter(mask))
	return info.Shape != nil && info.Distance < radius
}

// Linecast reports whether the x-z projection of a-b crosses an obstacle on mask.
func (f *Field) Linecast(a, b geo.Vec3, mask geo.LayerMask) bool {
	if mask == 0 {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	info := f.space.SegmentQueryFirst(cp.Vector{X: a.X(), Y: a.Z()}, cp.Vector{X: b.X(), Y: b.Z()}, 0, queryFilter(mask))
	return info.Shape != nil
}

func queryFilter(mask geo.LayerMask) cp.ShapeFilter {
	return cp.NewShapeFilter(cp.NO_GROUP, cp.ALL_CATEGORIES, uint(mask))
}
