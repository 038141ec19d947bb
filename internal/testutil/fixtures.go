package testutil

import (
	"testing"

	"github.com/udisondev/gridnav/internal/geo"
	"github.com/udisondev/gridnav/internal/terrain"
)

// Wall задаёт вертикальную стену непроходимых клеток (x, y0..y1) в координатах сетки.
type Wall struct {
	X, Y0, Y1 int
}

// FlatField создаёт плоскую поверхность под сетку w×h с радиусом узла 1
// и вырезает дыры под каждой клеткой стен.
func FlatField(w, h int, walls ...Wall) *terrain.Field {
	// Узел (x, y) лежит в мировой точке (2x, 0, 2y); шаг вершин поля равен 1.
	f := terrain.NewFlat(float64(2*w), float64(2*h), 1, 0)
	for _, wall := range walls {
		for y := wall.Y0; y <= wall.Y1; y++ {
			cx, cz := float64(2*wall.X), float64(2*y)
			f.AddHole(cx-0.5, cz-0.5, cx+0.5, cz+0.5)
		}
	}
	return f
}

// PlanarSettings возвращает настройки плоской сетки w×h с радиусом узла 1.
func PlanarSettings(name string, w, h int) geo.Settings {
	return geo.Settings{
		Name:           name,
		Topology:       geo.Planar,
		NodeRadius:     1,
		WorldSize:      [2]float64{float64(2 * w), float64(2 * h)},
		UnwalkableMask: geo.LayerObstacle,
	}
}

// NewGrid создаёт несканированную сетку w×h поверх плоского поля со стенами.
func NewGrid(tb testing.TB, name string, w, h int, walls ...Wall) *geo.Grid {
	tb.Helper()

	g, err := geo.NewGrid(PlanarSettings(name, w, h), FlatField(w, h, walls...))
	if err != nil {
		tb.Fatalf("creating grid %q: %v", name, err)
	}
	return g
}

// ScannedGrid создаёт сетку и полностью её сканирует.
func ScannedGrid(tb testing.TB, name string, w, h int, walls ...Wall) *geo.Grid {
	tb.Helper()

	g := NewGrid(tb, name, w, h, walls...)
	if !g.Scan() {
		tb.Fatalf("grid %q already scanning", name)
	}
	return g
}

// Cell возвращает мировую позицию клетки (x, y) плоской сетки с радиусом узла 1.
func Cell(x, y int) geo.Vec3 {
	return geo.Vec3{float64(2 * x), 0, float64(2 * y)}
}
