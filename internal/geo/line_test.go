package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type cell struct{ x, y int }

func collectLine(sx, sy, ex, ey int) []cell {
	it := NewLineIterator(sx, sy, ex, ey)
	var cells []cell
	for it.Next() {
		cells = append(cells, cell{it.X(), it.Y()})
	}
	return cells
}

func TestLineIteratorHorizontal(t *testing.T) {
	cells := collectLine(0, 0, 5, 0)

	assert.Equal(t, 6, len(cells), "should visit 6 cells (0..5)")
	assert.Equal(t, 0, cells[0].x)
	assert.Equal(t, 5, cells[5].x)
	for _, c := range cells {
		assert.Equal(t, 0, c.y)
	}
}

func TestLineIteratorVertical(t *testing.T) {
	cells := collectLine(0, 0, 0, 3)

	assert.Equal(t, 4, len(cells))
	assert.Equal(t, 0, cells[0].y)
	assert.Equal(t, 3, cells[3].y)
}

func TestLineIteratorDiagonal(t *testing.T) {
	cells := collectLine(0, 0, 3, 3)

	assert.Equal(t, []cell{
		{0, 0}, {1, 0}, {0, 1}, {1, 1},
		{2, 1}, {1, 2}, {2, 2},
		{3, 2}, {2, 3}, {3, 3},
	}, cells, "corner crossings include both side cells")
}

func TestLineIteratorShallow(t *testing.T) {
	assert.Equal(t, []cell{{0, 0}, {1, 0}, {1, 1}, {2, 1}}, collectLine(0, 0, 2, 1))
}

func TestLineIteratorNegative(t *testing.T) {
	cells := collectLine(5, 5, 2, 2)

	assert.Equal(t, cell{5, 5}, cells[0])
	assert.Equal(t, cell{2, 2}, cells[len(cells)-1])
	assert.Contains(t, cells, cell{4, 5})
	assert.Contains(t, cells, cell{5, 4})
}

func TestLineIteratorSamePoint(t *testing.T) {
	assert.Equal(t, []cell{{3, 3}}, collectLine(3, 3, 3, 3))
}

func TestLineIteratorSteep(t *testing.T) {
	// The segment enters column 5 one row before its end.
	cells := collectLine(0, 0, 5, 9)

	assert.Contains(t, cells, cell{5, 8})
	assert.Equal(t, cell{5, 9}, cells[len(cells)-1])
	// Exact corner at (3,5) between cells (2,4) and (3,5).
	assert.Contains(t, cells, cell{3, 4})
	assert.Contains(t, cells, cell{2, 5})
}

func TestLineIteratorContiguous(t *testing.T) {
	cells := collectLine(-3, 7, 11, -2)
	for i := 1; i < len(cells); i++ {
		assert.LessOrEqual(t, absInt(cells[i].x-cells[i-1].x), 1)
		assert.LessOrEqual(t, absInt(cells[i].y-cells[i-1].y), 1)
	}
	assert.Equal(t, cell{11, -2}, cells[len(cells)-1])
}
