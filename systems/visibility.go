package systems

import (
	"github.com/pthm-cable/habitat/components"
)

// Visibility answers line-of-sight and straight-path queries on a grid.
//
// Both queries rasterise the segment with integer Bresenham stepping that
// starts at the first argument, so IsVisible(a, b) and IsVisible(b, a) can
// disagree when the two rasterisations cross different cells.
type Visibility struct {
	grid *Grid
}

// NewVisibility creates a visibility oracle for the grid.
func NewVisibility(grid *Grid) *Visibility {
	return &Visibility{grid: grid}
}

// line holds the stepping parameters of a rasterised segment.
type line struct {
	dx1, dy1 int // diagonal step
	dx2, dy2 int // straight step
	longest  int
	shortest int
}

func newLine(a, b components.Coord) line {
	w := b.X - a.X
	h := b.Y - a.Y
	absW, absH := abs(w), abs(h)

	var l line
	if w < 0 {
		l.dx1, l.dx2 = -1, -1
	} else if w > 0 {
		l.dx1, l.dx2 = 1, 1
	}
	if h < 0 {
		l.dy1 = -1
	} else if h > 0 {
		l.dy1 = 1
	}

	l.longest, l.shortest = absW, absH
	if l.longest <= l.shortest {
		l.longest, l.shortest = absH, absW
		if h < 0 {
			l.dy2 = -1
		} else if h > 0 {
			l.dy2 = 1
		}
		l.dx2 = 0
	}
	return l
}

// IsVisible reports whether every cell strictly between a and b is
// walkable. Neighbouring tiles are always visible; b itself is not checked.
func (v *Visibility) IsVisible(a, b components.Coord) bool {
	if a.IsNeighbour(b) {
		return true
	}

	l := newLine(a, b)
	x, y := a.X, a.Y
	numerator := l.longest >> 1
	for i := 1; i < l.longest; i++ {
		numerator += l.shortest
		if numerator >= l.longest {
			numerator -= l.longest
			x += l.dx1
			y += l.dy1
		} else {
			x += l.dx2
			y += l.dy2
		}
		if !v.grid.walkable[y*v.grid.size+x] {
			return false
		}
	}
	return true
}

// StraightPath returns the cells from a (exclusive) to b (inclusive) along
// the rasterised segment. It returns nil when a and b are neighbours or an
// intermediate cell is blocked. The endpoint may be unwalkable (water).
func (v *Visibility) StraightPath(a, b components.Coord) []components.Coord {
	return v.AppendStraightPath(nil, a, b)
}

// AppendStraightPath is StraightPath writing into dst[:0]. Reuse dst across
// calls to avoid allocations. Returns nil on the same conditions as
// StraightPath.
func (v *Visibility) AppendStraightPath(dst []components.Coord, a, b components.Coord) []components.Coord {
	if a.IsNeighbour(b) {
		return nil
	}

	l := newLine(a, b)
	path := dst[:0]
	x, y := a.X, a.Y
	numerator := l.longest >> 1
	for i := 1; i <= l.longest; i++ {
		numerator += l.shortest
		if numerator >= l.longest {
			numerator -= l.longest
			x += l.dx1
			y += l.dy1
		} else {
			x += l.dx2
			y += l.dy2
		}
		if i != l.longest && !v.grid.walkable[y*v.grid.size+x] {
			return nil
		}
		path = append(path, components.Coord{X: x, Y: y})
	}
	return path
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
