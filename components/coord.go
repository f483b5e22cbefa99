package components

import "math"

// Coord is an integer tile coordinate. Equality is exact.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InvalidCoord is the "no tile" sentinel.
var InvalidCoord = Coord{X: -1, Y: -1}

// Add returns c + o.
func (c Coord) Add(o Coord) Coord {
	return Coord{X: c.X + o.X, Y: c.Y + o.Y}
}

// Sub returns c - o.
func (c Coord) Sub(o Coord) Coord {
	return Coord{X: c.X - o.X, Y: c.Y - o.Y}
}

// SqrDistance returns the squared euclidean distance between c and o.
func (c Coord) SqrDistance(o Coord) int {
	dx := c.X - o.X
	dy := c.Y - o.Y
	return dx*dx + dy*dy
}

// Distance returns the euclidean distance between c and o.
func (c Coord) Distance(o Coord) float64 {
	return math.Sqrt(float64(c.SqrDistance(o)))
}

// Chebyshev returns max(|dx|, |dy|).
func (c Coord) Chebyshev(o Coord) int {
	dx := abs(c.X - o.X)
	dy := abs(c.Y - o.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// IsNeighbour reports whether o is within one step of c on both axes.
// A coordinate is its own neighbour.
func (c Coord) IsNeighbour(o Coord) bool {
	return abs(c.X-o.X) <= 1 && abs(c.Y-o.Y) <= 1
}

// IsDiagonalStep reports whether moving from c to o changes both axes.
func (c Coord) IsDiagonalStep(o Coord) bool {
	return c.X != o.X && c.Y != o.Y
}

// Valid reports whether c is not the sentinel.
func (c Coord) Valid() bool {
	return c != InvalidCoord
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// WorldPos is the continuous position of a tile centre, used by external
// presentation layers only.
type WorldPos struct {
	X float32 `json:"x"`
	Z float32 `json:"z"`
}
