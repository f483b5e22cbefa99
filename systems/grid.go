package systems

import (
	"github.com/pthm-cable/habitat/components"
)

// Grid is the immutable N x N tile map agents live on.
// Cells are stored row-major: index = y*size + x.
type Grid struct {
	size     int
	tileSize float32
	walkable []bool
	water    []bool
	shore    []bool // Water tiles with at least one land neighbour

	// Walkable 8-neighbours per tile, precomputed
	neighbours [][]components.Coord
	landCoords []components.Coord
}

// NewGrid builds a grid from walkability and water layers, both indexed
// row-major. water may be nil. Water tiles are never walkable.
func NewGrid(size int, walkable, water []bool) *Grid {
	g := &Grid{
		size:     size,
		tileSize: 1,
		walkable: make([]bool, size*size),
		water:    make([]bool, size*size),
		shore:    make([]bool, size*size),
	}
	copy(g.walkable, walkable)
	if water != nil {
		copy(g.water, water)
	}
	for i := range g.walkable {
		if g.water[i] {
			g.walkable[i] = false
		}
	}
	g.build()
	return g
}

// NewOpenGrid returns a fully walkable grid without water.
func NewOpenGrid(size int) *Grid {
	walkable := make([]bool, size*size)
	for i := range walkable {
		walkable[i] = true
	}
	return NewGrid(size, walkable, nil)
}

func (g *Grid) build() {
	n := g.size
	g.neighbours = make([][]components.Coord, n*n)
	g.landCoords = g.landCoords[:0]

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			idx := y*n + x
			c := components.Coord{X: x, Y: y}

			if g.water[idx] {
				for _, o := range neighbourOffsets {
					nc := c.Add(o)
					if g.InBounds(nc) && !g.water[nc.Y*n+nc.X] {
						g.shore[idx] = true
						break
					}
				}
			}

			if !g.walkable[idx] {
				continue
			}
			g.landCoords = append(g.landCoords, c)

			var list []components.Coord
			for _, o := range neighbourOffsets {
				nc := c.Add(o)
				if g.InBounds(nc) && g.walkable[nc.Y*n+nc.X] {
					list = append(list, nc)
				}
			}
			g.neighbours[idx] = list
		}
	}
}

// neighbourOffsets lists the 8 neighbour offsets in row-major order.
var neighbourOffsets = [8]components.Coord{
	{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: -1, Y: 0}, {X: 1, Y: 0},
	{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
}

// Size returns the edge length in tiles.
func (g *Grid) Size() int {
	return g.size
}

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c components.Coord) bool {
	return c.X >= 0 && c.X < g.size && c.Y >= 0 && c.Y < g.size
}

// Walkable reports whether c can be stood on. Out-of-bounds is unwalkable.
func (g *Grid) Walkable(c components.Coord) bool {
	if !g.InBounds(c) {
		return false
	}
	return g.walkable[c.Y*g.size+c.X]
}

// Water reports whether c is a water tile.
func (g *Grid) Water(c components.Coord) bool {
	if !g.InBounds(c) {
		return false
	}
	return g.water[c.Y*g.size+c.X]
}

// Shore reports whether c is a water tile bordering land.
func (g *Grid) Shore(c components.Coord) bool {
	if !g.InBounds(c) {
		return false
	}
	return g.shore[c.Y*g.size+c.X]
}

// WalkableNeighbours returns the walkable 8-neighbours of c.
// The returned slice is shared and must not be modified.
func (g *Grid) WalkableNeighbours(c components.Coord) []components.Coord {
	return g.neighbours[c.Y*g.size+c.X]
}

// LandCoords returns every walkable tile in row-major order.
// The returned slice is shared and must not be modified.
func (g *Grid) LandCoords() []components.Coord {
	return g.landCoords
}

// WorldPosition returns the centre of tile c in world units, with the
// grid centred on the origin.
func (g *Grid) WorldPosition(c components.Coord) components.WorldPos {
	half := float32(g.size) * g.tileSize / 2
	return components.WorldPos{
		X: (float32(c.X)+0.5)*g.tileSize - half,
		Z: (float32(c.Y)+0.5)*g.tileSize - half,
	}
}

// SetTileSize sets the world units per tile used by WorldPosition.
func (g *Grid) SetTileSize(s float32) {
	g.tileSize = s
}

// ParseGrid builds a grid from rows of characters. '.' is land, '#' is
// blocked land, '~' is water. Row 0 is y = 0.
func ParseGrid(rows []string) *Grid {
	n := len(rows)
	walkable := make([]bool, n*n)
	water := make([]bool, n*n)
	for y, row := range rows {
		for x := 0; x < n && x < len(row); x++ {
			switch row[x] {
			case '.':
				walkable[y*n+x] = true
			case '~':
				water[y*n+x] = true
			}
		}
	}
	return NewGrid(n, walkable, water)
}
