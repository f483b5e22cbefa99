package systems

import (
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/habitat/components"
	"github.com/pthm-cable/habitat/traits"
)

// Surroundings is what an agent perceives from one tile.
type Surroundings struct {
	NearestFood  ecs.Entity       // zero when none
	FoodCoord    components.Coord // InvalidCoord when none
	NearestWater components.Coord // InvalidCoord when none

	// Tiles visible from the query tile, nearest first. Shared; do not modify.
	Visible []components.Coord
}

// HasFood reports whether food was sensed.
func (s Surroundings) HasFood() bool {
	return !s.NearestFood.IsZero()
}

// HasWater reports whether water was sensed.
func (s Surroundings) HasWater() bool {
	return s.NearestWater.Valid()
}

// Sensing answers perception queries against the per-species indices.
type Sensing struct {
	grid    *Grid
	vis     *Visibility
	indices []*SpatialIndex // by species
	radius  int

	positions *ecs.Map[components.Position]
	orgs      *ecs.Map[components.Organism]
	behaviors *ecs.Map[components.Behavior]
	genes     *ecs.Map[components.Genes]

	viewOffsets []components.Coord
	// Visible tiles per coordinate, nearest first, built lazily once per tile
	visible      [][]components.Coord
	visibleBuilt []bool
	water        []components.Coord // nearest visible shore per tile
}

// NewSensing creates a sensing service. indices is indexed by species.
func NewSensing(w *ecs.World, grid *Grid, vis *Visibility, indices []*SpatialIndex, radius int) *Sensing {
	s := &Sensing{
		grid:      grid,
		vis:       vis,
		indices:   indices,
		radius:    radius,
		positions: ecs.NewMap[components.Position](w),
		orgs:      ecs.NewMap[components.Organism](w),
		behaviors: ecs.NewMap[components.Behavior](w),
		genes:     ecs.NewMap[components.Genes](w),
	}
	s.viewOffsets = viewOffsets(radius)
	s.Reset()
	return s
}

// viewOffsets lists every non-zero offset within radius, nearest first.
// Ties keep row-major order.
func viewOffsets(radius int) []components.Coord {
	sqr := radius * radius
	var offsets []components.Coord
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			d := x*x + y*y
			if (x != 0 || y != 0) && d <= sqr {
				offsets = append(offsets, components.Coord{X: x, Y: y})
			}
		}
	}
	sort.SliceStable(offsets, func(i, j int) bool {
		a, b := offsets[i], offsets[j]
		return a.X*a.X+a.Y*a.Y < b.X*b.X+b.Y*b.Y
	})
	return offsets
}

// Reset drops the memoised visible-tile cache. Only needed if the grid
// changes after construction.
func (s *Sensing) Reset() {
	n := s.grid.Size() * s.grid.Size()
	s.visible = make([][]components.Coord, n)
	s.visibleBuilt = make([]bool, n)
	s.water = make([]components.Coord, n)
}

// Radius returns the view distance in tiles.
func (s *Sensing) Radius() int {
	return s.radius
}

// VisibleTiles returns every tile within view distance of c that is
// visible from it, nearest first. Computed once per tile.
func (s *Sensing) VisibleTiles(c components.Coord) []components.Coord {
	idx := c.Y*s.grid.Size() + c.X
	if s.visibleBuilt[idx] {
		return s.visible[idx]
	}

	var tiles []components.Coord
	water := components.InvalidCoord
	for _, o := range s.viewOffsets {
		t := c.Add(o)
		if !s.grid.InBounds(t) || !s.vis.IsVisible(c, t) {
			continue
		}
		tiles = append(tiles, t)
		if !water.Valid() && s.grid.Shore(t) {
			water = t
		}
	}
	s.visible[idx] = tiles
	s.water[idx] = water
	s.visibleBuilt[idx] = true
	return tiles
}

// NearestWater returns the closest visible shore tile from c.
func (s *Sensing) NearestWater(c components.Coord) components.Coord {
	s.VisibleTiles(c)
	return s.water[c.Y*s.grid.Size()+c.X]
}

// NearestFood returns the closest visible entity from any species in the
// diet. Ties between species keep the lower species index.
func (s *Sensing) NearestFood(c components.Coord, diet traits.Diet) (ecs.Entity, components.Coord, bool) {
	var found ecs.Entity
	at := components.InvalidCoord
	best := -1
	for sp, idx := range s.indices {
		if !diet.Eats(traits.Species(sp)) {
			continue
		}
		e, d, ok := idx.nearest(c, s.radius)
		if ok && (best < 0 || d < best) {
			found, best = e, d
			at = s.positions.Get(e).Coord
		}
	}
	return found, at, best >= 0
}

// Sense returns the nearest food in the diet and the nearest visible water.
func (s *Sensing) Sense(c components.Coord, diet traits.Diet) Surroundings {
	food, at, _ := s.NearestFood(c, diet)
	return Surroundings{
		NearestFood:  food,
		FoodCoord:    at,
		NearestWater: s.NearestWater(c),
		Visible:      s.VisibleTiles(c),
	}
}

// SensePotentialMates returns the entities of self's species within view
// that are of the opposite sex and currently searching for a mate,
// nearest first.
func (s *Sensing) SensePotentialMates(c components.Coord, self ecs.Entity) []ecs.Entity {
	org := s.orgs.Get(self)
	selfMale := s.genes.Get(self).IsMale

	var mates []ecs.Entity
	for _, e := range s.indices[org.Species].EntitiesInRange(c, s.radius) {
		if e == self {
			continue
		}
		if s.genes.Get(e).IsMale == selfMale {
			continue
		}
		if s.behaviors.Get(e).Action != components.ActionSearchingForMate {
			continue
		}
		mates = append(mates, e)
	}

	sort.SliceStable(mates, func(i, j int) bool {
		return c.SqrDistance(s.positions.Get(mates[i]).Coord) < c.SqrDistance(s.positions.Get(mates[j]).Coord)
	})
	return mates
}
