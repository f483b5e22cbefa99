// Package systems provides the grid, spatial queries and ECS systems for the simulation.
package systems

import (
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/habitat/components"
)

// Region is one square bucket of the spatial index.
type Region struct {
	entities   []ecs.Entity // unordered
	minX, minY int          // inclusive tile bounds
	maxX, maxY int
}

// Entities returns the region's bucket. Must not be modified.
func (r *Region) Entities() []ecs.Entity {
	return r.entities
}

// sqrDistanceTo returns the squared distance from c to the closest tile
// of the region.
func (r *Region) sqrDistanceTo(c components.Coord) int {
	dx := 0
	if c.X < r.minX {
		dx = r.minX - c.X
	} else if c.X > r.maxX {
		dx = c.X - r.maxX
	}
	dy := 0
	if c.Y < r.minY {
		dy = r.minY - c.Y
	} else if c.Y > r.maxY {
		dy = c.Y - r.maxY
	}
	return dx*dx + dy*dy
}

// RegionInView is a region paired with its squared distance from a query origin.
type RegionInView struct {
	Region *Region
	SqrDst int
}

// SpatialIndex buckets the live entities of one species into fixed square
// regions. Each entity's Slot component mirrors its index in its bucket so
// removal is O(1).
type SpatialIndex struct {
	size       int
	regionSize int
	perAxis    int
	regions    []Region

	slots     *ecs.Map[components.Slot]
	positions *ecs.Map[components.Position]
	vis       *Visibility

	count   int
	viewBuf []RegionInView // reused by queries
}

// NewSpatialIndex creates an index covering the grid with regions of
// regionSize tiles per edge.
func NewSpatialIndex(w *ecs.World, grid *Grid, vis *Visibility, regionSize int) *SpatialIndex {
	size := grid.Size()
	perAxis := (size + regionSize - 1) / regionSize

	regions := make([]Region, perAxis*perAxis)
	for ry := 0; ry < perAxis; ry++ {
		for rx := 0; rx < perAxis; rx++ {
			r := &regions[ry*perAxis+rx]
			r.minX = rx * regionSize
			r.minY = ry * regionSize
			r.maxX = min(size-1, (rx+1)*regionSize-1)
			r.maxY = min(size-1, (ry+1)*regionSize-1)
		}
	}

	return &SpatialIndex{
		size:       size,
		regionSize: regionSize,
		perAxis:    perAxis,
		regions:    regions,
		slots:      ecs.NewMap[components.Slot](w),
		positions:  ecs.NewMap[components.Position](w),
		vis:        vis,
	}
}

func (s *SpatialIndex) regionAt(c components.Coord) *Region {
	return &s.regions[(c.Y/s.regionSize)*s.perAxis+c.X/s.regionSize]
}

// RegionOf returns the region containing c.
func (s *SpatialIndex) RegionOf(c components.Coord) *Region {
	return s.regionAt(c)
}

// Add registers e at c.
func (s *SpatialIndex) Add(e ecs.Entity, c components.Coord) {
	r := s.regionAt(c)
	s.slots.Get(e).Index = len(r.entities)
	r.entities = append(r.entities, e)
	s.count++
}

// Remove unregisters e from the region containing c. The last entity of
// the bucket takes e's slot.
func (s *SpatialIndex) Remove(e ecs.Entity, c components.Coord) {
	r := s.regionAt(c)
	slot := s.slots.Get(e)
	i := slot.Index
	last := len(r.entities) - 1
	if i != last {
		moved := r.entities[last]
		r.entities[i] = moved
		s.slots.Get(moved).Index = i
	}
	r.entities = r.entities[:last]
	slot.Index = -1
	s.count--
}

// Move re-registers e after it moves from one tile to another.
func (s *SpatialIndex) Move(e ecs.Entity, from, to components.Coord) {
	s.Remove(e, from)
	s.Add(e, to)
}

// Count returns the number of registered entities.
func (s *SpatialIndex) Count() int {
	return s.count
}

// Each calls fn for every registered entity, region by region.
func (s *SpatialIndex) Each(fn func(e ecs.Entity)) {
	for i := range s.regions {
		for _, e := range s.regions[i].entities {
			fn(e)
		}
	}
}

// RegionsInView returns every region whose closest tile lies within
// radius of origin, nearest first. The returned slice is reused by the
// next query on this index.
func (s *SpatialIndex) RegionsInView(origin components.Coord, radius int) []RegionInView {
	search := (radius + s.regionSize - 1) / s.regionSize
	if search < 1 {
		search = 1
	}
	sqrRadius := radius * radius
	ox := origin.X / s.regionSize
	oy := origin.Y / s.regionSize

	view := s.viewBuf[:0]
	for ry := oy - search; ry <= oy+search; ry++ {
		if ry < 0 || ry >= s.perAxis {
			continue
		}
		for rx := ox - search; rx <= ox+search; rx++ {
			if rx < 0 || rx >= s.perAxis {
				continue
			}
			r := &s.regions[ry*s.perAxis+rx]
			d := r.sqrDistanceTo(origin)
			if d <= sqrRadius {
				view = append(view, RegionInView{Region: r, SqrDst: d})
			}
		}
	}
	sort.SliceStable(view, func(i, j int) bool { return view[i].SqrDst < view[j].SqrDst })
	s.viewBuf = view
	return view
}

// EntitiesInRange returns the entities strictly within radius of origin
// that are visible from it.
func (s *SpatialIndex) EntitiesInRange(origin components.Coord, radius int) []ecs.Entity {
	return s.AppendEntitiesInRange(nil, origin, radius)
}

// AppendEntitiesInRange is EntitiesInRange appending to dst.
func (s *SpatialIndex) AppendEntitiesInRange(dst []ecs.Entity, origin components.Coord, radius int) []ecs.Entity {
	sqrRadius := radius * radius
	for _, rv := range s.RegionsInView(origin, radius) {
		for _, e := range rv.Region.entities {
			c := s.positions.Get(e).Coord
			if origin.SqrDistance(c) < sqrRadius && s.vis.IsVisible(origin, c) {
				dst = append(dst, e)
			}
		}
	}
	return dst
}

// NearestEntity returns the closest visible entity within radius of
// origin (inclusive). Regions are visited nearest first and the search
// stops once no remaining region can hold anything closer.
func (s *SpatialIndex) NearestEntity(origin components.Coord, radius int) (ecs.Entity, bool) {
	e, _, ok := s.nearest(origin, radius)
	return e, ok
}

func (s *SpatialIndex) nearest(origin components.Coord, radius int) (ecs.Entity, int, bool) {
	best := radius*radius + 1
	var found ecs.Entity
	ok := false

	for _, rv := range s.RegionsInView(origin, radius) {
		if best <= rv.SqrDst {
			break
		}
		for _, e := range rv.Region.entities {
			c := s.positions.Get(e).Coord
			d := origin.SqrDistance(c)
			if d < best && s.vis.IsVisible(origin, c) {
				best = d
				found = e
				ok = true
			}
		}
	}
	return found, best, ok
}
