package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/habitat/components"
	"github.com/pthm-cable/habitat/config"
	"github.com/pthm-cable/habitat/traits"
)

func init() {
	config.MustInit("")
}

const (
	testPlant  traits.Species = 0
	testAnimal traits.Species = 1
)

// fixture wires a minimal two-species world: plants (0) and animals (1)
// that eat plants.
type fixture struct {
	w        *ecs.World
	grid     *Grid
	vis      *Visibility
	indices  []*SpatialIndex
	sensing  *Sensing
	planner  *MovementPlanner
	behavior *BehaviorSystem

	plants  *ecs.Map4[components.Position, components.Slot, components.Organism, components.Food]
	animals *ecs.Map7[components.Position, components.Slot, components.Organism, components.Needs, components.Behavior, components.Motion, components.Genes]

	orgs   *ecs.Map[components.Organism]
	needs  *ecs.Map[components.Needs]
	behs   *ecs.Map[components.Behavior]
	motion *ecs.Map[components.Motion]
	food   *ecs.Map[components.Food]
	slots  *ecs.Map[components.Slot]
	pos    *ecs.Map[components.Position]

	nextID uint32
}

func newFixture(grid *Grid, seed int64) *fixture {
	cfg := config.Cfg()
	w := ecs.NewWorld()
	vis := NewVisibility(grid)
	indices := []*SpatialIndex{
		NewSpatialIndex(w, grid, vis, cfg.World.RegionSize),
		NewSpatialIndex(w, grid, vis, cfg.World.RegionSize),
	}
	sensing := NewSensing(w, grid, vis, indices, cfg.Sim.MaxViewDistance)
	planner := NewMovementPlanner(grid, rand.New(rand.NewSource(seed)))

	return &fixture{
		w:        w,
		grid:     grid,
		vis:      vis,
		indices:  indices,
		sensing:  sensing,
		planner:  planner,
		behavior: NewBehaviorSystem(w, cfg.Sim, vis, sensing, planner, indices),
		plants:   ecs.NewMap4[components.Position, components.Slot, components.Organism, components.Food](w),
		animals: ecs.NewMap7[components.Position, components.Slot, components.Organism, components.Needs,
			components.Behavior, components.Motion, components.Genes](w),
		orgs:   ecs.NewMap[components.Organism](w),
		needs:  ecs.NewMap[components.Needs](w),
		behs:   ecs.NewMap[components.Behavior](w),
		motion: ecs.NewMap[components.Motion](w),
		food:   ecs.NewMap[components.Food](w),
		slots:  ecs.NewMap[components.Slot](w),
		pos:    ecs.NewMap[components.Position](w),
	}
}

func (f *fixture) spawnPlant(c components.Coord, quantity float64) ecs.Entity {
	f.nextID++
	e := f.plants.NewEntity(
		&components.Position{Coord: c},
		&components.Slot{},
		&components.Organism{ID: f.nextID, Species: testPlant, Traits: traits.Plant},
		&components.Food{Remaining: quantity},
	)
	f.indices[testPlant].Add(e, c)
	return e
}

func (f *fixture) spawnAnimal(c components.Coord, hunger, thirst float64, male bool) ecs.Entity {
	f.nextID++
	sex := traits.Female
	if male {
		sex = traits.Male
	}
	e := f.animals.NewEntity(
		&components.Position{Coord: c},
		&components.Slot{},
		&components.Organism{ID: f.nextID, Species: testAnimal, Traits: traits.Animal | sex, Diet: traits.DietOf(testPlant)},
		&components.Needs{Hunger: hunger, Thirst: thirst},
		&components.Behavior{LastTile: c, TargetCoord: components.InvalidCoord},
		&components.Motion{},
		&components.Genes{IsMale: male},
	)
	f.indices[testAnimal].Add(e, c)
	return e
}

// bruteNearest scans ents linearly for the closest visible one within
// radius (inclusive).
func bruteNearest(f *fixture, ents []ecs.Entity, origin components.Coord, radius int) (ecs.Entity, int, bool) {
	best := -1
	var found ecs.Entity
	for _, e := range ents {
		c := f.pos.Get(e).Coord
		d := origin.SqrDistance(c)
		if d > radius*radius || !f.vis.IsVisible(origin, c) {
			continue
		}
		if best < 0 || d < best {
			best, found = d, e
		}
	}
	return found, best, best >= 0
}
