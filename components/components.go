// Package components defines ECS components for the simulation.
package components

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/habitat/traits"
)

// Position is the tile an entity occupies.
type Position struct {
	Coord
}

// Slot caches an entity's index inside its spatial region bucket.
// Maintained by the spatial index only.
type Slot struct {
	Index int
}

// Organism is the record every entity carries.
type Organism struct {
	ID       uint32
	Species  traits.Species
	Traits   traits.Trait
	Diet     traits.Diet // Species this organism eats (empty for plants)
	Dead     bool
	Cause    DeathCause
	BornTick int32
}

// Needs holds hunger and thirst, each in [0, 1]. Reaching 1 is lethal.
type Needs struct {
	Hunger float64
	Thirst float64
}

// Behavior is the decision state of a mobile agent.
type Behavior struct {
	Action      Action
	Target      ecs.Entity // Food or mate target (zero = none)
	TargetCoord Coord      // Water target (InvalidCoord = none)

	// Cached straight path toward the current target, and the index of the
	// next step. Path[PathIndex-1] is the tile the agent stood on when it
	// took the previous step.
	Path      []Coord
	PathIndex int

	LastTile      Coord   // Tile occupied before the most recent move
	DecisionTimer float64 // Seconds since the last decision
	Decided       bool    // False until the first decision is made
	MateCooldown  float64 // Seconds until mate seeking is allowed again
}

// ClearPath drops the cached path.
func (b *Behavior) ClearPath() {
	b.Path = b.Path[:0]
	b.PathIndex = 0
}

// Motion is a movement in progress. While Moving, the agent makes no
// decisions; the move commits when Elapsed reaches Duration.
type Motion struct {
	Moving   bool
	From     Coord
	To       Coord
	Elapsed  float64
	Duration float64
}

// Progress returns the fraction of the move completed, in [0, 1].
func (m *Motion) Progress() float64 {
	if !m.Moving || m.Duration <= 0 {
		return 0
	}
	p := m.Elapsed / m.Duration
	if p > 1 {
		return 1
	}
	return p
}

// Food is the remaining quantity of a consumable entity.
type Food struct {
	Remaining float64
}

// Consume removes up to amount and returns what was actually taken and
// whether the food is exhausted.
func (f *Food) Consume(amount float64) (consumed float64, exhausted bool) {
	consumed = amount
	if consumed > f.Remaining {
		consumed = f.Remaining
	}
	if consumed < 0 {
		consumed = 0
	}
	f.Remaining -= consumed
	return consumed, f.Remaining <= 0
}

// Genes holds randomly initialised heritable values.
type Genes struct {
	IsMale bool
	Values [NumGenes]float32
}

// NumGenes is the number of random gene values per animal.
const NumGenes = 4
