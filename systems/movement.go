package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/habitat/components"
)

// MovementPlanner picks the next tile for wandering agents.
type MovementPlanner struct {
	grid *Grid
	rng  *rand.Rand
}

// NewMovementPlanner creates a planner drawing from rng.
func NewMovementPlanner(grid *Grid, rng *rand.Rand) *MovementPlanner {
	return &MovementPlanner{grid: grid, rng: rng}
}

// NextTileRandom returns a uniformly chosen walkable neighbour of current,
// or current if it has none.
func (p *MovementPlanner) NextTileRandom(current components.Coord) components.Coord {
	neighbours := p.grid.WalkableNeighbours(current)
	if len(neighbours) == 0 {
		return current
	}
	return neighbours[p.rng.Intn(len(neighbours))]
}

// NextTileWeighted returns a neighbour biased toward the heading from
// previous to current. With forwardProbability the tile straight ahead is
// taken if it is walkable; otherwise iterations random neighbours are
// sampled and the one best aligned with the heading wins (first on ties).
func (p *MovementPlanner) NextTileWeighted(current, previous components.Coord, forwardProbability float64, iterations int) components.Coord {
	if current == previous {
		return p.NextTileRandom(current)
	}

	forward := current.Sub(previous)
	if p.rng.Float64() < forwardProbability {
		ahead := current.Add(forward)
		if p.grid.Walkable(ahead) {
			return ahead
		}
	}

	neighbours := p.grid.WalkableNeighbours(current)
	if len(neighbours) == 0 {
		return current
	}

	best := current
	bestScore := math.Inf(-1)
	for i := 0; i < iterations; i++ {
		n := neighbours[p.rng.Intn(len(neighbours))]
		o := n.Sub(current)
		score := normalizedDot(o.X, o.Y, forward.X, forward.Y)
		if score > bestScore {
			bestScore = score
			best = n
		}
	}
	return best
}
