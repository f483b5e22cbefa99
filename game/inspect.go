package game

import (
	"fmt"
	"strings"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/habitat/components"
	"github.com/pthm-cable/habitat/systems"
	"github.com/pthm-cable/habitat/traits"
)

// AgentState is a read-only view of one live entity.
type AgentState struct {
	ID      uint32              `json:"id"`
	Species string              `json:"species"`
	Coord   components.Coord    `json:"coord"`
	World   components.WorldPos `json:"world"`
	Mobile  bool                `json:"mobile"`
	Male    bool                `json:"male,omitempty"`

	// Mobile agents only
	Action   components.Action `json:"action"`
	Hunger   float64           `json:"hunger"`
	Thirst   float64           `json:"thirst"`
	Moving   bool              `json:"moving"`
	MoveTo   components.Coord  `json:"move_to"`
	Progress float64           `json:"progress"`

	// Consumable entities only
	Food float64 `json:"food,omitempty"`
}

// Sense returns what a forager would perceive from c: the nearest visible
// entity of any consumable species and the nearest visible water.
func (w *World) Sense(c components.Coord) systems.Surroundings {
	return w.sensing.Sense(c, w.foodDiet)
}

// SenseFor returns what an agent of the given species would perceive from c.
func (w *World) SenseFor(c components.Coord, species traits.Species) systems.Surroundings {
	if int(species) >= len(w.cfg.Derived.Diets) {
		return w.sensing.Sense(c, 0)
	}
	return w.sensing.Sense(c, w.cfg.Derived.Diets[species])
}

// Counts returns the live population per species.
func (w *World) Counts() []int {
	counts := make([]int, len(w.indices))
	for i, idx := range w.indices {
		counts[i] = idx.Count()
	}
	return counts
}

// CountOf returns the live population of the named species, or 0 if the
// name is unknown.
func (w *World) CountOf(name string) int {
	s, ok := w.cfg.Derived.SpeciesIndex[name]
	if !ok {
		return 0
	}
	return w.indices[s].Count()
}

// Agents returns the state of every live entity in ECS order.
func (w *World) Agents() []AgentState {
	var out []AgentState
	query := w.orgFilter.Query()
	for query.Next() {
		_, org := query.Get()
		if org.Dead {
			continue
		}
		out = append(out, w.agentState(query.Entity()))
	}
	return out
}

// Agent returns the state of the live entity with the given ID.
func (w *World) Agent(id uint32) (AgentState, bool) {
	e, ok := w.byID[id]
	if !ok || !w.world.Alive(e) || w.orgMap.Get(e).Dead {
		return AgentState{}, false
	}
	return w.agentState(e), true
}

func (w *World) agentState(e ecs.Entity) AgentState {
	org := w.orgMap.Get(e)
	c := w.posMap.Get(e).Coord
	st := AgentState{
		ID:      org.ID,
		Species: w.collector.SpeciesName(org.Species),
		Coord:   c,
		World:   w.grid.WorldPosition(c),
		Mobile:  org.Traits.Has(traits.Mobile),
		Male:    org.Traits.Has(traits.Male),
		MoveTo:  components.InvalidCoord,
	}
	if w.foodMap.Has(e) {
		st.Food = w.foodMap.Get(e).Remaining
	}
	if st.Mobile {
		needs := w.needsMap.Get(e)
		st.Hunger = needs.Hunger
		st.Thirst = needs.Thirst
		st.Action = w.behMap.Get(e).Action
		if m := w.motionMap.Get(e); m.Moving {
			st.Moving = true
			st.MoveTo = m.To
			st.Progress = m.Progress()
			st.World = lerpWorld(w.grid.WorldPosition(m.From), w.grid.WorldPosition(m.To), st.Progress)
		}
	}
	return st
}

// lerpWorld interpolates between two world positions.
func lerpWorld(a, b components.WorldPos, t float64) components.WorldPos {
	f := float32(t)
	return components.WorldPos{
		X: a.X + (b.X-a.X)*f,
		Z: a.Z + (b.Z-a.Z)*f,
	}
}

// Summary returns a one-line population summary, e.g.
// "tick=300 plant=118 rabbit=29 fox=4".
func (w *World) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tick=%d", w.tick)
	for i, n := range w.Counts() {
		fmt.Fprintf(&sb, " %s=%d", w.cfg.Species[i].Name, n)
	}
	return sb.String()
}
