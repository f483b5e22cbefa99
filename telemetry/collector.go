package telemetry

import (
	"math"

	"github.com/pthm-cable/habitat/components"
	"github.com/pthm-cable/habitat/traits"
)

// AgentSample is one live agent's state at window end.
type AgentSample struct {
	Species traits.Species
	Hunger  float64
	Thirst  float64
	Action  components.Action
}

// speciesCounters holds one species' event counters.
type speciesCounters struct {
	deathsHunger   int
	deathsThirst   int
	deathsEaten    int
	decisions      int
	moves          int
	consumed       float64
	eaten          float64
	drunk          float64
	mateEncounters int
}

func (sc *speciesCounters) add(o speciesCounters) {
	sc.deathsHunger += o.deathsHunger
	sc.deathsThirst += o.deathsThirst
	sc.deathsEaten += o.deathsEaten
	sc.decisions += o.decisions
	sc.moves += o.moves
	sc.consumed += o.consumed
	sc.eaten += o.eaten
	sc.drunk += o.drunk
	sc.mateEncounters += o.mateEncounters
}

// Collector accumulates behavior events within time windows and produces
// WindowStats. It also keeps per-agent lifetime stats.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	names    []string
	counters []speciesCounters
	totals   []speciesCounters

	lifetimes *LifetimeTracker
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
// species: species names in index order
func NewCollector(windowDurationSec, dt float64, species []string) *Collector {
	ticksPerWindow := int32(math.Round(windowDurationSec / dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		names:               species,
		counters:            make([]speciesCounters, len(species)),
		totals:              make([]speciesCounters, len(species)),
		lifetimes:           NewLifetimeTracker(),
	}
}

// Lifetimes returns the per-agent lifetime tracker.
func (c *Collector) Lifetimes() *LifetimeTracker {
	return c.lifetimes
}

// SpeciesName returns the configured name of a species.
func (c *Collector) SpeciesName(s traits.Species) string {
	if int(s) < len(c.names) {
		return c.names[s]
	}
	return "unknown"
}

// RecordDecision records an action choice.
func (c *Collector) RecordDecision(org *components.Organism, _ components.Action) {
	c.counters[org.Species].decisions++
	c.lifetimes.RecordDecision(org.ID)
}

// RecordMove records a completed one-tile move.
func (c *Collector) RecordMove(org *components.Organism) {
	c.counters[org.Species].moves++
	c.lifetimes.RecordMove(org.ID)
}

// RecordConsumed records food eaten by eater from food.
func (c *Collector) RecordConsumed(eater, food *components.Organism, amount float64) {
	c.counters[eater.Species].consumed += amount
	c.counters[food.Species].eaten += amount
	c.lifetimes.RecordConsumed(eater.ID, amount)
}

// RecordDrink records thirst relieved by drinking.
func (c *Collector) RecordDrink(org *components.Organism, amount float64) {
	c.counters[org.Species].drunk += amount
	c.lifetimes.RecordDrink(org.ID, amount)
}

// RecordMateEncounter records a meeting between two mate seekers. The
// encounter counts once for a's species.
func (c *Collector) RecordMateEncounter(a, b *components.Organism) {
	c.counters[a.Species].mateEncounters++
	c.lifetimes.RecordMateEncounter(a.ID)
	c.lifetimes.RecordMateEncounter(b.ID)
}

// RecordDeath records a death event.
func (c *Collector) RecordDeath(org *components.Organism, cause components.DeathCause) {
	sc := &c.counters[org.Species]
	switch cause {
	case components.CauseHunger:
		sc.deathsHunger++
	case components.CauseThirst:
		sc.deathsThirst++
	case components.CauseEaten:
		sc.deathsEaten++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// counts holds the live population per species; samples holds the state of
// every live mobile agent.
func (c *Collector) Flush(currentTick int32, counts []int, samples []AgentSample) WindowStats {
	n := len(c.names)
	hunger := make([][]float64, n)
	thirst := make([][]float64, n)
	actions := make([][]int, n)
	for i := range actions {
		actions[i] = make([]int, components.ActionCount())
	}
	for _, s := range samples {
		hunger[s.Species] = append(hunger[s.Species], s.Hunger)
		thirst[s.Species] = append(thirst[s.Species], s.Thirst)
		if int(s.Action) < components.ActionCount() {
			actions[s.Species][s.Action]++
		}
	}

	simTime := float64(currentTick) * c.dt
	ws := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      simTime,
		Species:         make([]SpeciesStats, n),
	}

	for i := 0; i < n; i++ {
		sc := c.counters[i]
		st := counterStats(sc)
		st.WindowEnd = currentTick
		st.SimTimeSec = simTime
		st.Species = c.names[i]
		if i < len(counts) {
			st.Count = counts[i]
		}

		st.HungerMean, st.HungerStd, st.HungerP10, st.HungerP50, st.HungerP90 = ComputeNeedStats(hunger[i])
		st.ThirstMean, st.ThirstStd, st.ThirstP10, st.ThirstP50, st.ThirstP90 = ComputeNeedStats(thirst[i])

		a := actions[i]
		st.Exploring = a[components.ActionExploring]
		st.GoingToFood = a[components.ActionGoingToFood]
		st.GoingToWater = a[components.ActionGoingToWater]
		st.Eating = a[components.ActionEating]
		st.Drinking = a[components.ActionDrinking]
		st.SearchingForMate = a[components.ActionSearchingForMate]

		ws.Species[i] = st
		c.totals[i].add(sc)
	}

	// Reset for next window
	c.windowStartTick = currentTick
	for i := range c.counters {
		c.counters[i] = speciesCounters{}
	}

	return ws
}

// Totals returns cumulative event counters per species over every flushed
// window plus the open one. Need and action fields are left zero.
func (c *Collector) Totals() []SpeciesStats {
	out := make([]SpeciesStats, len(c.names))
	for i := range c.names {
		sc := c.totals[i]
		sc.add(c.counters[i])
		out[i] = counterStats(sc)
		out[i].Species = c.names[i]
	}
	return out
}

func counterStats(sc speciesCounters) SpeciesStats {
	return SpeciesStats{
		DeathsHunger:   sc.deathsHunger,
		DeathsThirst:   sc.deathsThirst,
		DeathsEaten:    sc.deathsEaten,
		Decisions:      sc.decisions,
		Moves:          sc.moves,
		FoodConsumed:   sc.consumed,
		BiomassEaten:   sc.eaten,
		WaterDrunk:     sc.drunk,
		MateEncounters: sc.mateEncounters,
	}
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
