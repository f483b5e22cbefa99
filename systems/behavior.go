package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/habitat/components"
	"github.com/pthm-cable/habitat/config"
	"github.com/pthm-cable/habitat/traits"
)

// Recorder receives lifecycle events from the behavior system.
type Recorder interface {
	RecordDecision(org *components.Organism, action components.Action)
	RecordMove(org *components.Organism)
	RecordConsumed(eater, food *components.Organism, amount float64)
	RecordDrink(org *components.Organism, amount float64)
	RecordMateEncounter(a, b *components.Organism)
	RecordDeath(org *components.Organism, cause components.DeathCause)
}

type nopRecorder struct{}

func (nopRecorder) RecordDecision(*components.Organism, components.Action) {}
func (nopRecorder) RecordMove(*components.Organism) {}
func (nopRecorder) RecordConsumed(_, _ *components.Organism, _ float64) {}
func (nopRecorder) RecordDrink(*components.Organism, float64) {}
func (nopRecorder) RecordMateEncounter(_, _ *components.Organism) {}
func (nopRecorder) RecordDeath(*components.Organism, components.DeathCause) {}

// BehaviorSystem runs the needs, decision and movement loop of every
// mobile agent.
type BehaviorSystem struct {
	cfg     config.SimConfig
	world   *ecs.World
	grid    *Grid
	vis     *Visibility
	sensing *Sensing
	planner *MovementPlanner
	indices []*SpatialIndex
	rec     Recorder

	filter    ecs.Filter5[components.Position, components.Organism, components.Needs, components.Behavior, components.Motion]
	positions *ecs.Map[components.Position]
	orgs      *ecs.Map[components.Organism]
	behaviors *ecs.Map[components.Behavior]
	foods     *ecs.Map[components.Food]
}

// NewBehaviorSystem creates a new behavior system.
func NewBehaviorSystem(w *ecs.World, cfg config.SimConfig, vis *Visibility, sensing *Sensing, planner *MovementPlanner, indices []*SpatialIndex) *BehaviorSystem {
	return &BehaviorSystem{
		cfg:       cfg,
		world:     w,
		grid:      vis.grid,
		vis:       vis,
		sensing:   sensing,
		planner:   planner,
		indices:   indices,
		rec:       nopRecorder{},
		filter:    *ecs.NewFilter5[components.Position, components.Organism, components.Needs, components.Behavior, components.Motion](w),
		positions: ecs.NewMap[components.Position](w),
		orgs:      ecs.NewMap[components.Organism](w),
		behaviors: ecs.NewMap[components.Behavior](w),
		foods:     ecs.NewMap[components.Food](w),
	}
}

// SetRecorder sets the event sink. nil restores the no-op recorder.
func (s *BehaviorSystem) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	s.rec = r
}

// agent bundles one agent's components for the duration of its update.
type agent struct {
	e      ecs.Entity
	pos    *components.Position
	org    *components.Organism
	needs  *components.Needs
	beh    *components.Behavior
	motion *components.Motion
}

// Update advances every live agent by dt seconds. Dead entities stay in
// the ECS world until the caller's cleanup pass.
func (s *BehaviorSystem) Update(dt float64) {
	query := s.filter.Query()
	for query.Next() {
		pos, org, needs, beh, motion := query.Get()
		if org.Dead || !org.Traits.Has(traits.Mobile) {
			continue
		}
		s.updateAgent(agent{e: query.Entity(), pos: pos, org: org, needs: needs, beh: beh, motion: motion}, dt)
	}
}

func (s *BehaviorSystem) updateAgent(a agent, dt float64) {
	if a.org.Traits.Has(traits.Hungry) {
		a.needs.Hunger += dt / s.cfg.TimeToDeathByHunger
	}
	if a.org.Traits.Has(traits.Thirsty) {
		a.needs.Thirst += dt / s.cfg.TimeToDeathByThirst
	}
	if a.beh.MateCooldown > 0 {
		a.beh.MateCooldown = clampMin0(a.beh.MateCooldown - dt)
	}

	if a.motion.Moving {
		a.motion.Elapsed += dt
		if a.motion.Elapsed >= a.motion.Duration {
			s.finishMove(a)
			s.decideAndAct(a)
		}
	} else {
		s.interact(a, dt)
		a.beh.DecisionTimer += dt
		if !a.beh.Decided || a.beh.DecisionTimer >= s.cfg.TimeBetweenActionChoices {
			s.decideAndAct(a)
		}
	}

	if a.needs.Hunger >= 1 {
		s.Kill(a.e, components.CauseHunger)
	} else if a.needs.Thirst >= 1 {
		s.Kill(a.e, components.CauseThirst)
	}
}

// finishMove commits the move in progress to the index and position.
func (s *BehaviorSystem) finishMove(a agent) {
	from, to := a.motion.From, a.motion.To
	s.indices[a.org.Species].Move(a.e, from, to)
	a.pos.Coord = to
	a.beh.LastTile = from
	*a.motion = components.Motion{}
	s.rec.RecordMove(a.org)
}

// startMove begins moving toward an adjacent tile. Moving onto the
// current tile is a no-op.
func (s *BehaviorSystem) startMove(a agent, next components.Coord) {
	cur := a.pos.Coord
	if next == cur {
		return
	}
	d := 1 / s.cfg.MoveSpeed
	if cur.IsDiagonalStep(next) {
		d *= math.Sqrt2
	}
	*a.motion = components.Motion{Moving: true, From: cur, To: next, Duration: d}
}

func (s *BehaviorSystem) decideAndAct(a agent) {
	s.decide(a)
	s.act(a)
}

// decide picks the next action from the agent's needs and surroundings.
func (s *BehaviorSystem) decide(a agent) {
	beh, needs := a.beh, a.needs
	beh.DecisionTimer = 0
	beh.Decided = true
	c := a.pos.Coord

	switch {
	case s.wantsMate(a):
		beh.Action = components.ActionSearchingForMate
		beh.Target = ecs.Entity{}
	case needs.Hunger >= needs.Thirst || (beh.Action == components.ActionEating && needs.Thirst < s.cfg.CriticalPercent):
		food, _, ok := s.sensing.NearestFood(c, a.org.Diet)
		if ok {
			beh.Action = components.ActionGoingToFood
			beh.Target = food
		} else {
			beh.Action = components.ActionExploring
			beh.Target = ecs.Entity{}
		}
	default:
		water := s.sensing.NearestWater(c)
		if water.Valid() {
			beh.Action = components.ActionGoingToWater
			beh.TargetCoord = water
		} else {
			beh.Action = components.ActionExploring
			beh.TargetCoord = components.InvalidCoord
		}
	}
	s.rec.RecordDecision(a.org, beh.Action)
}

func (s *BehaviorSystem) wantsMate(a agent) bool {
	th := s.cfg.MateThreshold
	if th <= 0 || a.beh.MateCooldown > 0 {
		return false
	}
	return a.needs.Hunger < th && a.needs.Thirst < th
}

// act carries out the current action: start a move or begin an
// interaction.
func (s *BehaviorSystem) act(a agent) {
	beh := a.beh
	c := a.pos.Coord

	switch beh.Action {
	case components.ActionExploring:
		s.explore(a)

	case components.ActionGoingToFood:
		if !s.targetAlive(beh.Target) {
			beh.Action = components.ActionExploring
			s.explore(a)
			return
		}
		target := s.positions.Get(beh.Target).Coord
		if c.IsNeighbour(target) {
			beh.Action = components.ActionEating
			beh.ClearPath()
			return
		}
		s.stepToward(a, target)

	case components.ActionGoingToWater:
		if c.IsNeighbour(beh.TargetCoord) {
			beh.Action = components.ActionDrinking
			beh.ClearPath()
			return
		}
		s.stepToward(a, beh.TargetCoord)

	case components.ActionSearchingForMate:
		mates := s.sensing.SensePotentialMates(c, a.e)
		if len(mates) == 0 {
			s.explore(a)
			return
		}
		mate := mates[0]
		target := s.positions.Get(mate).Coord
		if c.IsNeighbour(target) {
			s.mate(a, mate)
			return
		}
		s.stepToward(a, target)
	}
}

func (s *BehaviorSystem) explore(a agent) {
	next := s.planner.NextTileWeighted(a.pos.Coord, a.beh.LastTile, s.cfg.ForwardProbability, s.cfg.WeightingIterations)
	s.startMove(a, next)
}

// stepToward advances one tile along the cached straight path to target,
// recomputing it if the agent has left the path or the target changed.
// Without a straight path the agent takes a weighted random step.
func (s *BehaviorSystem) stepToward(a agent, target components.Coord) {
	beh := a.beh
	c := a.pos.Coord

	if !pathValid(beh, c, target) {
		beh.Path = s.vis.AppendStraightPath(beh.Path, c, target)
		beh.PathIndex = 0
	}
	if len(beh.Path) == 0 {
		s.explore(a)
		return
	}

	next := beh.Path[beh.PathIndex]
	beh.PathIndex++
	if !s.grid.Walkable(next) {
		beh.ClearPath()
		s.explore(a)
		return
	}
	s.startMove(a, next)
}

// pathValid reports whether the cached path still leads from c to target.
func pathValid(beh *components.Behavior, c, target components.Coord) bool {
	n := len(beh.Path)
	if n == 0 || beh.PathIndex == 0 || beh.PathIndex >= n {
		return false
	}
	return beh.Path[n-1] == target && beh.Path[beh.PathIndex-1] == c
}

// interact applies the effect of a stationary action for dt seconds.
func (s *BehaviorSystem) interact(a agent, dt float64) {
	beh, needs := a.beh, a.needs

	switch beh.Action {
	case components.ActionEating:
		if !s.targetAlive(beh.Target) || !s.foods.Has(beh.Target) ||
			!a.pos.Coord.IsNeighbour(s.positions.Get(beh.Target).Coord) {
			// Food gone or out of reach; re-decide this tick
			beh.Decided = false
			return
		}
		food := s.foods.Get(beh.Target)
		// Bites never exceed current hunger
		bite := math.Min(needs.Hunger, dt/s.cfg.EatDuration)
		consumed, exhausted := food.Consume(bite)
		needs.Hunger = clampMin0(needs.Hunger - consumed)
		s.rec.RecordConsumed(a.org, s.orgs.Get(beh.Target), consumed)
		if exhausted {
			s.Kill(beh.Target, components.CauseEaten)
		}

	case components.ActionDrinking:
		drunk := dt / s.cfg.DrinkDuration
		if drunk > needs.Thirst {
			drunk = needs.Thirst
		}
		needs.Thirst = clampMin0(needs.Thirst - drunk)
		s.rec.RecordDrink(a.org, drunk)
	}
}

// mate records an encounter between two adjacent mate seekers and starts
// both cooldowns. Offspring are not produced.
func (s *BehaviorSystem) mate(a agent, partner ecs.Entity) {
	a.beh.MateCooldown = s.cfg.MateCooldown
	a.beh.Action = components.ActionExploring
	a.beh.Decided = false

	pb := s.behaviors.Get(partner)
	pb.MateCooldown = s.cfg.MateCooldown
	pb.Action = components.ActionExploring
	pb.Decided = false

	s.rec.RecordMateEncounter(a.org, s.orgs.Get(partner))
}

func (s *BehaviorSystem) targetAlive(e ecs.Entity) bool {
	if e.IsZero() || !s.world.Alive(e) {
		return false
	}
	return !s.orgs.Get(e).Dead
}

// Kill marks e dead with the given cause and removes it from its spatial
// index. The ECS entity itself is removed by the caller's cleanup pass.
// Killing a dead entity is a no-op.
func (s *BehaviorSystem) Kill(e ecs.Entity, cause components.DeathCause) {
	org := s.orgs.Get(e)
	if org.Dead {
		return
	}
	org.Dead = true
	org.Cause = cause
	s.indices[org.Species].Remove(e, s.positions.Get(e).Coord)
	s.rec.RecordDeath(org, cause)
}
