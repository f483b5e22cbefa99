package telemetry

import "github.com/pthm-cable/habitat/traits"

// LifetimeStats tracks per-agent statistics over its lifetime.
type LifetimeStats struct {
	Species         traits.Species
	BirthTick       int32
	SurvivalTimeSec float64

	Decisions      int
	Moves          int
	Consumed       float64 // food quantity eaten
	Drunk          float64 // thirst relieved
	MateEncounters int
}

// LifetimeTracker manages per-agent lifetime statistics keyed by agent ID.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a newly spawned agent.
func (lt *LifetimeTracker) Register(agentID uint32, species traits.Species, birthTick int32) {
	lt.stats[agentID] = &LifetimeStats{
		Species:   species,
		BirthTick: birthTick,
	}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(agentID uint32) *LifetimeStats {
	return lt.stats[agentID]
}

// Remove removes an agent's stats and returns them.
func (lt *LifetimeTracker) Remove(agentID uint32) *LifetimeStats {
	stats := lt.stats[agentID]
	delete(lt.stats, agentID)
	return stats
}

// RecordDecision increments the decision count.
func (lt *LifetimeTracker) RecordDecision(agentID uint32) {
	if s := lt.stats[agentID]; s != nil {
		s.Decisions++
	}
}

// RecordMove increments the completed move count.
func (lt *LifetimeTracker) RecordMove(agentID uint32) {
	if s := lt.stats[agentID]; s != nil {
		s.Moves++
	}
}

// RecordConsumed adds eaten food quantity.
func (lt *LifetimeTracker) RecordConsumed(agentID uint32, amount float64) {
	if s := lt.stats[agentID]; s != nil {
		s.Consumed += amount
	}
}

// RecordDrink adds relieved thirst.
func (lt *LifetimeTracker) RecordDrink(agentID uint32, amount float64) {
	if s := lt.stats[agentID]; s != nil {
		s.Drunk += amount
	}
}

// RecordMateEncounter increments the mate encounter count.
func (lt *LifetimeTracker) RecordMateEncounter(agentID uint32) {
	if s := lt.stats[agentID]; s != nil {
		s.MateEncounters++
	}
}

// UpdateSurvivalTime updates the survival time based on current tick.
func (lt *LifetimeTracker) UpdateSurvivalTime(agentID uint32, currentTick int32, dt float64) {
	if s := lt.stats[agentID]; s != nil {
		s.SurvivalTimeSec = float64(currentTick-s.BirthTick) * dt
	}
}

// All returns all tracked stats.
func (lt *LifetimeTracker) All() map[uint32]*LifetimeStats {
	return lt.stats
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
