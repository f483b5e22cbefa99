// Package telemetry provides population statistics, death logs, bookmarks, and snapshots.
package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/habitat/components"
)

// DeathEvent records a single agent death.
type DeathEvent struct {
	Tick        int32   `csv:"tick" json:"tick"`
	AgentID     uint32  `csv:"agent_id" json:"agent_id"`
	Species     string  `csv:"species" json:"species"`
	Cause       string  `csv:"cause" json:"cause"`
	X           int     `csv:"x" json:"x"`
	Y           int     `csv:"y" json:"y"`
	SurvivalSec float64 `csv:"survival_sec" json:"survival_sec"`
	Moves       int     `csv:"moves" json:"moves"`
	Consumed    float64 `csv:"consumed" json:"consumed"`
	Drunk       float64 `csv:"drunk" json:"drunk"`
}

// NewDeathEvent creates a death event. life may be nil for untracked agents.
func NewDeathEvent(tick int32, org *components.Organism, species string, at components.Coord, life *LifetimeStats) DeathEvent {
	ev := DeathEvent{
		Tick:    tick,
		AgentID: org.ID,
		Species: species,
		Cause:   org.Cause.String(),
		X:       at.X,
		Y:       at.Y,
	}
	if life != nil {
		ev.SurvivalSec = life.SurvivalTimeSec
		ev.Moves = life.Moves
		ev.Consumed = life.Consumed
		ev.Drunk = life.Drunk
	}
	return ev
}

// LogValue implements slog.LogValuer for structured logging.
func (e DeathEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", int(e.Tick)),
		slog.Any("agent_id", e.AgentID),
		slog.String("species", e.Species),
		slog.String("cause", e.Cause),
		slog.Int("x", e.X),
		slog.Int("y", e.Y),
		slog.Float64("survival_sec", e.SurvivalSec),
	)
}
