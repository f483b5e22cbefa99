package game

import (
	"log/slog"

	"github.com/pthm-cable/habitat/telemetry"
	"github.com/pthm-cable/habitat/traits"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (w *World) flushTelemetry() {
	if !w.collector.ShouldFlush(w.tick) {
		return
	}

	counts, samples := w.sampleAgents()
	stats := w.collector.Flush(w.tick, counts, samples)
	perfStats := w.perfCollector.Stats()

	// Log stats if enabled (console output)
	if w.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := w.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := w.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	if w.sink != nil {
		if err := w.sink.WriteWindow(w.runID, stats); err != nil {
			slog.Error("failed to store window", "error", err)
		}
	}

	// Check for bookmarks
	for _, bm := range w.bookmarks.Check(stats) {
		if w.logStats {
			bm.LogBookmark()
		}
		if err := w.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if w.cfg.Telemetry.SnapshotOnBookmark {
			w.saveSnapshot(&bm)
		}
	}

	if w.statsCallback != nil {
		w.statsCallback(stats)
	}
}

// sampleAgents returns the live population per species and the needs and
// action of every live mobile agent. Lifetime survival times are updated
// on the way.
func (w *World) sampleAgents() ([]int, []telemetry.AgentSample) {
	counts := w.Counts()
	lifetimes := w.collector.Lifetimes()
	dt := w.cfg.Sim.DT

	var samples []telemetry.AgentSample
	query := w.orgFilter.Query()
	for query.Next() {
		_, org := query.Get()
		if org.Dead {
			continue
		}
		lifetimes.UpdateSurvivalTime(org.ID, w.tick, dt)
		if !org.Traits.Has(traits.Mobile) {
			continue
		}
		e := query.Entity()
		needs := w.needsMap.Get(e)
		samples = append(samples, telemetry.AgentSample{
			Species: org.Species,
			Hunger:  needs.Hunger,
			Thirst:  needs.Thirst,
			Action:  w.behMap.Get(e).Action,
		})
	}
	return counts, samples
}

// saveSnapshot creates and saves a snapshot to disk.
func (w *World) saveSnapshot(bookmark *telemetry.Bookmark) {
	if w.outputManager == nil {
		return
	}
	path, err := w.outputManager.WriteSnapshot(w.Snapshot(bookmark))
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", w.tick)
}

// Snapshot builds a snapshot of every live entity. bookmark may be nil.
func (w *World) Snapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	return &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		RunID:      w.runID,
		Seed:       w.seed,
		WorldSize:  w.grid.Size(),
		Tick:       w.tick,
		SimTimeSec: float64(w.tick) * w.cfg.Sim.DT,
		Agents:     w.entityStates(),
		Bookmark:   bookmark,
	}
}

// entityStates collects the observable state of every live entity.
func (w *World) entityStates() []telemetry.EntityState {
	lifetimes := w.collector.Lifetimes()

	var states []telemetry.EntityState
	query := w.orgFilter.Query()
	for query.Next() {
		pos, org := query.Get()
		if org.Dead {
			continue
		}
		e := query.Entity()

		state := telemetry.EntityState{
			ID:       org.ID,
			Species:  w.collector.SpeciesName(org.Species),
			X:        pos.X,
			Y:        pos.Y,
			Male:     org.Traits.Has(traits.Male),
			Lifetime: lifetimes.Get(org.ID).ToJSON(),
		}
		if w.foodMap.Has(e) {
			state.Food = w.foodMap.Get(e).Remaining
		}
		if w.needsMap.Has(e) {
			needs := w.needsMap.Get(e)
			state.Hunger = needs.Hunger
			state.Thirst = needs.Thirst
			state.Action = w.behMap.Get(e).Action.String()
		}
		states = append(states, state)
	}
	return states
}

// finalizeRun enters surviving agents into the hall of fame and writes
// end-of-run output. It runs once; later calls are no-ops.
func (w *World) finalizeRun() {
	if w.finalized {
		return
	}
	w.finalized = true

	lifetimes := w.collector.Lifetimes()
	dt := w.cfg.Sim.DT
	query := w.orgFilter.Query()
	for query.Next() {
		pos, org := query.Get()
		if org.Dead || !org.Traits.Has(traits.Mobile) {
			continue
		}
		lifetimes.UpdateSurvivalTime(org.ID, w.tick, dt)
		ev := telemetry.NewDeathEvent(w.tick, org, w.collector.SpeciesName(org.Species), pos.Coord, lifetimes.Get(org.ID))
		w.hallOfFame.Consider(org.Species, ev, true)
	}

	if err := w.outputManager.WriteHallOfFame(w.hallOfFame); err != nil {
		slog.Error("failed to write hall of fame", "error", err)
	}
	w.saveSnapshot(nil)

	if w.sink != nil {
		if err := w.sink.WriteAgents(w.runID, w.tick, w.entityStates()); err != nil {
			slog.Error("failed to store agents", "error", err)
		}
	}

	slog.Info("run_finished", "ticks", w.tick, "summary", w.Summary())
}

// HallOfFame returns the longest-lived agents tracked so far.
func (w *World) HallOfFame() *telemetry.HallOfFame {
	return w.hallOfFame
}

// Totals returns cumulative per-species event counters.
func (w *World) Totals() []telemetry.SpeciesStats {
	return w.collector.Totals()
}
