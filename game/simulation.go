package game

import "github.com/pthm-cable/habitat/telemetry"

// Tick advances the simulation by dt seconds: every live agent updates
// once, entities killed during the update are removed, and the stats
// window is flushed when due. It is the only mutator of world state.
func (w *World) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	w.perfCollector.StartTick()

	w.perfCollector.StartPhase(telemetry.PhaseBehavior)
	w.behavior.Update(dt)

	w.perfCollector.StartPhase(telemetry.PhaseCleanup)
	w.cleanupDead()

	w.tick++

	w.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	w.flushTelemetry()

	w.perfCollector.EndTick()
}

// Step advances the simulation by the configured dt.
func (w *World) Step() {
	w.Tick(w.cfg.Sim.DT)
}

// Run steps the simulation n times.
func (w *World) Run(n int) {
	for i := 0; i < n; i++ {
		w.Step()
	}
}
