package game

import (
	"fmt"
	"io"

	"github.com/pthm-cable/habitat/components"
	"github.com/pthm-cable/habitat/traits"
)

// logWriter is the destination for log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// LogWorldState prints a human-readable population breakdown.
func (w *World) LogWorldState() {
	n := len(w.cfg.Species)
	alive := make([]int, n)
	hunger := make([]float64, n)
	thirst := make([]float64, n)
	food := make([]float64, n)
	actions := make([][]int, n)
	for i := range actions {
		actions[i] = make([]int, components.ActionCount())
	}

	query := w.orgFilter.Query()
	for query.Next() {
		_, org := query.Get()
		if org.Dead {
			continue
		}
		e := query.Entity()
		s := org.Species
		alive[s]++
		if w.foodMap.Has(e) {
			food[s] += w.foodMap.Get(e).Remaining
		}
		if org.Traits.Has(traits.Mobile) {
			needs := w.needsMap.Get(e)
			hunger[s] += needs.Hunger
			thirst[s] += needs.Thirst
			actions[s][w.behMap.Get(e).Action]++
		}
	}

	Logf("=== Tick %d (%.1fs) ===", w.tick, float64(w.tick)*w.cfg.Sim.DT)
	for i, sp := range w.cfg.Species {
		if alive[i] == 0 {
			Logf("%s: extinct", sp.Name)
			continue
		}
		cnt := float64(alive[i])
		if !w.cfg.Derived.Traits[i].Has(traits.Mobile) {
			Logf("%s: %d (food: %.2f avg)", sp.Name, alive[i], food[i]/cnt)
			continue
		}
		Logf("%s: %d (hunger: %.2f avg, thirst: %.2f avg)", sp.Name, alive[i], hunger[i]/cnt, thirst[i]/cnt)
		line := "  "
		for a, c := range actions[i] {
			if c > 0 {
				line += fmt.Sprintf("%s=%d ", components.Action(a), c)
			}
		}
		Logf("%s", line)
	}
}
