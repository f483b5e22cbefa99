package game

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/habitat/components"
	"github.com/pthm-cable/habitat/config"
	"github.com/pthm-cable/habitat/systems"
	"github.com/pthm-cable/habitat/telemetry"
	"github.com/pthm-cable/habitat/traits"
)

const (
	speciesGrass  traits.Species = 0
	speciesGrazer traits.Species = 1
)

// testConfig returns the defaults with a two-species spawn list: grass and
// a non-consumable grazer that eats it.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Species = []config.SpeciesConfig{
		{Name: "grass", Kind: config.KindPlant, Count: 20, Quantity: 1},
		{Name: "grazer", Kind: config.KindAnimal, Count: 5, Diet: []string{"grass"}},
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newTestWorld(t *testing.T, cfg *config.Config, grid *systems.Grid, opts Options) *World {
	t.Helper()
	opts.SkipSpawn = true
	if opts.RunID == "" {
		opts.RunID = "test"
	}
	w, err := NewWithGrid(cfg, grid, opts)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestForagerEatsFoodToExhaustion(t *testing.T) {
	cfg := testConfig(t)
	w := newTestWorld(t, cfg, systems.NewOpenGrid(20), Options{})
	defer w.Close()

	food := components.Coord{X: 10, Y: 10}
	plantID, err := w.SpawnPlant(speciesGrass, food, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	agentID, err := w.SpawnAnimal(speciesGrazer, components.Coord{X: 10, Y: 8}, components.Needs{Hunger: 0.9, Thirst: 0.1})
	if err != nil {
		t.Fatal(err)
	}

	if !w.Sense(food).HasFood() {
		t.Fatal("food not sensed before eating")
	}

	sawEating := false
	for i := 0; i < 1000; i++ {
		w.Step()
		if a, ok := w.Agent(agentID); ok && a.Action == components.ActionEating {
			sawEating = true
			if !a.Coord.IsNeighbour(food) {
				t.Fatalf("eating at %v, not adjacent to %v", a.Coord, food)
			}
		}
		if _, ok := w.Agent(plantID); !ok {
			break
		}
	}

	if !sawEating {
		t.Error("agent never entered Eating")
	}
	if _, ok := w.Agent(plantID); ok {
		t.Fatal("food still alive after 1000 ticks")
	}
	if w.Sense(food).HasFood() {
		t.Error("exhausted food still sensed")
	}
	if got := w.CountOf("grass"); got != 0 {
		t.Errorf("CountOf(grass) = %d, want 0", got)
	}
	if _, ok := w.Agent(agentID); !ok {
		t.Error("agent died while eating")
	}

	totals := w.Totals()
	if got := totals[speciesGrass].DeathsEaten; got != 1 {
		t.Errorf("grass DeathsEaten = %d, want 1", got)
	}
	if got := totals[speciesGrazer].FoodConsumed; got < 0.999 || got > 1.001 {
		t.Errorf("grazer FoodConsumed = %v, want 1", got)
	}
}

func TestSpawnDeterministic(t *testing.T) {
	cfg := testConfig(t)
	cfg.World.Size = 24

	spawn := func() []AgentState {
		w, err := New(cfg, Options{Seed: 7, RunID: "test"})
		if err != nil {
			t.Fatal(err)
		}
		defer w.Close()
		return w.Agents()
	}

	a, b := spawn(), spawn()
	if len(a) != 25 {
		t.Fatalf("spawned %d entities, want 25", len(a))
	}
	if len(a) != len(b) {
		t.Fatalf("spawn counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Species != b[i].Species || a[i].Coord != b[i].Coord || a[i].Male != b[i].Male {
			t.Errorf("entity %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSpawnStopsWhenTilesRunOut(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	cfg := testConfig(t)
	cfg.Species[0].Count = 3
	w, err := NewWithGrid(cfg, systems.NewOpenGrid(2), Options{Seed: 1, RunID: "test"})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	counts := w.Counts()
	if counts[speciesGrass] != 3 || counts[speciesGrazer] != 1 {
		t.Errorf("Counts() = %v, want [3 1]", counts)
	}
	occupied := make(map[components.Coord]int)
	for _, a := range w.Agents() {
		occupied[a.Coord]++
	}
	if len(occupied) != 4 {
		t.Errorf("occupied %d tiles, want 4", len(occupied))
	}
	for c, n := range occupied {
		if n != 1 {
			t.Errorf("tile %v holds %d entities", c, n)
		}
	}
	if out := logs.String(); !strings.Contains(out, "spawn_tiles_exhausted") || !strings.Contains(out, "unplaced=4") {
		t.Errorf("missing exhaustion warning in logs:\n%s", out)
	}
}

func TestSpawnOrderFollowsSpeciesList(t *testing.T) {
	cfg := testConfig(t)
	w, err := NewWithGrid(cfg, systems.NewOpenGrid(16), Options{Seed: 3, RunID: "test"})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	counts := w.Counts()
	if counts[speciesGrass] != 20 || counts[speciesGrazer] != 5 {
		t.Fatalf("Counts() = %v, want [20 5]", counts)
	}

	// IDs are assigned in spawn order
	for _, a := range w.Agents() {
		wantSpecies := "grass"
		if a.ID > 20 {
			wantSpecies = "grazer"
		}
		if a.Species != wantSpecies {
			t.Errorf("agent %d species = %s, want %s", a.ID, a.Species, wantSpecies)
		}
		if !w.Grid().Walkable(a.Coord) {
			t.Errorf("agent %d spawned on unwalkable %v", a.ID, a.Coord)
		}
	}
}

func TestSpawnErrors(t *testing.T) {
	cfg := testConfig(t)
	grid := systems.ParseGrid([]string{
		"..#",
		"...",
		"~..",
	})
	w := newTestWorld(t, cfg, grid, Options{})
	defer w.Close()

	tests := []struct {
		name    string
		species traits.Species
		c       components.Coord
	}{
		{"blocked", speciesGrass, components.Coord{X: 2, Y: 0}},
		{"water", speciesGrass, components.Coord{X: 0, Y: 2}},
		{"out of bounds", speciesGrass, components.Coord{X: 5, Y: 5}},
		{"unknown species", 9, components.Coord{X: 0, Y: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := w.SpawnPlant(tt.species, tt.c, 1); err == nil {
				t.Error("SpawnPlant succeeded, want error")
			}
		})
	}
	if got := w.Counts()[speciesGrass]; got != 0 {
		t.Errorf("grass count = %d after failed spawns, want 0", got)
	}
}

func TestStarvedAgentIsRemoved(t *testing.T) {
	cfg := testConfig(t)
	w := newTestWorld(t, cfg, systems.NewOpenGrid(10), Options{})
	defer w.Close()

	id, err := w.SpawnAnimal(speciesGrazer, components.Coord{X: 5, Y: 5}, components.Needs{Hunger: 0.999, Thirst: 0.999})
	if err != nil {
		t.Fatal(err)
	}
	w.Run(5)

	if _, ok := w.Agent(id); ok {
		t.Fatal("starved agent still present")
	}
	if len(w.Agents()) != 0 {
		t.Errorf("Agents() = %v, want none", w.Agents())
	}
	totals := w.Totals()[speciesGrazer]
	if totals.DeathsHunger != 1 || totals.DeathsThirst != 0 {
		t.Errorf("deaths hunger=%d thirst=%d, want 1 and 0 (hunger wins ties)", totals.DeathsHunger, totals.DeathsThirst)
	}

	hall := w.HallOfFame().Entries(speciesGrazer)
	if len(hall) != 1 || hall[0].AgentID != id || hall[0].Alive {
		t.Errorf("hall of fame = %+v, want one dead entry for %d", hall, id)
	}
}

func TestStatsCallback(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.StatsWindow = 1.0

	var windows []telemetry.WindowStats
	w := newTestWorld(t, cfg, systems.NewOpenGrid(12), Options{
		StatsCallback: func(s telemetry.WindowStats) { windows = append(windows, s) },
	})
	defer w.Close()

	w.SpawnPlant(speciesGrass, components.Coord{X: 1, Y: 1}, 1)
	w.SpawnPlant(speciesGrass, components.Coord{X: 8, Y: 8}, 1)
	w.SpawnAnimal(speciesGrazer, components.Coord{X: 5, Y: 5}, components.Needs{Hunger: 0.2, Thirst: 0.1})

	w.Run(30)

	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}
	for i, ws := range windows {
		if want := int32(10 * (i + 1)); ws.WindowEndTick != want {
			t.Errorf("window %d end = %d, want %d", i, ws.WindowEndTick, want)
		}
		if ws.Count("grazer") != 1 {
			t.Errorf("window %d grazer count = %d, want 1", i, ws.Count("grazer"))
		}
	}
	if windows[0].Species[speciesGrazer].Decisions == 0 {
		t.Error("first window recorded no decisions")
	}
}

// recordingSink counts the records handed to a RunSink.
type recordingSink struct {
	windows int
	deaths  int
	agents  int
	runIDs  map[string]bool
}

func (s *recordingSink) WriteWindow(runID string, _ telemetry.WindowStats) error {
	s.runIDs[runID] = true
	s.windows++
	return nil
}

func (s *recordingSink) WriteDeaths(runID string, events []telemetry.DeathEvent) error {
	s.runIDs[runID] = true
	s.deaths += len(events)
	return nil
}

func (s *recordingSink) WriteAgents(runID string, _ int32, agents []telemetry.EntityState) error {
	s.runIDs[runID] = true
	s.agents += len(agents)
	return nil
}

func TestOutputsAndSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.StatsWindow = 0.5
	dir := filepath.Join(t.TempDir(), "out")
	sink := &recordingSink{runIDs: make(map[string]bool)}

	w := newTestWorld(t, cfg, systems.NewOpenGrid(10), Options{
		RunID:     "run-1",
		OutputDir: dir,
		Sink:      sink,
	})
	w.SpawnPlant(speciesGrass, components.Coord{X: 2, Y: 2}, 1)
	w.SpawnAnimal(speciesGrazer, components.Coord{X: 7, Y: 7}, components.Needs{Hunger: 0.999})
	w.SpawnAnimal(speciesGrazer, components.Coord{X: 4, Y: 4}, components.Needs{})

	w.Run(20)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if sink.windows != 4 {
		t.Errorf("sink windows = %d, want 4", sink.windows)
	}
	if sink.deaths != 1 {
		t.Errorf("sink deaths = %d, want 1", sink.deaths)
	}
	if sink.agents != 2 {
		t.Errorf("sink agents = %d, want 2", sink.agents)
	}
	if len(sink.runIDs) != 1 || !sink.runIDs["run-1"] {
		t.Errorf("sink run IDs = %v, want only run-1", sink.runIDs)
	}

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "deaths.csv", "bookmarks.csv", "hall_of_fame.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	snaps, err := filepath.Glob(filepath.Join(dir, "snapshots", "snapshot_20*.json"))
	if err != nil || len(snaps) == 0 {
		t.Fatalf("final snapshot not written: %v %v", snaps, err)
	}
	snap, err := telemetry.LoadSnapshot(snaps[0])
	if err != nil {
		t.Fatal(err)
	}
	if snap.RunID != "run-1" || len(snap.Agents) != 2 {
		t.Errorf("snapshot run=%s agents=%d, want run-1 and 2", snap.RunID, len(snap.Agents))
	}

	// Close is idempotent for end-of-run output
	if err := w.Close(); err != nil {
		t.Error(err)
	}
}

func TestTickIgnoresNonPositiveDT(t *testing.T) {
	cfg := testConfig(t)
	w := newTestWorld(t, cfg, systems.NewOpenGrid(5), Options{})
	defer w.Close()

	w.Tick(0)
	w.Tick(-1)
	if w.TickCount() != 0 {
		t.Errorf("TickCount() = %d, want 0", w.TickCount())
	}
	w.Step()
	if w.TickCount() != 1 {
		t.Errorf("TickCount() = %d, want 1", w.TickCount())
	}
}

func TestSummary(t *testing.T) {
	cfg := testConfig(t)
	w := newTestWorld(t, cfg, systems.NewOpenGrid(5), Options{})
	defer w.Close()
	w.SpawnPlant(speciesGrass, components.Coord{X: 1, Y: 1}, 1)

	if got, want := w.Summary(), "tick=0 grass=1 grazer=0"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
