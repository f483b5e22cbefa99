package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSnapshotSaveLoad(t *testing.T) {
	life := &LifetimeStats{BirthTick: 4, SurvivalTimeSec: 12.5, Moves: 9, Consumed: 0.4}
	snap := &Snapshot{
		Version:   SnapshotVersion,
		RunID:     "run-1",
		Seed:      42,
		WorldSize: 64,
		Tick:      130,
		Agents: []EntityState{
			{ID: 1, Species: "plant", X: 3, Y: 4, Food: 0.5},
			{ID: 2, Species: "rabbit", X: 5, Y: 6, Action: "eating", Hunger: 0.3, Male: true, Lifetime: life.ToJSON()},
		},
		Bookmark: &Bookmark{Type: BookmarkPopulationCrash, Tick: 130},
	}

	dir := t.TempDir()
	path, err := SaveSnapshot(snap, dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, "snapshot_130_population_crash.json") {
		t.Errorf("path = %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Agents) != 2 || loaded.Agents[1].Lifetime == nil || loaded.Agents[1].Lifetime.Moves != 9 {
		t.Errorf("loaded agents = %+v", loaded.Agents)
	}
	if loaded.Agents[0].Lifetime != nil {
		t.Error("plant should carry no lifetime stats")
	}
}

func TestLoadSnapshotVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected version error")
	}
}
