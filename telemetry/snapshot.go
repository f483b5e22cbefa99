package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the population state at one tick.
type Snapshot struct {
	Version   int    `json:"version"`
	RunID     string `json:"run_id"`
	Seed      int64  `json:"seed"`
	WorldSize int    `json:"world_size"`

	Tick       int32   `json:"tick"`
	SimTimeSec float64 `json:"sim_time"`

	Agents []EntityState `json:"agents"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// EntityState holds one agent's observable state.
type EntityState struct {
	ID      uint32 `json:"id" csv:"id"`
	Species string `json:"species" csv:"species"`
	X       int    `json:"x" csv:"x"`
	Y       int    `json:"y" csv:"y"`

	Action string  `json:"action,omitempty" csv:"action"`
	Hunger float64 `json:"hunger" csv:"hunger"`
	Thirst float64 `json:"thirst" csv:"thirst"`
	Food   float64 `json:"food,omitempty" csv:"food"` // remaining quantity if consumable
	Male   bool    `json:"male" csv:"male"`

	// Lifetime stats
	Lifetime *LifetimeStatsJSON `json:"lifetime,omitempty" csv:"-"`
}

// LifetimeStatsJSON is the JSON-serializable form of LifetimeStats.
type LifetimeStatsJSON struct {
	BirthTick       int32   `json:"birth_tick"`
	SurvivalTimeSec float64 `json:"survival_time_sec"`
	Decisions       int     `json:"decisions"`
	Moves           int     `json:"moves"`
	Consumed        float64 `json:"consumed"`
	Drunk           float64 `json:"drunk"`
	MateEncounters  int     `json:"mate_encounters"`
}

// ToJSON converts LifetimeStats to its JSON form.
func (ls *LifetimeStats) ToJSON() *LifetimeStatsJSON {
	if ls == nil {
		return nil
	}
	return &LifetimeStatsJSON{
		BirthTick:       ls.BirthTick,
		SurvivalTimeSec: ls.SurvivalTimeSec,
		Decisions:       ls.Decisions,
		Moves:           ls.Moves,
		Consumed:        ls.Consumed,
		Drunk:           ls.Drunk,
		MateEncounters:  ls.MateEncounters,
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}

	return &snapshot, nil
}
