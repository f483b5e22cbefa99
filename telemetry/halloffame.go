package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/pthm-cable/habitat/traits"
)

// HallOfFame keeps the longest-lived agents of each species.
// Halls are indexed by species.
type HallOfFame struct {
	halls   [][]HallEntry
	names   []string
	maxSize int
}

// HallEntry is the record of a dead or surviving agent.
type HallEntry struct {
	DeathEvent
	Alive bool `json:"alive"`
}

// NewHallOfFame creates a new hall of fame with the given capacity per species.
func NewHallOfFame(maxSize int, species []string) *HallOfFame {
	halls := make([][]HallEntry, len(species))
	for i := range halls {
		halls[i] = make([]HallEntry, 0, maxSize)
	}
	return &HallOfFame{
		halls:   halls,
		names:   species,
		maxSize: maxSize,
	}
}

// Consider evaluates an agent record for hall entry.
// Returns true if the record was added to the hall.
func (hof *HallOfFame) Consider(species traits.Species, ev DeathEvent, alive bool) bool {
	if hof.maxSize <= 0 || int(species) >= len(hof.halls) {
		return false
	}
	hof.halls[species] = hof.insertEntry(hof.halls[species], HallEntry{DeathEvent: ev, Alive: alive})
	return hof.contains(species, ev.AgentID)
}

func (hof *HallOfFame) contains(species traits.Species, id uint32) bool {
	for _, e := range hof.halls[species] {
		if e.AgentID == id {
			return true
		}
	}
	return false
}

// insertEntry adds an entry to the hall, maintaining descending survival order.
// If the hall is full, the shortest-lived entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) []HallEntry {
	// Find insertion point (ties keep the earlier entry first)
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].SurvivalSec < entry.SurvivalSec
	})

	// If hall is full and entry would be last (lowest), skip it
	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	// Trim if over capacity
	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}

	return hall
}

// Entries returns the hall for a species, longest-lived first.
func (hof *HallOfFame) Entries(species traits.Species) []HallEntry {
	if int(species) >= len(hof.halls) {
		return nil
	}
	return hof.halls[species]
}

// MarshalJSON serializes the hall of fame keyed by species name.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	export := make(map[string][]HallEntry, len(hof.halls))
	for i, hall := range hof.halls {
		if len(hall) == 0 {
			continue
		}
		export[hof.names[i]] = hall
	}
	return json.MarshalIndent(export, "", "  ")
}

// LoadHallOfFameFromFile reads a hall of fame JSON file written by MarshalJSON.
func LoadHallOfFameFromFile(path string, maxSize int, species []string) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var raw map[string][]HallEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	hof := NewHallOfFame(maxSize, species)
	for i, name := range species {
		for _, e := range raw[name] {
			hof.halls[i] = hof.insertEntry(hof.halls[i], e)
		}
	}
	return hof, nil
}
