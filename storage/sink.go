package storage

import (
	"fmt"

	"github.com/pthm-cable/habitat/telemetry"
)

// CensusRow is one species' stored window summary.
type CensusRow struct {
	RunID        string  `db:"run_id"`
	WindowEnd    int32   `db:"window_end"`
	SimTimeSec   float64 `db:"sim_time"`
	Species      string  `db:"species"`
	Count        int     `db:"count"`
	DeathsHunger int     `db:"deaths_hunger"`
	DeathsThirst int     `db:"deaths_thirst"`
	DeathsEaten  int     `db:"deaths_eaten"`
	FoodConsumed float64 `db:"food_consumed"`
	WaterDrunk   float64 `db:"water_drunk"`
	HungerMean   float64 `db:"hunger_mean"`
	ThirstMean   float64 `db:"thirst_mean"`
}

// DeathRow is a stored death event.
type DeathRow struct {
	ID          int64   `db:"id"`
	RunID       string  `db:"run_id"`
	Tick        int32   `db:"tick"`
	AgentID     uint32  `db:"agent_id"`
	Species     string  `db:"species"`
	Cause       string  `db:"cause"`
	X           int     `db:"x"`
	Y           int     `db:"y"`
	SurvivalSec float64 `db:"survival_sec"`
}

// AgentRow is a stored agent from the end-of-run population.
type AgentRow struct {
	RunID   string  `db:"run_id"`
	Tick    int32   `db:"tick"`
	AgentID uint32  `db:"agent_id"`
	Species string  `db:"species"`
	X       int     `db:"x"`
	Y       int     `db:"y"`
	Action  string  `db:"action"`
	Hunger  float64 `db:"hunger"`
	Thirst  float64 `db:"thirst"`
	Food    float64 `db:"food"`
}

// WriteWindow stores one census row per species of a stats window.
func (db *DB) WriteWindow(runID string, stats telemetry.WindowStats) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO census
		(run_id, window_end, sim_time, species, count, deaths_hunger, deaths_thirst,
		 deaths_eaten, food_consumed, water_drunk, hunger_mean, thirst_mean)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sp := range stats.Species {
		_, err := stmt.Exec(
			runID, stats.WindowEndTick, stats.SimTimeSec, sp.Species, sp.Count,
			sp.DeathsHunger, sp.DeathsThirst, sp.DeathsEaten,
			sp.FoodConsumed, sp.WaterDrunk, sp.HungerMean, sp.ThirstMean,
		)
		if err != nil {
			return fmt.Errorf("insert census %s@%d: %w", sp.Species, stats.WindowEndTick, err)
		}
	}

	return tx.Commit()
}

// WriteDeaths appends death events to the log.
func (db *DB) WriteDeaths(runID string, events []telemetry.DeathEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(`INSERT INTO deaths
			(run_id, tick, agent_id, species, cause, x, y, survival_sec)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, e.Tick, e.AgentID, e.Species, e.Cause, e.X, e.Y, e.SurvivalSec,
		)
		if err != nil {
			return fmt.Errorf("insert death %d: %w", e.AgentID, err)
		}
	}

	return tx.Commit()
}

// WriteAgents replaces the stored population of a run.
func (db *DB) WriteAgents(runID string, tick int32, agents []telemetry.EntityState) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents WHERE run_id = ?", runID); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO agents
		(run_id, tick, agent_id, species, x, y, action, hunger, thirst, food)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agents {
		_, err := stmt.Exec(runID, tick, a.ID, a.Species, a.X, a.Y, a.Action, a.Hunger, a.Thirst, a.Food)
		if err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// Census returns the stored windows of one species in tick order.
func (db *DB) Census(runID, species string) ([]CensusRow, error) {
	var rows []CensusRow
	err := db.conn.Select(&rows,
		"SELECT * FROM census WHERE run_id = ? AND species = ? ORDER BY window_end",
		runID, species)
	return rows, err
}

// Deaths returns the death log of a run in tick order.
func (db *DB) Deaths(runID string) ([]DeathRow, error) {
	var rows []DeathRow
	err := db.conn.Select(&rows,
		"SELECT * FROM deaths WHERE run_id = ? ORDER BY tick, id", runID)
	return rows, err
}

// Agents returns the stored population of a run.
func (db *DB) Agents(runID string) ([]AgentRow, error) {
	var rows []AgentRow
	err := db.conn.Select(&rows,
		"SELECT * FROM agents WHERE run_id = ? ORDER BY agent_id", runID)
	return rows, err
}
