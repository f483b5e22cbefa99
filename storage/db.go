// Package storage provides SQLite persistence for simulation runs: run
// metadata, per-window species census, the death log and the final
// population.
package storage

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/habitat/config"
	"github.com/pthm-cable/habitat/telemetry"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		final_tick INTEGER,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS census (
		run_id TEXT NOT NULL,
		window_end INTEGER NOT NULL,
		sim_time REAL NOT NULL,
		species TEXT NOT NULL,
		count INTEGER NOT NULL,
		deaths_hunger INTEGER NOT NULL,
		deaths_thirst INTEGER NOT NULL,
		deaths_eaten INTEGER NOT NULL,
		food_consumed REAL NOT NULL,
		water_drunk REAL NOT NULL,
		hunger_mean REAL NOT NULL,
		thirst_mean REAL NOT NULL,
		PRIMARY KEY (run_id, window_end, species)
	);

	CREATE TABLE IF NOT EXISTS deaths (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		agent_id INTEGER NOT NULL,
		species TEXT NOT NULL,
		cause TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		survival_sec REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		agent_id INTEGER NOT NULL,
		species TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		action TEXT NOT NULL,
		hunger REAL NOT NULL,
		thirst REAL NOT NULL,
		food REAL NOT NULL,
		PRIMARY KEY (run_id, agent_id)
	);

	CREATE INDEX IF NOT EXISTS idx_census_run ON census(run_id, species);
	CREATE INDEX IF NOT EXISTS idx_deaths_run ON deaths(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is a stored run record.
type Run struct {
	ID         string  `db:"id"`
	Seed       int64   `db:"seed"`
	StartedAt  string  `db:"started_at"`
	FinishedAt *string `db:"finished_at"`
	FinalTick  *int64  `db:"final_tick"`
	ConfigYAML string  `db:"config_yaml"`
}

// CreateRun records the start of a run with its configuration.
func (db *DB) CreateRun(runID string, seed int64, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = db.conn.Exec(
		"INSERT INTO runs (id, seed, started_at, config_yaml) VALUES (?, ?, ?, ?)",
		runID, seed, time.Now().UTC().Format(time.RFC3339), string(data),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}
	return nil
}

// FinishRun records the final tick of a run.
func (db *DB) FinishRun(runID string, finalTick int32) error {
	res, err := db.conn.Exec(
		"UPDATE runs SET finished_at = ?, final_tick = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339), finalTick, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: no such run", runID)
	}
	return nil
}

// GetRun returns a stored run.
func (db *DB) GetRun(runID string) (*Run, error) {
	var r Run
	if err := db.conn.Get(&r, "SELECT * FROM runs WHERE id = ?", runID); err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &r, nil
}
