// Package migration applies versioned, additive-only schema migrations
// to a liftlog database. Migrations are compiled into the binary; an
// upgrade may add tables and indexes but never drops existing ones.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
)

// Migration is a single schema step.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_collections",
		SQL: `
CREATE TABLE IF NOT EXISTS exercises (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  data TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exercises_category ON exercises(json_extract(data, '$.category'));
CREATE INDEX IF NOT EXISTS idx_exercises_difficulty ON exercises(json_extract(data, '$.difficulty'));
CREATE INDEX IF NOT EXISTS idx_exercises_name ON exercises(json_extract(data, '$.name'));
CREATE INDEX IF NOT EXISTS idx_exercises_is_custom ON exercises(json_extract(data, '$.is_custom'));

CREATE TABLE IF NOT EXISTS workouts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  data TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_workouts_start_time ON workouts(json_extract(data, '$.start_time'));
CREATE INDEX IF NOT EXISTS idx_workouts_status ON workouts(json_extract(data, '$.status'));
CREATE INDEX IF NOT EXISTS idx_workouts_plan_id ON workouts(json_extract(data, '$.plan_id'));

CREATE TABLE IF NOT EXISTS plans (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  data TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_plans_category ON plans(json_extract(data, '$.category'));
CREATE INDEX IF NOT EXISTS idx_plans_is_template ON plans(json_extract(data, '$.is_template'));
CREATE INDEX IF NOT EXISTS idx_plans_name ON plans(json_extract(data, '$.name'));

CREATE TABLE IF NOT EXISTS sets (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  data TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sets_workout_id ON sets(json_extract(data, '$.workout_id'));
CREATE INDEX IF NOT EXISTS idx_sets_exercise_id ON sets(json_extract(data, '$.exercise_id'));
CREATE INDEX IF NOT EXISTS idx_sets_timestamp ON sets(json_extract(data, '$.timestamp'));

CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`,
	},
	{
		Version: 2,
		Name:    "progress_collection",
		SQL: `
CREATE TABLE IF NOT EXISTS progress (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  data TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_progress_kind ON progress(json_extract(data, '$.kind'));
CREATE INDEX IF NOT EXISTS idx_progress_date ON progress(json_extract(data, '$.date'));
`,
	},
}

// Runner manages schema migrations for one database handle.
type Runner struct {
	db *sql.DB
}

func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

func (r *Runner) ensureVersionTable() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`)
	return err
}

// CurrentVersion returns the applied schema version, 0 for a fresh
// database.
func (r *Runner) CurrentVersion() (int, error) {
	if err := r.ensureVersionTable(); err != nil {
		return 0, fmt.Errorf("failed to ensure schema_version table: %w", err)
	}

	var version int
	err := r.db.QueryRow("SELECT version FROM schema_version").Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// LatestVersion returns the highest migration version compiled in.
func LatestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

func (r *Runner) setVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("failed to clear version: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	return nil
}

// Apply runs every pending migration in order, each inside its own
// transaction. The optional progress callback receives a message per
// applied step. Returns the number of migrations applied.
func (r *Runner) Apply(progress func(msg string)) (int, error) {
	current, err := r.CurrentVersion()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := r.db.Begin()
		if err != nil {
			return applied, fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return applied, fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if err := r.setVersion(tx, m.Version); err != nil {
			tx.Rollback()
			return applied, err
		}
		if err := tx.Commit(); err != nil {
			return applied, fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		applied++
		if progress != nil {
			progress(fmt.Sprintf("Applied migration %d: %s", m.Version, m.Name))
		}
	}

	return applied, nil
}

// ValidateVersion fails when the database schema is newer than this
// binary understands.
func (r *Runner) ValidateVersion() error {
	current, err := r.CurrentVersion()
	if err != nil {
		return err
	}
	if latest := LatestVersion(); current > latest {
		return fmt.Errorf("database schema version %d is newer than supported version %d; upgrade liftlog", current, latest)
	}
	return nil
}
