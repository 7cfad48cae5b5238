package sim

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO required
)

// History persists simulation run Results so policy comparisons survive
// process restarts and can be queried after the fact.
//
// Directly grounded on the teacher's internal/infra/sqlite/db.go: WAL mode,
// foreign keys, busy timeout, single-writer connection pool, and the
// idempotent CREATE TABLE IF NOT EXISTS migration style are all carried
// over unchanged; the schema itself is new (run records instead of model
// records).
type History struct {
	db *sql.DB
}

// OpenHistory creates or opens the run-history database at dir/sim.db.
func OpenHistory(dir string) (*History, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create sim history dir: %w", err)
	}

	dbPath := filepath.Join(dir, "sim.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sim history: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sim history: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	h := &History{db: db}
	if err := h.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sim history: %w", err)
	}
	return h, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) migrate() error {
	_, err := h.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id                       INTEGER PRIMARY KEY AUTOINCREMENT,
		ran_at                   INTEGER NOT NULL,
		policy_name              TEXT NOT NULL,
		duration_hours           REAL NOT NULL,
		total_cost               REAL NOT NULL,
		total_tasks              INTEGER NOT NULL,
		completed_tasks          INTEGER NOT NULL,
		total_preemptions        INTEGER NOT NULL,
		average_completion_hours REAL NOT NULL,
		p99_completion_hours     REAL NOT NULL,
		checkpoints_attempted    INTEGER NOT NULL,
		checkpoints_successful   INTEGER NOT NULL,
		total_time_saved_hours   REAL NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = h.db.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_policy ON runs(policy_name, ran_at)`)
	return err
}

// Record stores one run's Result against the duration it was run for.
func (h *History) Record(durationHours float64, r Result) (int64, error) {
	res, err := h.db.Exec(
		`INSERT INTO runs (
			ran_at, policy_name, duration_hours, total_cost, total_tasks,
			completed_tasks, total_preemptions, average_completion_hours,
			p99_completion_hours, checkpoints_attempted, checkpoints_successful,
			total_time_saved_hours
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Unix(), r.PolicyName, durationHours, r.TotalCost, r.TotalTasks,
		r.CompletedTasks, r.TotalPreemptions, r.AverageCompletionHours,
		r.P99CompletionHours, r.CheckpointsAttempted, r.CheckpointsSuccessful,
		r.TotalTimeSavedHours,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ByPolicy returns every recorded run for the named policy, most recent
// first — used to compare a policy's cost/preemption trend across runs.
func (h *History) ByPolicy(policyName string) ([]Result, error) {
	rows, err := h.db.Query(
		`SELECT policy_name, total_cost, total_tasks, completed_tasks,
			total_preemptions, average_completion_hours, p99_completion_hours,
			checkpoints_attempted, checkpoints_successful, total_time_saved_hours
		 FROM runs WHERE policy_name = ? ORDER BY ran_at DESC`,
		policyName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.PolicyName, &r.TotalCost, &r.TotalTasks, &r.CompletedTasks,
			&r.TotalPreemptions, &r.AverageCompletionHours, &r.P99CompletionHours,
			&r.CheckpointsAttempted, &r.CheckpointsSuccessful, &r.TotalTimeSavedHours); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
