// Package provenance records the outcome of each planner run to a
// provenance_log table: which bins ran, how many candidates each bin
// started with, how many it selected, and why it stopped. This is the Go
// realization of the original planner's step-trace logging
// ("Prioritize Step 1/2 >> ...") plus the teacher's provenance_log table
// shape, adapted from decision logging to planning-run logging.
package provenance

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS provenance_log (
	run_id      TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	status      TEXT NOT NULL,
	bins_json   TEXT NOT NULL DEFAULT '[]',
	reason      TEXT
);
`

// BinOutcome records the result of running the MMR loop over a single
// priority bin.
type BinOutcome struct {
	Bin            int    `json:"bin"`
	CandidateCount int    `json:"candidate_count"`
	SelectedCount  int    `json:"selected_count"`
	StopReason     string `json:"stop_reason"` // "exhausted" | "no_admissible_candidate"
}

// StopReason values for BinOutcome.StopReason.
const (
	StopExhausted             = "exhausted"
	StopNoAdmissibleCandidate = "no_admissible_candidate"
)

// Entry is a single provenance_log row: the full record of one planner run.
type Entry struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string // "success" | "failure" | "timeout"
	Bins       []BinOutcome
	Reason     string
}

// Store persists provenance entries in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath, creating the provenance_log
// table if it does not already exist.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LogRun writes entry to the provenance_log table.
func (s *Store) LogRun(entry Entry) error {
	binsJSON, err := json.Marshal(entry.Bins)
	if err != nil {
		return fmt.Errorf("marshal bin outcomes: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO provenance_log (run_id, started_at, finished_at, status, bins_json, reason)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.StartedAt.Format(time.RFC3339Nano),
		entry.FinishedAt.Format(time.RFC3339Nano),
		entry.Status,
		string(binsJSON),
		nullIfEmpty(entry.Reason),
	)
	if err != nil {
		return fmt.Errorf("log run: %w", err)
	}
	return nil
}

// ListRecent returns the most recent n provenance entries, newest first.
func (s *Store) ListRecent(n int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT run_id, started_at, finished_at, status, bins_json, reason
		 FROM provenance_log ORDER BY started_at DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var startedAt, finishedAt, binsJSON string
	var reason sql.NullString

	if err := rows.Scan(&e.RunID, &startedAt, &finishedAt, &e.Status, &binsJSON, &reason); err != nil {
		return Entry{}, fmt.Errorf("scan provenance entry: %w", err)
	}

	var err error
	e.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse started_at: %w", err)
	}
	e.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse finished_at: %w", err)
	}
	if err := json.Unmarshal([]byte(binsJSON), &e.Bins); err != nil {
		return Entry{}, fmt.Errorf("unmarshal bin outcomes: %w", err)
	}
	e.Reason = reason.String
	return e, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
