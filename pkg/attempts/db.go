// Package attempts keeps an outcome-only log of code verification attempts.
// Entered codes are never stored.
package attempts

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome is the result of one verification attempt.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// Attempt is one recorded verification.
type Attempt struct {
	ID        int64     `json:"id"`
	Length    int       `json:"length"`
	Outcome   Outcome   `json:"outcome"`
	Source    string    `json:"source"` // "tui" or "cli"
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarizes the log.
type Stats struct {
	Total    int        `json:"total"`
	Accepted int        `json:"accepted"`
	Rejected int        `json:"rejected"`
	Last     *time.Time `json:"last,omitempty"`
}

// DB handles attempt persistence
type DB struct {
	db *sql.DB
}

// Open opens or creates the attempt database at the given path
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	adb := &DB{db: db}
	if err := adb.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return adb, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		length INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_created ON attempts(created_at);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Record inserts an attempt and fills in its ID. A zero CreatedAt is set to now.
func (d *DB) Record(a *Attempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	result, err := d.db.Exec(`
		INSERT INTO attempts (length, outcome, source, created_at)
		VALUES (?, ?, ?, ?)
	`, a.Length, string(a.Outcome), a.Source, a.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// Recent returns up to limit attempts, newest first
func (d *DB) Recent(limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(`
		SELECT id, length, outcome, source, created_at
		FROM attempts
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var outcome string
		var created int64
		if err := rows.Scan(&a.ID, &a.Length, &outcome, &a.Source, &created); err != nil {
			return nil, err
		}
		a.Outcome = Outcome(outcome)
		a.CreatedAt = time.UnixMilli(created)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Stats counts attempts by outcome
func (d *DB) Stats() (Stats, error) {
	var s Stats
	var last sql.NullInt64
	err := d.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			MAX(created_at)
		FROM attempts
	`, string(OutcomeAccepted), string(OutcomeRejected)).Scan(&s.Total, &s.Accepted, &s.Rejected, &last)
	if err != nil {
		return s, fmt.Errorf("attempt stats: %w", err)
	}
	if last.Valid {
		t := time.UnixMilli(last.Int64)
		s.Last = &t
	}
	return s, nil
}
