// Package store provides SQLite-backed history of analysis runs.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/setevik/crashtriage/internal/analysis"
	"github.com/setevik/crashtriage/internal/fatallog"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one analyzed fatal error log.
type Run struct {
	ID         string
	InstanceID string
	Timestamp  time.Time
	Source     string
	Signature  string
	Version    string
	CrashTime  time.Time
	Findings   []analysis.Finding
}

// NewRun records the outcome of analyzing l.
func NewRun(instanceID, source string, l *fatallog.Log, findings []analysis.Finding, now time.Time) *Run {
	r := &Run{
		ID:         uuid.New().String(),
		InstanceID: instanceID,
		Timestamp:  now,
		Source:     source,
		Signature:  l.CrashSignature(),
		CrashTime:  l.CrashTime,
		Findings:   findings,
	}
	if !l.Version.IsZero() {
		r.Version = l.Version.String()
	}
	return r
}

// Highest returns the most severe finding severity, or "" with no findings.
func (r *Run) Highest() analysis.Severity {
	var s analysis.Severity
	for _, f := range r.Findings {
		if s == "" || f.Severity.Rank() > s.Rank() {
			s = f.Severity
		}
	}
	return s
}

// DB wraps an SQLite connection for run storage.
type DB struct {
	db *sql.DB
}

// Open opens or creates an SQLite database at the given path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single writer connection to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Insert stores a run and its findings in one transaction.
func (d *DB) Insert(r *Run) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback()

	var crashTime sql.NullString
	if !r.CrashTime.IsZero() {
		crashTime = sql.NullString{String: r.CrashTime.UTC().Format(timeLayout), Valid: true}
	}
	_, err = tx.Exec(`
		INSERT INTO runs (id, instance_id, timestamp, source, signature, version, crash_time, severity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.InstanceID,
		r.Timestamp.UTC().Format(timeLayout),
		r.Source,
		r.Signature,
		r.Version,
		crashTime,
		string(r.Highest()),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i, f := range r.Findings {
		_, err := tx.Exec(`
			INSERT INTO findings (run_id, position, code, severity, message)
			VALUES (?, ?, ?, ?, ?)`,
			r.ID, i, f.Code, string(f.Severity), f.Message,
		)
		if err != nil {
			return fmt.Errorf("inserting finding %s: %w", f.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// QueryFilter controls which runs are returned by Query.
type QueryFilter struct {
	Since      time.Time
	Until      time.Time
	Code       string
	Signature  string
	InstanceID string
	Limit      int
}

func (f QueryFilter) where() (string, []any) {
	clause := " WHERE 1=1"
	var args []any

	if !f.Since.IsZero() {
		clause += " AND r.timestamp >= ?"
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	if !f.Until.IsZero() {
		clause += " AND r.timestamp <= ?"
		args = append(args, f.Until.UTC().Format(timeLayout))
	}
	if f.Code != "" {
		clause += " AND r.id IN (SELECT run_id FROM findings WHERE code = ?)"
		args = append(args, f.Code)
	}
	if f.Signature != "" {
		clause += " AND r.signature = ?"
		args = append(args, f.Signature)
	}
	if f.InstanceID != "" {
		clause += " AND r.instance_id = ?"
		args = append(args, f.InstanceID)
	}
	return clause, args
}

// Query returns runs matching the filter, newest first.
func (d *DB) Query(f QueryFilter) ([]*Run, error) {
	where, args := f.where()
	query := `SELECT r.id, r.instance_id, r.timestamp, r.source, r.signature, r.version, r.crash_time
		FROM runs r` + where + " ORDER BY r.timestamp DESC"

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, r := range runs {
		if r.Findings, err = d.findings(r.ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (d *DB) findings(runID string) ([]analysis.Finding, error) {
	rows, err := d.db.Query(`SELECT code, severity, message FROM findings
		WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var out []analysis.Finding
	for rows.Next() {
		var f analysis.Finding
		if err := rows.Scan(&f.Code, &f.Severity, &f.Message); err != nil {
			return nil, fmt.Errorf("scanning finding row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CodeCount is the number of runs that produced a finding code.
type CodeCount struct {
	Code     string
	Severity analysis.Severity
	Count    int
}

// CodeCounts tallies finding codes across the runs matching f, most frequent
// first. Limit is ignored.
func (d *DB) CodeCounts(f QueryFilter) ([]CodeCount, error) {
	where, args := f.where()
	rows, err := d.db.Query(`SELECT fi.code, fi.severity, COUNT(DISTINCT fi.run_id) AS n
		FROM findings fi JOIN runs r ON r.id = fi.run_id`+where+`
		GROUP BY fi.code, fi.severity ORDER BY n DESC, fi.code`, args...)
	if err != nil {
		return nil, fmt.Errorf("counting findings: %w", err)
	}
	defer rows.Close()

	var out []CodeCount
	for rows.Next() {
		var c CodeCount
		if err := rows.Scan(&c.Code, &c.Severity, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Purge deletes runs older than the given retention duration.
func (d *DB) Purge(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UTC().Format(timeLayout)
	if _, err := d.db.Exec(`DELETE FROM findings WHERE run_id IN
		(SELECT id FROM runs WHERE timestamp < ?)`, cutoff); err != nil {
		return 0, fmt.Errorf("purging old findings: %w", err)
	}
	result, err := d.db.Exec(`DELETE FROM runs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging old runs: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of stored runs.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return n, nil
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var r Run
	var tsStr string
	var source, signature, version, crashTime sql.NullString

	err := rows.Scan(
		&r.ID,
		&r.InstanceID,
		&tsStr,
		&source,
		&signature,
		&version,
		&crashTime,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning run row: %w", err)
	}

	r.Timestamp, _ = time.Parse(timeLayout, tsStr)
	r.Source = source.String
	r.Signature = signature.String
	r.Version = version.String
	if crashTime.Valid {
		r.CrashTime, _ = time.Parse(timeLayout, crashTime.String)
	}
	return &r, nil
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			instance_id TEXT NOT NULL,
			timestamp   TEXT NOT NULL,
			source      TEXT,
			signature   TEXT,
			version     TEXT,
			crash_time  TEXT,
			severity    TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			run_id   TEXT NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			code     TEXT NOT NULL,
			severity TEXT NOT NULL,
			message  TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_signature ON runs(signature, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_code ON findings(code)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Debug("database schema up to date")
	return nil
}
