package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Recurrence describes earlier runs with the same crash signature.
type Recurrence struct {
	// Count is the number of earlier runs within the window.
	Count int
	// FirstSeen is the oldest of those runs; zero when Count is 0.
	FirstSeen time.Time
}

// New reports whether the signature was not seen within the window.
func (r Recurrence) New() bool { return r.Count == 0 }

// CheckRecurrence counts runs with the given crash signature recorded in the
// window before now. An empty signature never recurs. Call it before
// inserting the current run.
func (d *DB) CheckRecurrence(signature string, window time.Duration, now time.Time) (Recurrence, error) {
	if signature == "" {
		return Recurrence{}, nil
	}
	since := now.Add(-window).UTC().Format(timeLayout)

	var count int
	var first sql.NullString
	err := d.db.QueryRow(`SELECT COUNT(*), MIN(timestamp) FROM runs
		WHERE signature = ? AND timestamp >= ?`, signature, since).Scan(&count, &first)
	if err != nil && err != sql.ErrNoRows {
		return Recurrence{}, fmt.Errorf("checking recurrence: %w", err)
	}

	result := Recurrence{Count: count}
	if first.Valid {
		result.FirstSeen, _ = time.Parse(timeLayout, first.String)
	}

	slog.Debug("recurrence check",
		"signature", signature,
		"window", window,
		"recent_count", count,
	)

	return result, nil
}
