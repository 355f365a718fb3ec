// Package dedupe records repeated filter submissions per uploaded file in
// postgres. It is observational only: a tracker failure never rejects a
// submission.
package dedupe

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq" // postgres driver
)

// Tracker counts how often each uploaded file has been submitted.
type Tracker struct {
	db *sql.DB
}

// Open connects to postgres and ensures the submissions table exists.
func Open(databaseURL string) (*Tracker, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	tracker := &Tracker{db: db}
	if err := tracker.ensureTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure submissions table: %w", err)
	}
	return tracker, nil
}

// Close releases the database connection.
func (t *Tracker) Close() error {
	return t.db.Close()
}

func (t *Tracker) ensureTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS stitch_submissions (
			file_id TEXT PRIMARY KEY,
			filter TEXT,
			intensity DOUBLE PRECISION,
			first_seen_at TIMESTAMPTZ DEFAULT NOW(),
			last_seen_at TIMESTAMPTZ DEFAULT NOW(),
			seen_count INTEGER DEFAULT 1
		)
	`
	if _, err := t.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create stitch_submissions table: %w", err)
	}
	log.Printf("stitch_submissions table ready")
	return nil
}

// Record upserts a submission and returns how many times the file has been
// submitted so far.
func (t *Tracker) Record(ctx context.Context, fileID, filter string, intensity float64) (int, error) {
	query := `
		INSERT INTO stitch_submissions (file_id, filter, intensity, first_seen_at, last_seen_at, seen_count)
		VALUES ($1, $2, $3, NOW(), NOW(), 1)
		ON CONFLICT (file_id) DO UPDATE
		SET last_seen_at = NOW(),
		    seen_count = stitch_submissions.seen_count + 1,
		    filter = EXCLUDED.filter,
		    intensity = EXCLUDED.intensity
		RETURNING seen_count
	`

	var seenCount int
	if err := t.db.QueryRowContext(ctx, query, fileID, filter, intensity).Scan(&seenCount); err != nil {
		return 0, fmt.Errorf("failed to record submission: %w", err)
	}
	return seenCount, nil
}

// SeenCount returns the submission count for a file, zero when unseen.
func (t *Tracker) SeenCount(ctx context.Context, fileID string) (int, error) {
	var seenCount int
	err := t.db.QueryRowContext(ctx, `SELECT seen_count FROM stitch_submissions WHERE file_id = $1`, fileID).Scan(&seenCount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get seen count: %w", err)
	}
	return seenCount, nil
}
