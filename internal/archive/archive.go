// Package archive keeps every delivered draw in a SQLite database so later
// draws can avoid repeating recent pairings.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kingrea/secret-santa/internal/matcher"
)

const timeFormat = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS assignments (
	draw_id    TEXT    NOT NULL,
	year       INTEGER NOT NULL,
	round      INTEGER NOT NULL,
	giver      TEXT    NOT NULL,
	receiver   TEXT    NOT NULL,
	budget     TEXT    NOT NULL DEFAULT '',
	created_at TEXT    NOT NULL,
	PRIMARY KEY (draw_id, round, giver)
);
CREATE INDEX IF NOT EXISTS assignments_year ON assignments (year);
`

// Entry is one archived assignment.
type Entry struct {
	DrawID   string
	Year     int
	Round    int
	Giver    matcher.Participant
	Receiver matcher.Participant
	Budget   string
	Created  time.Time
}

// Store is a SQLite-backed draw archive.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (and creates when missing) the archive at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("archive: path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("archive: ensure dir: %w", err)
	}
	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("archive: ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("archive: apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record stores every assignment of a draw in one transaction.
func (s *Store) Record(ctx context.Context, drawID string, year int, results []matcher.RoundResult, created time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(drawID) == "" {
		return fmt.Errorf("archive: draw id is required")
	}
	if created.IsZero() {
		created = time.Now().UTC()
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO assignments (draw_id, year, round, giver, receiver, budget, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("archive: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, result := range results {
		for _, giver := range result.Pairing.Givers() {
			if _, err := stmt.ExecContext(ctx, drawID, year, i+1, string(giver), string(result.Pairing[giver]), result.Budget, created.UTC().Format(timeFormat)); err != nil {
				return fmt.Errorf("archive: insert %s round %d: %w", giver, i+1, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive: commit: %w", err)
	}
	return nil
}

// Entries returns all assignments from sinceYear onwards, oldest first.
func (s *Store) Entries(ctx context.Context, sinceYear int) ([]Entry, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT draw_id, year, round, giver, receiver, budget, created_at FROM assignments WHERE year >= ? ORDER BY year, created_at, round, giver`, sinceYear)
	if err != nil {
		return nil, fmt.Errorf("archive: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var giver, receiver, created string
		if err := rows.Scan(&e.DrawID, &e.Year, &e.Round, &giver, &receiver, &e.Budget, &created); err != nil {
			return nil, fmt.Errorf("archive: scan: %w", err)
		}
		e.Giver = matcher.Participant(giver)
		e.Receiver = matcher.Participant(receiver)
		if e.Created, err = time.Parse(timeFormat, created); err != nil {
			return nil, fmt.Errorf("archive: parse created_at: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: rows: %w", err)
	}
	return out, nil
}

// History returns a matcher history holding every pair drawn from sinceYear
// onwards.
func (s *Store) History(ctx context.Context, sinceYear int) (*matcher.History, error) {
	entries, err := s.Entries(ctx, sinceYear)
	if err != nil {
		return nil, err
	}
	history := matcher.NewHistory()
	for _, e := range entries {
		history.Add(e.Giver, e.Receiver)
	}
	return history, nil
}
