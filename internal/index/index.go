// Package index keeps a small embedded record of every committed capture so
// previously saved documents can be listed and located later.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS captures (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL CHECK (kind IN ('site', 'system')),
	source TEXT NOT NULL,
	path TEXT NOT NULL,
	digest TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_captures_created ON captures(created_at);
CREATE INDEX IF NOT EXISTS idx_captures_source ON captures(source);
`

// ErrNotFound is returned when no capture matches.
var ErrNotFound = errors.New("index: capture not found")

// Capture is one committed document.
type Capture struct {
	ID        string
	Kind      string // site | system
	Source    string // root URL or root path
	Path      string // committed document location
	Digest    string // engine SHA-256 of the committed file
	CreatedAt time.Time
}

// Store persists captures in a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the index at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts one capture, assigning an ID when absent, and returns it.
func (s *Store) Record(c Capture) (Capture, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO captures (id, kind, source, path, digest, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Kind, c.Source, c.Path, c.Digest, c.CreatedAt.Unix(),
	)
	if err != nil {
		return Capture{}, fmt.Errorf("record capture: %w", err)
	}
	return c, nil
}

// List returns captures, newest first.
func (s *Store) List(limit int) ([]Capture, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, kind, source, path, digest, created_at FROM captures ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var out []Capture
	for rows.Next() {
		var c Capture
		var ts int64
		if err := rows.Scan(&c.ID, &c.Kind, &c.Source, &c.Path, &c.Digest, &ts); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		c.CreatedAt = time.Unix(ts, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// Lookup fetches one capture by ID.
func (s *Store) Lookup(id string) (Capture, error) {
	var c Capture
	var ts int64
	err := s.db.QueryRow(
		`SELECT id, kind, source, path, digest, created_at FROM captures WHERE id = ?`, id,
	).Scan(&c.ID, &c.Kind, &c.Source, &c.Path, &c.Digest, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Capture{}, ErrNotFound
	}
	if err != nil {
		return Capture{}, fmt.Errorf("lookup capture %s: %w", id, err)
	}
	c.CreatedAt = time.Unix(ts, 0).UTC()
	return c, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
