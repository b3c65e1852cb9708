// Package recents tracks recently opened projects in a small sqlite
// database so the open view can offer them newest-first.
package recents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound reports a path with no recents entry.
var ErrNotFound = errors.New("recent entry not found")

// Entry is one recently opened project.
type Entry struct {
	Path         string
	Name         string
	BaseWidth    int
	BaseHeight   int
	LastOpenedAt time.Time
}

// Store wraps the recents database.
type Store struct {
	db *sql.DB
}

// Open opens sqlite with the same defaults the rest of the app uses.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Touch upserts an entry, refreshing its last-opened time.
func (s *Store) Touch(ctx context.Context, e Entry) error {
	if e.LastOpenedAt.IsZero() {
		e.LastOpenedAt = time.Now().UTC().Truncate(time.Second)
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO recents(path, name, base_width, base_height, last_opened_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
	 name=excluded.name,
	 base_width=excluded.base_width,
	 base_height=excluded.base_height,
	 last_opened_at=excluded.last_opened_at;
	`, e.Path, e.Name, e.BaseWidth, e.BaseHeight, e.LastOpenedAt)
	return err
}

// List returns entries newest-first, at most limit (0 = all).
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT path, name, base_width, base_height, last_opened_at FROM recents ORDER BY last_opened_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Name, &e.BaseWidth, &e.BaseHeight, &e.LastOpenedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get looks up one entry by exact path.
func (s *Store) Get(ctx context.Context, path string) (Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT path, name, base_width, base_height, last_opened_at FROM recents WHERE path = ?`, path,
	).Scan(&e.Path, &e.Name, &e.BaseWidth, &e.BaseHeight, &e.LastOpenedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// Remove drops an entry; absent paths are a no-op.
func (s *Store) Remove(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recents WHERE path = ?`, path)
	return err
}

// Suggest returns the entry whose display name is closest to name by
// edit distance, for "did you mean" prompts when an exact open fails.
// ok is false when the store is empty or nothing is reasonably close
// (distance above half the query length).
func (s *Store) Suggest(ctx context.Context, name string) (Entry, bool, error) {
	entries, err := s.List(ctx, 0)
	if err != nil {
		return Entry{}, false, err
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || len(entries) == 0 {
		return Entry{}, false, nil
	}
	best := -1
	bestDist := 0
	for i, e := range entries {
		d := levenshtein.ComputeDistance(name, strings.ToLower(e.Name))
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if bestDist > len(name)/2 {
		return Entry{}, false, nil
	}
	return entries[best], true, nil
}
