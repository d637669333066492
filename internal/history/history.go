package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sitesmith/sitesmith/internal/models"
)

const DefaultLimit = 50

const schema = `
CREATE TABLE IF NOT EXISTS modifications (
	id         TEXT PRIMARY KEY,
	page_path  TEXT NOT NULL,
	action     TEXT NOT NULL,
	target     TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	style      TEXT NOT NULL DEFAULT '{}',
	icon       TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_modifications_page ON modifications(page_path, created_at);
`

// Store records applied modifications in SQLite
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the history database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores e, assigning an id and timestamp when they are unset.
func (s *Store) Record(ctx context.Context, e models.HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO modifications (id, page_path, action, target, content, style, icon, summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PagePath, e.Action, e.Target, e.Content, e.Style, e.Icon, e.Summary, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record modification: %w", err)
	}
	return nil
}

// List returns the most recent entries first. An empty pagePath lists all pages.
func (s *Store) List(ctx context.Context, pagePath string, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT id, page_path, action, target, content, style, icon, summary, created_at
		FROM modifications`
	args := []any{}
	if pagePath != "" {
		query += ` WHERE page_path = ?`
		args = append(args, pagePath)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		var created int64
		if err := rows.Scan(&e.ID, &e.PagePath, &e.Action, &e.Target, &e.Content, &e.Style, &e.Icon, &e.Summary, &created); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}
