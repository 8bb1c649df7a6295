// Package store keeps exported card artifacts in a SQLite database so hosts
// can list and re-download them later.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xob0t/festivecard/pkg/export"
)

// ErrNotFound is returned for unknown artifact IDs.
var ErrNotFound = errors.New("artifact not found")

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	filename   TEXT    NOT NULL,
	mime       TEXT    NOT NULL,
	width      INTEGER NOT NULL,
	height     INTEGER NOT NULL,
	frames     INTEGER NOT NULL,
	delay_ms   INTEGER NOT NULL,
	template   TEXT    NOT NULL,
	created_at INTEGER NOT NULL,
	size       INTEGER NOT NULL,
	data       BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_created ON artifacts(created_at);
`

// Record describes a stored artifact without its payload.
type Record struct {
	ID        int64         `json:"id"`
	Filename  string        `json:"filename"`
	MIME      string        `json:"mime"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Frames    int           `json:"frames"`
	Delay     time.Duration `json:"delay"`
	Template  string        `json:"template"`
	CreatedAt time.Time     `json:"created_at"`
	Size      int           `json:"size"`
}

// Store is a SQLite-backed artifact table. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory store.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn += "?_pragma=journal_mode(WAL)" +
			"&_pragma=synchronous(NORMAL)" +
			"&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and :memory: databases
	// are per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a and returns its record.
func (s *Store) Save(ctx context.Context, a export.Artifact) (Record, error) {
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (filename, mime, width, height, frames, delay_ms, template, created_at, size, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Filename, a.MIME, a.Width, a.Height, a.Frames, a.Delay.Milliseconds(), a.Template,
		created.UnixMilli(), len(a.Data), a.Data)
	if err != nil {
		return Record{}, fmt.Errorf("insert artifact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("insert artifact: %w", err)
	}
	log.Printf("[STORE] saved %s (%d bytes) as #%d", a.Filename, len(a.Data), id)
	return Record{
		ID: id, Filename: a.Filename, MIME: a.MIME,
		Width: a.Width, Height: a.Height, Frames: a.Frames, Delay: a.Delay,
		Template: a.Template, CreatedAt: time.UnixMilli(created.UnixMilli()), Size: len(a.Data),
	}, nil
}

const recordColumns = `id, filename, mime, width, height, frames, delay_ms, template, created_at, size`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, extra ...any) (Record, error) {
	var r Record
	var delayMS, created int64
	dest := append([]any{&r.ID, &r.Filename, &r.MIME, &r.Width, &r.Height, &r.Frames, &delayMS, &r.Template, &created, &r.Size}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Record{}, err
	}
	r.Delay = time.Duration(delayMS) * time.Millisecond
	r.CreatedAt = time.UnixMilli(created)
	return r, nil
}

// Get returns the record and payload for id.
func (s *Store) Get(ctx context.Context, id int64) (Record, []byte, error) {
	var data []byte
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+`, data FROM artifacts WHERE id = ?`, id)
	r, err := scanRecord(row, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, nil, ErrNotFound
	}
	if err != nil {
		return Record{}, nil, fmt.Errorf("get artifact %d: %w", id, err)
	}
	return r, data, nil
}

// List returns up to limit records, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM artifacts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list artifacts: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes the artifact with id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete artifact %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Prune deletes everything but the newest keep artifacts and reports how many
// were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM artifacts WHERE id NOT IN (
			SELECT id FROM artifacts ORDER BY created_at DESC, id DESC LIMIT ?
		)`, max(keep, 0))
	if err != nil {
		return 0, fmt.Errorf("prune artifacts: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Printf("[STORE] pruned %d artifacts", n)
	}
	return n, nil
}
