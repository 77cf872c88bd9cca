package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"drawing-board/internal/action"
)

// SQLiteStore keeps snapshots in a single SQLite table. Each save stamps a
// new ULID revision on the row.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
// If dbPath is empty, defaults to "./data/sessions.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/sessions.db"
	}

	dsn := ":memory:"
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, ioErr("open", dbPath, err)
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, ioErr("open", dbPath, err)
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, ioErr("open", dbPath, err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, ioErr("open", dbPath, err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS sessions (
		name TEXT PRIMARY KEY,
		revision TEXT NOT NULL,
		content TEXT NOT NULL,
		saved_at DATETIME NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, name string, l action.List) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := encode(l)
	if err != nil {
		return ioErr("save", name, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (name, revision, content, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			revision = excluded.revision,
			content = excluded.content,
			saved_at = excluded.saved_at
	`, name, ulid.Make().String(), string(data), time.Now().UTC())
	if err != nil {
		return ioErr("save", name, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (action.List, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM sessions WHERE name = ?`, name).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, ioErr("load", name, err)
	}
	return decode(name, []byte(content))
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sessions ORDER BY name`)
	if err != nil {
		return nil, ioErr("list", "", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, ioErr("list", "", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, ioErr("list", "", err)
	}
	return names, nil
}

// Revision returns the ULID stamped by the last save of name.
func (s *SQLiteStore) Revision(ctx context.Context, name string) (string, error) {
	var rev string
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM sessions WHERE name = ?`, name).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", ioErr("revision", name, err)
	}
	return rev, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
