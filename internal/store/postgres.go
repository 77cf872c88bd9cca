package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"drawing-board/internal/action"
)

// PostgresStore keeps snapshots in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, ioErr("open", "", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, ioErr("open", "", err)
	}

	s := &PostgresStore{pool: pool}
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			name TEXT PRIMARY KEY,
			revision TEXT NOT NULL,
			content TEXT NOT NULL,
			saved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		pool.Close()
		return nil, ioErr("open", "", err)
	}
	return s, nil
}

func (s *PostgresStore) Save(ctx context.Context, name string, l action.List) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := encode(l)
	if err != nil {
		return ioErr("save", name, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (name, revision, content, saved_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name) DO UPDATE SET
			revision = EXCLUDED.revision,
			content = EXCLUDED.content,
			saved_at = EXCLUDED.saved_at
	`, name, ulid.Make().String(), string(data))
	if err != nil {
		return ioErr("save", name, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, name string) (action.List, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	var content string
	err := s.pool.QueryRow(ctx, `SELECT content FROM sessions WHERE name = $1`, name).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, ioErr("load", name, err)
	}
	return decode(name, []byte(content))
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM sessions ORDER BY name`)
	if err != nil {
		return nil, ioErr("list", "", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, ioErr("list", "", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Revision returns the ULID stamped by the last save of name.
func (s *PostgresStore) Revision(ctx context.Context, name string) (string, error) {
	var rev string
	err := s.pool.QueryRow(ctx, `SELECT revision FROM sessions WHERE name = $1`, name).Scan(&rev)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", ioErr("revision", name, err)
	}
	return rev, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
