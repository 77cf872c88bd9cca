// Package store persists named snapshots of a room's history.
//
// A snapshot is the JSON array of the room's actions at save time. It lives
// independently of any room and may be loaded into a room of another name.
// Backends: flat files (default), SQLite, PostgreSQL and Redis.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"drawing-board/internal/action"
)

var (
	ErrNotFound      = errors.New("store: session not found")
	ErrInvalidFormat = errors.New("store: session is not a valid action list")
	ErrIO            = errors.New("store: storage failure")
	ErrInvalidName   = errors.New("store: invalid session name")
)

const maxNameLen = 100

// Store is implemented by every snapshot backend.
type Store interface {
	// Save overwrites the snapshot called name.
	Save(ctx context.Context, name string, l action.List) error
	// Load returns the snapshot called name.
	Load(ctx context.Context, name string) (action.List, error)
	// List returns all snapshot names, sorted.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Revisioner is implemented by backends that stamp every save with a
// revision id.
type Revisioner interface {
	Revision(ctx context.Context, name string) (string, error)
}

// RevisionOf returns the revision of the snapshot called name, or "" when
// s does not keep revisions.
func RevisionOf(ctx context.Context, s Store, name string) (string, error) {
	r, ok := s.(Revisioner)
	if !ok {
		return "", nil
	}
	return r.Revision(ctx, name)
}

// ValidateName rejects names that cannot be stored on every backend.
func ValidateName(name string) error {
	switch {
	case name == "", len(name) > maxNameLen:
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.HasPrefix(name, "."), strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func encode(l action.List) ([]byte, error) {
	return json.Marshal(l)
}

func decode(name string, raw []byte) (action.List, error) {
	var l action.List
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, name, err)
	}
	return l, nil
}

func ioErr(op, name string, err error) error {
	if name == "" {
		return fmt.Errorf("store: %s: %w: %w", op, ErrIO, err)
	}
	return fmt.Errorf("store: %s %q: %w: %w", op, name, ErrIO, err)
}
