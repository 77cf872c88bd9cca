package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"drawing-board/internal/action"
)

const fileExt = ".json"

// FileStore keeps one JSON file per snapshot in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ioErr("open", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

func (s *FileStore) Save(ctx context.Context, name string, l action.List) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := encode(l)
	if err != nil {
		return ioErr("save", name, err)
	}

	// Write then rename so a reader never sees a half-written snapshot.
	tmp, err := os.CreateTemp(s.dir, "."+name+"-*")
	if err != nil {
		return ioErr("save", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return ioErr("save", name, err)
	}
	if err := tmp.Close(); err != nil {
		return ioErr("save", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return ioErr("save", name, err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, name string) (action.List, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, ioErr("load", name, err)
	}
	return decode(name, data)
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, ioErr("list", "", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, ".") || !strings.HasSuffix(n, fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(n, fileExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Close() error { return nil }
