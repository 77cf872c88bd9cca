package store

import (
	"context"
	"fmt"
	"time"

	"drawing-board/internal/action"
	"drawing-board/internal/metrics"
)

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	Dir         string
	SQLitePath  string
	DatabaseURL string
	RedisURL    string
}

// Open builds the configured backend wrapped with metrics.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Backend {
	case "", BackendFile:
		s, err = NewFileStore(opts.Dir)
	case BackendSQLite:
		s, err = NewSQLiteStore(ctx, opts.SQLitePath)
	case BackendPostgres:
		s, err = NewPostgresStore(ctx, opts.DatabaseURL)
	case BackendRedis:
		s, err = NewRedisStore(ctx, opts.RedisURL)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s), nil
}

type instrumented struct {
	Store
}

// Instrument records latency and outcome of every call on s.
func Instrument(s Store) Store {
	return instrumented{Store: s}
}

func observe(op string, start time.Time, err error) {
	metrics.SessionLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.SessionOps.WithLabelValues(op, metrics.Result(err)).Inc()
}

func (i instrumented) Save(ctx context.Context, name string, l action.List) (err error) {
	defer func(start time.Time) { observe("save", start, err) }(time.Now())
	return i.Store.Save(ctx, name, l)
}

func (i instrumented) Load(ctx context.Context, name string) (l action.List, err error) {
	defer func(start time.Time) { observe("load", start, err) }(time.Now())
	return i.Store.Load(ctx, name)
}

func (i instrumented) List(ctx context.Context) (names []string, err error) {
	defer func(start time.Time) { observe("list", start, err) }(time.Now())
	return i.Store.List(ctx)
}

// Revision forwards to the wrapped backend when it keeps revisions.
func (i instrumented) Revision(ctx context.Context, name string) (string, error) {
	return RevisionOf(ctx, i.Store, name)
}
