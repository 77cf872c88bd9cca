package store

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"

	"drawing-board/internal/action"
)

const redisIndexKey = "whiteboard:sessions"

func redisSessionKey(name string) string {
	return "whiteboard:session:" + name
}

// RedisStore keeps each snapshot under its own key plus a set of names.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects using a redis:// URL.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, ioErr("open", "", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, ioErr("open", "", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Save(ctx context.Context, name string, l action.List) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := encode(l)
	if err != nil {
		return ioErr("save", name, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisSessionKey(name), data, 0)
		pipe.SAdd(ctx, redisIndexKey, name)
		return nil
	})
	if err != nil {
		return ioErr("save", name, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, name string) (action.List, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, redisSessionKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, ioErr("load", name, err)
	}
	return decode(name, data)
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, ioErr("list", "", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
