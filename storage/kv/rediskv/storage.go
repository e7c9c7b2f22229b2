package rediskv

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/tadesk/core"
)

// Storage keeps the items as plain redis strings under a key prefix.
type Storage struct {
	rdb    redis.UniversalClient
	prefix string
}

var _ core.Storage = (*Storage)(nil)

func New(rdb redis.UniversalClient, prefix string) *Storage {
	return &Storage{rdb: rdb, prefix: prefix}
}

// Open connects to the redis server at url (e.g. "redis://localhost:6379/0").
func Open(ctx context.Context, url, prefix string) (*Storage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	rdb := redis.NewClient(opts)
	if err = rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return New(rdb, prefix), nil
}

func (s *Storage) GetItem(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, wrap(err, "getting", key)
	}
	return val, true, nil
}

func (s *Storage) SetItem(ctx context.Context, key, value string) error {
	return wrap(s.rdb.Set(ctx, s.prefix+key, value, 0).Err(), "setting", key)
}

func (s *Storage) RemoveItem(ctx context.Context, key string) error {
	return wrap(s.rdb.Del(ctx, s.prefix+key).Err(), "removing", key)
}

// wrap annotates err with the operation.
// A closed client cannot come back, so the server is asked to shut down.
func wrap(err error, op, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.ErrClosed) {
		return core.NewShutdownError(fmt.Sprintf("%s %q: %v", op, key, err))
	}
	return errors.Wrapf(err, "%s %q", op, key)
}

func (s *Storage) Close() error {
	return s.rdb.Close()
}
