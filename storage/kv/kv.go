// Package kv opens the server's shared key-value storage from the configuration.
package kv

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/storage/database"
	"github.com/trezcool/tadesk/storage/kv/inmem"
	"github.com/trezcool/tadesk/storage/kv/rediskv"
	"github.com/trezcool/tadesk/storage/kv/sqlkv"
)

const (
	EngineMemory = "memory"
	EngineRedis  = "redis"
)

// IsPersistent reports whether the items of engine outlive the process.
func IsPersistent(engine string) bool {
	return engine == EngineRedis || database.IsSQL(engine)
}

// Open returns the storage selected by conf.Storage.Engine and a func releasing it.
// SQL databases are migrated before use.
func Open(ctx context.Context, conf *core.Config) (core.Storage, func() error, error) {
	engine := conf.Storage.Engine
	switch {
	case engine == "" || engine == EngineMemory:
		return inmemkv.New(), func() error { return nil }, nil

	case engine == EngineRedis:
		storage, err := rediskv.Open(ctx, conf.Storage.RedisURL, conf.Storage.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return storage, storage.Close, nil

	case database.IsSQL(engine):
		db, err := database.Open(conf)
		if err != nil {
			return nil, nil, err
		}
		if err = database.Ping(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		if err = database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sqlkv.New(db), db.Close, nil

	default:
		return nil, nil, errors.Errorf("unknown storage engine %q", engine)
	}
}
