package sqlkv

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/tadesk/core"
)

const (
	getQuery    = `SELECT item_value FROM kv_entries WHERE item_key = ?`
	setQuery    = `INSERT INTO kv_entries (item_key, item_value, updated_at) VALUES (?, ?, ?) ON CONFLICT (item_key) DO UPDATE SET item_value = excluded.item_value, updated_at = excluded.updated_at`
	removeQuery = `DELETE FROM kv_entries WHERE item_key = ?`
)

// Storage keeps the items in the kv_entries table (postgres or sqlite).
type Storage struct {
	db *sqlx.DB
}

var _ core.Storage = (*Storage)(nil)

func New(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var val string
	if err := s.db.GetContext(ctx, &val, s.db.Rebind(getQuery), key); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "getting %q", key)
	}
	return val, true, nil
}

func (s *Storage) SetItem(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(setQuery), key, value, time.Now().UTC()); err != nil {
		return errors.Wrapf(err, "setting %q", key)
	}
	return nil
}

func (s *Storage) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(removeQuery), key); err != nil {
		return errors.Wrapf(err, "removing %q", key)
	}
	return nil
}
