package core

import "context"

// Storage is a flat string key-value store, shaped after the browser's web storage.
// GetItem reports false when the key holds no value.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Well-known storage keys.
const (
	PreferredLanguageKey = "preferred_language"
	UsersKey             = "cityu_users"
	CurrentUserKey       = "cityu_current_user"
)
