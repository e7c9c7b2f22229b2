package i18n

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/tadesk/core"
)

// ChangeFunc is notified after the active language changed.
type ChangeFunc func(lang Code)

// Selector holds the active language of one client and persists it in that client's durable storage.
type Selector struct {
	mu        sync.Mutex
	storage   core.Storage
	current   Code
	listeners []ChangeFunc
}

// NewSelector restores the persisted preference, or uses def when there is none.
// An unreadable or unknown stored value counts as none.
func NewSelector(ctx context.Context, storage core.Storage, def Code) *Selector {
	if !def.Valid() {
		def = DefaultCode
	}
	s := &Selector{storage: storage, current: def}
	if val, ok, err := storage.GetItem(ctx, core.PreferredLanguageKey); err == nil && ok {
		if lang := Code(val); lang.Valid() {
			s.current = lang
		}
	}
	return s
}

func (s *Selector) Current() Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnChange registers fn to be called on every successful Select.
func (s *Selector) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Select makes lang the active language. Unknown codes are ignored.
// The preference is persisted before the in-memory language changes: if persisting fails,
// nothing changes and no listener is called.
func (s *Selector) Select(ctx context.Context, lang Code) error {
	if !lang.Valid() {
		return nil
	}

	s.mu.Lock()
	if err := s.storage.SetItem(ctx, core.PreferredLanguageKey, string(lang)); err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, "persisting language preference")
	}
	s.current = lang
	listeners := make([]ChangeFunc, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(lang)
	}
	return nil
}

// Options returns the language switcher entries.
func (s *Selector) Options() []Option {
	return BuildOptions(s.Current())
}
