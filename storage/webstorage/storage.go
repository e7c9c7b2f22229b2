package webstorage

import (
	"context"
	"encoding/gob"
	"net/http"
	"sync"

	"github.com/gorilla/sessions"
	"github.com/pkg/errors"

	"github.com/trezcool/tadesk/core"
)

func init() {
	// flashes are kept as []interface{} in the session values
	gob.Register([]interface{}{})
}

// Storage exposes one named cookie session of a request as a core.Storage.
// Changes stay in the session until Save writes the cookie.
type Storage struct {
	mu    sync.Mutex
	sess  *sessions.Session
	r     *http.Request
	w     http.ResponseWriter
	dirty bool
}

var _ core.Storage = (*Storage)(nil)

// New loads the session cookie called name. A cookie that cannot be decoded is dropped and
// replaced by an empty session. opts overrides the store's cookie options when not nil.
func New(store sessions.Store, r *http.Request, w http.ResponseWriter, name string, opts *sessions.Options) *Storage {
	sess, err := store.Get(r, name)
	if err != nil || sess == nil {
		sess = sessions.NewSession(store, name)
		sess.IsNew = true
	}
	if opts != nil {
		o := *opts
		sess.Options = &o
	} else if sess.Options == nil {
		sess.Options = &sessions.Options{Path: "/"}
	}
	return &Storage{sess: sess, r: r, w: w}
}

func (s *Storage) GetItem(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.sess.Values[key].(string)
	return val, ok, nil
}

func (s *Storage) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess.Values[key] = value
	s.dirty = true
	return nil
}

func (s *Storage) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sess.Values[key]; ok {
		delete(s.sess.Values, key)
		s.dirty = true
	}
	return nil
}

// AddFlash queues a one-time message of the given kind (e.g. "error", "success").
func (s *Storage) AddFlash(kind, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess.AddFlash(msg, kind)
	s.dirty = true
}

// Flashes pops the queued messages of kind.
func (s *Storage) Flashes(kind string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := s.sess.Flashes(kind)
	if len(raw) == 0 {
		return nil
	}
	s.dirty = true
	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// Save writes the cookie if anything changed. It must run before the response headers are sent.
func (s *Storage) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	if err := s.sess.Save(s.r, s.w); err != nil {
		return errors.Wrapf(err, "saving %s cookie", s.sess.Name())
	}
	s.dirty = false
	return nil
}
