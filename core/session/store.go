package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/core/i18n"
	"github.com/trezcool/tadesk/core/user"
)

// ErrMissingCredentials is returned by Login when the email or the password is blank.
var ErrMissingCredentials = errors.New("email and password are required")

type Option func(*Store)

// WithLatency delays every Login and Register by d before it resolves.
func WithLatency(d time.Duration) Option {
	return func(s *Store) { s.latency = d }
}

// Store manages the current user of one client.
// The session lives under core.CurrentUserKey in the durable storage ("remember me")
// or in the tab-scoped storage.
type Store struct {
	users    *user.Service
	validate *validator.Validate
	durable  core.Storage
	tab      core.Storage
	latency  time.Duration
}

func NewStore(users *user.Service, validate *validator.Validate, durable, tab core.Storage, opts ...Option) *Store {
	s := &Store{
		users:    users,
		validate: validate,
		durable:  durable,
		tab:      tab,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// wait simulates the round trip of a remote call. A cancelled ctx abandons the call.
func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Login opens a session for the user matching email and password.
// It fails with user.ErrInvalidCredentials whether the email is unknown or the password is wrong.
func (s *Store) Login(ctx context.Context, email, pwd string, remember bool) (user.User, error) {
	if core.CleanString(email) == "" || pwd == "" {
		return user.User{}, core.NewValidationError(ErrMissingCredentials)
	}
	if err := s.wait(ctx); err != nil {
		return user.User{}, err
	}

	usr, err := s.users.Authenticate(ctx, email, pwd)
	if err != nil {
		return user.User{}, err
	}
	if err = s.open(ctx, usr, remember); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

// Register validates nu, creates the user and opens a session for them.
// A taken email fails with an error wrapping user.ErrEmailExists.
func (s *Store) Register(ctx context.Context, nu user.NewUser, lang i18n.Code) (user.User, error) {
	if err := nu.Validate(ctx, s.validate, s.users); err != nil {
		return user.User{}, err
	}
	if err := s.wait(ctx); err != nil {
		return user.User{}, err
	}

	usr, err := s.users.Create(ctx, nu, lang)
	if err != nil {
		return user.User{}, err
	}
	if err = s.open(ctx, usr, nu.Remember); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

// open stores usr in the storage matching remember and clears the other one.
func (s *Store) open(ctx context.Context, usr user.User, remember bool) error {
	data, err := json.Marshal(usr)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	target, other := s.tab, s.durable
	if remember {
		target, other = s.durable, s.tab
	}
	if err = target.SetItem(ctx, core.CurrentUserKey, string(data)); err != nil {
		return errors.Wrap(err, "storing session")
	}
	return errors.Wrap(other.RemoveItem(ctx, core.CurrentUserKey), "clearing stale session")
}

// Current returns the signed-in user, looking at the durable storage first.
// Unreadable records count as no session.
func (s *Store) Current(ctx context.Context) (user.User, bool) {
	for _, storage := range []core.Storage{s.durable, s.tab} {
		raw, ok, err := storage.GetItem(ctx, core.CurrentUserKey)
		if err != nil || !ok || raw == "" {
			continue
		}
		var usr user.User
		if err = json.Unmarshal([]byte(raw), &usr); err != nil || usr.Email == "" {
			continue
		}
		return usr, true
	}
	return user.User{}, false
}

// Logout removes the session from both storages. Both are attempted even if one fails.
func (s *Store) Logout(ctx context.Context) error {
	errDurable := s.durable.RemoveItem(ctx, core.CurrentUserKey)
	errTab := s.tab.RemoveItem(ctx, core.CurrentUserKey)
	if errDurable != nil {
		return errors.Wrap(errDurable, "clearing durable session")
	}
	return errors.Wrap(errTab, "clearing tab session")
}

// Guard applies the page guard to path for this client.
func (s *Store) Guard(ctx context.Context, path string) Decision {
	_, loggedIn := s.Current(ctx)
	return Guard(path, loggedIn)
}
