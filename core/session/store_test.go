package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/core/i18n"
	"github.com/trezcool/tadesk/core/session"
	"github.com/trezcool/tadesk/core/user"
	"github.com/trezcool/tadesk/storage/kv/inmem"
	"github.com/trezcool/tadesk/tests"
)

type fixture struct {
	store   *session.Store
	durable *inmemkv.Storage
	tab     *inmemkv.Storage
	users   *user.Service
}

func newFixture(t *testing.T, opts ...session.Option) fixture {
	t.Helper()
	dict := testutil.LoadDictionary(t)
	validate, _ := testutil.NewValidator(t, dict)
	users, _ := testutil.NewUserService(t, dict)
	durable, tab := inmemkv.New(), inmemkv.New()
	return fixture{
		store:   session.NewStore(users, validate, durable, tab, opts...),
		durable: durable,
		tab:     tab,
		users:   users,
	}
}

func newUser() user.NewUser {
	return user.NewUser{
		Name:            "Li Ming",
		Email:           "li.ming@cityu.edu.hk",
		Password:        "abcdefgh",
		PasswordConfirm: "abcdefgh",
		Department:      "cs",
		Title:           "Professor",
		AgreeTerms:      true,
	}
}

func hasSession(t *testing.T, storage core.Storage) bool {
	t.Helper()
	_, ok, err := storage.GetItem(context.Background(), core.CurrentUserKey)
	if err != nil {
		t.Fatalf("GetItem() failed: %v", err)
	}
	return ok
}

func TestStore_Register(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	usr, err := f.store.Register(ctx, newUser(), i18n.SimplifiedChinese)
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if usr.DisplayName != "Professor Li" || usr.ChineseName != "Li教授" {
		t.Errorf("failed! names = (%q, %q)", usr.DisplayName, usr.ChineseName)
	}

	cur, ok := f.store.Current(ctx)
	if !ok || cur.Email != "li.ming@cityu.edu.hk" || cur.ID != usr.ID {
		t.Errorf("failed! Current() = %+v, %v", cur, ok)
	}
	if len(cur.PasswordHash) != 0 {
		t.Errorf("failed! password hash leaked into the session")
	}
	if !hasSession(t, f.tab) || hasSession(t, f.durable) {
		t.Errorf("failed! registration without remember must use the tab storage")
	}

	if _, err = f.store.Register(ctx, newUser(), i18n.English); !errors.Is(err, user.ErrEmailExists) {
		t.Errorf("failed! Register(twice) = %v; want ErrEmailExists", err)
	}
}

func TestStore_Register_invalid(t *testing.T) {
	f := newFixture(t)
	nu := newUser()
	nu.PasswordConfirm = "something"

	if _, err := f.store.Register(context.Background(), nu, i18n.English); err == nil {
		t.Fatalf("failed! Register() succeeded with mismatching passwords")
	}
	if _, ok := f.store.Current(context.Background()); ok {
		t.Errorf("failed! a failed registration opened a session")
	}
}

func TestStore_Login(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		email, pwd  string
		remember    bool
		wantErr     error
		wantDurable bool
	}{
		{"remember", "li.ming@cityu.edu.hk", "abcdefgh", true, nil, true},
		{"tab only", "Li.Ming@cityu.edu.hk", "abcdefgh", false, nil, false},
		{"wrong password", "li.ming@cityu.edu.hk", "abcdefgX", false, user.ErrInvalidCredentials, false},
		{"unknown email", "nobody@cityu.edu.hk", "abcdefgh", false, user.ErrInvalidCredentials, false},
		{"blank email", "  ", "abcdefgh", false, session.ErrMissingCredentials, false},
		{"blank password", "li.ming@cityu.edu.hk", "", false, session.ErrMissingCredentials, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			testutil.CreateUser(t, f.users, "Li Ming", "Professor", "li.ming@cityu.edu.hk", "abcdefgh")

			usr, err := f.store.Login(ctx, tc.email, tc.pwd, tc.remember)
			if !errors.Is(err, tc.wantErr) || (tc.wantErr == nil && err != nil) {
				t.Fatalf("failed! Login() = %v; want %v", err, tc.wantErr)
			}
			if tc.wantErr != nil {
				if _, ok := f.store.Current(ctx); ok {
					t.Errorf("failed! a failed login opened a session")
				}
				return
			}
			if usr.Name != "Li Ming" {
				t.Errorf("failed! Login() user = %q", usr.Name)
			}
			if hasSession(t, f.durable) != tc.wantDurable || hasSession(t, f.tab) == tc.wantDurable {
				t.Errorf("failed! session stored in the wrong storage (remember=%v)", tc.remember)
			}
		})
	}
}

func TestStore_Login_replacesOtherSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	testutil.CreateUser(t, f.users, "Li Ming", "Professor", "li.ming@cityu.edu.hk", "abcdefgh")

	if _, err := f.store.Login(ctx, "li.ming@cityu.edu.hk", "abcdefgh", true); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if _, err := f.store.Login(ctx, "li.ming@cityu.edu.hk", "abcdefgh", false); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if hasSession(t, f.durable) || !hasSession(t, f.tab) {
		t.Errorf("failed! the remembered session survived a tab-only login")
	}
}

func TestStore_Logout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	testutil.CreateUser(t, f.users, "Li Ming", "Professor", "li.ming@cityu.edu.hk", "abcdefgh")
	if _, err := f.store.Login(ctx, "li.ming@cityu.edu.hk", "abcdefgh", true); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if d := f.store.Guard(ctx, "/auth"); d.Redirect != session.HomePath {
		t.Errorf("failed! Guard(/auth) while logged in = %+v", d)
	}

	if err := f.store.Logout(ctx); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}
	if _, ok := f.store.Current(ctx); ok {
		t.Errorf("failed! Current() found a session after Logout()")
	}
	if d := f.store.Guard(ctx, "/courses"); d.Redirect != session.AuthPath {
		t.Errorf("failed! Guard(/courses) after logout = %+v", d)
	}
	if err := f.store.Logout(ctx); err != nil {
		t.Errorf("failed! Logout() without a session = %v", err)
	}
}

func TestStore_Logout_partialFailure(t *testing.T) {
	ctx := context.Background()
	dict := testutil.LoadDictionary(t)
	validate, _ := testutil.NewValidator(t, dict)
	users, _ := testutil.NewUserService(t, dict)
	durable := &testutil.FlakyStorage{Storage: inmemkv.New()}
	tab := inmemkv.New()
	store := session.NewStore(users, validate, durable, tab)

	testutil.CreateUser(t, users, "Li Ming", "", "li.ming@cityu.edu.hk", "abcdefgh")
	if _, err := store.Login(ctx, "li.ming@cityu.edu.hk", "abcdefgh", false); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}

	durable.FailRemove = true
	if err := store.Logout(ctx); errors.Cause(err) != testutil.ErrStorageDown {
		t.Errorf("failed! Logout() = %v; want ErrStorageDown", err)
	}
	if tab.Len() != 0 {
		t.Errorf("failed! tab session not removed when the durable storage failed")
	}
}

func TestStore_Current_corrupt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, raw := range []string{"{oops", "null", `{"name":"no email"}`} {
		_ = f.durable.SetItem(ctx, core.CurrentUserKey, raw)
		if _, ok := f.store.Current(ctx); ok {
			t.Errorf("failed! Current() accepted %q", raw)
		}
	}

	_ = f.tab.SetItem(ctx, core.CurrentUserKey, `{"name":"Li Ming","email":"li.ming@cityu.edu.hk"}`)
	if usr, ok := f.store.Current(ctx); !ok || usr.Name != "Li Ming" {
		t.Errorf("failed! Current() = %+v, %v; want the tab session", usr, ok)
	}
}

func TestStore_Current_storageDown(t *testing.T) {
	dict := testutil.LoadDictionary(t)
	validate, _ := testutil.NewValidator(t, dict)
	users, _ := testutil.NewUserService(t, dict)
	down := &testutil.FlakyStorage{Storage: inmemkv.New(), FailGet: true}
	store := session.NewStore(users, validate, down, down)

	if _, ok := store.Current(context.Background()); ok {
		t.Errorf("failed! Current() found a session in unreadable storages")
	}
	if d := store.Guard(context.Background(), "/"); d.Redirect != session.AuthPath {
		t.Errorf("failed! Guard(/) = %+v; want redirect to auth", d)
	}
}

func TestStore_Login_storageFailure(t *testing.T) {
	dict := testutil.LoadDictionary(t)
	validate, _ := testutil.NewValidator(t, dict)
	users, _ := testutil.NewUserService(t, dict)
	tab := &testutil.FlakyStorage{Storage: inmemkv.New(), FailSet: true}
	store := session.NewStore(users, validate, inmemkv.New(), tab)
	testutil.CreateUser(t, users, "Li Ming", "", "li.ming@cityu.edu.hk", "abcdefgh")

	if _, err := store.Login(context.Background(), "li.ming@cityu.edu.hk", "abcdefgh", false); errors.Cause(err) != testutil.ErrStorageDown {
		t.Errorf("failed! Login() = %v; want ErrStorageDown", err)
	}
}

func TestStore_latency(t *testing.T) {
	f := newFixture(t, session.WithLatency(50*time.Millisecond))
	testutil.CreateUser(t, f.users, "Li Ming", "", "li.ming@cityu.edu.hk", "abcdefgh")

	start := time.Now()
	if _, err := f.store.Login(context.Background(), "li.ming@cityu.edu.hk", "abcdefgh", false); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("failed! Login() resolved after %v; want at least 50ms", elapsed)
	}

	_ = f.store.Logout(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.store.Login(ctx, "li.ming@cityu.edu.hk", "abcdefgh", false); !errors.Is(err, context.Canceled) {
		t.Errorf("failed! Login(cancelled) = %v; want context.Canceled", err)
	}
	if _, ok := f.store.Current(context.Background()); ok {
		t.Errorf("failed! an abandoned login opened a session")
	}
}
