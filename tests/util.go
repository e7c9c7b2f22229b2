package testutil

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/core/i18n"
	"github.com/trezcool/tadesk/core/user"
	"github.com/trezcool/tadesk/storage/kv/inmem"
	"github.com/trezcool/tadesk/storage/userstore"
)

var ErrStorageDown = errors.New("storage unavailable")

func LoadDictionary(t *testing.T) *i18n.Dictionary {
	t.Helper()
	dict, err := i18n.LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() failed: %v", err)
	}
	return dict
}

// NewValidator returns a validator with every message registered in every supported language.
func NewValidator(t *testing.T, dict *i18n.Dictionary) (*validator.Validate, *i18n.Translators) {
	t.Helper()
	validate := validator.New()
	translators, err := i18n.NewTranslators(validate, dict)
	if err != nil {
		t.Fatalf("NewTranslators() failed: %v", err)
	}
	user.InitValidators(validate, translators, dict)
	return validate, translators
}

// NewUserService returns a user.Service over an in-memory users collection, without emails.
func NewUserService(t *testing.T, dict *i18n.Dictionary) (*user.Service, core.Storage) {
	t.Helper()
	storage := inmemkv.New()
	return user.NewService(userstore.NewUserRepository(storage), nil, dict), storage
}

func CreateUser(t *testing.T, svc *user.Service, name, title, email, pwd string) user.User {
	t.Helper()
	nu := user.NewUser{
		Name:            name,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		Department:      "cs",
		Title:           title,
		AgreeTerms:      true,
	}
	nu.Clean()
	usr, err := svc.Create(context.Background(), nu, i18n.English)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// FlakyStorage wraps a core.Storage and fails the operations that are switched on.
// Failures return Err, or ErrStorageDown when Err is nil.
type FlakyStorage struct {
	core.Storage
	FailGet    bool
	FailSet    bool
	FailRemove bool
	Err        error
}

func (s *FlakyStorage) failure() error {
	if s.Err != nil {
		return s.Err
	}
	return ErrStorageDown
}

func (s *FlakyStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if s.FailGet {
		return "", false, s.failure()
	}
	return s.Storage.GetItem(ctx, key)
}

func (s *FlakyStorage) SetItem(ctx context.Context, key, value string) error {
	if s.FailSet {
		return s.failure()
	}
	return s.Storage.SetItem(ctx, key, value)
}

func (s *FlakyStorage) RemoveItem(ctx context.Context, key string) error {
	if s.FailRemove {
		return s.failure()
	}
	return s.Storage.RemoveItem(ctx, key)
}

// Logger writes to the test log.
type Logger struct {
	t *testing.T
}

var _ core.Logger = (*Logger)(nil)

func NewLogger(t *testing.T) *Logger { return &Logger{t: t} }

func (l *Logger) log(level, msg string, args []interface{}) {
	l.t.Helper()
	l.t.Logf("[%s] %s %v", level, msg, args)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.t.Helper()
	l.t.Fatalf("[FATAL] %s %v", msg, args)
}
