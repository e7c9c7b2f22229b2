package userstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/core/user"
)

// record is the stored shape of a user: the public fields plus the password hash.
type record struct {
	user.User
	PasswordHash string `json:"passwordHash"`
}

// userRepository keeps every user in one JSON array under core.UsersKey.
// Writes are serialized within the process only.
type userRepository struct {
	mu      sync.Mutex
	storage core.Storage
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(storage core.Storage) user.Repository {
	return &userRepository{storage: storage}
}

// load reads the collection. Missing or unreadable JSON is an empty collection.
func (repo *userRepository) load(ctx context.Context) ([]record, error) {
	raw, ok, err := repo.storage.GetItem(ctx, core.UsersKey)
	if err != nil {
		return nil, errors.Wrap(err, "loading users")
	}
	recs := make([]record, 0)
	if !ok || raw == "" {
		return recs, nil
	}
	if err = json.Unmarshal([]byte(raw), &recs); err != nil {
		return make([]record, 0), nil
	}
	return recs, nil
}

func (repo *userRepository) save(ctx context.Context, recs []record) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return errors.Wrap(err, "encoding users")
	}
	return errors.Wrap(repo.storage.SetItem(ctx, core.UsersKey, string(data)), "saving users")
}

func toRecord(usr user.User) record {
	return record{User: usr, PasswordHash: string(usr.PasswordHash)}
}

func (rec record) toUser() user.User {
	usr := rec.User
	usr.PasswordHash = []byte(rec.PasswordHash)
	return usr
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	recs, err := repo.load(ctx)
	if err != nil {
		return user.User{}, err
	}
	for _, rec := range recs {
		if rec.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	recs = append(recs, toRecord(usr))
	if err = repo.save(ctx, recs); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	recs, err := repo.load(ctx)
	if err != nil {
		return user.User{}, err
	}
	for i, rec := range recs {
		if rec.ID == usr.ID {
			recs[i] = toRecord(usr)
			if err = repo.save(ctx, recs); err != nil {
				return user.User{}, err
			}
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	recs, err := repo.load(ctx)
	if err != nil {
		return user.User{}, err
	}
	for _, rec := range recs {
		if rec.Email == email {
			return rec.toUser(), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

// QueryAllUsers returns the users, newest first.
func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	recs, err := repo.load(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, rec.toUser())
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}
