package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"community-server/apperr"
	"community-server/entities"
)

// In-memory implementations used by STORE_DRIVER=memory and tests. They
// copy records in and out so callers never share state with the store.

type userMemRepository struct {
	mu    sync.RWMutex
	users map[string]entities.User
}

func NewUserMemRepository() UserRepository {
	return &userMemRepository{users: make(map[string]entities.User)}
}

func (r *userMemRepository) Create(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("%w: duplicate user", apperr.ErrConflict)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = *user
	return nil
}

func (r *userMemRepository) FindByID(_ context.Context, id string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &u, nil
}

func (r *userMemRepository) FindByUsername(_ context.Context, username string) (*entities.User, error) {
	return r.find(func(u entities.User) bool { return u.Username == username })
}

func (r *userMemRepository) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	return r.find(func(u entities.User) bool { return u.Email == email })
}

func (r *userMemRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return found(err)
}

func (r *userMemRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return found(err)
}

func (r *userMemRepository) find(match func(entities.User) bool) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

type subMemRepository struct {
	mu   sync.RWMutex
	subs map[string]entities.Sub // keyed by lower(name)
}

func NewSubMemRepository() SubRepository {
	return &subMemRepository{subs: make(map[string]entities.Sub)}
}

func (r *subMemRepository) Create(_ context.Context, sub *entities.Sub) error {
	key := strings.ToLower(sub.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[key]; ok {
		return fmt.Errorf("%w: duplicate sub", apperr.ErrConflict)
	}
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sub.CreatedAt, sub.UpdatedAt = now, now
	r.subs[key] = *sub
	return nil
}

func (r *subMemRepository) FindByName(_ context.Context, name string) (*entities.Sub, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subs[strings.ToLower(name)]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &s, nil
}

func (r *subMemRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	_, err := r.FindByName(ctx, name)
	return found(err)
}

func (r *subMemRepository) UpdateAssetRef(_ context.Context, id string, kind entities.AssetKind, prev, next string) (bool, error) {
	if kind.Column() == "" {
		return false, fmt.Errorf("store: unknown asset kind %q", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, s := range r.subs {
		if s.ID != id {
			continue
		}
		if s.AssetRef(kind) != prev {
			return false, nil
		}
		s.SetAssetRef(kind, next)
		s.UpdatedAt = time.Now().UTC()
		r.subs[key] = s
		return true, nil
	}
	return false, nil
}

func found(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperr.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
