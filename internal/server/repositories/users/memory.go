package users

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/tubeauth/internal/common"
	"github.com/dmitrijs2005/tubeauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is a process-local Repository used by tests and local
// development. Returned users are copies; mutating them does not affect
// the stored record.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*models.User), now: time.Now}
}

func clone(u *models.User) *models.User {
	c := *u
	if u.RefreshToken != nil {
		t := *u.RefreshToken
		c.RefreshToken = &t
	}
	return &c
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.UserName == user.UserName || u.Email == user.Email {
			return nil, fmt.Errorf("%w: user with email or username", common.ErrorConflict)
		}
	}

	user.ID = uuid.NewString()
	user.CreatedAt = r.now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = clone(user)
	return user, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) GetByUsernameOrEmail(_ context.Context, userName, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if (userName != "" && u.UserName == userName) || (email != "" && u.Email == email) {
			return clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) GetRefreshToken(_ context.Context, id string) (*string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if u.RefreshToken == nil {
		return nil, nil
	}
	t := *u.RefreshToken
	return &t, nil
}

func (r *MemoryRepository) SetRefreshToken(_ context.Context, id string, token *string) error {
	return r.update(id, func(u *models.User) error {
		if token == nil {
			u.RefreshToken = nil
			return nil
		}
		t := *token
		u.RefreshToken = &t
		return nil
	})
}

func (r *MemoryRepository) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return r.update(id, func(u *models.User) error {
		u.PasswordHash = hash
		return nil
	})
}

func (r *MemoryRepository) UpdateAccount(_ context.Context, id string, fullName, email *string) (*models.User, error) {
	var out *models.User
	err := r.update(id, func(u *models.User) error {
		if email != nil {
			for otherID, other := range r.users {
				if otherID != id && other.Email == *email {
					return fmt.Errorf("%w: user with email", common.ErrorConflict)
				}
			}
			u.Email = *email
		}
		if fullName != nil {
			u.FullName = *fullName
		}
		out = clone(u)
		return nil
	})
	return out, err
}

func (r *MemoryRepository) update(id string, fn func(u *models.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	if err := fn(u); err != nil {
		return err
	}
	u.UpdatedAt = r.now()
	return nil
}
