package session

import (
	"context"
	"errors"
	"sync"

	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
)

// ErrUserNotFound is returned by registries when no user matches the email.
var ErrUserNotFound = errors.New("user not found")

// Registry stores the users that can sign in. Email lookups are exact,
// case-sensitive matches.
type Registry interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	// Insert fails with a DUPLICATE_EMAIL error when the email is taken.
	Insert(ctx context.Context, user User) error
	Count(ctx context.Context) (int, error)
}

// MemoryRegistry is a process-local registry, shared by every client.
type MemoryRegistry struct {
	mu    sync.RWMutex
	users []User
}

func NewMemoryRegistry(seed ...User) *MemoryRegistry {
	r := &MemoryRegistry{}
	for _, user := range seed {
		if r.indexOf(user.Email) >= 0 {
			continue
		}
		r.users = append(r.users, *user.clone())
	}
	return r
}

func (r *MemoryRegistry) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx := r.indexOf(email); idx >= 0 {
		return r.users[idx].clone(), nil
	}
	return nil, ErrUserNotFound
}

func (r *MemoryRegistry) Insert(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(user.Email) >= 0 {
		return pkgerrors.New(pkgerrors.CodeDuplicateEmail, "user already exists")
	}
	r.users = append(r.users, *user.clone())
	return nil
}

func (r *MemoryRegistry) Count(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *MemoryRegistry) indexOf(email string) int {
	for i := range r.users {
		if r.users[i].Email == email {
			return i
		}
	}
	return -1
}
