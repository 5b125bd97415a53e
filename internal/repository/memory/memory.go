// Package memory provides an in-process Credential Store for tests and local
// tooling. The API server always uses the postgres store.
package memory

import (
	"context"
	"sync"

	"github.com/DhruvilJayani/coursecompass/internal/domain"
	"github.com/DhruvilJayani/coursecompass/internal/repository"
)

// Repository keeps users in maps keyed by id, email and phone.
type Repository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
	byPhone map[string]string
}

// New returns an empty Repository.
func New() *Repository {
	return &Repository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
	}
}

var _ repository.UserRepository = (*Repository)(nil)

// CreateUser stores a copy of user. The uniqueness checks and the insert
// happen under one lock.
func (r *Repository) CreateUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return &repository.ConflictError{Field: repository.FieldEmail}
	}
	if _, ok := r.byPhone[user.PhoneNo]; ok {
		return &repository.ConflictError{Field: repository.FieldPhone}
	}
	if _, ok := r.byID[user.ID]; ok {
		return &repository.ConflictError{}
	}

	stored := clone(user)
	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	r.byPhone[stored.PhoneNo] = stored.ID
	return nil
}

// GetUserByEmail fetches a user by exact email.
func (r *Repository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byEmail[email])
}

// GetUserByPhone fetches a user by phone number.
func (r *Repository) GetUserByPhone(_ context.Context, phone string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byPhone[phone])
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(id)
}

// Len reports the number of stored users.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *Repository) lookup(id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(u), nil
}

func clone(u *domain.User) *domain.User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}
