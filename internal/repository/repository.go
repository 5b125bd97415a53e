package repository

import (
	"context"

	"github.com/DhruvilJayani/coursecompass/internal/domain"
)

// UserRepository persists users. CreateUser returns a *ConflictError when the
// email or phone number is already taken.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}
