package repository

import (
	"context"

	"cloudnotes/internal/domain"
)

// UserRepository is the credential store. Lookups of a missing user return domain.ErrNotFound;
// inserting an email that already exists returns domain.ErrDuplicateEmail.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// SetAdmin changes the role flag. It is not reachable from any request handler.
	SetAdmin(ctx context.Context, email string, isAdmin bool) (*domain.User, error)
}
