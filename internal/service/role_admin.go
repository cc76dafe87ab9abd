package service

import (
	"context"

	"cloudnotes/internal/domain"
	"cloudnotes/internal/repository"
)

// RoleAdmin changes the admin flag of existing users. It backs the promote command and is
// not reachable from the HTTP handler.
type RoleAdmin struct {
	users    repository.UserRepository
	sessions SessionService
}

func NewRoleAdmin(users repository.UserRepository, sessions SessionService) *RoleAdmin {
	return &RoleAdmin{users: users, sessions: sessions}
}

// Promote grants the admin role and ends the user's open sessions.
func (a *RoleAdmin) Promote(ctx context.Context, email string) (*domain.User, error) {
	return a.set(ctx, email, true)
}

// Demote revokes the admin role and ends the user's open sessions.
func (a *RoleAdmin) Demote(ctx context.Context, email string) (*domain.User, error) {
	return a.set(ctx, email, false)
}

func (a *RoleAdmin) set(ctx context.Context, email string, isAdmin bool) (*domain.User, error) {
	user, err := a.users.SetAdmin(ctx, NormalizeEmail(email), isAdmin)
	if err != nil {
		return nil, err
	}
	if a.sessions != nil {
		if err := a.sessions.LogoutAll(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	return sanitizeUser(user), nil
}
