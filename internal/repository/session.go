package repository

import (
	"context"

	"cloudnotes/internal/domain"
)

// SessionRepository stores server-side sessions. Create must write a record atomically so a
// concurrent Delete never observes a partial session.
type SessionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, session *domain.Session) error
	// Get returns domain.ErrNotFound for unknown IDs.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID int64) error
}
