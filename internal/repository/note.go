package repository

import (
	"context"

	"cloudnotes/internal/domain"
)

// NoteGuard decides, inside the delete transaction, whether a loaded note may be removed.
// A non-nil error aborts the delete and is returned unchanged.
type NoteGuard func(note *domain.Note) error

// NoteRepository persists notes.
type NoteRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, note *domain.Note) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Note, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]domain.Note, error)
	// List returns every note. It performs no access check; callers must authorize first.
	List(ctx context.Context) ([]domain.Note, error)
	// Delete loads the note, runs guard and removes the row atomically. A note that is
	// missing at load or at removal yields domain.ErrNotFound.
	Delete(ctx context.Context, id int64, guard NoteGuard) error
}
