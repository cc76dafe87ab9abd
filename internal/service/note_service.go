package service

import (
	"context"
	"strings"

	"cloudnotes/internal/access"
	"cloudnotes/internal/domain"
	"cloudnotes/internal/repository"
)

// NoteService gates every note operation through the access rules.
type NoteService interface {
	Create(ctx context.Context, p domain.Principal, content string) (*domain.Note, error)
	Delete(ctx context.Context, p domain.Principal, noteID int64) error
	ListByAuthor(ctx context.Context, p domain.Principal) ([]domain.Note, error)
	ListAll(ctx context.Context, p domain.Principal) ([]domain.Note, error)
}

type noteService struct {
	notes repository.NoteRepository
}

func NewNoteService(notes repository.NoteRepository) NoteService {
	return &noteService{notes: notes}
}

// Create stores content authored by p. The author is always the acting principal.
func (s *noteService) Create(ctx context.Context, p domain.Principal, content string) (*domain.Note, error) {
	if err := access.Authorize(p, access.ActionCreateNote, nil); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalidInput("content is required")
	}
	if len([]rune(content)) > domain.MaxNoteLength {
		return nil, invalidInput("content must be at most %d characters", domain.MaxNoteLength)
	}

	note := &domain.Note{
		Content:  content,
		AuthorID: p.ID,
	}
	if _, err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Delete removes a note if p authored it or is an admin. The lookup, the access decision and
// the removal happen in one storage transaction.
func (s *noteService) Delete(ctx context.Context, p domain.Principal, noteID int64) error {
	return s.notes.Delete(ctx, noteID, func(note *domain.Note) error {
		return access.Authorize(p, access.ActionDeleteNote, note)
	})
}

func (s *noteService) ListByAuthor(ctx context.Context, p domain.Principal) ([]domain.Note, error) {
	if err := access.Authorize(p, access.ActionViewDashboard, nil); err != nil {
		return nil, err
	}
	return s.notes.ListByAuthor(ctx, p.ID)
}

func (s *noteService) ListAll(ctx context.Context, p domain.Principal) ([]domain.Note, error) {
	if err := access.Authorize(p, access.ActionViewAdminPanel, nil); err != nil {
		return nil, err
	}
	return s.notes.List(ctx)
}
