package domain

import "time"

// MaxNoteLength bounds the content of a single note in characters.
const MaxNoteLength = 10000

// Note is a piece of free-form text owned by exactly one user. Ownership never changes.
type Note struct {
	ID        int64
	Content   string
	AuthorID  int64
	CreatedAt time.Time
}
