package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a sqlite database at the given path and ensures directories exist.
// ":memory:" opens a private in-memory database.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// a single connection serializes writers; guarded deletes rely on it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return db, nil
}

// Repositories groups the sqlite-backed stores sharing one database handle.
type Repositories struct {
	Users    *UserRepository
	Notes    *NoteRepository
	Sessions *SessionRepository
}

func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Users:    &UserRepository{db: db},
		Notes:    &NoteRepository{db: db},
		Sessions: &SessionRepository{db: db},
	}
}

// Init creates all tables in dependency order.
func (r *Repositories) Init(ctx context.Context) error {
	if err := r.Users.Init(ctx); err != nil {
		return err
	}
	if err := r.Notes.Init(ctx); err != nil {
		return err
	}
	return r.Sessions.Init(ctx)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

type rowScanner interface {
	Scan(dest ...any) error
}
