package domain

import "time"

// User represents a registered account. PasswordHash holds the hasher's record and is
// never exposed outside the service layer.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
