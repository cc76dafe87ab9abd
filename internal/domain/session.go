package domain

import "time"

// Session binds a browser to one user until logout or expiry.
type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	UserAgent string
	IPAddress string
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionMeta carries request details recorded alongside a new session.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}
