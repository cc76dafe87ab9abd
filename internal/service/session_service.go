package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"cloudnotes/internal/domain"
	"cloudnotes/internal/repository"
)

// DefaultSessionTTL applies when no TTL is configured.
const DefaultSessionTTL = 24 * time.Hour

// SessionService is the login/logout lifecycle: Anonymous -> Authenticated -> Anonymous.
type SessionService interface {
	Login(ctx context.Context, email, password string, meta domain.SessionMeta) (*domain.Session, *domain.User, error)
	// Resolve maps a session ID to its principal. Empty, unknown, expired or orphaned IDs
	// resolve to the anonymous principal without error.
	Resolve(ctx context.Context, sessionID string) (domain.Principal, error)
	// Logout is idempotent.
	Logout(ctx context.Context, sessionID string) error
	LogoutAll(ctx context.Context, userID int64) error
}

type SessionOption func(*sessionService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) SessionOption {
	return func(s *sessionService) { s.now = now }
}

// WithSessionIDs overrides session ID generation.
func WithSessionIDs(gen func() (string, error)) SessionOption {
	return func(s *sessionService) { s.newID = gen }
}

type sessionService struct {
	users    UserService
	sessions repository.SessionRepository
	ttl      time.Duration
	now      func() time.Time
	newID    func() (string, error)
}

func NewSessionService(users UserService, sessions repository.SessionRepository, ttl time.Duration, opts ...SessionOption) SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &sessionService{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
		newID:    NewSessionID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *sessionService) Login(ctx context.Context, email, password string, meta domain.SessionMeta) (*domain.Session, *domain.User, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	session := &domain.Session{
		ID:        id,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *sessionService) Resolve(ctx context.Context, sessionID string) (domain.Principal, error) {
	if sessionID == "" {
		return domain.Anonymous(), nil
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Anonymous(), nil
		}
		return domain.Anonymous(), err
	}

	if session.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			return domain.Anonymous(), err
		}
		return domain.Anonymous(), nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Anonymous(), s.sessions.Delete(ctx, sessionID)
		}
		return domain.Anonymous(), err
	}
	return domain.PrincipalFor(user), nil
}

func (s *sessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

func (s *sessionService) LogoutAll(ctx context.Context, userID int64) error {
	return s.sessions.DeleteByUser(ctx, userID)
}

// NewSessionID returns 32 random bytes, base64url encoded without padding.
func NewSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
