// Package redis stores sessions in Redis hashes with a per-user index set.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cloudnotes/internal/domain"
	"cloudnotes/internal/repository"
)

const (
	sessionPrefix     = "session:"
	userSessionPrefix = "user_sessions:"
)

// Open parses a redis:// URL and returns a pooled client that answered PING.
func Open(ctx context.Context, url string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opt.PoolSize = 100
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := goredis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type SessionRepository struct {
	client *goredis.Client
}

func NewSessionRepository(client *goredis.Client) repository.SessionRepository {
	return &SessionRepository{client: client}
}

func (r *SessionRepository) Init(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Create writes the session hash, its expiry and the user index entry in one MULTI/EXEC.
func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	key := sessionPrefix + s.ID
	fields := map[string]any{
		"user_id":    strconv.FormatInt(s.UserID, 10),
		"created_at": s.CreatedAt.UTC().Format(time.RFC3339Nano),
		"expires_at": s.ExpiresAt.UTC().Format(time.RFC3339Nano),
		"user_agent": s.UserAgent,
		"ip_address": s.IPAddress,
	}

	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.ExpireAt(ctx, key, s.ExpiresAt)
		pipe.SAdd(ctx, userIndexKey(s.UserID), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.HGetAll(ctx, sessionPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(data) == 0 {
		return nil, domain.ErrNotFound
	}

	userID, err := strconv.ParseInt(data["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("session %s: bad user_id: %w", id, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, data["created_at"])
	if err != nil {
		return nil, fmt.Errorf("session %s: bad created_at: %w", id, err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, data["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("session %s: bad expires_at: %w", id, err)
	}

	return &domain.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
		UserAgent: data["user_agent"],
		IPAddress: data["ip_address"],
	}, nil
}

// Delete removes a session and its index entry. Unknown IDs are ignored.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	key := sessionPrefix + id

	userID, err := r.client.HGet(ctx, key, "user_id").Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("load session owner: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, key)
		if userID != "" {
			pipe.SRem(ctx, userSessionPrefix+userID, key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID int64) error {
	index := userIndexKey(userID)

	keys, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	keys = append(keys, index)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func userIndexKey(userID int64) string {
	return userSessionPrefix + strconv.FormatInt(userID, 10)
}
