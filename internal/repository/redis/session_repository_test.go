package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudnotes/internal/domain"
)

func newTestRepo(t *testing.T) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return &SessionRepository{client: client}, mr
}

func newSession(id string, userID int64, ttl time.Duration) *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		UserAgent: "agent",
		IPAddress: "10.0.0.1",
	}
}

func TestSessionRepository_CreateGet(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	s := newSession("abc", 7, time.Hour)
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.True(t, got.ExpiresAt.Equal(s.ExpiresAt))
	assert.Equal(t, "agent", got.UserAgent)
	assert.Equal(t, "10.0.0.1", got.IPAddress)

	assert.True(t, mr.TTL(sessionPrefix+"abc") > 0)
	members, err := mr.Members(userSessionPrefix + "7")
	require.NoError(t, err)
	assert.Equal(t, []string{sessionPrefix + "abc"}, members)
}

func TestSessionRepository_GetMissing(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionRepository_ExpiresInRedis(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newSession("short", 1, time.Minute)))

	mr.FastForward(2 * time.Minute)
	_, err := repo.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionRepository_DeleteIdempotent(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newSession("abc", 7, time.Hour)))

	require.NoError(t, repo.Delete(ctx, "abc"))
	require.NoError(t, repo.Delete(ctx, "abc"))
	require.NoError(t, repo.Delete(ctx, ""))

	assert.False(t, mr.Exists(sessionPrefix+"abc"))
	_, err := repo.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionRepository_DeleteByUser(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newSession("a1", 1, time.Hour)))
	require.NoError(t, repo.Create(ctx, newSession("a2", 1, time.Hour)))
	require.NoError(t, repo.Create(ctx, newSession("b1", 2, time.Hour)))

	require.NoError(t, repo.DeleteByUser(ctx, 1))

	assert.False(t, mr.Exists(sessionPrefix+"a1"))
	assert.False(t, mr.Exists(sessionPrefix+"a2"))
	assert.False(t, mr.Exists(userSessionPrefix+"1"))
	assert.True(t, mr.Exists(sessionPrefix+"b1"))

	require.NoError(t, repo.DeleteByUser(ctx, 99))
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Open(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	_, err = Open(context.Background(), "not a url")
	assert.Error(t, err)
}
