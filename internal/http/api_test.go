package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cloudnotes/internal/auth"
	"cloudnotes/internal/mail"
	"cloudnotes/internal/metrics"
	"cloudnotes/internal/news"
	"cloudnotes/internal/repository/sqlite"
	"cloudnotes/internal/service"
)

type stubFeed struct{ articles []news.Article }

func (f stubFeed) TopHeadlines(context.Context) []news.Article { return f.articles }

type stubRelay struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (r *stubRelay) Start(context.Context) error { return nil }
func (r *stubRelay) Shutdown()                   {}
func (r *stubRelay) Submit(msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

type testServer struct {
	router *gin.Engine
	repos  *sqlite.Repositories
	roles  *service.RoleAdmin
	relay  *stubRelay
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repos := sqlite.NewRepositories(db)
	require.NoError(t, repos.Init(context.Background()))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := service.NewUserService(repos.Users, auth.NewBcryptHasher(bcrypt.MinCost))
	sessions := service.NewSessionService(users, repos.Sessions, time.Hour)
	relay := &stubRelay{}

	handler := NewHandler(Options{
		Users:    users,
		Sessions: sessions,
		Notes:    service.NewNoteService(repos.Notes),
		News:     stubFeed{articles: []news.Article{{Title: "Go 2", URL: "https://example.com"}}},
		Contact:  relay,
		Cookies:  NewSessionCookie("", "test-secret", false),
		Metrics:  metrics.New(),
		Logger:   logger,
	})
	router := gin.New()
	handler.RegisterRoutes(router)

	return &testServer{
		router: router,
		repos:  repos,
		roles:  service.NewRoleAdmin(repos.Users, sessions),
		relay:  relay,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCookieName && c.Value != "" {
			found = c
		}
	}
	return found
}

func (s *testServer) register(t *testing.T, username, email, password string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/register", gin.H{"username": username, "email": email, "password": password}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/login", gin.H{"email": email, "password": password}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	return cookie
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "alice@example.com", "pw1")

	rec := s.do(t, http.MethodPost, "/api/register", gin.H{"username": "x", "email": "ALICE@example.com", "password": "pw"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/register", gin.H{"username": "x", "email": "nope", "password": "pw"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	wrong := s.do(t, http.MethodPost, "/api/login", gin.H{"email": "alice@example.com", "password": "bad"}, nil)
	unknown := s.do(t, http.MethodPost, "/api/login", gin.H{"email": "ghost@example.com", "password": "pw1"}, nil)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.Nil(t, sessionCookie(wrong))

	cookie := s.login(t, "alice@example.com", "pw1")
	assert.NotContains(t, s.do(t, http.MethodPost, "/api/login", gin.H{"email": "alice@example.com", "password": "pw1"}, nil).Body.String(), "password")

	me := decode(t, s.do(t, http.MethodGet, "/api/me", nil, cookie))
	assert.Equal(t, true, me["authenticated"])

	rec = s.do(t, http.MethodPost, "/api/register", gin.H{"username": "a", "email": "a2@example.com", "password": "pw"}, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/login", gin.H{"email": "alice@example.com", "password": "pw1"}, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "alice@example.com", "pw1")
	cookie := s.login(t, "alice@example.com", "pw1")

	rec := s.do(t, http.MethodPost, "/api/logout", nil, cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/dashboard", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/logout", nil, cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/logout", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestForgedCookieIsAnonymous(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "alice@example.com", "pw1")
	cookie := s.login(t, "alice@example.com", "pw1")

	forged := NewSessionCookie("", "other-secret", false)
	sid, err := NewSessionCookie("", "test-secret", false).Decode(cookie.Value)
	require.NoError(t, err)
	value, err := forged.Encode(sid, time.Now().Add(time.Hour))
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/api/dashboard", nil, &http.Cookie{Name: DefaultCookieName, Value: value})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/dashboard", nil, &http.Cookie{Name: DefaultCookieName, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotesScenario(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "alice@example.com", "pw1")
	s.register(t, "bob", "bob@example.com", "pw2")
	alice := s.login(t, "alice@example.com", "pw1")
	bob := s.login(t, "bob@example.com", "pw2")

	rec := s.do(t, http.MethodPost, "/api/notes", gin.H{"content": "hello"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/notes", gin.H{"content": "hello"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	note := decode(t, rec)
	id := int64(note["id"].(float64))
	path := "/api/notes/" + strconv.FormatInt(id, 10)

	rec = s.do(t, http.MethodPost, "/api/notes", gin.H{"content": strings.Repeat("x", 10001)}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, path, nil, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodDelete, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/notes/abc", nil, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	dash := decode(t, s.do(t, http.MethodGet, "/api/dashboard", nil, bob))
	assert.Empty(t, dash["notes"])
	dash = decode(t, s.do(t, http.MethodGet, "/api/dashboard", nil, alice))
	assert.Len(t, dash["notes"], 1)
	assert.Len(t, dash["articles"], 1)

	rec = s.do(t, http.MethodGet, "/api/admin", nil, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/admin", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, err := s.roles.Promote(context.Background(), "bob@example.com")
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/admin", nil, bob)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "promotion revokes the old session")

	bob = s.login(t, "bob@example.com", "pw2")
	rec = s.do(t, http.MethodGet, "/api/admin", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	admin := decode(t, rec)
	assert.Len(t, admin["users"], 2)
	assert.Len(t, admin["notes"], 1)
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = s.do(t, http.MethodDelete, path, nil, bob)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, path, nil, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContact(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/contact", gin.H{"name": "Eve", "email": "eve@example.com", "message": "hi"}, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, s.relay.msgs, 1)
	assert.Equal(t, "eve@example.com", s.relay.msgs[0].Email)

	rec = s.do(t, http.MethodPost, "/api/contact", gin.H{"name": "Eve", "email": "not-mail", "message": "hi"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/login", gin.H{"email": "ghost@example.com", "password": "x"}, nil)

	rec := s.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cloudnotes_logins_total{result="failure"} 1`)
}

func TestSessionCookie_Expired(t *testing.T) {
	sc := NewSessionCookie("", "secret", false)
	value, err := sc.Encode("sid", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = sc.Decode(value)
	assert.Error(t, err)

	value, err = sc.Encode("sid", time.Now().Add(time.Minute))
	require.NoError(t, err)
	sid, err := sc.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, "sid", sid)
}
