package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cloudnotes/internal/access"
	"cloudnotes/internal/domain"
	"cloudnotes/internal/mail"
	"cloudnotes/internal/metrics"
	"cloudnotes/internal/news"
	"cloudnotes/internal/service"
)

// Options carries the collaborators of a Handler.
type Options struct {
	Users    service.UserService
	Sessions service.SessionService
	Notes    service.NoteService
	News     news.Feed
	Contact  mail.Relay
	Cookies  *SessionCookie
	Metrics  *metrics.Metrics
	Logger   *logrus.Logger
	// AllowOrigins enables CORS with credentials for the listed origins.
	AllowOrigins []string
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	sessions service.SessionService
	notes    service.NoteService
	news     news.Feed
	contact  mail.Relay
	cookies  *SessionCookie
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	origins  []string
}

func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Cookies == nil {
		opts.Cookies = NewSessionCookie(DefaultCookieName, "", false)
	}
	return &Handler{
		users:    opts.Users,
		sessions: opts.Sessions,
		notes:    opts.Notes,
		news:     opts.News,
		contact:  opts.Contact,
		cookies:  opts.Cookies,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		origins:  opts.AllowOrigins,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestID(), h.requestLogger())
	if len(h.origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = h.origins
		corsConfig.AllowCredentials = true
		corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", requestIDHeader}
		corsConfig.ExposeHeaders = []string{requestIDHeader}
		router.Use(cors.New(corsConfig))
	}

	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	api := router.Group("/api")
	api.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	api.Use(h.resolvePrincipal())
	{
		api.GET("/me", h.me)
		api.POST("/register", h.register)
		api.POST("/login", h.login)
		api.POST("/logout", h.logout)
		api.GET("/dashboard", h.dashboard)
		api.POST("/notes", h.createNote)
		api.DELETE("/notes/:id", h.deleteNote)
		api.GET("/admin", h.admin)
		api.POST("/contact", h.submitContact)
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type createNoteRequest struct {
	Content string `json:"content" binding:"required"`
}

type contactRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required,max=5000"`
}

func (h *Handler) me(c *gin.Context) {
	p := principalFrom(c)
	if !p.IsAuthenticated() {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": principalToResponse(p)})
}

func (h *Handler) register(c *gin.Context) {
	if principalFrom(c).IsAuthenticated() {
		c.JSON(http.StatusConflict, gin.H{"error": "already logged in"})
		return
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.Registration("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			h.metrics.Registration("duplicate")
		case errors.Is(err, domain.ErrInvalidInput):
			h.metrics.Registration("invalid")
		}
		h.fail(c, err)
		return
	}

	h.metrics.Registration("success")
	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) login(c *gin.Context) {
	if principalFrom(c).IsAuthenticated() {
		c.JSON(http.StatusConflict, gin.H{"error": "already logged in"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meta := domain.SessionMeta{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}
	session, user, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password, meta)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.metrics.Login("failure")
		}
		h.fail(c, err)
		return
	}

	if err := h.cookies.Write(c, session.ID, session.ExpiresAt); err != nil {
		_ = h.sessions.Logout(c.Request.Context(), session.ID)
		h.fail(c, err)
		return
	}

	h.metrics.Login("success")
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) logout(c *gin.Context) {
	sid := h.cookies.Read(c)
	h.cookies.Clear(c)
	if err := h.sessions.Logout(c.Request.Context(), sid); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) dashboard(c *gin.Context) {
	p := principalFrom(c)
	notes, err := h.notes.ListByAuthor(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}

	articles := []news.Article{}
	if h.news != nil {
		articles = h.news.TopHeadlines(c.Request.Context())
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     principalToResponse(p),
		"notes":    notesToResponse(notes),
		"articles": articles,
	})
}

func (h *Handler) createNote(c *gin.Context) {
	p := principalFrom(c)
	if err := access.Authorize(p, access.ActionCreateNote, nil); err != nil {
		h.fail(c, err)
		return
	}

	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	note, err := h.notes.Create(c.Request.Context(), p, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, noteToResponse(*note))
}

func (h *Handler) deleteNote(c *gin.Context) {
	p := principalFrom(c)
	if !p.IsAuthenticated() {
		h.fail(c, access.Authorize(p, access.ActionDeleteNote, nil))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid note id"})
		return
	}

	if err := h.notes.Delete(c.Request.Context(), p, id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) admin(c *gin.Context) {
	p := principalFrom(c)
	users, err := h.users.ListAll(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	notes, err := h.notes.ListAll(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"users": resp,
		"notes": notesToResponse(notes),
	})
}

func (h *Handler) submitContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.contact != nil {
		msg := mail.Message{Name: req.Name, Email: req.Email, Body: req.Message}
		if err := h.contact.Submit(msg); err != nil {
			h.logger.WithError(err).WithField(requestIDKey, c.GetString(requestIDKey)).Warn("contact message not queued")
		}
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// UserResponse is the public view of a user; it never includes the password hash.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

type NoteResponse struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	}
}

func principalToResponse(p domain.Principal) gin.H {
	return gin.H{
		"id":       p.ID,
		"username": p.Username,
		"email":    p.Email,
		"is_admin": p.IsAdmin,
	}
}

func noteToResponse(note domain.Note) NoteResponse {
	return NoteResponse{
		ID:        note.ID,
		Content:   note.Content,
		AuthorID:  note.AuthorID,
		CreatedAt: note.CreatedAt,
	}
}

func notesToResponse(notes []domain.Note) []NoteResponse {
	resp := make([]NoteResponse, len(notes))
	for i := range notes {
		resp[i] = noteToResponse(notes[i])
	}
	return resp
}
