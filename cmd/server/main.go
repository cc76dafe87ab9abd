package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cloudnotes/internal/auth"
	"cloudnotes/internal/config"
	apphttp "cloudnotes/internal/http"
	"cloudnotes/internal/mail"
	"cloudnotes/internal/metrics"
	"cloudnotes/internal/news"
	"cloudnotes/internal/repository"
	redisrepo "cloudnotes/internal/repository/redis"
	"cloudnotes/internal/repository/sqlite"
	"cloudnotes/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	repos := sqlite.NewRepositories(db)
	if err := repos.Init(ctx); err != nil {
		logger.Fatalf("init repositories: %v", err)
	}

	sessionRepo, closeSessions, err := buildSessionStore(ctx, cfg, db, logger)
	if err != nil {
		logger.Fatalf("setup session store: %v", err)
	}
	defer closeSessions()

	m := metrics.New()

	userService := service.NewUserService(repos.Users, auth.NewBcryptHasher(cfg.Auth.BcryptCost))
	sessionService := service.NewSessionService(userService, sessionRepo, cfg.Session.TTL)
	noteService := service.NewNoteService(repos.Notes)

	relay := mail.NewRelay(mail.Config{
		Workers:   cfg.Mail.Workers,
		QueueSize: cfg.Mail.QueueSize,
		Logger:    logger,
		Metrics:   m,
	}, buildSender(cfg, logger))
	if err := relay.Start(context.Background()); err != nil {
		logger.Fatalf("start mail relay: %v", err)
	}

	feed := news.NewClient(news.Config{
		Endpoint: cfg.News.Endpoint,
		APIKey:   cfg.News.APIKey,
		Category: cfg.News.Category,
		Limit:    cfg.News.Limit,
		Timeout:  cfg.News.Timeout,
		Logger:   logger,
		Metrics:  m,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Options{
		Users:        userService,
		Sessions:     sessionService,
		Notes:        noteService,
		News:         feed,
		Contact:      relay,
		Cookies:      apphttp.NewSessionCookie(cfg.Session.CookieName, cfg.Session.Secret, cfg.Session.Secure),
		Metrics:      m,
		Logger:       logger,
		AllowOrigins: cfg.Server.AllowOrigins,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	relay.Shutdown()

	logger.Info("bye")
}

func buildSessionStore(ctx context.Context, cfg config.Config, db *sql.DB, logger *logrus.Logger) (repository.SessionRepository, func(), error) {
	if cfg.Session.Store != "redis" {
		logger.Info("using sqlite session store")
		return sqlite.NewSessionRepository(db), func() {}, nil
	}

	client, err := redisrepo.Open(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	logger.Infof("using redis session store at %s", client.Options().Addr)
	return redisrepo.NewSessionRepository(client), func() { client.Close() }, nil
}

func buildSender(cfg config.Config, logger *logrus.Logger) mail.Sender {
	if !cfg.MailEnabled() {
		logger.Warn("mail is not configured, contact messages will only be logged")
		return mail.LogSender{Logger: logger}
	}
	return mail.NewSendgridSender(cfg.Mail.SendgridAPIKey, cfg.Mail.From, cfg.Mail.To)
}
