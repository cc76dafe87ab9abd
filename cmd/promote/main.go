package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"cloudnotes/internal/auth"
	"cloudnotes/internal/config"
	"cloudnotes/internal/repository"
	redisrepo "cloudnotes/internal/repository/redis"
	"cloudnotes/internal/repository/sqlite"
	"cloudnotes/internal/service"
)

// promote grants or revokes the admin role of an existing account and signs the account out
// everywhere so the new role applies from its next login.
func main() {
	email := flag.String("email", "", "email of the account to change")
	demote := flag.Bool("demote", false, "revoke the admin role instead of granting it")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
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

	var sessions repository.SessionRepository = repos.Sessions
	if cfg.Session.Store == "redis" {
		client, err := redisrepo.Open(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Fatalf("open redis: %v", err)
		}
		defer client.Close()
		sessions = redisrepo.NewSessionRepository(client)
	}

	users := service.NewUserService(repos.Users, auth.NewBcryptHasher(cfg.Auth.BcryptCost))
	roles := service.NewRoleAdmin(repos.Users, service.NewSessionService(users, sessions, cfg.Session.TTL))

	change := roles.Promote
	verb := "promoted"
	if *demote {
		change = roles.Demote
		verb = "demoted"
	}

	user, err := change(ctx, *email)
	if err != nil {
		logger.Fatalf("change role of %s: %v", *email, err)
	}
	logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"email":    user.Email,
		"is_admin": user.IsAdmin,
	}).Infof("user %s", verb)
}
