package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CLOUDNOTES"

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr         string
		AllowOrigins []string
	}
	Database struct {
		Path string
	}
	Session struct {
		Store      string
		TTL        time.Duration
		CookieName string
		Secret     string
		Secure     bool
	}
	Redis struct {
		URL string
	}
	Auth struct {
		BcryptCost int
	}
	Log struct {
		Level string
	}
	News struct {
		Endpoint string
		APIKey   string
		Category string
		Limit    int
		Timeout  time.Duration
	}
	Mail struct {
		SendgridAPIKey string
		From           string
		To             string
		Workers        int
		QueueSize      int
	}
}

// Load reads configuration from environment variables and optional config files.
// Variables from a local .env file fill in whatever the environment leaves unset.
func Load() (Config, error) {
	_ = godotenv.Load() // optional file

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.alloworigins", []string{})
	v.SetDefault("database.path", "data/cloudnotes.db")
	v.SetDefault("session.store", "sqlite")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.cookiename", "cloudnotes_session")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.secure", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("auth.bcryptcost", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("news.endpoint", "https://newsapi.org/v2/top-headlines")
	v.SetDefault("news.apikey", "")
	v.SetDefault("news.category", "technology")
	v.SetDefault("news.limit", 5)
	v.SetDefault("news.timeout", 5*time.Second)
	v.SetDefault("mail.sendgridapikey", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.to", "")
	v.SetDefault("mail.workers", 2)
	v.SetDefault("mail.queuesize", 64)
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return fmt.Errorf("session.secret is required (set %s_SESSION_SECRET)", envPrefix)
	}
	switch c.Session.Store {
	case "sqlite":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required when session.store is redis")
		}
	default:
		return fmt.Errorf("unsupported session.store %q", c.Session.Store)
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Mail.Workers <= 0 || c.Mail.QueueSize <= 0 {
		return errors.New("mail.workers and mail.queuesize must be positive")
	}
	return nil
}

// MailEnabled reports whether contact messages can be delivered.
func (c Config) MailEnabled() bool {
	return c.Mail.SendgridAPIKey != "" && c.Mail.From != "" && c.Mail.To != ""
}
