package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"cloudnotes/internal/metrics"
)

// Article is one headline shown on the dashboard.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Source      string    `json:"source,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// Feed returns the current headlines. It never fails: any problem yields an empty list.
type Feed interface {
	TopHeadlines(ctx context.Context) []Article
}

type Config struct {
	Endpoint string
	APIKey   string
	Category string
	Limit    int
	Timeout  time.Duration
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Category == "" {
		cfg.Category = "technology"
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type headlinesResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (c *Client) TopHeadlines(ctx context.Context) []Article {
	if c.cfg.APIKey == "" || c.cfg.Endpoint == "" {
		c.cfg.Metrics.NewsFetch("disabled")
		return []Article{}
	}

	articles, err := c.fetch(ctx)
	if err != nil {
		c.cfg.Metrics.NewsFetch("error")
		c.cfg.Logger.WithError(err).Warn("fetch headlines")
		return []Article{}
	}
	c.cfg.Metrics.NewsFetch("ok")
	return articles
}

func (c *Client) fetch(ctx context.Context) ([]Article, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse news endpoint: %w", err)
	}
	query := endpoint.Query()
	query.Set("category", c.cfg.Category)
	query.Set("language", "en")
	query.Set("apiKey", c.cfg.APIKey)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build news request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request headlines: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read headlines: %w", err)
	}

	var payload headlinesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode headlines: %w", err)
	}
	if resp.StatusCode != http.StatusOK || payload.Status == "error" {
		return nil, fmt.Errorf("headlines status %d: %s", resp.StatusCode, payload.Message)
	}

	out := make([]Article, 0, c.cfg.Limit)
	for _, a := range payload.Articles {
		if len(out) == c.cfg.Limit {
			break
		}
		article := Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
		}
		if a.PublishedAt != "" {
			published, err := time.Parse(time.RFC3339, a.PublishedAt)
			if err != nil {
				c.cfg.Logger.WithField("url", a.URL).Debugf("skip headline with bad publishedAt %q", a.PublishedAt)
				continue
			}
			article.PublishedAt = &published
		}
		out = append(out, article)
	}
	return out, nil
}
