package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cloudnotes/internal/domain"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	principalKey    = "principal"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		h.metrics.ObserveRequest(c.Request.Method, c.FullPath(), status, elapsed)

		entry := h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency":    elapsed.String(),
		})
		if p := principalFrom(c); p.IsAuthenticated() {
			entry = entry.WithField("user_id", p.ID)
		}
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

// resolvePrincipal turns the session cookie into the request's principal. Requests without a
// valid session continue as anonymous; a stale cookie is cleared.
func (h *Handler) resolvePrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(principalKey, domain.Anonymous())
		if !h.cookies.Present(c) {
			c.Next()
			return
		}

		sid := h.cookies.Read(c)
		p, err := h.sessions.Resolve(c.Request.Context(), sid)
		if err != nil {
			h.logger.WithError(err).WithField(requestIDKey, c.GetString(requestIDKey)).Error("resolve session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if !p.IsAuthenticated() {
			h.cookies.Clear(c)
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func principalFrom(c *gin.Context) domain.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(domain.Principal); ok {
			return p
		}
	}
	return domain.Anonymous()
}
