package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cloudnotes/internal/domain"
)

// fail writes the response for an error returned by a service. Internal errors are logged and
// replaced by a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	p := principalFrom(c)

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrInvalidCredentials.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		h.metrics.AccessDenied(p.IsAuthenticated())
		if !p.IsAuthenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrDuplicateEmail.Error()})
	default:
		h.logger.WithError(err).WithField(requestIDKey, c.GetString(requestIDKey)).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
