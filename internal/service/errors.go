package service

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
	"gitlab.com/dirk.krummacker/contacts-api/internal/validation"
)

// respondError translates an error into a response. Validation errors are answered with the BAD
// REQUEST status code and their message, missing contacts with NOT FOUND. Everything else is
// logged and answered with INTERNAL SERVER ERROR without any details.
func (h *Handler) respondError(c *gin.Context, err error) {
	var validationErr *validation.Error
	switch {
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": validationErr.Message})
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
	default:
		_ = c.Error(err)
		h.logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

// recovered answers requests whose handler panicked the same way as unexpected errors.
func recovered(logger *logrus.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, err any) {
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"panic":  err,
		}).Error("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
