package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"farmcare-server-go/models"
)

// apiFunc is a route handler that reports failure by returning an error.
type apiFunc func(c *gin.Context) error

// handle turns fn into a gin handler. A returned error or a panic becomes
// HTTP 500 with {message, error}, where message names the failed operation.
func (h *APIHandler) handle(op, message string, fn apiFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := h.log.WithField("operation", op)

		defer func() {
			if r := recover(); r != nil {
				fail(c, log, message, fmt.Errorf("panic: %v", r))
			}
		}()

		if err := fn(c); err != nil {
			fail(c, log, message, err)
		}
	}
}

func fail(c *gin.Context, log *logrus.Entry, message string, err error) {
	log.WithError(err).Error(message)
	c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorBody{
		Message: message,
		Error:   err.Error(),
	})
}
