// Package middleware holds the gin middleware shared by the API and the
// dashboard engines.
package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"farmcare-server-go/models"
)

// RequestIDHeader carries the id RequestLogger assigns to every request.
const RequestIDHeader = "X-Request-ID"

// RequestLogger logs one line per request through log and tags the response
// with a request id.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}

// Recovery answers a panic that escaped the handlers with 500 JSON.
func Recovery(log *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(log.WriterLevel(logrus.ErrorLevel), func(c *gin.Context, recovered any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorBody{
			Message: "Internal server error",
			Error:   fmt.Sprint(recovered),
		})
	})
}

// NotFound is the JSON answer for routes that are not served.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, models.Message{Message: "Not found"})
}
