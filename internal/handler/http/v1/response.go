package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// abortWithError прерывает цепочку middleware ответом по категории ошибки
func abortWithError(c *gin.Context, err *apperr.Error) {
	c.AbortWithStatusJSON(err.HTTPStatus(), Response{Success: false, Message: err.Message})
}

// respondError переводит ошибку сервиса в HTTP-ответ.
// Внутренние ошибки не раскрываются клиенту.
func respondError(c *gin.Context, log *logrus.Entry, err error) {
	kind := apperr.GetKind(err)
	if kind == apperr.KindInternal {
		log.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, Response{Success: false, Message: "internal server error"})
		return
	}

	status := http.StatusBadRequest
	message := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus()
		message = appErr.Message
	}
	log.WithError(err).WithField("kind", kind.String()).Warn("Request rejected")
	c.JSON(status, Response{Success: false, Message: message})
}

// RequestLogger пишет строку лога на каждый HTTP-запрос
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}).Info("HTTP request")
	}
}
