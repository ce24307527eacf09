package httpservice

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourorg/csv-marshal-kit/pkg/errors"
	"github.com/yourorg/csv-marshal-kit/pkg/logging"
)

// HandlerFunc is a handler that reports failures by returning an error.
type HandlerFunc func(c *gin.Context) error

// GetLogger retrieves the contextual logger from the request.
func GetLogger(c *gin.Context) logging.Logger {
	return logging.FromContext(c.Request.Context())
}

// Wrap adapts fn to gin, logging its latency and rendering a returned
// error through HandleError. Client errors are logged at warn level,
// everything else at error level.
func Wrap(handlerName string, fn HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLogger(c).With(logging.NewField("handler", handlerName))
		start := time.Now()

		err := fn(c)
		latency := logging.NewField("latency_ms", time.Since(start).Milliseconds())
		if err == nil {
			logger.Debug("Handler completed", latency)
			return
		}

		appErr := errors.FromError(err)
		if appErr.HTTPStatus < 500 {
			logger.Warn("Handler rejected request", latency, logging.NewField("error", err))
		} else {
			logger.Error("Handler failed", latency, logging.NewField("error", err))
		}
		HandleError(c, appErr)
	}
}
