package middleware

import (
	"github.com/baluardo/backup-control-service/pkg/app"
	"github.com/baluardo/backup-control-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryWithLogger converts handler panics into a 500 response and a
// stack-traced log entry.
func RecoveryWithLogger(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				lg.Error("panic recovered",
					zap.String("url", c.Request.URL.Path),
					zap.Any("panic", err),
					zap.Stack("stack"))
				app.NewResponse(c).ToResponse(code.ErrorServerInternal)
				c.Abort()
			}
		}()
		c.Next()
	}
}
