package middleware

import (
	"github.com/gin-gonic/gin"
)

// AppInfoWithConfig stamps service identity onto the request context and
// the response headers.
func AppInfoWithConfig(name, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("app_name", name)
		c.Set("app_version", version)
		c.Header("X-Service-Version", version)
		c.Next()
	}
}
