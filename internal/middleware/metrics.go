package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fqms/fees-queue-api/internal/service"
)

// Metrics records method, route and status for every request. The route
// template is used when gin knows it, so path params do not explode the
// label cardinality.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
