package middleware

import (
	"time"

	"github.com/BerniceZTT/smartcrm/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 按路由模板记录请求耗时
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
