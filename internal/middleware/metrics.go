package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scholarise-assessment-api/internal/service"
)

// UnmatchedRoute labels requests that did not resolve to a registered route,
// keeping the path label set bounded by the router table.
const UnmatchedRoute = "unmatched"

// Metrics records one observation per request under its route pattern, so
// /assessments/:id/summary is a single series whatever schema is asked for.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = UnmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
