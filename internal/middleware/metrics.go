package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/service"
)

const unmatchedRoute = "unmatched"

var unobservedRoutes = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
	"/ready":   {},
}

// Metrics records latency and status per route template. Probe and scrape
// endpoints are skipped and unknown paths share one label.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if _, skip := unobservedRoutes[route]; skip || metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
