package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gridtrain/eval-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route so scanners
// cannot inflate label cardinality with arbitrary paths.
const unmatchedRoute = "unmatched"

var unobservedRoutes = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

// Metrics observes latency and status per route template. Probe and scrape
// endpoints are skipped.
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
