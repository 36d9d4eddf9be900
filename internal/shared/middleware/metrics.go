package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/payflow/server/internal/utils/metrics"
)

// Metrics records request counts, latency, and in-flight gauge per route
// pattern. Requests that match no route share one label, so probing random
// paths cannot blow up series cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.HTTPRequestsInFlight.Inc()
		c.Next()
		m.HTTPRequestsInFlight.Dec()

		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
