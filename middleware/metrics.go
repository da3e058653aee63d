package middleware

import (
	"context"
	"net/http"
	"time"

	awspkg "github.com/NicolasDuarte04/Briki-Web-App-sub006/pkg/aws"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware reports request count, latency and errors per route.
// Upload requests also report their body size.
func MetricsMiddleware(metrics *awspkg.MetricsClient, serviceName string) gin.HandlerFunc {
	if !metrics.IsEnabled() {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		dims := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Route":   route,
			"Status":  statusClass(status),
		}

		data := []awspkg.Datum{
			awspkg.Count(awspkg.MetricHTTPRequests, dims),
			awspkg.Latency(awspkg.MetricHTTPLatency, time.Since(start), dims),
		}
		if status >= http.StatusBadRequest {
			data = append(data, awspkg.Count(awspkg.MetricHTTPErrors, dims))
		}
		if c.Request.Method == http.MethodPost && c.Request.ContentLength > 0 {
			data = append(data, awspkg.Bytes(awspkg.MetricUploadBytes, c.Request.ContentLength, dims))
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metrics.Put(ctx, data...)
		}()
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	}
	return "unknown"
}
