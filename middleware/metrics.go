package middleware

import (
	"context"
	"time"

	aws_pkg "github.com/LeeRude11/delivery/pkg/aws"
	"github.com/gin-gonic/gin"
)

// Metrics records request count, latency and error classes in CloudWatch.
// Paths are reported as route templates to keep dimensions bounded.
func Metrics(metricsClient *aws_pkg.MetricsClient, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !metricsClient.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)
		statusCode := c.Writer.Status()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		dimensions := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    path,
			"Status":  statusCodeToRange(statusCode),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_ = metricsClient.RecordCount(ctx, aws_pkg.MetricHTTPRequests, dimensions)
			_ = metricsClient.RecordLatency(ctx, aws_pkg.MetricHTTPLatency, duration, dimensions)

			switch {
			case statusCode >= 500:
				_ = metricsClient.RecordCount(ctx, aws_pkg.MetricHTTPErrors, dimensions)
				_ = metricsClient.RecordCount(ctx, aws_pkg.MetricHTTP5xx, dimensions)
			case statusCode >= 400:
				_ = metricsClient.RecordCount(ctx, aws_pkg.MetricHTTPErrors, dimensions)
				_ = metricsClient.RecordCount(ctx, aws_pkg.MetricHTTP4xx, dimensions)
			}
		}()
	}
}

func statusCodeToRange(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
