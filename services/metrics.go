package services

import (
	"context"
	"time"

	aws_pkg "github.com/LeeRude11/delivery/pkg/aws"
)

// recordAsync sends a counter in the background so metrics never add
// latency to a request.
func recordAsync(metrics aws_pkg.MetricsRecorder, name string, dims map[string]string) {
	if metrics == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metrics.RecordCount(ctx, name, dims)
	}()
}

func recordValueAsync(metrics aws_pkg.MetricsRecorder, name string, value float64, dims map[string]string) {
	if metrics == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metrics.RecordValue(ctx, name, value, dims)
	}()
}
