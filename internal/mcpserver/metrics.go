package mcpserver

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ca-srg/bravesearch/internal/ratelimit"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

var (
	mcpMetricsOnce      sync.Once
	mcpRequestCounter   metric.Int64Counter
	mcpErrorCounter     metric.Int64Counter
	mcpLatencyHistogram metric.Float64Histogram
	rateLimitCounter    metric.Int64Counter

	// rejections can arrive at the provider's request rate; log a sample
	rejectionLogSampler = rate.Sometimes{First: 3, Interval: time.Minute}
)

func initMCPMetrics() {
	mcpMetricsOnce.Do(func() {
		meter := otel.Meter("bravesearch/mcpserver")

		var err error
		mcpRequestCounter, err = meter.Int64Counter(
			"bravesearch.mcp.requests.total",
			metric.WithDescription("Total MCP server tool requests"),
		)
		if err != nil {
			log.Printf("observability: failed to create MCP request counter: %v", err)
		}

		mcpErrorCounter, err = meter.Int64Counter(
			"bravesearch.mcp.errors.total",
			metric.WithDescription("Total MCP server tool errors"),
		)
		if err != nil {
			log.Printf("observability: failed to create MCP error counter: %v", err)
		}

		mcpLatencyHistogram, err = meter.Float64Histogram(
			"bravesearch.mcp.response_time",
			metric.WithDescription("MCP server tool response time (ms)"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			log.Printf("observability: failed to create MCP latency histogram: %v", err)
		}

		rateLimitCounter, err = meter.Int64Counter(
			"bravesearch.ratelimit.rejections.total",
			metric.WithDescription("Provider calls rejected by the local rate limiter"),
		)
		if err != nil {
			log.Printf("observability: failed to create rate limit counter: %v", err)
		}
	})
}

func recordMCPMetrics(ctx context.Context, attrs []attribute.KeyValue, duration time.Duration, errType string) {
	initMCPMetrics()
	if mcpRequestCounter != nil {
		mcpRequestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if mcpLatencyHistogram != nil {
		mcpLatencyHistogram.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	}
	if errType != "" && mcpErrorCounter != nil {
		errAttrs := make([]attribute.KeyValue, len(attrs)+1)
		copy(errAttrs, attrs)
		errAttrs[len(attrs)] = attribute.String("error.type", errType)
		mcpErrorCounter.Add(ctx, 1, metric.WithAttributes(errAttrs...))
	}
}

// RecordRateLimitRejection counts a limiter rejection. It is meant to be
// installed with ratelimit.WithRejectHook.
func RecordRateLimitRejection(err *ratelimit.ExceededError) {
	initMCPMetrics()
	if rateLimitCounter != nil {
		rateLimitCounter.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("ratelimit.budget", string(err.Budget)),
		))
	}
	rejectionLogSampler.Do(func() {
		log.Printf("[RateLimit] %v", err)
	})
}
