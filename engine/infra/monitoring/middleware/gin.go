package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/infra/monitoring/metrics"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

const (
	unmatchedRoute = "unmatched"
	// familyOther replaces family values outside the registry so a client cannot
	// grow label cardinality.
	familyOther = "other"
)

var (
	requestCounter  metric.Int64Counter
	latencyHist     metric.Float64Histogram
	inFlightCounter metric.Int64UpDownCounter
	initOnce        sync.Once
	initMutex       sync.Mutex
)

func initMetrics(meter metric.Meter) {
	if meter == nil {
		return
	}
	initOnce.Do(func() {
		var err error
		requestCounter, err = meter.Int64Counter(
			metrics.MetricNameWithSubsystem("http", "requests_total"),
			metric.WithDescription("Read API requests by route, family and status"),
		)
		if err != nil {
			logger.Error("Failed to create http request counter", "error", err)
			return
		}
		latencyHist, err = meter.Float64Histogram(
			metrics.MetricNameWithSubsystem("http", "request_duration_seconds"),
			metric.WithDescription("Read API request latency"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(metrics.HTTPDurationBuckets...),
		)
		if err != nil {
			logger.Error("Failed to create http latency histogram", "error", err)
			return
		}
		inFlightCounter, err = meter.Int64UpDownCounter(
			metrics.MetricNameWithSubsystem("http", "requests_in_flight"),
			metric.WithDescription("Read API requests being served"),
		)
		if err != nil {
			logger.Error("Failed to create http in-flight counter", "error", err)
		}
	})
}

// ResetMetricsForTesting clears instrument state between tests.
func ResetMetricsForTesting() {
	initMutex.Lock()
	defer initMutex.Unlock()
	requestCounter = nil
	latencyHist = nil
	inFlightCounter = nil
	initOnce = sync.Once{}
}

// HTTPMetrics counts read API requests by route template, regulation family and
// status. Requests pass through untouched when meter is nil.
func HTTPMetrics(meter metric.Meter) gin.HandlerFunc {
	initMetrics(meter)
	return func(c *gin.Context) {
		if requestCounter == nil || latencyHist == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		start := time.Now()
		if inFlightCounter != nil {
			inFlightCounter.Add(ctx, 1)
			defer inFlightCounter.Add(ctx, -1)
		}
		c.Next()
		attrs := metric.WithAttributes(requestAttributes(c)...)
		requestCounter.Add(ctx, 1, attrs)
		latencyHist.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

func requestAttributes(c *gin.Context) []attribute.KeyValue {
	route := c.FullPath()
	if route == "" {
		route = unmatchedRoute
	}
	attrs := []attribute.KeyValue{
		attribute.String("method", c.Request.Method),
		attribute.String("path", route),
		attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
	}
	family := c.Param("family")
	if family == "" {
		family = c.Query("family")
	}
	if family != "" {
		attrs = append(attrs, attribute.String("family", boundedFamily(family)))
	}
	return attrs
}

func boundedFamily(family string) string {
	if _, err := knowledge.SourceByKey(family); err != nil {
		return familyOther
	}
	return family
}
