package knowledge

import (
	"context"
	"sync"
	"time"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce        sync.Once
	metricsMu          sync.Mutex
	metricsInitErr     error
	sourceDurationHist metric.Float64Histogram
	unitCounter        metric.Int64Counter
	sourceStatusCount  metric.Int64Counter
	retryCounter       metric.Int64Counter
	queryLatencyHist   metric.Float64Histogram
	queryEmptyCounter  metric.Int64Counter
	embedLatencyHist   metric.Float64Histogram
	embedErrorCounter  metric.Int64Counter
	embedCacheCounter  metric.Int64Counter
)

// Unit outcomes recorded by RecordUnits.
const (
	UnitOutcomeSegmented = "segmented"
	UnitOutcomeSkipped   = "skipped"
	UnitOutcomeEmbedded  = "embedded"
	UnitOutcomePersisted = "persisted"
)

func RecordSourceDuration(ctx context.Context, source string, d time.Duration) {
	if err := ensureMetrics(); err != nil || sourceDurationHist == nil {
		return
	}
	sourceDurationHist.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("source", source)))
}

func RecordUnits(ctx context.Context, source, outcome string, n int) {
	if n <= 0 {
		return
	}
	if err := ensureMetrics(); err != nil || unitCounter == nil {
		return
	}
	unitCounter.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}

func RecordSourceStatus(ctx context.Context, source, status string) {
	if err := ensureMetrics(); err != nil || sourceStatusCount == nil {
		return
	}
	sourceStatusCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	))
}

func RecordRetry(ctx context.Context, operation string) {
	if err := ensureMetrics(); err != nil || retryCounter == nil {
		return
	}
	retryCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func RecordQueryLatency(ctx context.Context, family, kind string, d time.Duration) {
	if err := ensureMetrics(); err != nil || queryLatencyHist == nil {
		return
	}
	queryLatencyHist.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("family", family),
		attribute.String("kind", kind),
	))
}

func RecordQueryEmpty(ctx context.Context, family, kind string) {
	if err := ensureMetrics(); err != nil || queryEmptyCounter == nil {
		return
	}
	queryEmptyCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("family", family),
		attribute.String("kind", kind),
	))
}

func RecordEmbedding(ctx context.Context, provider, model string, texts int, d time.Duration) {
	if err := ensureMetrics(); err != nil || embedLatencyHist == nil {
		return
	}
	embedLatencyHist.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.Int("texts", texts),
	))
}

func RecordEmbeddingError(ctx context.Context, provider, model, category string) {
	if err := ensureMetrics(); err != nil || embedErrorCounter == nil {
		return
	}
	embedErrorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.String("category", category),
	))
}

func RecordEmbeddingCache(ctx context.Context, provider string, hit bool) {
	if err := ensureMetrics(); err != nil || embedCacheCounter == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	embedCacheCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("result", result),
	))
}

func ResetMetricsForTesting() {
	metricsMu.Lock()
	metricsOnce = sync.Once{}
	metricsInitErr = nil
	sourceDurationHist = nil
	unitCounter = nil
	sourceStatusCount = nil
	retryCounter = nil
	queryLatencyHist = nil
	queryEmptyCounter = nil
	embedLatencyHist = nil
	embedErrorCounter = nil
	embedCacheCounter = nil
	metricsMu.Unlock()
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("migrantnav.knowledge")
		if err := initIngestMetrics(meter); err != nil {
			metricsInitErr = err
			return
		}
		if err := initQueryMetrics(meter); err != nil {
			metricsInitErr = err
			return
		}
		if err := initEmbeddingMetrics(meter); err != nil {
			metricsInitErr = err
		}
	})
	return metricsInitErr
}

func initIngestMetrics(meter metric.Meter) error {
	var err error
	sourceDurationHist, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("ingest", "source_duration_seconds"),
		metric.WithDescription("Time spent ingesting one source document"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.SourceDurationBuckets...),
	)
	if err != nil {
		return err
	}
	unitCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("ingest", "units_total"),
		metric.WithDescription("Number of legal units by pipeline outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	sourceStatusCount, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("ingest", "sources_total"),
		metric.WithDescription("Number of processed sources by final status"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	retryCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("ingest", "retries_total"),
		metric.WithDescription("Number of retried external calls"),
		metric.WithUnit("1"),
	)
	return err
}

func initQueryMetrics(meter metric.Meter) error {
	var err error
	queryLatencyHist, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("knowledge", "query_latency_seconds"),
		metric.WithDescription("Latency of article lookups and vector searches"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.QueryLatencyBuckets...),
	)
	if err != nil {
		return err
	}
	queryEmptyCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("knowledge", "query_empty_total"),
		metric.WithDescription("Number of lookups and searches that returned nothing"),
		metric.WithUnit("1"),
	)
	return err
}

func initEmbeddingMetrics(meter metric.Meter) error {
	var err error
	embedLatencyHist, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("embedder", "latency_seconds"),
		metric.WithDescription("Latency of embedding provider calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.EmbeddingLatencyBuckets...),
	)
	if err != nil {
		return err
	}
	embedErrorCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("embedder", "errors_total"),
		metric.WithDescription("Number of failed embedding calls by category"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	embedCacheCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("embedder", "cache_total"),
		metric.WithDescription("Embedding cache lookups by result"),
		metric.WithUnit("1"),
	)
	return err
}
