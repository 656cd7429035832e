package knowledge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func withReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	prev := otel.GetMeterProvider()
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	ResetMetricsForTesting()
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
		ResetMetricsForTesting()
	})
	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics(t *testing.T) {
	t.Run("Should count units by source and outcome", func(t *testing.T) {
		reader := withReader(t)
		ctx := context.Background()
		RecordUnits(ctx, SourceDublin, UnitOutcomePersisted, 3)
		RecordUnits(ctx, SourceDublin, UnitOutcomePersisted, 2)
		RecordUnits(ctx, SourceDublin, UnitOutcomeSkipped, 0)
		sum, ok := collectMetrics(t, reader)["migrantnav_ingest_units_total"].Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)
		assert.Equal(t, int64(5), sum.DataPoints[0].Value)
		assert.Contains(t, sum.DataPoints[0].Attributes.ToSlice(), attribute.String("outcome", UnitOutcomePersisted))
	})

	t.Run("Should record source status and duration", func(t *testing.T) {
		reader := withReader(t)
		ctx := context.Background()
		RecordSourceStatus(ctx, SourceCharter, "completed")
		RecordSourceDuration(ctx, SourceCharter, 1500*time.Millisecond)
		got := collectMetrics(t, reader)
		assert.Contains(t, got, "migrantnav_ingest_sources_total")
		hist, ok := got["migrantnav_ingest_source_duration_seconds"].Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.Len(t, hist.DataPoints, 1)
		assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 1e-9)
	})

	t.Run("Should record query and embedding instruments", func(t *testing.T) {
		reader := withReader(t)
		ctx := context.Background()
		RecordQueryLatency(ctx, SourceGeneva, "article", 10*time.Millisecond)
		RecordQueryEmpty(ctx, SourceGeneva, "article")
		RecordEmbedding(ctx, "ollama", "nomic-embed-text", 1, 20*time.Millisecond)
		RecordEmbeddingError(ctx, "ollama", "nomic-embed-text", "timeout")
		RecordEmbeddingCache(ctx, "ollama", true)
		RecordRetry(ctx, "embed")
		got := collectMetrics(t, reader)
		for _, name := range []string{
			"migrantnav_knowledge_query_latency_seconds",
			"migrantnav_knowledge_query_empty_total",
			"migrantnav_embedder_latency_seconds",
			"migrantnav_embedder_errors_total",
			"migrantnav_embedder_cache_total",
			"migrantnav_ingest_retries_total",
		} {
			assert.Contains(t, got, name)
		}
	})
}
