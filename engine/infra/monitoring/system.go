package monitoring

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/infra/monitoring/metrics"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
	buildversion "github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/version"
)

type systemInstruments struct {
	buildInfo    metric.Float64Gauge
	sourceInfo   metric.Int64Gauge
	uptime       metric.Float64ObservableGauge
	registration metric.Registration
	started      time.Time
}

var (
	system     *systemInstruments
	systemOnce sync.Once
	systemMu   sync.Mutex
)

func newSystemInstruments(meter metric.Meter) (*systemInstruments, error) {
	s := &systemInstruments{started: time.Now()}
	var err error
	s.buildInfo, err = meter.Float64Gauge(
		metrics.MetricName("build_info"),
		metric.WithDescription("Build information (value=1)"),
	)
	if err != nil {
		return nil, err
	}
	s.sourceInfo, err = meter.Int64Gauge(
		metrics.MetricNameWithSubsystem("registry", "source_info"),
		metric.WithDescription("Source documents and vector indexes known to this build (value=1)"),
	)
	if err != nil {
		return nil, err
	}
	s.uptime, err = meter.Float64ObservableGauge(
		metrics.MetricName("uptime_seconds"),
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	s.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveFloat64(s.uptime, time.Since(s.started).Seconds())
		return nil
	}, s.uptime)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// getBuildInfo prefers ldflags values and falls back to the module build info.
func getBuildInfo() (version, commit, goVersion string) {
	build := buildversion.Get()
	version, commit = build.Version, build.CommitHash
	if info, ok := debug.ReadBuildInfo(); ok {
		if version == "unknown" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		for _, setting := range info.Settings {
			if commit == "unknown" && setting.Key == "vcs.revision" {
				commit = setting.Value
			}
		}
	}
	return version, commit, runtime.Version()
}

func (s *systemInstruments) record(ctx context.Context) {
	version, commit, goVersion := getBuildInfo()
	s.buildInfo.Record(ctx, 1, metric.WithAttributes(
		attribute.String("version", version),
		attribute.String("commit_hash", commit),
		attribute.String("go_version", goVersion),
	))
	for _, src := range knowledge.Sources() {
		s.sourceInfo.Record(ctx, 1, metric.WithAttributes(
			attribute.String("source", src.Key),
			attribute.String("label", src.Kind.Label),
			attribute.String("index", src.Kind.IndexName),
			attribute.String("regulation_id", src.Regulation.ID),
		))
	}
	logger.FromContext(ctx).Debug("System metrics initialized",
		"version", version,
		"commit", commit,
		"go_version", goVersion,
	)
}

// InitSystemMetrics registers build, registry and uptime gauges once per process.
func InitSystemMetrics(ctx context.Context, meter metric.Meter) {
	systemMu.Lock()
	defer systemMu.Unlock()
	systemOnce.Do(func() {
		s, err := newSystemInstruments(meter)
		if err != nil {
			logger.FromContext(ctx).Error("Failed to create system metrics", "error", err)
			return
		}
		s.record(ctx)
		system = s
	})
}

// ResetSystemMetricsForTesting unregisters the uptime callback and allows
// InitSystemMetrics to run again.
func ResetSystemMetricsForTesting() {
	systemMu.Lock()
	defer systemMu.Unlock()
	if system != nil && system.registration != nil {
		if err := system.registration.Unregister(); err != nil {
			logger.Error("Failed to unregister uptime callback", "error", err)
		}
	}
	system = nil
	systemOnce = sync.Once{}
}
