package capture

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics 聚合捕获管线的 OTel 指标。构造失败时降级为 no-op（字段为 nil）。
type metrics struct {
	started   metric.Int64Counter
	autoStops metric.Int64Counter
	failures  metric.Int64Counter
	duration  metric.Float64Histogram
}

func newMetrics(meter metric.Meter) *metrics {
	if meter == nil {
		meter = otel.Meter("lingo.journal.capture")
	}
	m := &metrics{}
	m.started, _ = meter.Int64Counter("capture_sessions_started_total",
		metric.WithDescription("Recording sessions started, by mode."))
	m.autoStops, _ = meter.Int64Counter("capture_auto_stops_total",
		metric.WithDescription("Recordings force-stopped at the duration cap."))
	m.failures, _ = meter.Int64Counter("capture_failures_total",
		metric.WithDescription("Capture pipeline failures, by stage."))
	m.duration, _ = meter.Float64Histogram("capture_recording_seconds",
		metric.WithDescription("Final duration of stopped recordings."))
	return m
}

func (m *metrics) recordStart(ctx context.Context, mode Mode) {
	if m == nil || m.started == nil {
		return
	}
	m.started.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", string(mode))))
}

func (m *metrics) recordAutoStop(ctx context.Context) {
	if m == nil || m.autoStops == nil {
		return
	}
	m.autoStops.Add(ctx, 1)
}

func (m *metrics) recordFailure(ctx context.Context, stage string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *metrics) recordDuration(ctx context.Context, seconds int) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Record(ctx, float64(seconds))
}
