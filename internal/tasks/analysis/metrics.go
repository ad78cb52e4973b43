package analysis

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics 聚合分析消费循环的计数器。构造失败时退化为 no-op。
type metrics struct {
	applied metric.Int64Counter
	dropped metric.Int64Counter
	failed  metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter("lingo.journal.analysis")
	m := &metrics{}
	m.applied, _ = meter.Int64Counter("journal_analysis_applied_total",
		metric.WithDescription("Analysis results applied to entries"))
	m.dropped, _ = meter.Int64Counter("journal_analysis_dropped_total",
		metric.WithDescription("Analysis results dropped without retry"))
	m.failed, _ = meter.Int64Counter("journal_analysis_failed_total",
		metric.WithDescription("Analysis results failed and scheduled for redelivery"))
	return m
}

func (m *metrics) recordApplied(ctx context.Context) {
	if m == nil || m.applied == nil {
		return
	}
	m.applied.Add(ctx, 1)
}

func (m *metrics) recordDropped(ctx context.Context, reason string) {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *metrics) recordFailure(ctx context.Context) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.Add(ctx, 1)
}
