// Package logger wires gclog into the Kratos logging interface for the
// journal binaries.
package logger

import (
	"context"

	gclog "github.com/bionicotaku/lingo-utils/gclog"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/trace"
)

// Config captures runtime metadata used to annotate logs.
type Config struct {
	Service string
	Version string
	HostID  string
	Env     string
}

// NewLogger builds a Kratos-compatible logger with trace/span enrichment.
func NewLogger(cfg Config) (log.Logger, error) {
	if cfg.Service == "" {
		cfg.Service = "journal"
	}
	baseLogger, err := gclog.NewLogger(
		gclog.WithService(cfg.Service),
		gclog.WithVersion(cfg.Version),
		gclog.WithEnvironment(cfg.Env),
		gclog.WithStaticLabels(map[string]string{"service.id": cfg.HostID}),
		gclog.EnableSourceLocation(),
	)
	if err != nil {
		return nil, err
	}
	return log.With(baseLogger,
		"trace_id", spanContextValuer(func(sc trace.SpanContext) (string, bool) {
			return sc.TraceID().String(), sc.HasTraceID()
		}),
		"span_id", spanContextValuer(func(sc trace.SpanContext) (string, bool) {
			return sc.SpanID().String(), sc.HasSpanID()
		}),
	), nil
}

func spanContextValuer(extract func(trace.SpanContext) (string, bool)) log.Valuer {
	return func(ctx context.Context) interface{} {
		if v, ok := extract(trace.SpanContextFromContext(ctx)); ok {
			return v
		}
		return ""
	}
}
