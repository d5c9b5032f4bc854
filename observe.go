package matproj

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kailas-cloud/matproj/internal/metrics"
)

const tracerName = "github.com/kailas-cloud/matproj"

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matproj",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type, route and status.",
		}, []string{"operation", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matproj",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation", "route"}),
	}
	if err := metrics.RegisterOrReuse(reg, &m.operations); err != nil {
		return nil, err //nolint:wrapcheck // already prefixed
	}
	if err := metrics.RegisterOrReuse(reg, &m.duration); err != nil {
		return nil, err //nolint:wrapcheck // already prefixed
	}
	return m, nil
}

// observer provides logging, metrics and spans for SDK operations.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
	tracer  trace.Tracer
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer, tp trace.TracerProvider) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &observer{logger: logger, metrics: m, tracer: tp.Tracer(tracerName)}, nil
}

// span is one observed operation.
type span struct {
	op    string
	route string
	start time.Time
	otel  trace.Span
}

func (o *observer) begin(ctx context.Context, op, route string) (context.Context, *span) {
	s := &span{op: op, route: route, start: time.Now()}
	if o == nil || o.tracer == nil {
		s.otel = trace.SpanFromContext(context.Background())
		return ctx, s
	}
	ctx, s.otel = o.tracer.Start(ctx, "matproj."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("matproj.route", route)),
	)
	return ctx, s
}

func (o *observer) end(s *span, err error) {
	if err != nil {
		s.otel.RecordError(err)
		s.otel.SetStatus(codes.Error, err.Error())
	}
	s.otel.End()
	o.observe(s.op, s.route, s.start, err)
}

func (o *observer) observe(
	op, route string, start time.Time, err error,
) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, route, status).Inc()
		o.metrics.duration.WithLabelValues(op, route).Observe(
			dur.Seconds(),
		)
	}

	if o.logger != nil {
		if err != nil {
			o.logger.Warn("operation failed",
				"op", op,
				"route", route,
				"duration", dur,
				"error", err,
			)
		} else {
			o.logger.Debug("operation completed",
				"op", op,
				"route", route,
				"duration", dur,
			)
		}
	}
}

func (o *observer) warn(msg string, args ...any) {
	if o != nil && o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}
