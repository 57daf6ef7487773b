package telemetry

import (
	"context"
	"errors"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jiratool/jiratool/internal/jira"
)

const gatewayScopeName = "github.com/jiratool/jiratool/jira"

// InstrumentedGateway wraps jira.Gateway with OTel tracing and metrics.
// Every call gets a client span and is counted in the jt.jira.* metrics.
// Use WrapGateway to create one.
type InstrumentedGateway struct {
	inner  jira.Gateway
	tracer trace.Tracer
	reqs   metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

var _ jira.Gateway = (*InstrumentedGateway)(nil)

// WrapGateway returns gw decorated with OTel instrumentation.
// When telemetry is disabled, gw is returned as-is.
func WrapGateway(gw jira.Gateway) jira.Gateway {
	if !Enabled() {
		return gw
	}
	return newInstrumentedGateway(gw, Tracer(gatewayScopeName), Meter(gatewayScopeName))
}

func newInstrumentedGateway(gw jira.Gateway, tracer trace.Tracer, m metric.Meter) *InstrumentedGateway {
	reqs, _ := m.Int64Counter("jt.jira.requests",
		metric.WithDescription("Total Jira REST requests issued"),
	)
	dur, _ := m.Float64Histogram("jt.jira.request.duration",
		metric.WithDescription("Jira REST request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("jt.jira.errors",
		metric.WithDescription("Total failed Jira REST requests"),
	)
	return &InstrumentedGateway{inner: gw, tracer: tracer, reqs: reqs, dur: dur, errs: errs}
}

func (g *InstrumentedGateway) op(ctx context.Context, method, path string) (context.Context, trace.Span, []attribute.KeyValue, time.Time) {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", method),
		attribute.String("jira.path", path),
	}
	ctx, span := g.tracer.Start(ctx, "jira."+method,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	g.reqs.Add(ctx, 1, metric.WithAttributes(attrs...))
	return ctx, span, attrs, time.Now()
}

func (g *InstrumentedGateway) done(ctx context.Context, span trace.Span, attrs []attribute.KeyValue, start time.Time, err error) {
	ms := float64(time.Since(start).Milliseconds())
	g.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		var apiErr *jira.APIError
		if errors.As(err, &apiErr) {
			span.SetAttributes(attribute.Int("http.response.status_code", apiErr.StatusCode))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// Get implements jira.Gateway.
func (g *InstrumentedGateway) Get(ctx context.Context, path string, params url.Values, out interface{}) error {
	ctx, span, attrs, start := g.op(ctx, "GET", path)
	err := g.inner.Get(ctx, path, params, out)
	g.done(ctx, span, attrs, start, err)
	return err
}

// Post implements jira.Gateway.
func (g *InstrumentedGateway) Post(ctx context.Context, path string, body, out interface{}) error {
	ctx, span, attrs, start := g.op(ctx, "POST", path)
	err := g.inner.Post(ctx, path, body, out)
	g.done(ctx, span, attrs, start, err)
	return err
}

// Put implements jira.Gateway.
func (g *InstrumentedGateway) Put(ctx context.Context, path string, body, out interface{}) error {
	ctx, span, attrs, start := g.op(ctx, "PUT", path)
	err := g.inner.Put(ctx, path, body, out)
	g.done(ctx, span, attrs, start, err)
	return err
}
