package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vroute/pkg/route"
	"github.com/vango-dev/vroute/pkg/router"
)

// Default tracer name.
const defaultTracerName = "vroute"

// TracingConfig configures the OpenTelemetry reporter.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "vroute").
	TracerName string

	// Provider is the tracer provider. If nil, the global provider is used.
	Provider trace.TracerProvider

	// IncludeParams adds decoded params of the committed route to the span.
	// Params may contain sensitive information - disabled by default.
	IncludeParams bool
}

// TracingOption configures the OpenTelemetry reporter.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = tp
	}
}

// WithIncludeParams enables including route params in spans.
func WithIncludeParams(include bool) TracingOption {
	return func(c *TracingConfig) {
		c.IncludeParams = include
	}
}

// Tracing traces navigations as spans. Lookups are recorded as events on
// the span of the navigation they belong to.
type Tracing struct {
	config TracingConfig
	tracer trace.Tracer
}

// NewTracing returns an OpenTelemetry reporter.
//
// Configure the global provider in main() before creating routers, or pass
// one with WithTracerProvider.
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracing{
		config: config,
		tracer: provider.Tracer(config.TracerName),
	}
}

// Resolved implements router.Observer. Lookups outside a navigation are
// not traced.
func (t *Tracing) Resolved(string, *route.ResolvedRoute, time.Duration) {}

// Navigation implements router.Observer.
func (t *Tracing) Navigation(ctx context.Context, mode router.Mode, target string) (context.Context, func(*route.ResolvedRoute, error)) {
	spanCtx, span := t.tracer.Start(ctx, "vroute."+mode.String(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("vroute.mode", mode.String()),
			attribute.String("vroute.target", target),
		),
	)

	return spanCtx, func(to *route.ResolvedRoute, err error) {
		defer span.End()

		span.SetAttributes(attribute.String("vroute.outcome", Outcome(to, err)))
		if to != nil {
			span.SetAttributes(
				attribute.String("vroute.route", to.Name),
				attribute.String("vroute.url", to.Href),
			)
			if t.config.IncludeParams {
				for name, v := range to.Params {
					span.SetAttributes(attribute.String("vroute.param."+name, fmtValue(v)))
				}
			}
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetStatus(codes.Ok, "")
	}
}

// Multi fans events out to several observers. Navigation contexts are
// chained so later observers see the spans of earlier ones.
func Multi(observers ...router.Observer) router.Observer {
	return multi(observers)
}

type multi []router.Observer

func (m multi) Resolved(href string, resolved *route.ResolvedRoute, elapsed time.Duration) {
	for _, o := range m {
		o.Resolved(href, resolved, elapsed)
	}
}

func (m multi) Navigation(ctx context.Context, mode router.Mode, target string) (context.Context, func(*route.ResolvedRoute, error)) {
	ends := make([]func(*route.ResolvedRoute, error), 0, len(m))
	for _, o := range m {
		var end func(*route.ResolvedRoute, error)
		ctx, end = o.Navigation(ctx, mode, target)
		ends = append(ends, end)
	}
	return ctx, func(to *route.ResolvedRoute, err error) {
		for i := len(ends) - 1; i >= 0; i-- {
			ends[i](to, err)
		}
	}
}

func fmtValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
