package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/vroute/pkg/route"
	"github.com/vango-dev/vroute/pkg/routeerr"
	"github.com/vango-dev/vroute/pkg/router"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func newRouter(t *testing.T, o router.Observer) *router.Router {
	t.Helper()
	r, err := router.New([]route.Definition{
		{Name: "home", Path: "/"},
		{Name: "user", Path: "/users/[id]"},
	}, router.WithObserver(o))
	if err != nil {
		t.Fatalf("router.New() error = %v", err)
	}
	return r
}

func TestMetrics(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	r := newRouter(t, m)
	ctx := context.Background()

	r.Lookup("/users/1")
	r.Lookup("/nowhere")
	if _, err := r.Push(ctx, "home", nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if _, err := r.Push(ctx, "user", nil); err == nil {
		t.Fatal("Push(user) without id should fail")
	}
	if _, err := r.Replace(ctx, "/nowhere", nil); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	tests := []struct {
		name string
		c    prometheus.Counter
		want float64
	}{
		{"user lookups", m.lookupsTotal.WithLabelValues("user", "matched"), 1},
		{"home lookups", m.lookupsTotal.WithLabelValues("home", "matched"), 1},
		{"not found lookups", m.lookupsTotal.WithLabelValues("", "not_found"), 2},
		{"committed pushes", m.navigationsTotal.WithLabelValues("push", "committed"), 1},
		{"failed pushes", m.navigationsTotal.WithLabelValues("push", "error"), 1},
		{"rejected replaces", m.navigationsTotal.WithLabelValues("replace", "rejected"), 1},
		{"invalid param errors", m.navigationErrors.WithLabelValues("invalid_param"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := metricCounterValue(t, tt.c); got != tt.want {
				t.Errorf("counter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutcome(t *testing.T) {
	ok := &route.ResolvedRoute{Name: "home"}
	rejected := route.NewRejected(&route.Rejection{Type: route.NotFound}, "/x")

	tests := []struct {
		to   *route.ResolvedRoute
		err  error
		want string
	}{
		{ok, nil, "committed"},
		{rejected, nil, "rejected"},
		{nil, router.ErrSuperseded, "superseded"},
		{nil, context.Canceled, "canceled"},
		{nil, errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := Outcome(tt.to, tt.err); got != tt.want {
			t.Errorf("Outcome(%v, %v) = %q, want %q", tt.to, tt.err, got, tt.want)
		}
	}
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&routeerr.RouteNotFoundError{Name: "x"}, "route_not_found"},
		{&routeerr.RouteDisabledError{Name: "x"}, "route_disabled"},
		{&routeerr.InvalidParamValueError{Param: "id"}, "invalid_param"},
		{&routeerr.InvalidRouteURLError{URL: "x"}, "invalid_url"},
		{&routeerr.MissingRouteContextError{Name: "x"}, "missing_context"},
		{router.ErrTooManyRedirects, "redirect_loop"},
		{errors.New("denied"), "hook"},
	}
	for _, tt := range tests {
		if got := ErrorType(tt.err); got != tt.want {
			t.Errorf("ErrorType(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

// recordingProvider records the spans started through it.
type recordingProvider struct {
	noop.TracerProvider
	spans *[]*recordingSpan
}

func (p recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return recordingTracer{spans: p.spans}
}

type recordingTracer struct {
	noop.Tracer
	spans *[]*recordingSpan
}

func (tr recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordingSpan{name: name, attrs: map[attribute.Key]string{}}
	for _, kv := range cfg.Attributes() {
		s.attrs[kv.Key] = kv.Value.Emit()
	}
	*tr.spans = append(*tr.spans, s)
	return trace.ContextWithSpan(ctx, s), s
}

type recordingSpan struct {
	noop.Span
	name   string
	attrs  map[attribute.Key]string
	status codes.Code
	errs   []error
	ended  bool
}

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value.Emit()
	}
}

func (s *recordingSpan) SetStatus(code codes.Code, _ string) { s.status = code }

func (s *recordingSpan) RecordError(err error, _ ...trace.EventOption) { s.errs = append(s.errs, err) }

func (s *recordingSpan) End(...trace.SpanEndOption) { s.ended = true }

func TestTracing(t *testing.T) {
	var spans []*recordingSpan
	tracing := NewTracing(
		WithTracerProvider(recordingProvider{spans: &spans}),
		WithIncludeParams(true),
	)
	r := newRouter(t, tracing)
	ctx := context.Background()

	if _, err := r.Push(ctx, "user", map[string]any{"id": "9"}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if _, err := r.Replace(ctx, "missing", nil); err == nil {
		t.Fatal("Replace(missing) should fail")
	}

	if len(spans) != 2 {
		t.Fatalf("len(spans) = %d, want 2", len(spans))
	}

	push := spans[0]
	if push.name != "vroute.push" || !push.ended || push.status != codes.Ok {
		t.Errorf("push span = %+v", push)
	}
	want := map[attribute.Key]string{
		"vroute.mode":     "push",
		"vroute.target":   "user",
		"vroute.outcome":  "committed",
		"vroute.route":    "user",
		"vroute.url":      "/users/9",
		"vroute.param.id": "9",
	}
	for k, v := range want {
		if push.attrs[k] != v {
			t.Errorf("push attr %s = %q, want %q", k, push.attrs[k], v)
		}
	}

	replace := spans[1]
	if replace.status != codes.Error || len(replace.errs) != 1 || !replace.ended {
		t.Errorf("replace span = %+v", replace)
	}
	if replace.attrs["vroute.outcome"] != "error" {
		t.Errorf("replace outcome = %q", replace.attrs["vroute.outcome"])
	}
}

func TestMulti(t *testing.T) {
	var spans []*recordingSpan
	tracing := NewTracing(WithTracerProvider(recordingProvider{spans: &spans}))
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	r := newRouter(t, Multi(m, tracing))

	if _, err := r.Push(context.Background(), "/users/3", nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if len(spans) != 1 {
		t.Errorf("len(spans) = %d, want 1", len(spans))
	}
	if got := metricCounterValue(t, m.navigationsTotal.WithLabelValues("push", "committed")); got != 1 {
		t.Errorf("committed pushes = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.lookupsTotal.WithLabelValues("user", "matched")); got != 1 {
		t.Errorf("user lookups = %v, want 1", got)
	}
}
