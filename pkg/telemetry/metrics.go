package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vroute/pkg/route"
	"github.com/vango-dev/vroute/pkg/routeerr"
	"github.com/vango-dev/vroute/pkg/router"
)

// MetricsConfig configures the Prometheus reporter.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vroute").
	Namespace string

	// Subsystem is the metrics subsystem (default: "router").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus reporter.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vroute",
		Subsystem: "router",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics reports router activity as Prometheus metrics:
//   - vroute_router_lookups_total: lookups by route and outcome
//   - vroute_router_lookup_duration_seconds: lookup duration
//   - vroute_router_navigations_total: navigations by mode and outcome
//   - vroute_router_navigation_duration_seconds: navigation duration by mode
//   - vroute_router_navigation_errors_total: failed navigations by error type
type Metrics struct {
	lookupsTotal       *prometheus.CounterVec
	lookupDuration     prometheus.Histogram
	navigationsTotal   *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	navigationErrors   *prometheus.CounterVec
}

// NewMetrics registers the router metrics. Registering twice with the same
// registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		lookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "lookups_total",
			Help:        "Total number of URL lookups",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "outcome"}),

		lookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "lookup_duration_seconds",
			Help:        "URL lookup duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations",
			ConstLabels: config.ConstLabels,
		}, []string{"mode", "outcome"}),

		navigationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Navigation duration in seconds, hooks included",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"mode"}),

		navigationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_errors_total",
			Help:        "Total number of failed navigations by error type",
			ConstLabels: config.ConstLabels,
		}, []string{"error_type"}),
	}
}

// Resolved implements router.Observer.
func (m *Metrics) Resolved(_ string, resolved *route.ResolvedRoute, elapsed time.Duration) {
	m.lookupDuration.Observe(elapsed.Seconds())
	if resolved.IsRejection() {
		m.lookupsTotal.WithLabelValues("", "not_found").Inc()
		return
	}
	m.lookupsTotal.WithLabelValues(resolved.Name, "matched").Inc()
}

// Navigation implements router.Observer.
func (m *Metrics) Navigation(ctx context.Context, mode router.Mode, _ string) (context.Context, func(*route.ResolvedRoute, error)) {
	start := time.Now()
	return ctx, func(to *route.ResolvedRoute, err error) {
		m.navigationDuration.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
		outcome := Outcome(to, err)
		m.navigationsTotal.WithLabelValues(mode.String(), outcome).Inc()
		if err != nil && outcome == "error" {
			m.navigationErrors.WithLabelValues(ErrorType(err)).Inc()
		}
	}
}

// Outcome classifies the end of a navigation: "committed", "rejected",
// "superseded", "canceled" or "error".
func Outcome(to *route.ResolvedRoute, err error) string {
	switch {
	case err == nil && to.IsRejection():
		return "rejected"
	case err == nil:
		return "committed"
	case errors.Is(err, router.ErrSuperseded):
		return "superseded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "error"
}

// ErrorType returns a low-cardinality label for a navigation error.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, routeerr.ErrRouteNotFound):
		return "route_not_found"
	case errors.Is(err, routeerr.ErrRouteDisabled):
		return "route_disabled"
	case errors.Is(err, routeerr.ErrInvalidParamValue):
		return "invalid_param"
	case errors.Is(err, routeerr.ErrInvalidRouteURL):
		return "invalid_url"
	case errors.Is(err, routeerr.ErrMissingRouteContext):
		return "missing_context"
	case errors.Is(err, router.ErrTooManyRedirects):
		return "redirect_loop"
	}
	return "hook"
}
