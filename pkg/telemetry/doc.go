// Package telemetry reports router lookups and navigations to Prometheus
// and OpenTelemetry.
//
// Both reporters implement router.Observer:
//
//	metrics := telemetry.NewMetrics(telemetry.WithNamespace("myapp"))
//	tracing := telemetry.NewTracing(telemetry.WithTracerName("myapp"))
//
//	r, err := router.New(defs,
//	    router.WithObserver(telemetry.Multi(metrics, tracing)),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
package telemetry
