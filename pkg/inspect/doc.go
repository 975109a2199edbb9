// Package inspect serves a read-mostly HTTP view of a router.
//
// The inspector is a development aid: it lists the composed routes, matches
// URLs, assembles URLs from names and params, drives navigation and streams
// every committed route over a WebSocket.
//
// # Endpoints
//
//	GET  /routes      composed routes with their templates and params
//	GET  /match?url=  resolve a URL (never fails, NotFound is a result)
//	POST /resolve     {"name", "params", "query", "hash"} -> {"href"}
//	GET  /current     the current route
//	POST /navigate    {"source", "params", "state", "replace"}
//	GET  /ws          stream of current-route updates
//	GET  /metrics     Prometheus metrics, when a gatherer is set
//
// # Usage
//
//	srv := inspect.New(r, inspect.WithGatherer(prometheus.DefaultGatherer))
//	defer srv.Close()
//	err := srv.ListenAndServe(ctx, "localhost:7070")
package inspect
