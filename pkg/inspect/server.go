package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/vroute/pkg/routeerr"
	"github.com/vango-dev/vroute/pkg/routepath"
	"github.com/vango-dev/vroute/pkg/router"
)

// Server is the inspector HTTP server of one router.
type Server struct {
	router      *router.Router
	logger      *slog.Logger
	gatherer    prometheus.Gatherer
	checkOrigin func(*http.Request) bool
	stream      *Stream
	handler     http.Handler
	unsubscribe func()
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer serves /metrics from g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithCheckOrigin sets the WebSocket origin check. The default accepts
// every origin.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(s *Server) {
		s.checkOrigin = fn
	}
}

// New creates an inspector for r. It subscribes to r until Close.
func New(r *router.Router, opts ...Option) *Server {
	s := &Server{
		router:      r,
		logger:      slog.Default(),
		checkOrigin: func(*http.Request) bool { return true },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "inspect")
	s.stream = NewStream(s.logger, s.checkOrigin)
	s.unsubscribe = r.Subscribe(s.stream.Publish)
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(s.logRequests)

	mux.Get("/routes", s.handleRoutes)
	mux.Get("/match", s.handleMatch)
	mux.Post("/resolve", s.handleResolve)
	mux.Get("/current", s.handleCurrent)
	mux.Post("/navigate", s.handleNavigate)
	mux.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		s.stream.Handle(w, req, s.router.Current)
	})
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Handler returns the HTTP handler of the inspector.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Stream returns the current-route stream.
func (s *Server) Stream() *Stream {
	return s.stream
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("inspector listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.stream.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("inspector stopped")
	return nil
}

// Close unsubscribes from the router and closes every stream client.
func (s *Server) Close() {
	s.unsubscribe()
	s.stream.Close()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		s.logger.Debug("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(req.Context()))
	})
}

func (s *Server) handleRoutes(w http.ResponseWriter, req *http.Request) {
	views := make([]RouteView, 0)
	for _, rt := range s.router.Routes() {
		if rt.IsNamed() {
			views = append(views, NewRouteView(rt))
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleMatch(w http.ResponseWriter, req *http.Request) {
	href := req.URL.Query().Get("url")
	if href == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing url parameter"))
		return
	}
	writeJSON(w, http.StatusOK, NewResolvedView(s.router.Lookup(href)))
}

func (s *Server) handleCurrent(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, NewResolvedView(s.router.Current()))
}

// ResolveRequest is the body of POST /resolve.
type ResolveRequest struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
	Query  url.Values     `json:"query,omitempty"`
	Hash   string         `json:"hash,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, req *http.Request) {
	var body ResolveRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var opts []router.ResolveOption
	if len(body.Query) > 0 {
		opts = append(opts, router.WithQuery(body.Query))
	}
	if body.Hash != "" {
		opts = append(opts, router.WithHash(body.Hash))
	}
	href, err := s.router.Resolve(body.Name, body.Params, opts...)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"href": href})
}

// NavigateRequest is the body of POST /navigate. A URL source must be a
// path within the application; full and protocol-relative URLs are
// rejected.
type NavigateRequest struct {
	Source  string         `json:"source"`
	Params  map[string]any `json:"params,omitempty"`
	State   map[string]any `json:"state,omitempty"`
	Replace bool           `json:"replace,omitempty"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, req *http.Request) {
	var body NavigateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if router.IsURL(body.Source) {
		if err := routepath.ValidateNavigationTarget(body.Source); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("navigate to %q: %w", body.Source, err))
			return
		}
	}

	navigate := s.router.Push
	if body.Replace {
		navigate = s.router.Replace
	}
	to, err := navigate(req.Context(), body.Source, body.Params, router.WithState(body.State))
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, NewResolvedView(to))
}

// statusOf maps router errors to HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, routeerr.ErrRouteNotFound):
		return http.StatusNotFound
	case errors.Is(err, routeerr.ErrRouteDisabled), errors.Is(err, router.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, routeerr.ErrInvalidParamValue), errors.Is(err, routeerr.ErrInvalidRouteURL):
		return http.StatusUnprocessableEntity
	case errors.Is(err, router.ErrTooManyRedirects):
		return http.StatusLoopDetected
	case errors.Is(err, context.Canceled):
		return 499
	}
	return http.StatusInternalServerError
}

// errorBody is the JSON error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), Code: routeerr.Code(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
