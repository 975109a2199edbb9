package router

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vango-dev/vroute/pkg/matcher"
	"github.com/vango-dev/vroute/pkg/observe"
	"github.com/vango-dev/vroute/pkg/route"
	"github.com/vango-dev/vroute/pkg/routeerr"
	"github.com/vango-dev/vroute/pkg/routepath"
	"github.com/vango-dev/vroute/pkg/urlbuild"
)

// DefaultMaxRedirects bounds the redirects one navigation may follow.
const DefaultMaxRedirects = 10

// Observer receives router events. The telemetry package provides
// Prometheus and OpenTelemetry implementations.
type Observer interface {
	// Resolved is called after every URL lookup.
	Resolved(href string, resolved *route.ResolvedRoute, elapsed time.Duration)

	// Navigation is called when a navigation starts. The returned function
	// is called once the navigation ends, with the committed route or the
	// error that stopped it.
	Navigation(ctx context.Context, mode Mode, target string) (context.Context, func(to *route.ResolvedRoute, err error))
}

// Router resolves URLs and names against composed routes and holds the
// current route.
type Router struct {
	routes  []*route.Route
	enabled []*route.Route
	byName  map[string]*route.Route

	logger       *slog.Logger
	observer     Observer
	history      History
	rejections   map[route.RejectionType]any
	maxRedirects int

	current *observe.Subject[*route.ResolvedRoute]

	beforeEach registry[route.BeforeHook]
	afterEach  registry[route.AfterHook]

	// seq identifies the latest navigation.
	seq atomic.Uint64
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver reports lookups and navigations to o.
func WithObserver(o Observer) Option {
	return func(r *Router) {
		r.observer = o
	}
}

// WithHistory sets the history navigations are written to. The default is
// an in-memory history.
func WithHistory(h History) Option {
	return func(r *Router) {
		if h != nil {
			r.history = h
		}
	}
}

// WithRejection sets the component carried by rejections of type t.
func WithRejection(t route.RejectionType, component any) Option {
	return func(r *Router) {
		r.rejections[t] = component
	}
}

// WithMaxRedirects bounds the redirects one navigation may follow.
func WithMaxRedirects(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxRedirects = n
		}
	}
}

// New composes defs and returns a router over the result. Composition
// errors and duplicate route names are returned before any navigation can
// happen.
func New(defs []route.Definition, opts ...Option) (*Router, error) {
	routes, err := route.Compose(defs...)
	if err != nil {
		return nil, err
	}
	return NewFromRoutes(routes, opts...)
}

// NewFromRoutes returns a router over already composed routes.
func NewFromRoutes(routes []*route.Route, opts ...Option) (*Router, error) {
	r := &Router{
		routes:       routes,
		byName:       make(map[string]*route.Route, len(routes)),
		logger:       slog.Default(),
		history:      NewMemoryHistory(),
		rejections:   map[route.RejectionType]any{},
		maxRedirects: DefaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "router")

	for _, rt := range routes {
		if !rt.IsNamed() {
			continue
		}
		if _, exists := r.byName[rt.Key]; exists {
			return nil, &routeerr.DuplicateNamesError{Name: rt.Key}
		}
		r.byName[rt.Key] = rt
		if !rt.Disabled() {
			r.enabled = append(r.enabled, rt)
		}
	}

	r.current = observe.NewSubject(r.reject(route.NotFound, ""))
	r.logger.Debug("router created", "routes", len(routes), "named", len(r.byName))
	return r, nil
}

// Routes returns every composed route, unnamed ones included.
func (r *Router) Routes() []*route.Route {
	return append([]*route.Route(nil), r.routes...)
}

// Route returns the route registered under name.
func (r *Router) Route(name string) (*route.Route, bool) {
	rt, ok := r.byName[name]
	return rt, ok
}

// Current returns the route of the last committed navigation. Before the
// first navigation it is a NotFound rejection.
func (r *Router) Current() *route.ResolvedRoute {
	return r.current.Get()
}

// Subscribe calls fn with every newly committed route. The returned
// function removes the subscription.
func (r *Router) Subscribe(fn func(*route.ResolvedRoute)) (unsubscribe func()) {
	return r.current.Subscribe(fn)
}

// Lookup resolves a URL. It never fails: a URL that does not parse or
// matches no route resolves to a NotFound rejection.
func (r *Router) Lookup(href string) *route.ResolvedRoute {
	start := time.Now()
	resolved := r.lookup(href)
	if r.observer != nil {
		r.observer.Resolved(href, resolved, time.Since(start))
	}
	return resolved
}

func (r *Router) lookup(href string) *route.ResolvedRoute {
	u, err := routepath.Parse(href)
	if err != nil {
		r.logger.Debug("unparseable url", "url", href, "error", err)
		return r.reject(route.NotFound, href)
	}
	res, ok := matcher.Match(r.enabled, u)
	if !ok {
		r.logger.Debug("no route matched", "url", href)
		return r.reject(route.NotFound, href)
	}
	r.logger.Debug("route matched", "url", href, "route", res.Route.Key, "rank", res.Describe())
	return newResolved(res.Route, res.Params, u, href)
}

// Find resolves a route name with params, or a URL. It reports false when
// the name is unknown or disabled, a param does not encode or no route
// matches the URL.
func (r *Router) Find(source string, params map[string]any) (*route.ResolvedRoute, bool) {
	if IsURL(source) {
		resolved := r.Lookup(source)
		return resolved, !resolved.IsRejection()
	}

	rt, ok := r.byName[source]
	if !ok || rt.Disabled() {
		return nil, false
	}
	href, err := urlbuild.Assemble(rt, urlbuild.Values{Params: params})
	if err != nil {
		return nil, false
	}
	u, err := routepath.Parse(href)
	if err != nil {
		return nil, false
	}
	decoded, err := matcher.ExtractParams(rt, u)
	if err != nil {
		return nil, false
	}
	return newResolved(rt, decoded, u, href), true
}

// Resolve returns the URL of a route name with params. A URL source is
// returned with the query and hash options applied.
func (r *Router) Resolve(source string, params map[string]any, opts ...ResolveOption) (string, error) {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}

	if IsURL(source) {
		return applyURLOptions(source, o), nil
	}

	rt, ok := r.byName[source]
	if !ok {
		return "", &routeerr.RouteNotFoundError{Name: source}
	}
	if rt.Disabled() {
		return "", &routeerr.RouteDisabledError{Name: source}
	}
	return urlbuild.Assemble(rt, urlbuild.Values{Params: params, Query: o.query, Hash: o.hash})
}

func (r *Router) reject(t route.RejectionType, href string) *route.ResolvedRoute {
	return route.NewRejected(&route.Rejection{Type: t, Component: r.rejections[t]}, href)
}

func newResolved(rt *route.Route, params map[string]any, u routepath.URL, href string) *route.ResolvedRoute {
	return &route.ResolvedRoute{
		Route:   rt,
		Name:    rt.Key,
		Matched: rt.Matched,
		Matches: rt.Matches,
		Params:  params,
		Query:   u.Query,
		Hash:    u.Hash,
		State:   map[string]any{},
		Href:    href,
	}
}

// IsURL reports whether source is a URL rather than a route name: it starts
// with "/" or carries a scheme.
func IsURL(source string) bool {
	if strings.HasPrefix(source, "/") {
		return true
	}
	i := strings.Index(source, "://")
	return i > 0 && !strings.ContainsAny(source[:i], "/?#")
}

func applyURLOptions(href string, o resolveOptions) string {
	if len(o.query) == 0 && o.hash == "" {
		return href
	}
	base, hash, _ := strings.Cut(href, "#")
	if o.hash != "" {
		hash = strings.TrimLeft(o.hash, "#")
	}
	if len(o.query) > 0 {
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		base += sep + o.query.Encode()
	}
	if hash != "" {
		return base + "#" + hash
	}
	return base
}

// ResolveOption configures Resolve and navigation targets.
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	query url.Values
	hash  string
}

// WithQuery appends query pairs after the route's own query.
func WithQuery(query url.Values) ResolveOption {
	return func(o *resolveOptions) {
		if o.query == nil {
			o.query = url.Values{}
		}
		for k, vs := range query {
			o.query[k] = append(o.query[k], vs...)
		}
	}
}

// WithHash sets the URL fragment.
func WithHash(hash string) ResolveOption {
	return func(o *resolveOptions) {
		o.hash = hash
	}
}
