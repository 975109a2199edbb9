// Package route holds the route data model and the composer that flattens a
// declared route tree into routes.
//
// A Definition is plain data: a name, host/path/query/hash templates, param
// overrides and whatever the rendering layer needs (component, props, meta).
// Compose walks the tree and produces one Route per named or leaf node, each
// carrying the concatenated templates of its ancestors:
//
//	routes, err := route.Compose(route.Definition{
//	    Name: "users",
//	    Path: "/users",
//	    Children: []route.Definition{
//	        {Name: "show", Path: "/[id]", Params: map[string]param.Param{"id": param.Number}},
//	    },
//	})
//	// routes[1].Key == "users.show", routes[1].Path.Template == "/users/[id]"
//
// Routes are immutable after composition. The only later mutation is the
// single-assignment redirect registration (see Route.RedirectTo).
package route

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/vango-dev/vroute/pkg/param"
	"github.com/vango-dev/vroute/pkg/template"
)

// BeforeHook runs before a navigation to a route commits. Returning an
// error aborts or redirects the navigation, depending on the error.
type BeforeHook func(ctx context.Context, to, from *ResolvedRoute) error

// AfterHook runs after a navigation commits.
type AfterHook func(ctx context.Context, to, from *ResolvedRoute)

// nestedView is the pass-through component of parents that declare none.
type nestedView struct{}

func (nestedView) String() string { return "NestedView" }

// NestedView is the default component of a parent route that declares no
// component. Renderers treat it as "render the matched child here".
var NestedView any = nestedView{}

// Matched is a route's own definition, without ancestor data.
type Matched struct {
	Name        string
	Disabled    bool
	Component   any
	Components  map[string]any
	Props       any
	Meta        map[string]any
	Title       string
	State       map[string]param.Param
	BeforeEnter []BeforeHook
	AfterEnter  []AfterHook
}

// Part is one URL part (host, path, query or hash) of a composed route.
type Part struct {
	// Template is the composed template string.
	Template string

	// Params maps every placeholder name to its param.
	Params map[string]param.Param

	codecs  map[string]param.Codec
	pattern *template.Pattern
	query   []template.QueryPair
}

func newPart(tmpl string, params map[string]param.Param, ctx template.Context) (*Part, error) {
	if ctx == template.HashContext {
		tmpl = strings.TrimLeft(tmpl, "#")
	}
	p := &Part{
		Template: tmpl,
		Params:   params,
		codecs:   make(map[string]param.Codec, len(params)),
	}
	for name, prm := range params {
		p.codecs[name] = param.Normalize(name, prm)
	}

	// A param with a default is optional even without the [?name] marker.
	optional := func(name string) bool { return p.codecs[name].Optional() }

	var err error
	if ctx == template.QueryContext {
		p.query, err = template.ParseQueryWith(tmpl, optional)
	} else {
		p.pattern, err = template.CompileWith(tmpl, ctx, optional)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Codec returns the normalized codec of a param.
func (p *Part) Codec(name string) (param.Codec, bool) {
	c, ok := p.codecs[name]
	return c, ok
}

// Pattern returns the compiled host, path or hash pattern. It is nil for
// query parts.
func (p *Part) Pattern() *template.Pattern { return p.pattern }

// QueryPairs returns the parsed pairs of a query part.
func (p *Part) QueryPairs() []template.QueryPair { return p.query }

// IsEmpty reports whether the part has no template.
func (p *Part) IsEmpty() bool { return p.Template == "" }

// Names returns the param names of the part, sorted.
func (p *Part) Names() []string {
	names := make([]string, 0, len(p.Params))
	for name := range p.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Route is a composed route.
type Route struct {
	// Key is the dot-joined names of the named ancestors and the route
	// itself. It is empty when the route's own name is empty.
	Key string

	// Matched is the route's own definition.
	Matched *Matched

	// Matches lists the definitions from the root to the route itself.
	Matches []*Matched

	Host  *Part
	Path  *Part
	Query *Part
	Hash  *Part

	// Depth is len(Matches).
	Depth int

	// unnamedKey is the key prefix an unnamed route passes to its children.
	unnamedKey string

	mu           sync.Mutex
	redirectTo   *Redirect
	redirectFrom *Redirect
}

// Name returns the route key.
func (r *Route) Name() string { return r.Key }

// IsNamed reports whether the route takes part in name lookup and matching.
func (r *Route) IsNamed() bool { return r.Key != "" }

// Disabled reports whether the route's own definition is disabled.
func (r *Route) Disabled() bool { return r.Matched.Disabled }

// Parts returns the host, path, query and hash parts in that order.
func (r *Route) Parts() []*Part {
	return []*Part{r.Host, r.Path, r.Query, r.Hash}
}

// Codec returns the codec of a param declared in any part.
func (r *Route) Codec(name string) (param.Codec, bool) {
	for _, p := range r.Parts() {
		if c, ok := p.Codec(name); ok {
			return c, true
		}
	}
	return param.Codec{}, false
}

// ParamNames returns the names of every param of the route, sorted.
func (r *Route) ParamNames() []string {
	var names []string
	for _, p := range r.Parts() {
		names = append(names, p.Names()...)
	}
	sort.Strings(names)
	return names
}

// Title returns the nearest non-empty title from the route up to the root.
func (r *Route) Title() string {
	for i := len(r.Matches) - 1; i >= 0; i-- {
		if r.Matches[i].Title != "" {
			return r.Matches[i].Title
		}
	}
	return ""
}
