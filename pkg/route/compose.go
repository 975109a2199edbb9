package route

import (
	"sort"
	"strings"

	"github.com/vango-dev/vroute/pkg/param"
	"github.com/vango-dev/vroute/pkg/routeerr"
	"github.com/vango-dev/vroute/pkg/template"
)

// Definition declares a route and, through Children, its nested routes.
type Definition struct {
	// Name is joined with the names of named ancestors to form the key.
	// Unnamed routes still contribute their templates to their children.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Host, Path, Query and Hash are templates appended to the parent's.
	// Templates are concatenated as strings, so they carry their own
	// separators ("/users", "/[id]"). Query templates are joined with "&".
	Host  string `json:"host,omitempty" yaml:"host,omitempty"`
	Path  string `json:"path,omitempty" yaml:"path,omitempty"`
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
	Hash  string `json:"hash,omitempty" yaml:"hash,omitempty"`

	// Params overrides the String default of placeholders in this
	// definition's own templates.
	Params map[string]param.Param `json:"-" yaml:"-"`

	Disabled   bool           `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Component  any            `json:"-" yaml:"-"`
	Components map[string]any `json:"-" yaml:"-"`
	Props      any            `json:"-" yaml:"-"`
	Meta       map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
	Title      string         `json:"title,omitempty" yaml:"title,omitempty"`

	// State declares typed navigation state params.
	State map[string]param.Param `json:"-" yaml:"-"`

	BeforeEnter []BeforeHook `json:"-" yaml:"-"`
	AfterEnter  []AfterHook  `json:"-" yaml:"-"`

	Children []Definition `json:"children,omitempty" yaml:"children,omitempty"`
}

// Compose flattens definitions into routes.
func Compose(defs ...Definition) ([]*Route, error) {
	return ComposeWith(nil, defs...)
}

// ComposeWith flattens definitions as children of parent. A nil parent
// composes top-level routes.
func ComposeWith(parent *Route, defs ...Definition) ([]*Route, error) {
	var routes []*Route
	for _, def := range defs {
		composed, err := composeOne(parent, def)
		if err != nil {
			return nil, err
		}
		routes = append(routes, composed...)
	}
	return routes, nil
}

// composeOne returns the route of def, when def is named or a leaf,
// followed by the routes of its descendants.
func composeOne(parent *Route, def Definition) ([]*Route, error) {
	r, err := newRoute(parent, def)
	if err != nil {
		return nil, err
	}

	if len(def.Children) == 0 {
		return []*Route{r}, nil
	}

	var routes []*Route
	if r.IsNamed() {
		routes = append(routes, r)
	}
	children, err := ComposeWith(r, def.Children...)
	if err != nil {
		return nil, err
	}
	return append(routes, children...), nil
}

func newRoute(parent *Route, def Definition) (*Route, error) {
	matched := &Matched{
		Name:        def.Name,
		Disabled:    def.Disabled,
		Component:   def.Component,
		Components:  def.Components,
		Props:       def.Props,
		Meta:        def.Meta,
		Title:       def.Title,
		State:       def.State,
		BeforeEnter: def.BeforeEnter,
		AfterEnter:  def.AfterEnter,
	}
	if len(def.Children) > 0 && matched.Component == nil && len(matched.Components) == 0 {
		matched.Component = NestedView
	}

	r := &Route{Matched: matched}

	var (
		parentKey   string
		parentParts [4]*Part
	)
	if parent != nil {
		parentKey = nearestKey(parent)
		r.Matches = append(r.Matches, parent.Matches...)
		parentParts = [4]*Part{parent.Host, parent.Path, parent.Query, parent.Hash}
	}
	r.Matches = append(r.Matches, matched)
	r.Depth = len(r.Matches)

	if def.Name != "" {
		r.Key = joinKey(parentKey, def.Name)
	} else if parent != nil {
		r.unnamedKey = parentKey
	}

	own := [4]string{def.Host, def.Path, def.Query, def.Hash}
	contexts := [4]template.Context{template.HostContext, template.PathContext, template.QueryContext, template.HashContext}

	var parts [4]*Part
	seen := make(map[string]bool)
	var dups []string

	for i, ctx := range contexts {
		ownParams, err := template.ExtractParams(own[i], def.Params)
		if err != nil {
			return nil, err
		}

		tmpl := own[i]
		merged := make(map[string]param.Param, len(ownParams))
		if pp := parentParts[i]; pp != nil {
			tmpl = combine(ctx, pp.Template, own[i])
			for name, p := range pp.Params {
				merged[name] = p
			}
		}
		for name, p := range ownParams {
			if _, exists := merged[name]; exists {
				// Reported below with the cross-part check.
				dups = append(dups, name)
				continue
			}
			merged[name] = p
		}

		for name := range merged {
			if seen[name] {
				dups = append(dups, name)
			}
			seen[name] = true
		}

		part, err := newPart(tmpl, merged, ctx)
		if err != nil {
			return nil, err
		}
		parts[i] = part
	}

	if len(dups) > 0 {
		return nil, &routeerr.DuplicateParamsError{Names: uniqueSorted(dups)}
	}

	r.Host, r.Path, r.Query, r.Hash = parts[0], parts[1], parts[2], parts[3]
	return r, nil
}

func combine(ctx template.Context, parent, child string) string {
	if ctx == template.QueryContext {
		return template.JoinQuery(parent, child)
	}
	return parent + child
}

// nearestKey is the key prefix children of r inherit.
func nearestKey(r *Route) string {
	if r.Key != "" {
		return r.Key
	}
	return r.unnamedKey
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func uniqueSorted(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0:0]
	for _, n := range names {
		n = strings.TrimPrefix(n, "?")
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
