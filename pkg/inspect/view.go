package inspect

import (
	"fmt"
	"net/url"

	"github.com/vango-dev/vroute/pkg/route"
)

// RouteView is the JSON form of a composed route.
type RouteView struct {
	Name       string      `json:"name"`
	Depth      int         `json:"depth"`
	Host       string      `json:"host,omitempty"`
	Path       string      `json:"path"`
	Query      string      `json:"query,omitempty"`
	Hash       string      `json:"hash,omitempty"`
	Params     []ParamView `json:"params,omitempty"`
	Title      string      `json:"title,omitempty"`
	Disabled   bool        `json:"disabled,omitempty"`
	RedirectTo string      `json:"redirectTo,omitempty"`
}

// ParamView describes one route param.
type ParamView struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional,omitempty"`
}

// NewRouteView describes rt.
func NewRouteView(rt *route.Route) RouteView {
	v := RouteView{
		Name:     rt.Key,
		Depth:    rt.Depth,
		Host:     rt.Host.Template,
		Path:     rt.Path.Template,
		Query:    rt.Query.Template,
		Hash:     rt.Hash.Template,
		Title:    rt.Title(),
		Disabled: rt.Disabled(),
	}
	for _, name := range rt.ParamNames() {
		c, _ := rt.Codec(name)
		v.Params = append(v.Params, ParamView{Name: name, Type: c.String(), Optional: c.Optional()})
	}
	if rd, ok := rt.RedirectTarget(); ok {
		v.RedirectTo = rd.To.Key
	}
	return v
}

// ResolvedView is the JSON form of a resolved route.
type ResolvedView struct {
	Name      string         `json:"name"`
	Href      string         `json:"href"`
	Params    map[string]any `json:"params"`
	Query     url.Values     `json:"query,omitempty"`
	Hash      string         `json:"hash,omitempty"`
	State     map[string]any `json:"state,omitempty"`
	Title     string         `json:"title,omitempty"`
	Matches   []string       `json:"matches,omitempty"`
	Rejection string         `json:"rejection,omitempty"`
}

// NewResolvedView describes res.
func NewResolvedView(res *route.ResolvedRoute) ResolvedView {
	v := ResolvedView{
		Name:   res.Name,
		Href:   res.Href,
		Params: jsonParams(res.Params),
		Query:  res.Query,
		Hash:   res.Hash,
		State:  jsonParams(res.State),
	}
	if res.IsRejection() {
		v.Rejection = string(res.Rejection.Type)
		return v
	}
	if res.Route != nil {
		v.Title = res.Route.Title()
	}
	for _, m := range res.Matches {
		if m.Name != "" {
			v.Matches = append(v.Matches, m.Name)
		}
	}
	return v
}

// jsonParams renders Stringer values, such as uuid.UUID, as strings.
func jsonParams(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if s, ok := v.(fmt.Stringer); ok {
			out[k] = s.String()
			continue
		}
		out[k] = v
	}
	return out
}
