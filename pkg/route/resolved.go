package route

import "net/url"

// RejectionType discriminates rejection results.
type RejectionType string

// NotFound is the rejection used when no route matches.
const NotFound RejectionType = "NotFound"

// Rejection stands in for a route when navigation cannot resolve one.
// It never carries params.
type Rejection struct {
	Type      RejectionType
	Component any
}

// ResolvedRoute is the result of resolving one URL against the routes.
// A new value is produced for every navigation; it is never mutated after
// it is returned.
type ResolvedRoute struct {
	// Route is the matched route. It is nil for rejections.
	Route *Route

	// Name is the route key.
	Name string

	// Matched is the route's own definition.
	Matched *Matched

	// Matches lists the definitions from the root to the route.
	Matches []*Matched

	// Params are the decoded host, path, query and hash params.
	Params map[string]any

	// Query is every key/value of the URL query, declared or not.
	Query url.Values

	// Hash is the URL fragment without "#".
	Hash string

	// State is the decoded navigation state.
	State map[string]any

	// Href is the URL the route was resolved from.
	Href string

	// Rejection is set when no route was resolved.
	Rejection *Rejection
}

// IsRejection reports whether r stands for a rejection.
func (r *ResolvedRoute) IsRejection() bool {
	return r != nil && r.Rejection != nil
}

// NewRejected returns the resolved value of a rejection for href.
func NewRejected(rejection *Rejection, href string) *ResolvedRoute {
	return &ResolvedRoute{
		Name:      string(rejection.Type),
		Params:    map[string]any{},
		Query:     url.Values{},
		State:     map[string]any{},
		Href:      href,
		Rejection: rejection,
	}
}

// Param returns a decoded param value.
func (r *ResolvedRoute) Param(name string) (any, bool) {
	v, ok := r.Params[name]
	return v, ok
}
