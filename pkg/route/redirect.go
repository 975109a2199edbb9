package route

import "github.com/vango-dev/vroute/pkg/routeerr"

// ParamMapper derives the params of a redirect target from the params of
// the route being left. A nil mapper passes params through unchanged.
type ParamMapper func(params map[string]any) map[string]any

// Redirect is a redirect association between two routes.
type Redirect struct {
	// From is the route that redirects.
	From *Route

	// To is the route navigated to instead.
	To *Route

	// Mapper converts From's params into To's params.
	Mapper ParamMapper
}

// MapParams applies the mapper, or copies params when there is none.
func (rd Redirect) MapParams(params map[string]any) map[string]any {
	if rd.Mapper != nil {
		return rd.Mapper(params)
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

// RedirectTo makes navigations to r continue to target. A route has at most
// one outgoing redirect; a second registration returns a
// MultipleRedirectsError and leaves the first in place.
func (r *Route) RedirectTo(target *Route, mapper ParamMapper) error {
	rd := &Redirect{From: r, To: target, Mapper: mapper}
	if err := r.setRedirectTo(rd); err != nil {
		return err
	}
	if err := target.setRedirectFrom(rd); err != nil {
		r.clearRedirectTo(rd)
		return err
	}
	return nil
}

// RedirectFrom makes navigations to source continue to r. It is the mirror
// of source.RedirectTo(r, mapper) and follows the same single-assignment
// rule in both directions.
func (r *Route) RedirectFrom(source *Route, mapper ParamMapper) error {
	return source.RedirectTo(r, mapper)
}

// RedirectTarget returns the outgoing redirect of r.
func (r *Route) RedirectTarget() (Redirect, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.redirectTo == nil {
		return Redirect{}, false
	}
	return *r.redirectTo, true
}

// RedirectSource returns the incoming redirect of r.
func (r *Route) RedirectSource() (Redirect, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.redirectFrom == nil {
		return Redirect{}, false
	}
	return *r.redirectFrom, true
}

func (r *Route) setRedirectTo(rd *Redirect) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.redirectTo != nil {
		return &routeerr.MultipleRedirectsError{Route: r.describe(), Direction: "to"}
	}
	r.redirectTo = rd
	return nil
}

func (r *Route) clearRedirectTo(rd *Redirect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.redirectTo == rd {
		r.redirectTo = nil
	}
}

func (r *Route) setRedirectFrom(rd *Redirect) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.redirectFrom != nil {
		return &routeerr.MultipleRedirectsError{Route: r.describe(), Direction: "from"}
	}
	r.redirectFrom = rd
	return nil
}

// describe names the route in errors, falling back to its path template.
func (r *Route) describe() string {
	if r.Key != "" {
		return r.Key
	}
	return r.Path.Template
}
