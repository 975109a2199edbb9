// Package matcher selects the composed route that best matches a URL.
//
// A route is a candidate when every rule holds:
//
//  1. the route is named
//  2. the host template matches, when both the URL and the route carry a host
//  3. the path template matches the URL path
//  4. every query pair of the route matches the URL query
//  5. the hash template, if any, matches the URL hash
//  6. every captured value decodes with its param codec
//
// Candidates are ranked by depth, then by the number of optional path and
// query params the URL supplies, then by whether the route's hash matched a
// hash present in the URL. Remaining ties keep route order.
package matcher

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vango-dev/vroute/pkg/route"
	"github.com/vango-dev/vroute/pkg/routepath"
	"github.com/vango-dev/vroute/pkg/template"
)

// ErrNoMatch is returned by ExtractParams when the URL does not fit the
// route's templates.
var ErrNoMatch = errors.New("matcher: url does not match route")

// Result is a candidate route with its decoded params.
type Result struct {
	Route  *route.Route
	Params map[string]any

	// OptionalPresent counts the optional path and query params the URL
	// supplied.
	OptionalPresent int

	// HashMatched is set when the route has a hash template that matched a
	// non-empty URL hash.
	HashMatched bool
}

// Match returns the best candidate for u.
func Match(routes []*route.Route, u routepath.URL) (*Result, bool) {
	all := MatchAll(routes, u)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

// MatchAll returns every candidate for u, best first.
func MatchAll(routes []*route.Route, u routepath.URL) []*Result {
	var out []*Result
	for _, r := range routes {
		if !r.IsNamed() {
			continue
		}
		res, err := evaluate(r, u)
		if err != nil {
			continue
		}
		out = append(out, res)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

// less orders a before b when a is more specific.
func less(a, b *Result) bool {
	if a.Route.Depth != b.Route.Depth {
		return a.Route.Depth > b.Route.Depth
	}
	if a.OptionalPresent != b.OptionalPresent {
		return a.OptionalPresent > b.OptionalPresent
	}
	return a.HashMatched && !b.HashMatched
}

// ExtractParams decodes the params of r from u. It returns ErrNoMatch when
// a template does not match and the codec error when a value does not
// decode. Unnamed routes are accepted.
func ExtractParams(r *route.Route, u routepath.URL) (map[string]any, error) {
	res, err := evaluate(r, u)
	if err != nil {
		return nil, err
	}
	return res.Params, nil
}

// captured is one raw value taken from the URL.
type captured struct {
	raw     string
	present bool
}

func evaluate(r *route.Route, u routepath.URL) (*Result, error) {
	values := make(map[string]captured)
	res := &Result{Route: r}

	if u.Host != "" && !r.Host.IsEmpty() {
		raw, ok := r.Host.Pattern().Match(u.Host)
		if !ok {
			return nil, ErrNoMatch
		}
		for name, v := range raw {
			values[name] = captured{raw: v, present: v != ""}
		}
	}

	raw, ok := r.Path.Pattern().Match(u.Path)
	if !ok {
		return nil, ErrNoMatch
	}
	for _, ph := range r.Path.Pattern().Placeholders() {
		v := raw[ph.Name]
		if v != "" {
			decoded, err := routepath.DecodeSegment(v, ph.CatchAll)
			if err != nil {
				return nil, ErrNoMatch
			}
			v = decoded
		}
		values[ph.Name] = captured{raw: v, present: v != ""}
	}

	for _, pair := range r.Query.QueryPairs() {
		got, ok := matchQueryPair(pair, u)
		if !ok {
			return nil, ErrNoMatch
		}
		for name, v := range got {
			values[name] = captured{raw: v, present: v != ""}
		}
	}

	if !r.Hash.IsEmpty() {
		raw, ok := r.Hash.Pattern().Match(u.Hash)
		if !ok {
			return nil, ErrNoMatch
		}
		for name, v := range raw {
			if v != "" {
				if decoded, err := routepath.DecodeSegment(v, true); err == nil {
					v = decoded
				}
			}
			values[name] = captured{raw: v, present: v != ""}
		}
		res.HashMatched = u.Hash != ""
	}

	params := make(map[string]any, len(values))
	for _, part := range []*route.Part{r.Host, r.Path, r.Query, r.Hash} {
		for _, name := range part.Names() {
			c, _ := part.Codec(name)
			v, seen := values[name]
			if !seen && part == r.Host {
				// Host params are only decoded when hosts were compared.
				continue
			}
			decoded, err := c.Decode(v.raw, v.present)
			if err != nil {
				return nil, err
			}
			params[name] = decoded
			if v.present && c.Optional() && (part == r.Path || part == r.Query) {
				res.OptionalPresent++
			}
		}
	}
	res.Params = params
	return res, nil
}

// matchQueryPair matches one pair against the values of its key. An absent
// key matches when the value template accepts the empty string.
func matchQueryPair(pair template.QueryPair, u routepath.URL) (map[string]string, bool) {
	candidates, ok := u.Query[pair.Key]
	if !ok || len(candidates) == 0 {
		return pair.Value.Match("")
	}
	for _, v := range candidates {
		if got, ok := pair.Value.Match(v); ok {
			return got, true
		}
	}
	return nil, false
}

// Describe explains how a result was ranked, e.g.
// "depth=2 optional=1 hash=false".
func (r *Result) Describe() string {
	return fmt.Sprintf("depth=%d optional=%d hash=%t", r.Route.Depth, r.OptionalPresent, r.HashMatched)
}
