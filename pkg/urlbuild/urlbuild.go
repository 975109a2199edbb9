// Package urlbuild assembles URLs from routes and typed param values.
//
// Assembly is the inverse of matching: every placeholder is filled with its
// codec's encoding at the same position the matcher captures it from, so a
// URL built here matches its route and decodes back to the same values.
package urlbuild

import (
	"net/url"
	"sort"
	"strings"

	"github.com/vango-dev/vroute/pkg/route"
	"github.com/vango-dev/vroute/pkg/routeerr"
	"github.com/vango-dev/vroute/pkg/routepath"
	"github.com/vango-dev/vroute/pkg/template"
)

// Values are the inputs of one assembly.
type Values struct {
	// Params are typed values keyed by param name. Missing params encode
	// as nil.
	Params map[string]any

	// Query holds extra pairs appended after the route's own query. Keys
	// are written in sorted order and repeated keys are kept.
	Query url.Values

	// Hash replaces the route's hash when set.
	Hash string
}

// Assemble builds the URL of r.
func Assemble(r *route.Route, v Values) (string, error) {
	var b strings.Builder

	if !r.Host.IsEmpty() {
		host, err := fill(r.Host, v.Params, func(s string, _ template.Placeholder) string { return s })
		if err != nil {
			return "", err
		}
		if !hasScheme(host) {
			b.WriteString("https://")
		}
		b.WriteString(host)
	}

	path, err := fill(r.Path, v.Params, func(s string, ph template.Placeholder) string {
		return routepath.EscapeSegment(s, ph.CatchAll)
	})
	if err != nil {
		return "", err
	}
	if path == "" && r.Host.IsEmpty() {
		path = "/"
	}
	if path != "" && !strings.HasPrefix(path, "/") && !hasScheme(path) {
		return "", &routeerr.InvalidRouteURLError{URL: b.String() + path}
	}
	b.WriteString(path)

	query, err := assembleQuery(r.Query, v)
	if err != nil {
		return "", err
	}
	if query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}

	hash := strings.TrimLeft(v.Hash, "#")
	if hash == "" && !r.Hash.IsEmpty() {
		hash, err = fill(r.Hash, v.Params, func(s string, _ template.Placeholder) string {
			return routepath.EscapeSegment(s, true)
		})
		if err != nil {
			return "", err
		}
	}
	if hash != "" {
		b.WriteByte('#')
		b.WriteString(hash)
	}

	out := b.String()
	if _, err := url.Parse(out); err != nil {
		return "", &routeerr.InvalidRouteURLError{URL: out, Err: err}
	}
	return out, nil
}

// fill encodes every placeholder of a host, path or hash part.
func fill(part *route.Part, params map[string]any, escape func(string, template.Placeholder) string) (string, error) {
	pat := part.Pattern()
	encoded := make(map[string]string, len(pat.Placeholders()))
	for _, ph := range pat.Placeholders() {
		s, err := encode(part, ph.Name, params)
		if err != nil {
			return "", err
		}
		encoded[ph.Name] = escape(s, ph)
	}
	return pat.Fill(encoded), nil
}

func encode(part *route.Part, name string, params map[string]any) (string, error) {
	c, ok := part.Codec(name)
	if !ok {
		return "", &routeerr.InvalidParamValueError{Param: name}
	}
	return c.Encode(params[name])
}

// assembleQuery writes the route's query pairs followed by the extra pairs
// of v. A pair whose optional placeholders all encode to "" is left out.
func assembleQuery(part *route.Part, v Values) (string, error) {
	var pairs []string

	for _, pair := range part.QueryPairs() {
		encoded := make(map[string]string)
		optional := false
		for _, ph := range pair.Value.Placeholders() {
			s, err := encode(part, ph.Name, v.Params)
			if err != nil {
				return "", err
			}
			encoded[ph.Name] = s
			if ph.Optional {
				optional = true
			} else if c, ok := part.Codec(ph.Name); ok && c.Optional() {
				optional = true
			}
		}
		value := pair.Value.Fill(encoded)
		if value == "" && optional {
			continue
		}
		pairs = append(pairs, url.QueryEscape(pair.Key)+"="+url.QueryEscape(value))
	}

	keys := make([]string, 0, len(v.Query))
	for k := range v.Query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, val := range v.Query[k] {
			pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(val))
		}
	}

	return strings.Join(pairs, "&"), nil
}

func hasScheme(s string) bool {
	i := strings.Index(s, "://")
	return i > 0 && !strings.ContainsAny(s[:i], "/?#")
}
