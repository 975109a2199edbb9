// Package template parses route templates.
//
// A template is literal text with parameter placeholders:
//
//	[id]        required
//	[?tab]      optional
//	[...rest]   catch-all, may span "/" (path and host only)
//
// The same syntax is used for host, path, query values and hash. Parse
// reports the placeholders, ExtractParams resolves them into params and
// Compile builds the anchored regular expression used for matching:
//
//	pat, _ := template.Compile("/users/[id]", template.PathContext)
//	raw, ok := pat.Match("/users/42")
//	// raw["id"] == "42"
//
// Pattern.Fill performs the inverse substitution with the same placeholder
// alignment, which keeps matching and URL assembly symmetric.
package template

import (
	"regexp"
	"strings"

	"github.com/vango-dev/vroute/pkg/param"
	"github.com/vango-dev/vroute/pkg/routeerr"
)

// Context selects the character class a placeholder may capture.
type Context uint8

const (
	// PathContext placeholders stop at "/".
	PathContext Context = iota

	// HostContext placeholders stop at "/".
	HostContext

	// QueryContext placeholders capture anything within one query value.
	QueryContext

	// HashContext placeholders capture anything within the fragment.
	HashContext
)

func (c Context) String() string {
	switch c {
	case PathContext:
		return "path"
	case HostContext:
		return "host"
	case QueryContext:
		return "query"
	case HashContext:
		return "hash"
	}
	return "unknown"
}

// Placeholder is one parameter reference inside a template.
type Placeholder struct {
	// Name is the parameter name without markers.
	Name string

	// Optional is set for [?name].
	Optional bool

	// CatchAll is set for [...name].
	CatchAll bool

	// Start and End are the byte offsets of the placeholder, brackets included.
	Start, End int
}

var (
	placeholderRe = regexp.MustCompile(`\[([^\[\]]*)\]`)
	nameRe        = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Parse returns the placeholders of tmpl in order of appearance.
// A name used twice in one template is a DuplicateParamsError.
func Parse(tmpl string) ([]Placeholder, error) {
	locs := placeholderRe.FindAllStringSubmatchIndex(tmpl, -1)
	if len(locs) == 0 {
		return nil, nil
	}

	out := make([]Placeholder, 0, len(locs))
	seen := make(map[string]bool, len(locs))
	var dups []string

	for _, loc := range locs {
		inner := tmpl[loc[2]:loc[3]]
		ph := Placeholder{Start: loc[0], End: loc[1]}

		if strings.HasPrefix(inner, "?") {
			ph.Optional = true
			inner = inner[1:]
		}
		if strings.HasPrefix(inner, "...") {
			ph.CatchAll = true
			inner = inner[3:]
		}
		if !nameRe.MatchString(inner) {
			return nil, &routeerr.TemplateSyntaxError{
				Template: tmpl,
				Offset:   loc[0],
				Reason:   "placeholder name must be letters, digits, '_' or '-'",
			}
		}
		ph.Name = inner

		if seen[ph.Name] {
			dups = append(dups, ph.Name)
		}
		seen[ph.Name] = true
		out = append(out, ph)
	}

	if len(dups) > 0 {
		return nil, &routeerr.DuplicateParamsError{Names: dups}
	}
	return out, nil
}

// ExtractParams resolves every placeholder of tmpl into a Param. An
// override with the placeholder's name wins over the String default, and
// [?name] placeholders are wrapped in param.Optional.
func ExtractParams(tmpl string, overrides map[string]param.Param) (map[string]param.Param, error) {
	phs, err := Parse(tmpl)
	if err != nil {
		return nil, err
	}

	params := make(map[string]param.Param, len(phs))
	for _, ph := range phs {
		p, ok := overrides[ph.Name]
		if !ok {
			p = param.String
		}
		if ph.Optional {
			p = param.Optional(p)
		}
		params[ph.Name] = p
	}
	return params, nil
}

// Pattern is a compiled template.
type Pattern struct {
	template     string
	context      Context
	placeholders []Placeholder
	re           *regexp.Regexp
}

// Compile builds the matching expression for tmpl. Literal text is quoted,
// required placeholders capture at least one character and optional ones
// may capture none. Path and host matching is case-insensitive, as is hash
// matching. Path patterns also accept one trailing slash.
func Compile(tmpl string, ctx Context) (*Pattern, error) {
	return CompileWith(tmpl, ctx, nil)
}

// CompileWith is like Compile, but a placeholder also captures the empty
// string when optional reports true for its name. Routes pass the codecs'
// Optional so that params with a default may be absent from the URL.
func CompileWith(tmpl string, ctx Context, optional func(name string) bool) (*Pattern, error) {
	phs, err := Parse(tmpl)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	if ctx != QueryContext {
		b.WriteString("(?i)")
	}
	b.WriteString("^")

	last := 0
	for _, ph := range phs {
		b.WriteString(regexp.QuoteMeta(tmpl[last:ph.Start]))
		b.WriteString(capture(ph, ctx, ph.Optional || (optional != nil && optional(ph.Name))))
		last = ph.End
	}
	tail := tmpl[last:]
	if ctx == PathContext {
		tail = strings.TrimSuffix(tail, "/")
	}
	b.WriteString(regexp.QuoteMeta(tail))
	if ctx == PathContext {
		b.WriteString("/?")
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, &routeerr.TemplateSyntaxError{Template: tmpl, Reason: err.Error()}
	}

	return &Pattern{
		template:     tmpl,
		context:      ctx,
		placeholders: phs,
		re:           re,
	}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(tmpl string, ctx Context) *Pattern {
	p, err := Compile(tmpl, ctx)
	if err != nil {
		panic(err)
	}
	return p
}

func capture(ph Placeholder, ctx Context, optional bool) string {
	class := "[^/]"
	if ctx == QueryContext || ctx == HashContext || ph.CatchAll {
		class = "."
	}
	if optional {
		return "(" + class + "*)"
	}
	return "(" + class + "+)"
}

// Template returns the source template.
func (p *Pattern) Template() string { return p.template }

// Context returns the context the pattern was compiled for.
func (p *Pattern) Context() Context { return p.context }

// Placeholders returns the placeholders in order of appearance.
func (p *Pattern) Placeholders() []Placeholder { return p.placeholders }

// Names returns the placeholder names in capture order.
func (p *Pattern) Names() []string {
	names := make([]string, len(p.placeholders))
	for i, ph := range p.placeholders {
		names[i] = ph.Name
	}
	return names
}

// IsStatic reports whether the template has no placeholders.
func (p *Pattern) IsStatic() bool { return len(p.placeholders) == 0 }

// Regexp returns the compiled expression.
func (p *Pattern) Regexp() *regexp.Regexp { return p.re }

// Match matches s against the pattern and returns the raw captured value of
// every placeholder. Optional placeholders that captured nothing map to "".
func (p *Pattern) Match(s string) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	raw := make(map[string]string, len(p.placeholders))
	for i, ph := range p.placeholders {
		raw[ph.Name] = m[i+1]
	}
	return raw, true
}

// Fill substitutes values into the template at each placeholder position.
// Missing values substitute the empty string.
func (p *Pattern) Fill(values map[string]string) string {
	if len(p.placeholders) == 0 {
		return p.template
	}
	var b strings.Builder
	last := 0
	for _, ph := range p.placeholders {
		b.WriteString(p.template[last:ph.Start])
		b.WriteString(values[ph.Name])
		last = ph.End
	}
	b.WriteString(p.template[last:])
	return b.String()
}
