package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vango-dev/vroute/internal/errors"
	"github.com/vango-dev/vroute/pkg/param"
	"github.com/vango-dev/vroute/pkg/route"
	"github.com/vango-dev/vroute/pkg/router"
)

// ParseParam converts a manifest param type into a param.
func ParseParam(typ string) (param.Param, error) {
	typ = strings.TrimSpace(typ)
	if rest, ok := strings.CutPrefix(typ, "?"); ok {
		p, err := ParseParam(rest)
		if err != nil {
			return param.Param{}, err
		}
		return param.Optional(p), nil
	}

	// Patterns and validator tags run to the end of the type.
	if re, ok := strings.CutPrefix(typ, "regexp:"); ok {
		compiled, err := regexp.Compile(re)
		if err != nil {
			return param.Param{}, fmt.Errorf("invalid pattern %q: %w", re, err)
		}
		return param.Regexp(compiled), nil
	}
	if tag, ok := strings.CutPrefix(typ, "validate:"); ok {
		if tag == "" {
			return param.Param{}, fmt.Errorf("empty validator tag")
		}
		return param.Validated(tag), nil
	}

	base, fallback, hasDefault := strings.Cut(typ, "=")
	p, err := parseBase(base)
	if err != nil {
		return param.Param{}, err
	}
	if !hasDefault {
		return p, nil
	}
	v, err := param.Normalize("default", p).Decode(fallback, true)
	if err != nil {
		return param.Param{}, fmt.Errorf("invalid default %q for %s", fallback, p)
	}
	return param.Default(p, v), nil
}

func parseBase(typ string) (param.Param, error) {
	if elem, ok := strings.CutPrefix(typ, "array:"); ok {
		p, err := parseBase(elem)
		if err != nil {
			return param.Param{}, err
		}
		return param.ArrayOf(p), nil
	}
	switch typ {
	case "", "string":
		return param.String, nil
	case "number":
		return param.Number, nil
	case "boolean":
		return param.Boolean, nil
	case "uuid":
		return param.UUID, nil
	}
	return param.Param{}, fmt.Errorf("unknown param type %q", typ)
}

func parseParams(types map[string]string) (map[string]param.Param, error) {
	if len(types) == 0 {
		return nil, nil
	}
	out := make(map[string]param.Param, len(types))
	for name, typ := range types {
		p, err := ParseParam(typ)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}

// Definitions converts the manifest routes into route definitions.
func (c *Config) Definitions() ([]route.Definition, error) {
	return definitions(c.Routes)
}

func definitions(routes []RouteConfig) ([]route.Definition, error) {
	defs := make([]route.Definition, 0, len(routes))
	for _, rc := range routes {
		def, err := rc.definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (rc RouteConfig) definition() (route.Definition, error) {
	params, err := parseParams(rc.Params)
	if err != nil {
		return route.Definition{}, errors.New("E123").Wrap(err)
	}
	state, err := parseParams(rc.State)
	if err != nil {
		return route.Definition{}, errors.New("E123").Wrap(err)
	}
	children, err := definitions(rc.Children)
	if err != nil {
		return route.Definition{}, err
	}

	def := route.Definition{
		Name:     rc.Name,
		Host:     rc.Host,
		Path:     rc.Path,
		Query:    rc.Query,
		Hash:     rc.Hash,
		Params:   params,
		State:    state,
		Disabled: rc.Disabled,
		Title:    rc.Title,
		Meta:     rc.Meta,
		Children: children,
	}
	if rc.Component != "" {
		def.Component = rc.Component
	}
	return def, nil
}

// Router builds a router from the manifest and registers its redirects.
// opts are applied after the manifest settings.
func (c *Config) Router(opts ...router.Option) (*router.Router, error) {
	defs, err := c.Definitions()
	if err != nil {
		return nil, err
	}

	all := append([]router.Option{router.WithMaxRedirects(c.RouterConfig.MaxRedirects)}, opts...)
	r, err := router.New(defs, all...)
	if err != nil {
		return nil, errors.FromError(err, "E122")
	}

	err = walk(c.Routes, "", func(key string, rc RouteConfig) error {
		if rc.RedirectTo == "" {
			return nil
		}
		if rc.Name == "" {
			return errors.New("E125").
				WithDetail("Unnamed route " + rc.Path + " cannot redirect")
		}
		source, ok := r.Route(key)
		if !ok {
			return errors.New("E125").WithDetail("Route " + key + " is not matchable")
		}
		target, ok := r.Route(rc.RedirectTo)
		if !ok {
			return errors.New("E125").
				WithDetail("Route " + key + " redirects to unknown route " + rc.RedirectTo)
		}
		if err := source.RedirectTo(target, nil); err != nil {
			return errors.FromError(err, "E125")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
