// Package routeerr defines the errors raised while composing, matching and
// assembling routes.
//
// Every error kind has a sentinel that can be tested with errors.Is, and the
// kinds that carry data have a typed error usable with errors.As:
//
//	_, err := router.New(defs)
//	var dup *routeerr.DuplicateParamsError
//	if errors.As(err, &dup) {
//	    fmt.Println("duplicate:", dup.Names)
//	}
//
// None of these errors are retried by the router. Construction-time errors
// (duplicate names or params, redirect misuse) surface from route
// composition, before any navigation happens.
package routeerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, one per kind.
var (
	ErrDuplicateParams       = errors.New("duplicate params")
	ErrDuplicateNames        = errors.New("duplicate route names")
	ErrMultipleRedirects     = errors.New("multiple route redirects")
	ErrInvalidParamValue     = errors.New("invalid route param value")
	ErrInvalidRouteURL       = errors.New("invalid route url")
	ErrRouteNotFound         = errors.New("route not found")
	ErrRouteDisabled         = errors.New("route disabled")
	ErrMissingRouteContext   = errors.New("missing route context")
	ErrInvalidTemplateSyntax = errors.New("invalid template syntax")

	// ErrTooManyRedirects is returned when a navigation follows more
	// redirects than the router allows.
	ErrTooManyRedirects = errors.New("router: too many redirects")
)

// codes maps each kind to its stable code, checked in order.
var codes = []struct {
	target error
	code   string
}{
	{ErrDuplicateParams, "E100"},
	{ErrDuplicateNames, "E101"},
	{ErrMultipleRedirects, "E102"},
	{ErrInvalidParamValue, "E103"},
	{ErrInvalidRouteURL, "E104"},
	{ErrRouteNotFound, "E105"},
	{ErrRouteDisabled, "E106"},
	{ErrMissingRouteContext, "E107"},
	{ErrInvalidTemplateSyntax, "E108"},
	{ErrTooManyRedirects, "E110"},
}

// Code returns the code of a routing error, e.g. "E105" for a
// RouteNotFoundError, or "" for other errors.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.target) {
			return c.code
		}
	}
	return ""
}

// DuplicateParamsError reports param names declared more than once in one
// combined scope.
type DuplicateParamsError struct {
	Names []string
}

func (e *DuplicateParamsError) Error() string {
	return fmt.Sprintf("invalid param name(s): %s; param names must be unique", strings.Join(e.Names, ", "))
}

func (e *DuplicateParamsError) Unwrap() error { return ErrDuplicateParams }

// DuplicateNamesError reports a route name used by more than one route.
type DuplicateNamesError struct {
	Name string
}

func (e *DuplicateNamesError) Error() string {
	return fmt.Sprintf("invalid route name %q: route names must be unique", e.Name)
}

func (e *DuplicateNamesError) Unwrap() error { return ErrDuplicateNames }

// MultipleRedirectsError reports a second redirect registration on a route.
type MultipleRedirectsError struct {
	Route     string
	Direction string // "to" or "from"
}

func (e *MultipleRedirectsError) Error() string {
	return fmt.Sprintf("route %q already has a redirect %s registered", e.Route, e.Direction)
}

func (e *MultipleRedirectsError) Unwrap() error { return ErrMultipleRedirects }

// InvalidParamValueError is returned when a param value is missing or fails
// its codec.
type InvalidParamValueError struct {
	// Param is the param name, or the codec kind when the name is unknown.
	Param string

	// Value is the offending raw string or typed value. Nil means absent.
	Value any

	// Optional reports whether the param was declared optional.
	Optional bool

	// Reason is a short human readable cause, e.g. "Expected an array".
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

func (e *InvalidParamValueError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid value for param %q", e.Param)
	if e.Value == nil {
		b.WriteString(": value is required")
	} else {
		fmt.Fprintf(&b, ": %v", e.Value)
	}
	if e.Reason != "" {
		b.WriteString(" (")
		b.WriteString(e.Reason)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the sentinel and the cause.
func (e *InvalidParamValueError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidParamValue, e.Err}
	}
	return []error{ErrInvalidParamValue}
}

// InvalidRouteURLError reports an assembled URL that does not parse.
type InvalidRouteURLError struct {
	URL string
	Err error
}

func (e *InvalidRouteURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid route url %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("invalid route url %q", e.URL)
}

func (e *InvalidRouteURLError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidRouteURL, e.Err}
	}
	return []error{ErrInvalidRouteURL}
}

// RouteNotFoundError reports a lookup by a name no composed route carries.
type RouteNotFoundError struct {
	Name string
}

func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("route not found: %q", e.Name)
}

func (e *RouteNotFoundError) Unwrap() error { return ErrRouteNotFound }

// RouteDisabledError reports a resolve against a disabled route.
type RouteDisabledError struct {
	Name string
}

func (e *RouteDisabledError) Error() string {
	return fmt.Sprintf("route disabled: %q", e.Name)
}

func (e *RouteDisabledError) Unwrap() error { return ErrRouteDisabled }

// MissingRouteContextError reports a route referenced as context or redirect
// target that was never registered with the router.
type MissingRouteContextError struct {
	Name string
}

func (e *MissingRouteContextError) Error() string {
	return fmt.Sprintf("route %q is referenced but was not registered with the router", e.Name)
}

func (e *MissingRouteContextError) Unwrap() error { return ErrMissingRouteContext }

// TemplateSyntaxError reports a malformed placeholder in a route template.
type TemplateSyntaxError struct {
	Template string
	Offset   int
	Reason   string
}

func (e *TemplateSyntaxError) Error() string {
	return fmt.Sprintf("invalid template %q at offset %d: %s", e.Template, e.Offset, e.Reason)
}

func (e *TemplateSyntaxError) Unwrap() error { return ErrInvalidTemplateSyntax }
