// Package param declares route parameters and the codecs that convert them
// between their URL string form and typed Go values.
//
// A Param is a tagged variant. The built-in variants are:
//
//	param.String                       // passes the raw string through
//	param.Number                       // float64, NaN rejected
//	param.Boolean                      // exactly "true" or "false"
//	param.Regexp(re)                   // string fully matching re
//	param.GetSet(get, set)             // custom decode/encode pair
//	param.Getter(get)                  // custom decode, fmt.Sprint encode
//	param.UUID                         // uuid.UUID
//	param.Validated("email")           // string checked by a validator tag
//	param.Literal("draft")             // one fixed value
//	param.UnionOf(param.Number, ...)   // first variant that accepts the value
//
// and the wrappers:
//
//	param.Optional(p)                  // absent value decodes to nil
//	param.Default(p, v)                // absent value decodes to v
//	param.ArrayOf(p...)                // "a,b,c" split on a separator
//	param.TupleOf(p...)                // fixed arity list
//
// A Param is resolved once into a Codec with Normalize. Route composition
// does this for every declared param, so decode and encode never
// re-discriminate the variant.
package param

import (
	"fmt"
	"regexp"
	"strings"
)

type kind uint8

const (
	kindString kind = iota
	kindNumber
	kindBoolean
	kindRegexp
	kindGetSet
	kindGetter
	kindUUID
	kindValidated
	kindLiteral
	kindUnion
	kindOptional
	kindDefault
	kindArray
	kindTuple
)

// DefaultSeparator joins ArrayOf and TupleOf elements.
const DefaultSeparator = ","

// GetFunc decodes a present, non-empty raw value.
type GetFunc func(raw string) (any, error)

// SetFunc encodes a present value.
type SetFunc func(value any) (string, error)

// Param declares how one route parameter is decoded and encoded.
// The zero value is equivalent to String.
type Param struct {
	kind     kind
	pattern  *regexp.Regexp
	get      GetFunc
	set      SetFunc
	tag      string
	literal  any
	inner    *Param
	fallback any
	elems    []Param
	sep      string
}

// Built-in primitive params.
var (
	String  = Param{kind: kindString}
	Number  = Param{kind: kindNumber}
	Boolean = Param{kind: kindBoolean}
	UUID    = Param{kind: kindUUID}
)

// Regexp returns a param whose values must fully match re.
func Regexp(re *regexp.Regexp) Param {
	return Param{kind: kindRegexp, pattern: re}
}

// GetSet returns a param backed by a custom decode/encode pair.
// get must invert set for every value set produces.
func GetSet(get GetFunc, set SetFunc) Param {
	return Param{kind: kindGetSet, get: get, set: set}
}

// Getter returns a param backed by a custom decoder. Values are encoded
// with fmt.Sprint.
func Getter(get GetFunc) Param {
	return Param{kind: kindGetter, get: get}
}

// Validated returns a string param checked against a validator tag,
// e.g. "email", "alphanum,len=6" or "oneof=asc desc".
func Validated(tag string) Param {
	return Param{kind: kindValidated, tag: tag}
}

// Literal returns a param that only accepts value.
func Literal(value any) Param {
	return Param{kind: kindLiteral, literal: value}
}

// UnionOf returns a param that accepts a value when any of params does.
// Variants are tried in order.
func UnionOf(params ...Param) Param {
	return Param{kind: kindUnion, elems: append([]Param(nil), params...)}
}

// Optional wraps p so that an absent value decodes to nil and a nil value
// encodes to the empty string.
func Optional(p Param) Param {
	if p.kind == kindOptional {
		return p
	}
	return Param{kind: kindOptional, inner: &p}
}

// Default wraps p so that an absent value decodes to fallback and a nil
// value encodes as fallback. A defaulted param is optional for matching.
func Default(p Param, fallback any) Param {
	return Param{kind: kindDefault, inner: &p, fallback: fallback}
}

// ArrayOf returns a list param. Segment i is handled by
// params[i%len(params)]; with no params every segment is a String.
func ArrayOf(params ...Param) Param {
	if len(params) == 0 {
		params = []Param{String}
	}
	return Param{kind: kindArray, elems: append([]Param(nil), params...), sep: DefaultSeparator}
}

// TupleOf returns a fixed arity list param with one element per param.
func TupleOf(params ...Param) Param {
	return Param{kind: kindTuple, elems: append([]Param(nil), params...), sep: DefaultSeparator}
}

// WithSeparator returns a copy of an ArrayOf or TupleOf param that splits
// and joins on sep. It is a no-op for other params.
func (p Param) WithSeparator(sep string) Param {
	switch p.kind {
	case kindArray, kindTuple:
		if sep != "" {
			p.sep = sep
		}
	case kindOptional, kindDefault:
		inner := p.inner.WithSeparator(sep)
		p.inner = &inner
	}
	return p
}

// IsOptional reports whether an absent value is acceptable.
func (p Param) IsOptional() bool {
	return p.kind == kindOptional || p.kind == kindDefault
}

// Unwrap returns the wrapped param of an Optional or Default param.
func (p Param) Unwrap() (Param, bool) {
	if p.inner == nil {
		return p, false
	}
	return *p.inner, true
}

// String describes the param, e.g. "optional(array(number))".
func (p Param) String() string {
	switch p.kind {
	case kindString:
		return "string"
	case kindNumber:
		return "number"
	case kindBoolean:
		return "boolean"
	case kindRegexp:
		if p.pattern == nil {
			return "regexp"
		}
		return "regexp(" + p.pattern.String() + ")"
	case kindGetSet:
		return "getset"
	case kindGetter:
		return "getter"
	case kindUUID:
		return "uuid"
	case kindValidated:
		return "validated(" + p.tag + ")"
	case kindLiteral:
		return fmt.Sprintf("literal(%v)", p.literal)
	case kindUnion:
		return "union(" + joinParams(p.elems) + ")"
	case kindOptional:
		return "optional(" + p.inner.String() + ")"
	case kindDefault:
		return fmt.Sprintf("default(%s, %v)", p.inner.String(), p.fallback)
	case kindArray:
		return "array(" + joinParams(p.elems) + ")"
	case kindTuple:
		return "tuple(" + joinParams(p.elems) + ")"
	}
	return "unknown"
}

func joinParams(params []Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}
