package param

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vango-dev/vroute/pkg/routeerr"
)

// validate is safe for concurrent use and caches parsed tags.
var validate = validator.New()

// reason is a failure cause reported as InvalidParamValueError.Reason.
type reason string

func (r reason) Error() string { return string(r) }

const (
	errNotBoolean reason = "Expected true or false"
	errNotNumber  reason = "Expected a number"
	errNoMatch    reason = "Value does not match pattern"
	errNotArray   reason = "Expected an array"
	errNotLiteral reason = "Value does not match literal"
	errNoVariant  reason = "No variant accepts the value"
)

func tupleArity(n int) reason {
	return reason(fmt.Sprintf("Expected tuple with %d values", n))
}

// Codec is a normalized Param bound to a param name.
type Codec struct {
	name       string
	desc       string
	optional   bool
	hasDefault bool
	fallback   any
	get        GetFunc
	set        SetFunc
}

// Normalize resolves p into a Codec once. Errors reported by the codec carry
// name as InvalidParamValueError.Param.
func Normalize(name string, p Param) Codec {
	c := Codec{name: name, desc: p.String()}
	switch p.kind {
	case kindOptional:
		inner := Normalize(name, *p.inner)
		inner.desc = c.desc
		inner.optional = true
		return inner
	case kindDefault:
		inner := Normalize(name, *p.inner)
		inner.desc = c.desc
		inner.optional = true
		inner.hasDefault = true
		inner.fallback = p.fallback
		return inner
	}
	c.get, c.set = accessors(p)
	return c
}

// Name returns the param name the codec was normalized for.
func (c Codec) Name() string { return c.name }

// Optional reports whether an absent value is acceptable.
func (c Codec) Optional() bool { return c.optional }

// String describes the underlying param.
func (c Codec) String() string { return c.desc }

// Decode converts a raw URL value into a typed value. present is false when
// the value is absent from the URL; an empty raw string also counts as
// absent.
func (c Codec) Decode(raw string, present bool) (any, error) {
	if !present || raw == "" {
		switch {
		case c.hasDefault:
			return c.fallback, nil
		case c.optional:
			return nil, nil
		}
		return nil, c.invalid(nil, nil)
	}
	v, err := c.get(raw)
	if err != nil {
		return nil, c.invalid(raw, err)
	}
	return v, nil
}

// Encode converts a typed value into its URL string. A nil value is absent.
func (c Codec) Encode(value any) (string, error) {
	if value == nil {
		switch {
		case c.hasDefault:
			value = c.fallback
		case c.optional:
			return "", nil
		default:
			return "", c.invalid(nil, nil)
		}
	}
	s, err := c.set(value)
	if err != nil {
		return "", c.invalid(value, err)
	}
	return s, nil
}

func (c Codec) invalid(value any, cause error) error {
	e := &routeerr.InvalidParamValueError{
		Param:    c.name,
		Value:    value,
		Optional: c.optional,
	}
	if r, ok := cause.(reason); ok {
		e.Reason = string(r)
	} else {
		e.Err = cause
	}
	return e
}

// accessors resolves a non-wrapper param into its decode/encode pair.
func accessors(p Param) (GetFunc, SetFunc) {
	switch p.kind {
	case kindNumber:
		return getNumber, setNumber
	case kindBoolean:
		return getBoolean, setBoolean
	case kindRegexp:
		return regexpAccessors(p)
	case kindGetSet:
		return p.get, p.set
	case kindGetter:
		return p.get, setAny
	case kindUUID:
		return getUUID, setUUID
	case kindValidated:
		return validatedAccessors(p.tag)
	case kindLiteral:
		return literalAccessors(p.literal)
	case kindUnion:
		return unionAccessors(p.elems)
	case kindArray:
		return arrayAccessors(p.elems, p.sep)
	case kindTuple:
		return tupleAccessors(p.elems, p.sep)
	}
	return getString, setAny
}

func getString(raw string) (any, error) { return raw, nil }

func setAny(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	return fmt.Sprint(value), nil
}

func getBoolean(raw string) (any, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return nil, errNotBoolean
}

func setBoolean(value any) (string, error) {
	b, ok := value.(bool)
	if !ok {
		return "", errNotBoolean
	}
	return strconv.FormatBool(b), nil
}

func getNumber(raw string) (any, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return nil, errNotNumber
	}
	return f, nil
}

func setNumber(value any) (string, error) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) {
			return "", errNotNumber
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		if math.IsNaN(float64(v)) {
			return "", errNotNumber
		}
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(v), nil
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(v).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(v).Uint(), 10), nil
	}
	return "", errNotNumber
}

func regexpAccessors(p Param) (GetFunc, SetFunc) {
	matches := func(string) bool { return true }
	if p.pattern != nil {
		full := regexp.MustCompile(`^(?:` + p.pattern.String() + `)$`)
		matches = full.MatchString
	}
	get := func(raw string) (any, error) {
		if !matches(raw) {
			return nil, errNoMatch
		}
		return raw, nil
	}
	set := func(value any) (string, error) {
		s, _ := setAny(value)
		if !matches(s) {
			return "", errNoMatch
		}
		return s, nil
	}
	return get, set
}

func getUUID(raw string) (any, error) {
	return uuid.Parse(raw)
}

func setUUID(value any) (string, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v.String(), nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}
	return "", fmt.Errorf("unsupported uuid value of type %T", value)
}

func validatedAccessors(tag string) (GetFunc, SetFunc) {
	check := func(s string) error {
		return validate.Var(s, tag)
	}
	get := func(raw string) (any, error) {
		if err := check(raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
	set := func(value any) (string, error) {
		s, _ := setAny(value)
		if err := check(s); err != nil {
			return "", err
		}
		return s, nil
	}
	return get, set
}

func literalAccessors(literal any) (GetFunc, SetFunc) {
	want, _ := setAny(literal)
	get := func(raw string) (any, error) {
		if raw != want {
			return nil, errNotLiteral
		}
		return literal, nil
	}
	set := func(value any) (string, error) {
		if s, _ := setAny(value); s != want {
			return "", errNotLiteral
		}
		return want, nil
	}
	return get, set
}

func unionAccessors(params []Param) (GetFunc, SetFunc) {
	codecs := normalizeAll(params)
	get := func(raw string) (any, error) {
		for _, c := range codecs {
			if v, err := c.get(raw); err == nil {
				return v, nil
			}
		}
		return nil, errNoVariant
	}
	set := func(value any) (string, error) {
		for _, c := range codecs {
			if s, err := c.set(value); err == nil {
				return s, nil
			}
		}
		return "", errNoVariant
	}
	return get, set
}

func arrayAccessors(params []Param, sep string) (GetFunc, SetFunc) {
	codecs := normalizeAll(params)
	get := func(raw string) (any, error) {
		segments := strings.Split(raw, sep)
		out := make([]any, len(segments))
		for i, seg := range segments {
			v, err := codecs[i%len(codecs)].Decode(seg, true)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	set := func(value any) (string, error) {
		items, ok := asSlice(value)
		if !ok {
			return "", errNotArray
		}
		parts := make([]string, len(items))
		for i, item := range items {
			s, err := codecs[i%len(codecs)].Encode(item)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, sep), nil
	}
	return get, set
}

func tupleAccessors(params []Param, sep string) (GetFunc, SetFunc) {
	codecs := normalizeAll(params)
	get := func(raw string) (any, error) {
		segments := strings.Split(raw, sep)
		if len(segments) != len(codecs) {
			return nil, tupleArity(len(codecs))
		}
		out := make([]any, len(segments))
		for i, seg := range segments {
			v, err := codecs[i].Decode(seg, true)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	set := func(value any) (string, error) {
		items, ok := asSlice(value)
		if !ok {
			return "", errNotArray
		}
		if len(items) != len(codecs) {
			return "", tupleArity(len(codecs))
		}
		parts := make([]string, len(items))
		for i, item := range items {
			s, err := codecs[i].Encode(item)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, sep), nil
	}
	return get, set
}

func normalizeAll(params []Param) []Codec {
	codecs := make([]Codec, len(params))
	for i, p := range params {
		codecs[i] = Normalize(strconv.Itoa(i), p)
	}
	return codecs
}

// asSlice flattens any slice or array into []any.
func asSlice(value any) ([]any, bool) {
	if items, ok := value.([]any); ok {
		return items, true
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, v.Len())
	for i := range items {
		items[i] = v.Index(i).Interface()
	}
	return items, true
}
