package ir

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant a Parameter holds.
type Kind uint8

// Parameter kinds.
const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindInts
	KindFloats
	KindStrings
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindInts:
		return "int-list"
	case KindFloats:
		return "float-list"
	case KindStrings:
		return "string-list"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// IsList reports whether the kind is one of the list variants.
func (k Kind) IsList() bool {
	return k == KindInts || k == KindFloats || k == KindStrings
}

// Parameter is an operator attribute value: a closed sum over none, bool,
// int, float, string and the three list kinds.
//
// The zero value is None. Parameters are immutable; list accessors return copies.
type Parameter struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	ai   []int64
	af   []float64
	as   []string
}

// None returns the none parameter.
func None() Parameter { return Parameter{} }

// Bool returns a bool parameter.
func Bool(v bool) Parameter { return Parameter{kind: KindBool, b: v} }

// Int returns an int parameter.
func Int(v int64) Parameter { return Parameter{kind: KindInt, i: v} }

// Float returns a float parameter.
func Float(v float64) Parameter { return Parameter{kind: KindFloat, f: v} }

// String returns a string parameter.
func String(v string) Parameter { return Parameter{kind: KindString, s: v} }

// Ints returns an int-list parameter.
func Ints(v ...int64) Parameter {
	return Parameter{kind: KindInts, ai: append([]int64{}, v...)}
}

// Floats returns a float-list parameter.
func Floats(v ...float64) Parameter {
	return Parameter{kind: KindFloats, af: append([]float64{}, v...)}
}

// Strings returns a string-list parameter.
func Strings(v ...string) Parameter {
	return Parameter{kind: KindStrings, as: append([]string{}, v...)}
}

// Kind returns the variant held by p.
func (p Parameter) Kind() Kind { return p.kind }

// IsNone reports whether p is the none parameter.
func (p Parameter) IsNone() bool { return p.kind == KindNone }

// AsBool returns the bool value and whether p is a bool.
func (p Parameter) AsBool() (bool, bool) { return p.b, p.kind == KindBool }

// AsInt returns the int value and whether p is an int.
func (p Parameter) AsInt() (int64, bool) { return p.i, p.kind == KindInt }

// AsFloat returns the float value and whether p is a float.
func (p Parameter) AsFloat() (float64, bool) { return p.f, p.kind == KindFloat }

// AsString returns the string value and whether p is a string.
func (p Parameter) AsString() (string, bool) { return p.s, p.kind == KindString }

// AsInts returns a copy of the int-list and whether p is an int-list.
func (p Parameter) AsInts() ([]int64, bool) {
	if p.kind != KindInts {
		return nil, false
	}
	return append([]int64{}, p.ai...), true
}

// AsFloats returns a copy of the float-list and whether p is a float-list.
func (p Parameter) AsFloats() ([]float64, bool) {
	if p.kind != KindFloats {
		return nil, false
	}
	return append([]float64{}, p.af...), true
}

// AsStrings returns a copy of the string-list and whether p is a string-list.
func (p Parameter) AsStrings() ([]string, bool) {
	if p.kind != KindStrings {
		return nil, false
	}
	return append([]string{}, p.as...), true
}

// Len returns the element count of a list parameter, or 0 for scalars.
func (p Parameter) Len() int {
	switch p.kind {
	case KindInts:
		return len(p.ai)
	case KindFloats:
		return len(p.af)
	case KindStrings:
		return len(p.as)
	case KindNone, KindBool, KindInt, KindFloat, KindString:
		return 0
	default:
		return 0
	}
}

// Equal reports whether p and o hold the same kind and value.
func (p Parameter) Equal(o Parameter) bool {
	if p.kind != o.kind {
		return false
	}
	switch p.kind {
	case KindNone:
		return true
	case KindBool:
		return p.b == o.b
	case KindInt:
		return p.i == o.i
	case KindFloat:
		return p.f == o.f
	case KindString:
		return p.s == o.s
	case KindInts:
		return equalSlices(p.ai, o.ai)
	case KindFloats:
		return equalSlices(p.af, o.af)
	case KindStrings:
		return equalSlices(p.as, o.as)
	default:
		return false
	}
}

// Matches reports whether a literal pattern value p accepts o.
// It is Equal, except that ints and floats compare numerically.
func (p Parameter) Matches(o Parameter) bool {
	switch {
	case p.kind == KindInt && o.kind == KindFloat:
		return float64(p.i) == o.f
	case p.kind == KindFloat && o.kind == KindInt:
		return p.f == float64(o.i)
	case p.kind == KindInts && o.kind == KindFloats:
		return numericListsEqual(p.ai, o.af)
	case p.kind == KindFloats && o.kind == KindInts:
		return numericListsEqual(o.ai, p.af)
	default:
		return p.Equal(o)
	}
}

// String formats p in IR text syntax.
func (p Parameter) String() string {
	switch p.kind {
	case KindNone:
		return "None"
	case KindBool:
		if p.b {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(p.i, 10)
	case KindFloat:
		return formatFloat(p.f)
	case KindString:
		return p.s
	case KindInts:
		parts := make([]string, len(p.ai))
		for i, v := range p.ai {
			parts[i] = strconv.FormatInt(v, 10)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case KindFloats:
		parts := make([]string, len(p.af))
		for i, v := range p.af {
			parts[i] = formatFloat(v)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case KindStrings:
		return "(" + strings.Join(p.as, ",") + ")"
	default:
		return fmt.Sprintf("<%s>", p.kind)
	}
}

// Params maps attribute names to values.
type Params map[string]Parameter

// Keys returns the attribute names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy; Parameters are immutable so this is a full copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Equal reports whether both maps hold the same keys with Equal values.
func (p Params) Equal(o Params) bool {
	if len(p) != len(o) {
		return false
	}
	for k, v := range p {
		w, ok := o[k]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}

// ParseParameter parses a literal in IR text syntax.
//
// Accepted forms: None, True, False, integers, floats, identifier-like
// strings, and parenthesized (or bracketed) lists of ints, floats or strings.
// A list mixing ints and floats becomes a float-list; () is an empty int-list.
func ParseParameter(s string) (Parameter, error) {
	if s == "" {
		return Parameter{}, fmt.Errorf("%w: empty value", ErrBadLiteral)
	}

	switch s {
	case "None":
		return None(), nil
	case "True":
		return Bool(true), nil
	case "False":
		return Bool(false), nil
	}

	if s[0] == '(' || s[0] == '[' {
		return parseList(s)
	}

	p, ok := parseScalar(s)
	if !ok {
		return Parameter{}, fmt.Errorf("%w: %q", ErrBadLiteral, s)
	}
	return p, nil
}

func parseList(s string) (Parameter, error) {
	closing := byte(')')
	if s[0] == '[' {
		closing = ']'
	}
	if len(s) < 2 || s[len(s)-1] != closing {
		return Parameter{}, fmt.Errorf("%w: unterminated list %q", ErrBadLiteral, s)
	}

	inner := s[1 : len(s)-1]
	if inner == "" {
		return Ints(), nil
	}

	elems := strings.Split(inner, ",")
	scalars := make([]Parameter, len(elems))
	var nInt, nFloat, nString int
	for i, e := range elems {
		p, ok := parseScalar(strings.TrimSpace(e))
		if !ok {
			return Parameter{}, fmt.Errorf("%w: bad list element %q in %q", ErrBadLiteral, e, s)
		}
		switch p.kind {
		case KindInt:
			nInt++
		case KindFloat:
			nFloat++
		case KindString:
			nString++
		case KindNone, KindBool, KindInts, KindFloats, KindStrings:
			return Parameter{}, fmt.Errorf("%w: unsupported list element %q", ErrBadLiteral, e)
		}
		scalars[i] = p
	}

	switch {
	case nString == len(scalars):
		out := make([]string, len(scalars))
		for i, p := range scalars {
			out[i] = p.s
		}
		return Parameter{kind: KindStrings, as: out}, nil
	case nString > 0:
		return Parameter{}, fmt.Errorf("%w: list mixes numbers and strings %q", ErrBadLiteral, s)
	case nFloat == 0:
		out := make([]int64, len(scalars))
		for i, p := range scalars {
			out[i] = p.i
		}
		return Parameter{kind: KindInts, ai: out}, nil
	default:
		out := make([]float64, len(scalars))
		for i, p := range scalars {
			if p.kind == KindInt {
				out[i] = float64(p.i)
			} else {
				out[i] = p.f
			}
		}
		return Parameter{kind: KindFloats, af: out}, nil
	}
}

// parseScalar handles int, float and string tokens. Keywords are not scalars here.
func parseScalar(s string) (Parameter, bool) {
	if s == "" {
		return Parameter{}, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(v), true
	}
	if isNumericStart(s[0]) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Parameter{}, false
		}
		return Float(v), true
	}
	if isIdentifier(s) {
		return String(s), true
	}
	return Parameter{}, false
}

func isNumericStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

// isIdentifier accepts bare string literals such as NOTSET, zeros or torch.float.
func isIdentifier(s string) bool {
	c := s[0]
	if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
		return false
	}
	return !strings.ContainsAny(s, "()[],=%*#$@\"' \t")
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEN") {
		s += ".0"
	}
	return s
}

func equalSlices[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func numericListsEqual(a []int64, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if float64(a[i]) != b[i] {
			return false
		}
	}
	return true
}
