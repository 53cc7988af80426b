package params

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the variants a parameter Value can hold.
type Kind int

const (
	// KindString is a free-form string.
	KindString Kind = iota
	// KindInt is a base-10 integer.
	KindInt
	// KindFloat is a floating point number.
	KindFloat
	// KindBool is true or false.
	KindBool
	// KindEnum is one tag out of a processor-declared option list.
	KindEnum
)

// String returns the lower-case name of the kind as used in manifests and schemas.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return KindString, nil
	case "int", "integer":
		return KindInt, nil
	case "float", "number":
		return KindFloat, nil
	case "bool":
		return KindBool, nil
	case "enum":
		return KindEnum, nil
	default:
		return KindString, fmt.Errorf("unknown parameter kind %q", s)
	}
}

// Value is a single parameter value. It always carries a canonical string form,
// which is what hashing and persistence see; the kind only drives the typed
// accessors and schema validation.
type Value struct {
	kind Kind
	raw  string
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, raw: s} }

// Int creates an integer value.
func Int(i int64) Value { return Value{kind: KindInt, raw: strconv.FormatInt(i, 10)} }

// Float creates a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, raw: strconv.FormatFloat(f, 'g', -1, 64)} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, raw: strconv.FormatBool(b)} }

// Enum creates an enum value holding the given tag.
func Enum(tag string) Value { return Value{kind: KindEnum, raw: tag} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// String returns the canonical string form.
func (v Value) String() string { return v.raw }

// AsInt interprets the value as an integer. Whole floats are accepted.
func (v Value) AsInt() (int64, bool) {
	if i, err := strconv.ParseInt(strings.TrimSpace(v.raw), 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.raw), 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// AsFloat interprets the value as a float.
func (v Value) AsFloat() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.raw), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// AsBool interprets the value as a boolean using strconv.ParseBool rules.
func (v Value) AsBool() (bool, bool) {
	b, err := strconv.ParseBool(strings.TrimSpace(v.raw))
	if err != nil {
		return false, false
	}
	return b, true
}

// Parse builds a Value of the given kind from its string form, failing when the
// string does not fit the kind.
func Parse(kind Kind, s string) (Value, error) {
	switch kind {
	case KindString:
		return String(s), nil
	case KindEnum:
		return Enum(s), nil
	case KindInt:
		i, ok := String(s).AsInt()
		if !ok {
			return Value{}, fmt.Errorf("%q is not an integer", s)
		}
		return Int(i), nil
	case KindFloat:
		f, ok := String(s).AsFloat()
		if !ok {
			return Value{}, fmt.Errorf("%q is not a number", s)
		}
		return Float(f), nil
	case KindBool:
		b, ok := String(s).AsBool()
		if !ok {
			return Value{}, fmt.Errorf("%q is not a boolean", s)
		}
		return Bool(b), nil
	default:
		return Value{}, fmt.Errorf("unsupported parameter kind %s", kind)
	}
}
