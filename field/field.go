// Package field defines the parameter-binding model used by typed routes.
// A Field describes where one request value comes from (path, query, header,
// cookie or JSON body), how it is serialized on the wire, and how it maps
// back to a request-struct member.
package field

import (
	"fmt"
	"reflect"
	"time"
)

// Kind identifies the request location a field is bound to.
type Kind string

// Supported field kinds.
const (
	KindPath       Kind = "path"
	KindQuery      Kind = "query"
	KindHeader     Kind = "header"
	KindCookie     Kind = "cookie"
	KindBody       Kind = "body"
	KindDependency Kind = "dependency"
)

// Style is the OpenAPI serialization style governing how non-exploded
// arrays and objects are delimited on the wire.
type Style string

// Supported serialization styles.
const (
	StyleForm           Style = "form"
	StyleSimple         Style = "simple"
	StyleSpaceDelimited Style = "spaceDelimited"
	StylePipeDelimited  Style = "pipeDelimited"
)

// defaultStyles maps each kind to its default serialization style.
var defaultStyles = map[Kind]Style{
	KindPath:   StyleSimple,
	KindQuery:  StyleForm,
	KindHeader: StyleSimple,
	KindCookie: StyleForm,
}

// allowedStyles whitelists the styles each kind accepts. Path and header
// parameters are simple-only per the OpenAPI parameter rules.
var allowedStyles = map[Kind][]Style{
	KindPath:   {StyleSimple},
	KindQuery:  {StyleForm, StyleSpaceDelimited, StylePipeDelimited},
	KindHeader: {StyleSimple},
	KindCookie: {StyleForm},
}

// separators maps a style to the delimiter used for non-exploded arrays.
var separators = map[Style]string{
	StyleForm:           ",",
	StyleSimple:         ",",
	StyleSpaceDelimited: " ",
	StylePipeDelimited:  "|",
}

// Field is one resolved parameter binding. Fields are created once at route
// registration time and are immutable afterwards; only Value touches live
// per-request state.
type Field struct {
	Kind  Kind
	Name  string // parameter name derived from the struct member
	Alias string // wire name override; empty means none

	Type  reflect.Type // declared type, pointer wrappers preserved
	Index []int        // struct field index used for injection

	Default    string // raw default, coerced at resolution time
	HasDefault bool   // distinguishes "no default" from an empty default

	Style   Style
	Explode bool
	Embed   bool // body only: merge the model into the top-level body object

	ValidateTag string // forwarded to the validation engine
	Description string
	Example     string
	Deprecated  bool
}

// Locator returns the canonical wire-visible name: the alias when set,
// otherwise the parameter name. It drives both raw extraction and OpenAPI
// parameter naming.
func (f *Field) Locator() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// IsRequired reports whether the binding must be present on the wire.
// A field is optional only when it carries a default or is pointer-typed.
func (f *Field) IsRequired() bool {
	if f.HasDefault {
		return false
	}
	return f.Type == nil || f.Type.Kind() != reflect.Pointer
}

// IsModel reports whether the field's declared type is a nested model
// (a struct other than time.Time, possibly behind a pointer).
func (f *Field) IsModel() bool {
	return isModelType(f.Type)
}

// IsArray reports whether the field's declared type is a slice binding
// ([]byte is treated as a scalar).
func (f *Field) IsArray() bool {
	return isArrayType(f.Type)
}

// Separator returns the token delimiter for this field's style.
func (f *Field) Separator() string {
	if sep, ok := separators[f.Style]; ok {
		return sep
	}
	return ","
}

// Normalize applies per-kind defaults and rejects invalid combinations.
// It is called exactly once per field during resolution; the errors it
// returns are definition-time errors and must fail registration.
func Normalize(f Field) (Field, error) {
	if f.Kind == KindDependency {
		return f, nil
	}
	if f.Embed && f.Kind != KindBody {
		return f, NewInvalidParameterError("embed is only valid for body fields, not %s parameter %q", f.Kind, f.Name)
	}
	if f.Kind == KindBody {
		if f.Style != "" {
			return f, NewInvalidParameterError("style is not applicable to body parameter %q", f.Name)
		}
		return f, nil
	}
	allowed, ok := allowedStyles[f.Kind]
	if !ok {
		return f, NewInvalidParameterError("unknown field kind %q for parameter %q", f.Kind, f.Name)
	}
	if f.Style == "" {
		f.Style = defaultStyles[f.Kind]
	}
	if !styleAllowed(allowed, f.Style) {
		return f, NewInvalidParameterError("style %q is not supported for %s parameter %q", f.Style, f.Kind, f.Name)
	}
	return f, nil
}

func styleAllowed(allowed []Style, s Style) bool {
	for _, a := range allowed {
		if a == s {
			return true
		}
	}
	return false
}

// ParseStyle converts a tag token into a Style.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleForm, StyleSimple, StyleSpaceDelimited, StylePipeDelimited:
		return Style(s), nil
	default:
		return "", NewInvalidParameterError("unknown serialization style %q", s)
	}
}

var timeType = reflect.TypeOf(time.Time{})

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func isModelType(t reflect.Type) bool {
	t = deref(t)
	return t != nil && t.Kind() == reflect.Struct && t != timeType
}

func isArrayType(t reflect.Type) bool {
	t = deref(t)
	if t == nil || t.Kind() != reflect.Slice {
		return false
	}
	return t.Elem().Kind() != reflect.Uint8
}

// String returns a short description suitable for logs and error messages.
func (f *Field) String() string {
	return fmt.Sprintf("%s parameter %q", f.Kind, f.Locator())
}
