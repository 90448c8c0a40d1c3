package binding

import (
	"reflect"
	"strings"

	"github.com/okairos/typedroutes/field"
)

// locationTags are the struct-tag keys that explicitly declare a field's
// source location. The tag value is the wire alias, optionally followed by
// comma-separated options: explode, embed, style=<style>.
var locationTags = []struct {
	key  string
	kind field.Kind
}{
	{"path", field.KindPath},
	{"query", field.KindQuery},
	{"header", field.KindHeader},
	{"cookie", field.KindCookie},
	{"body", field.KindBody},
}

// Resolve inspects the request struct type and produces one Field per
// exported member, in declaration order. routeName qualifies error messages;
// pathParams are the placeholder names of the route rule and drive both kind
// inference and the path-alias cross-check. Every error it returns is a
// definition-time error and must fail registration.
func Resolve(t reflect.Type, routeName string, pathParams []string) ([]field.Field, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, field.NewInvalidParameterError("request type for route %q must be a struct, got %v", routeName, t)
	}

	paramNames := make(map[string]bool, len(pathParams))
	for _, p := range pathParams {
		paramNames[p] = true
	}

	fields := make([]field.Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		f, err := resolveField(sf, routeName, paramNames)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}

	if err := checkBindings(fields, routeName); err != nil {
		return nil, err
	}
	return fields, nil
}

// resolveField builds one Field from a struct member, merging the explicit
// location tag (when present) with metadata inferred from the member's type.
func resolveField(sf reflect.StructField, routeName string, pathParams map[string]bool) (field.Field, error) {
	name := field.SnakeCase(sf.Name)
	isModel := isModelType(sf.Type)

	f := field.Field{
		Name:        name,
		Type:        sf.Type,
		Index:       sf.Index,
		ValidateTag: sf.Tag.Get("validate"),
		Description: sf.Tag.Get("doc"),
		Example:     sf.Tag.Get("example"),
		Deprecated:  sf.Tag.Get("deprecated") == "true",
	}
	if def, ok := sf.Tag.Lookup("default"); ok {
		f.Default = def
		f.HasDefault = true
	}

	alias, explicit, err := applyLocationTag(&f, sf, routeName)
	if err != nil {
		return f, err
	}
	if !explicit {
		// Kind inference: path when the name matches a route placeholder,
		// body for model types, query otherwise.
		switch {
		case pathParams[name]:
			f.Kind = field.KindPath
		case isModel:
			f.Kind = field.KindBody
		default:
			f.Kind = field.KindQuery
		}
	}

	if err := assignAlias(&f, alias, isModel, routeName); err != nil {
		return f, err
	}
	if f.Kind == field.KindPath && !pathParams[f.Locator()] {
		return f, field.NewInvalidParameterError(
			"path parameter %q of route %q does not match any route placeholder", f.Locator(), routeName)
	}

	f, err = field.Normalize(f)
	if err != nil {
		return f, err
	}
	if err := checkFieldType(&f, routeName); err != nil {
		return f, err
	}
	if f.HasDefault {
		// Surface an unparseable default now, not on the first request.
		target := reflect.New(sf.Type).Elem()
		if ferr := setScalar(target, f.Default); ferr != nil {
			return f, field.NewInvalidParameterError(
				"default value %q for parameter %q of route %q is not a valid %s",
				f.Default, name, routeName, deref(sf.Type).Kind())
		}
	}
	return f, nil
}

// applyLocationTag parses an explicit location tag. It reports whether one
// was present and returns the declared alias.
func applyLocationTag(f *field.Field, sf reflect.StructField, routeName string) (alias string, explicit bool, err error) {
	for _, lt := range locationTags {
		value, ok := sf.Tag.Lookup(lt.key)
		if !ok {
			continue
		}
		if explicit {
			return "", true, field.NewInvalidParameterError(
				"multiple location tags for parameter %q of route %q", f.Name, routeName)
		}
		explicit = true
		f.Kind = lt.kind

		tokens := strings.Split(value, ",")
		alias = strings.TrimSpace(tokens[0])
		for _, opt := range tokens[1:] {
			opt = strings.TrimSpace(opt)
			switch {
			case opt == "explode":
				f.Explode = true
			case opt == "embed":
				f.Embed = true
			case strings.HasPrefix(opt, "style="):
				style, serr := field.ParseStyle(strings.TrimPrefix(opt, "style="))
				if serr != nil {
					return "", true, serr
				}
				f.Style = style
			case opt == "":
			default:
				return "", true, field.NewInvalidParameterError(
					"unknown binding option %q on parameter %q of route %q", opt, f.Name, routeName)
			}
		}
	}
	return alias, explicit, nil
}

// assignAlias computes the final wire alias per the resolution rules:
// path aliases always equal the parameter name, non-embedded models (body
// or query/header/cookie objects) carry no alias, and everything else
// defaults the alias to the parameter name.
func assignAlias(f *field.Field, alias string, isModel bool, routeName string) error {
	switch f.Kind {
	case field.KindPath:
		if alias != "" && alias != f.Name {
			return field.NewInvalidParameterError(
				"path parameter %q of route %q cannot use alias %q; path bindings keep the placeholder name",
				f.Name, routeName, alias)
		}
		f.Alias = f.Name
	case field.KindBody:
		if !isModel {
			// Scalar body member, addressed inside the body object.
			f.Alias = defaultAlias(alias, f.Name)
		} else if f.Embed {
			f.Alias = defaultAlias(alias, f.Name)
		} else {
			if alias != "" {
				return field.NewInvalidParameterError(
					"body parameter %q of route %q cannot use alias %q unless embedded", f.Name, routeName, alias)
			}
			f.Alias = ""
		}
	default:
		if isModel {
			// Sub-values are addressed by their own wire names.
			f.Alias = ""
		} else {
			f.Alias = defaultAlias(alias, f.Name)
		}
	}
	return nil
}

func defaultAlias(alias, name string) string {
	if alias != "" {
		return alias
	}
	return name
}

// checkBindings enforces the cross-field invariants: unique wire names per
// location and at most one body binding unless every body binding is
// embedded or scalar.
func checkBindings(fields []field.Field, routeName string) error {
	seen := make(map[field.Kind]map[string]bool)
	wholeBody := 0
	memberBody := 0

	for i := range fields {
		f := &fields[i]
		if f.Kind == field.KindBody {
			if f.IsModel() && !f.Embed {
				wholeBody++
			} else {
				memberBody++
			}
		}
		slot := seen[f.Kind]
		if slot == nil {
			slot = make(map[string]bool)
			seen[f.Kind] = slot
		}
		loc := f.Locator()
		if f.Kind == field.KindBody && f.Alias == "" {
			// The whole-body binding owns the body; it has no wire name to clash on.
			continue
		}
		if slot[loc] {
			return field.NewInvalidParameterError(
				"duplicate parameter [name=%s, in=%s] on route %q", loc, f.Kind, routeName)
		}
		slot[loc] = true
	}

	if wholeBody > 1 || (wholeBody > 0 && memberBody > 0) {
		return field.NewInvalidParameterError("multiple body parameters on route %q", routeName)
	}
	return nil
}

// checkFieldType rejects types the pipeline cannot bind.
func checkFieldType(f *field.Field, routeName string) error {
	if f.Kind == field.KindBody {
		return nil // any JSON-decodable type
	}
	t := deref(f.Type)
	if isModelType(f.Type) || t == timeType {
		return nil
	}
	if t.Kind() == reflect.Slice {
		t = deref(t.Elem())
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	case reflect.Struct:
		if t == timeType {
			return nil
		}
	}
	return field.NewInvalidParameterError(
		"unsupported type %s for %s parameter %q of route %q", f.Type, f.Kind, f.Name, routeName)
}
