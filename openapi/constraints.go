// Package openapi projects registered routes and their resolved parameter
// bindings into an OpenAPI 3.1 document, mirroring the binder's location,
// alias and embedding rules exactly.
package openapi

import (
	"reflect"
	"strconv"
	"strings"
	"time"
)

// applyConstraints merges validation-rule constraints into a schema
// fragment. Rules that do not translate (or fail to parse) are skipped;
// documentation generation must never reject a route the binder accepted.
func applyConstraints(schema map[string]any, t reflect.Type, validateTag string) {
	if validateTag == "" {
		return
	}
	base := deref(t)
	if base.Kind() == reflect.Slice {
		// Array constraints target item count; item rules would need dive
		// handling, which the binder does not use either.
		applyArrayConstraints(schema, validateTag)
		return
	}
	for _, rule := range strings.Split(validateTag, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(rule), "=")
		switch key {
		case "", "required", "omitempty", "dive":
			continue
		}
		if c := formatConstraint(key); c != nil {
			mergeConstraints(schema, c)
			continue
		}
		if c := boundConstraint(key, value, base); c != nil {
			mergeConstraints(schema, c)
			continue
		}
		if c := enumConstraint(key, value, base); c != nil {
			mergeConstraints(schema, c)
			continue
		}
		if key == "regexp" && value != "" {
			schema["pattern"] = value
		}
	}
}

func applyArrayConstraints(schema map[string]any, validateTag string) {
	for _, rule := range strings.Split(validateTag, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(rule), "=")
		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		switch key {
		case "min":
			schema["minItems"] = n
		case "max":
			schema["maxItems"] = n
		case "len":
			schema["minItems"] = n
			schema["maxItems"] = n
		}
	}
}

func mergeConstraints(schema map[string]any, c map[string]any) {
	for k, v := range c {
		schema[k] = v
	}
}

// formatConstraint maps format-style rules to the OpenAPI format keyword.
func formatConstraint(key string) map[string]any {
	formats := map[string]string{
		"email":    "email",
		"url":      "uri",
		"uri":      "uri",
		"uuid":     "uuid",
		"uuid4":    "uuid",
		"datetime": "date-time",
		"ip":       "ip",
		"ipv4":     "ipv4",
		"ipv6":     "ipv6",
		"hostname": "hostname",
	}
	if format, ok := formats[key]; ok {
		return map[string]any{"format": format}
	}
	return nil
}

// boundConstraint maps min/max/len and the numeric comparisons to length or
// range keywords depending on the base type.
func boundConstraint(key, value string, base reflect.Type) map[string]any {
	isString := base.Kind() == reflect.String
	switch key {
	case "min":
		if isString {
			if n, err := strconv.Atoi(value); err == nil {
				return map[string]any{"minLength": n}
			}
			return nil
		}
		if n, err := parseNumeric(value); err == nil {
			return map[string]any{"minimum": n}
		}
	case "max":
		if isString {
			if n, err := strconv.Atoi(value); err == nil {
				return map[string]any{"maxLength": n}
			}
			return nil
		}
		if n, err := parseNumeric(value); err == nil {
			return map[string]any{"maximum": n}
		}
	case "len":
		if isString {
			if n, err := strconv.Atoi(value); err == nil {
				return map[string]any{"minLength": n, "maxLength": n}
			}
		}
	case "gt":
		if n, err := parseNumeric(value); err == nil {
			return map[string]any{"exclusiveMinimum": n}
		}
	case "gte":
		if n, err := parseNumeric(value); err == nil {
			return map[string]any{"minimum": n}
		}
	case "lt":
		if n, err := parseNumeric(value); err == nil {
			return map[string]any{"exclusiveMaximum": n}
		}
	case "lte":
		if n, err := parseNumeric(value); err == nil {
			return map[string]any{"maximum": n}
		}
	}
	return nil
}

// enumConstraint maps oneof rules to an enum array, parsing members as
// numbers for numeric base types.
func enumConstraint(key, value string, base reflect.Type) map[string]any {
	if key != "oneof" {
		return nil
	}
	members := strings.Fields(value)
	if len(members) == 0 {
		return nil
	}
	enum := make([]any, len(members))
	numeric := isNumericKind(base.Kind())
	for i, m := range members {
		if numeric {
			if n, err := parseNumeric(m); err == nil {
				enum[i] = n
				continue
			}
		}
		enum[i] = m
	}
	return map[string]any{"enum": enum}
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func parseNumeric(value string) (any, error) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, nil
	}
	return strconv.ParseFloat(value, 64)
}

var timeType = reflect.TypeOf(time.Time{})

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// typeSchema builds the base schema fragment for a declared Go type.
func typeSchema(t reflect.Type) map[string]any {
	base := deref(t)
	if base == nil {
		return map[string]any{}
	}
	if base == timeType {
		return map[string]any{"type": "string", "format": "date-time"}
	}
	switch base.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Slice:
		if base.Elem().Kind() == reflect.Uint8 {
			return map[string]any{"type": "string", "format": "byte"}
		}
		return map[string]any{"type": "array", "items": typeSchema(base.Elem())}
	default:
		return map[string]any{"type": "object"}
	}
}
