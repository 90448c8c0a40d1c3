package field

import (
	"reflect"
	"strings"
	"unicode"
)

// SnakeCase converts a Go identifier to its snake_case wire form, keeping
// acronym runs intact (ProductID -> product_id, HTTPStatus -> http_status).
func SnakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || (unicode.IsUpper(runes[i-1]) && nextLower)) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WireName returns the wire-visible name of a nested-model member: the json
// tag when present, otherwise the snake_cased Go field name.
func WireName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag != "" {
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return SnakeCase(sf.Name)
}
