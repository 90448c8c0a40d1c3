package field

import (
	"reflect"
	"strings"
)

// Value extracts the raw, uncoerced value for this field from the live
// request. The second return is false when the field's locator is absent
// from its source; downstream schema validation then applies defaults and
// required checks. The shape of the first return depends on the binding:
// string for primitives, []string for arrays, map[string]any for objects,
// and a raw JSON message for body fields.
func (f *Field) Value(ctx RequestContext) (any, bool) {
	switch f.Kind {
	case KindBody:
		return f.bodyValue(ctx)
	case KindDependency:
		return nil, false
	}

	if f.IsModel() {
		if f.Style == StyleSimple {
			return f.pairValue(ctx)
		}
		return f.collectValue(ctx)
	}
	if f.IsArray() {
		return f.arrayValue(ctx)
	}
	values, ok := f.raw(ctx)
	if !ok {
		return nil, false
	}
	return values[0], true
}

// bodyValue returns the whole parsed body for a non-embedded body field, or
// the named top-level member for embedded and scalar body fields.
func (f *Field) bodyValue(ctx RequestContext) (any, bool) {
	if f.Alias == "" && !f.Embed {
		return ctx.Body()
	}
	return ctx.BodyMember(f.Locator())
}

// arrayValue gathers repeated occurrences when exploded, or splits the
// single raw value on the style's delimiter when not.
func (f *Field) arrayValue(ctx RequestContext) ([]string, bool) {
	values, ok := f.raw(ctx)
	if !ok {
		return nil, false
	}
	if f.Explode {
		return copyTokens(values), true
	}
	return splitTokens(values[0], f.Separator()), true
}

// pairValue parses a simple-style object from its single raw value. Without
// explode the pairs are "key=value" tokens; with explode, keys and values
// alternate on the style delimiter. Incomplete pairs yield an empty string
// and the last occurrence of a duplicate key wins.
func (f *Field) pairValue(ctx RequestContext) (map[string]any, bool) {
	values, ok := f.raw(ctx)
	if !ok {
		return nil, false
	}
	out := make(map[string]any)
	tokens := splitTokens(values[0], f.Separator())
	if f.Explode {
		for i := 0; i < len(tokens); i += 2 {
			if i+1 < len(tokens) {
				out[tokens[i]] = tokens[i+1]
			} else {
				out[tokens[i]] = ""
			}
		}
		return out, true
	}
	for _, token := range tokens {
		key, val, _ := strings.Cut(token, "=")
		out[key] = val
	}
	return out, true
}

// collectValue walks the nested model's own members and gathers the raw
// value of each one that is present in the source, keyed by the member's
// wire name. Absent members are omitted, not defaulted; the validation
// engine decides required-ness afterwards.
func (f *Field) collectValue(ctx RequestContext) (map[string]any, bool) {
	t := deref(f.Type)
	out := make(map[string]any)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := WireName(sf)
		if name == "" {
			continue
		}
		if isArrayType(sf.Type) {
			values := f.lookup(ctx, name)
			if len(values) == 0 {
				continue
			}
			if f.Explode {
				out[name] = copyTokens(values)
			} else {
				out[name] = splitTokens(values[0], f.Separator())
			}
		} else if values := f.lookup(ctx, name); len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out, true
}

// raw returns every occurrence of the field's locator in its source.
// A present-but-empty value is a real occurrence; only a missing key
// reports false.
func (f *Field) raw(ctx RequestContext) ([]string, bool) {
	if f.Kind == KindPath {
		v, ok := ctx.PathParam(f.Locator())
		if !ok {
			return nil, false
		}
		return []string{v}, true
	}
	values := f.lookup(ctx, f.Locator())
	return values, len(values) > 0
}

func (f *Field) lookup(ctx RequestContext, name string) []string {
	switch f.Kind {
	case KindQuery:
		return ctx.QueryValues(name)
	case KindHeader:
		return ctx.HeaderValues(name)
	case KindCookie:
		return ctx.CookieValues(name)
	case KindPath:
		if v, ok := ctx.PathParam(name); ok {
			return []string{v}
		}
	}
	return nil
}

// splitTokens splits a delimited raw value, trimming whitespace and
// dropping empty tokens. An empty raw value yields an empty, non-nil list.
func splitTokens(raw, sep string) []string {
	tokens := make([]string, 0, 4)
	for _, tok := range strings.Split(raw, sep) {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func copyTokens(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// ModelMembers enumerates the wire names and types of a nested model's
// exported members in declaration order. The projector uses it to expand a
// model-typed parameter into one OpenAPI parameter per member.
func ModelMembers(t reflect.Type) []ModelMember {
	t = deref(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	members := make([]ModelMember, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := WireName(sf)
		if name == "" {
			continue
		}
		validate := sf.Tag.Get("validate")
		members = append(members, ModelMember{
			Name:        name,
			Type:        sf.Type,
			ValidateTag: validate,
			Description: sf.Tag.Get("doc"),
			Required:    sf.Type.Kind() != reflect.Pointer || hasRequiredRule(validate),
		})
	}
	return members
}

func hasRequiredRule(validate string) bool {
	for _, rule := range strings.Split(validate, ",") {
		if strings.TrimSpace(rule) == "required" {
			return true
		}
	}
	return false
}

// ModelMember is one wire-visible member of a nested model.
type ModelMember struct {
	Name        string
	Type        reflect.Type
	ValidateTag string
	Description string
	Required    bool
}
