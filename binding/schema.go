package binding

import (
	"reflect"
	"strings"

	"github.com/okairos/typedroutes/field"
)

// Schema is the aggregated validation definition for one handler's bindable
// parameters. It is assembled once at registration time and reused,
// unmodified, for every request.
type Schema struct {
	// Name uniquely identifies the generated model per handler, keeping
	// component names unambiguous in generated documentation.
	Name string
	// Target is the request struct type instances are materialized from.
	Target reflect.Type
	// Fields holds the resolved bindings in declaration order.
	Fields []field.Field

	byLocator map[string]*field.Field
}

// BuildSchema assembles the schema for a handler. It returns nil when there
// are no bindable fields, which lets the binder skip validation entirely for
// parameterless handlers.
func BuildSchema(name string, target reflect.Type, fields []field.Field) *Schema {
	bindable := make([]field.Field, 0, len(fields))
	for _, f := range fields {
		if f.Kind != field.KindDependency {
			bindable = append(bindable, f)
		}
	}
	if len(bindable) == 0 {
		return nil
	}

	s := &Schema{
		Name:      modelName(name),
		Target:    deref(target),
		Fields:    bindable,
		byLocator: make(map[string]*field.Field, len(bindable)),
	}
	for i := range s.Fields {
		s.byLocator[s.Fields[i].Locator()] = &s.Fields[i]
	}
	return s
}

// FieldByLocator resolves a wire name back to its field definition; used to
// remap engine error paths into request shape.
func (s *Schema) FieldByLocator(locator string) *field.Field {
	return s.byLocator[locator]
}

// ParameterFields returns the fields bound to OpenAPI parameter locations.
func (s *Schema) ParameterFields() []field.Field {
	out := make([]field.Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		switch f.Kind {
		case field.KindPath, field.KindQuery, field.KindHeader, field.KindCookie:
			out = append(out, f)
		}
	}
	return out
}

// BodyFields returns the fields bound to the JSON body.
func (s *Schema) BodyFields() []field.Field {
	out := make([]field.Field, 0, 1)
	for _, f := range s.Fields {
		if f.Kind == field.KindBody {
			out = append(out, f)
		}
	}
	return out
}

// modelName sanitizes a route name into a schema identifier, suffixed to
// avoid clashing with user-defined component names.
func modelName(name string) string {
	replacer := strings.NewReplacer(".", "_", "/", "_", ":", "", "-", "_", " ", "_")
	return replacer.Replace(name) + "_validator"
}
