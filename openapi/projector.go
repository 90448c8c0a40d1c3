package openapi

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/swaggest/jsonschema-go"

	"github.com/okairos/typedroutes/binding"
	"github.com/okairos/typedroutes/field"
)

// Route is the registration-time record the projector reads: the rule, the
// resolved schema, and any per-route documentation overrides.
type Route struct {
	Method      string
	Rule        string // Echo route syntax, ":param" placeholders
	Name        string
	Schema      *binding.Schema
	Validated   bool
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	StatusCode  int // success status; zero means 200
	Responses   map[string]Response
}

// Projector derives the OpenAPI document from registered routes. Body
// models are reflected into named component schemas; parameter fields are
// expanded with the same location, alias and embedding rules the binder
// applies at request time.
type Projector struct {
	info        Info
	errorStatus int
	reflector   jsonschema.Reflector
	schemas     map[string]any
}

// NewProjector creates a projector emitting the given info block and
// referencing HTTPValidationError under the given error status.
func NewProjector(info Info, errorStatus int) *Projector {
	return &Projector{
		info:        info,
		errorStatus: errorStatus,
		schemas:     validationErrorComponents(),
	}
}

// Document projects every route into one OpenAPI document. A duplicate
// parameter within one location bucket is a hard error: registration-time
// mistakes must fail generation, not silently overwrite documentation.
func (p *Projector) Document(routes []Route) (*Document, error) {
	paths := make(map[string]PathItem)
	for _, r := range routes {
		op, err := p.operation(r)
		if err != nil {
			return nil, err
		}
		template := TemplatePath(r.Rule)
		item := paths[template]
		if item == nil {
			item = make(PathItem)
			paths[template] = item
		}
		item[strings.ToLower(r.Method)] = op
	}
	return &Document{
		OpenAPI:    "3.1.0",
		Info:       p.info,
		Paths:      paths,
		Components: Components{Schemas: p.schemas},
	}, nil
}

func (p *Projector) operation(r Route) (Operation, error) {
	op := Operation{
		OperationID: operationID(r),
		Summary:     r.Summary,
		Description: r.Description,
		Tags:        r.Tags,
		Deprecated:  r.Deprecated,
		Responses:   p.responses(r),
	}
	if op.Summary == "" {
		op.Summary = humanize(r.Name)
	}
	if r.Schema != nil {
		params, err := p.parameters(r)
		if err != nil {
			return op, err
		}
		op.Parameters = params

		body, err := p.requestBody(r)
		if err != nil {
			return op, err
		}
		op.RequestBody = body
	}
	return op, nil
}

// parameters expands every path/query/header/cookie field into OpenAPI
// parameters. A model-typed field contributes one parameter per member of
// the model, named and required per the member itself.
func (p *Projector) parameters(r Route) ([]Parameter, error) {
	var params []Parameter
	seen := make(map[field.Kind]map[string]bool)

	add := func(kind field.Kind, param Parameter) error {
		slot := seen[kind]
		if slot == nil {
			slot = make(map[string]bool)
			seen[kind] = slot
		}
		if slot[param.Name] {
			return field.NewInvalidParameterError(
				"duplicate parameter [name=%s, in=%s] on route %q", param.Name, kind, r.Name)
		}
		slot[param.Name] = true
		params = append(params, param)
		return nil
	}

	for _, f := range r.Schema.ParameterFields() {
		if f.IsModel() {
			for _, m := range field.ModelMembers(f.Type) {
				schema := typeSchema(m.Type)
				applyConstraints(schema, m.Type, m.ValidateTag)
				err := add(f.Kind, Parameter{
					Name:        m.Name,
					In:          string(f.Kind),
					Description: m.Description,
					Required:    m.Required,
					Schema:      schema,
				})
				if err != nil {
					return nil, err
				}
			}
			continue
		}

		schema := typeSchema(f.Type)
		applyConstraints(schema, f.Type, f.ValidateTag)
		if f.HasDefault {
			schema["default"] = typedDefault(f.Type, f.Default)
		}
		param := Parameter{
			Name:        f.Locator(),
			In:          string(f.Kind),
			Description: f.Description,
			Required:    f.IsRequired(),
			Deprecated:  f.Deprecated,
			Schema:      schema,
			Example:     f.Example,
		}
		if f.IsArray() {
			param.Style = string(f.Style)
			explode := f.Explode
			param.Explode = &explode
		}
		if err := add(f.Kind, param); err != nil {
			return nil, err
		}
	}
	return params, nil
}

// requestBody combines the body fields: a single non-embedded model takes
// the whole body by reference; embedded models and scalars merge into a
// synthetic object schema. The resolver already rejects mixing the two.
func (p *Projector) requestBody(r Route) (*RequestBody, error) {
	fields := r.Schema.BodyFields()
	if len(fields) == 0 {
		return nil, nil
	}

	properties := make(map[string]any)
	var required []any
	for i := range fields {
		f := &fields[i]
		if f.IsModel() && !f.Embed {
			// Whole-body reference.
			ref, err := p.modelRef(f.Type)
			if err != nil {
				return nil, err
			}
			return &RequestBody{
				Description: "Request Body",
				Required:    f.IsRequired(),
				Content:     map[string]MediaType{"application/json": {Schema: ref}},
			}, nil
		}

		var schema map[string]any
		if f.IsModel() {
			ref, err := p.modelRef(f.Type)
			if err != nil {
				return nil, err
			}
			schema = ref
		} else {
			schema = typeSchema(f.Type)
			applyConstraints(schema, f.Type, f.ValidateTag)
			if f.Description != "" {
				schema["description"] = f.Description
			}
		}
		properties[f.Locator()] = schema
		if f.IsRequired() {
			required = append(required, f.Locator())
		}
	}

	body := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		body["required"] = required
	}
	return &RequestBody{
		Description: "Request Body",
		Required:    true,
		Content:     map[string]MediaType{"application/json": {Schema: body}},
	}, nil
}

func (p *Projector) responses(r Route) map[string]Response {
	out := make(map[string]Response, 2+len(r.Responses))
	status := r.StatusCode
	if status == 0 {
		status = 200
	}
	out[strconv.Itoa(status)] = Response{Description: "Successful Response"}

	if r.Validated && r.Schema != nil {
		out[strconv.Itoa(p.errorStatus)] = Response{
			Description: "Validation Error",
			Content: map[string]MediaType{
				"application/json": {
					Schema: map[string]any{"$ref": "#/components/schemas/HTTPValidationError"},
				},
			},
		}
	}
	for status, resp := range r.Responses {
		out[status] = resp
	}
	return out
}

// modelRef reflects a body model into a named component schema and returns
// the $ref fragment pointing at it. Definitions accumulate on the projector
// across routes so shared models are emitted once.
func (p *Projector) modelRef(t reflect.Type) (map[string]any, error) {
	t = deref(t)
	value := reflect.New(t).Elem().Interface()
	schema, err := p.reflector.Reflect(value,
		jsonschema.RootRef,
		jsonschema.DefinitionsPrefix("#/components/schemas/"),
		jsonschema.CollectDefinitions(func(name string, s jsonschema.Schema) {
			frag, merr := schemaToMap(s)
			if merr == nil {
				p.schemas[name] = frag
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reflect body model %s: %w", t, err)
	}
	return schemaToMap(schema)
}

func schemaToMap(s jsonschema.Schema) (map[string]any, error) {
	data, err := gojson.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := gojson.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// typedDefault coerces the declared default into its natural JSON type so
// documentation shows 5, not "5", for an integer parameter.
func typedDefault(t reflect.Type, raw string) any {
	switch deref(t).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	case reflect.Float32, reflect.Float64:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	case reflect.Bool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}

// operationID builds the method-qualified default operation id.
func operationID(r Route) string {
	name := field.SnakeCase(r.Name)
	return strings.ToLower(r.Method) + "_" + strings.ReplaceAll(name, ".", "_")
}

// humanize turns a handler name into a readable summary: "get_product"
// becomes "Get product".
func humanize(name string) string {
	name = strings.ReplaceAll(field.SnakeCase(name), "_", " ")
	name = strings.ReplaceAll(name, ".", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
