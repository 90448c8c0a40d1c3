package openapi

import (
	"regexp"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Document is the root OpenAPI object produced from the registered routes.
type Document struct {
	OpenAPI    string              `json:"openapi"`
	Info       Info                `json:"info"`
	Paths      map[string]PathItem `json:"paths"`
	Components Components          `json:"components"`
}

// Info describes the documented API.
type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// PathItem maps lowercase HTTP methods to their operations.
type PathItem map[string]Operation

// Operation documents one method on one path.
type Operation struct {
	OperationID string              `json:"operationId"`
	Summary     string              `json:"summary,omitempty"`
	Description string              `json:"description,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	Deprecated  bool                `json:"deprecated,omitempty"`
	Parameters  []Parameter         `json:"parameters,omitempty"`
	RequestBody *RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]Response `json:"responses"`
}

// Parameter documents one path, query, header or cookie input. The schema
// fragment never carries a title; description, deprecation and example live
// at the parameter level.
type Parameter struct {
	Name        string         `json:"name"`
	In          string         `json:"in"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required"`
	Deprecated  bool           `json:"deprecated,omitempty"`
	Style       string         `json:"style,omitempty"`
	Explode     *bool          `json:"explode,omitempty"`
	Schema      map[string]any `json:"schema"`
	Example     string         `json:"example,omitempty"`
}

// RequestBody documents the JSON request payload.
type RequestBody struct {
	Description string               `json:"description,omitempty"`
	Required    bool                 `json:"required"`
	Content     map[string]MediaType `json:"content"`
}

// MediaType wraps a schema under a content type.
type MediaType struct {
	Schema map[string]any `json:"schema"`
}

// Response documents one response status.
type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// Components holds the shared schema definitions.
type Components struct {
	Schemas map[string]any `json:"schemas,omitempty"`
}

// JSON renders the document as JSON.
func (d *Document) JSON() ([]byte, error) {
	return gojson.MarshalIndent(d, "", "  ")
}

// YAML renders the document as YAML, going through the JSON form so the
// json tags stay the single source of field naming.
func (d *Document) YAML() ([]byte, error) {
	data, err := gojson.Marshal(d)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := gojson.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return yaml.Marshal(tree)
}

// validationErrorComponents is the fixed component pair referenced by every
// validated operation's error response.
func validationErrorComponents() map[string]any {
	return map[string]any{
		"ValidationError": map[string]any{
			"type":  "object",
			"title": "ValidationError",
			"properties": map[string]any{
				"loc": map[string]any{
					"type":  "array",
					"title": "Location",
					"items": map[string]any{
						"anyOf": []any{
							map[string]any{"type": "string"},
							map[string]any{"type": "integer"},
						},
					},
				},
				"msg":  map[string]any{"type": "string", "title": "Message"},
				"type": map[string]any{"type": "string", "title": "Error Type"},
			},
			"required": []any{"loc", "msg", "type"},
		},
		"HTTPValidationError": map[string]any{
			"type":  "object",
			"title": "HTTPValidationError",
			"properties": map[string]any{
				"errors": map[string]any{
					"type":  "array",
					"title": "Errors",
					"items": map[string]any{"$ref": "#/components/schemas/ValidationError"},
				},
			},
		},
	}
}

// echo route placeholders: ":name" segments.
var pathParamPattern = regexp.MustCompile(`:([^/]+)`)

// TemplatePath converts an Echo route rule into OpenAPI path-template form,
// ":id" becoming "{id}".
func TemplatePath(rule string) string {
	return pathParamPattern.ReplaceAllString(rule, `{$1}`)
}
